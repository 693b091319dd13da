// Package purchases orchestrates the purchase lifecycle and settles supplier
// debt with payments allocated oldest-first.
package purchases

import (
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
	"posledger/internal/domain/inventory"
	"posledger/internal/domain/ledger"
)

// Purchase is a purchase from a supplier.
type Purchase struct {
	entity.Bill
	SupplierID   id.ID                 `db:"supplier_id" json:"supplier_id"`
	PurchaseDate time.Time             `db:"purchase_date" json:"purchase_date"`
	Status       entity.PurchaseStatus `db:"status" json:"status"`
	Items        []entity.Item         `db:"-" json:"items"`
}

// Validate checks the purchase before anything is written.
func (p *Purchase) Validate() error {
	if err := p.ValidateAmounts(); err != nil {
		return err
	}
	if id.IsNil(p.SupplierID) {
		return apperror.NewMissingField("supplier_id")
	}
	if !p.Status.Valid() {
		return apperror.NewValidation("unknown purchase status").WithDetail("status", p.Status)
	}
	return entity.ValidateItems(p.Items)
}

// AppliesStock reports whether this purchase's goods are currently on the shelf.
func (p *Purchase) AppliesStock() bool {
	return p.Status.AppliesStock(p.Delivered)
}

// Snapshot captures the money state used by adjustments.
func (p *Purchase) Snapshot() ledger.PurchaseSnapshot {
	return ledger.PurchaseSnapshot{
		TotalAmount:    p.TotalAmount,
		ReceivedAmount: p.ReceivedAmount,
		Status:         p.Status,
	}
}

func (p *Purchase) lines() []inventory.Line {
	out := make([]inventory.Line, len(p.Items))
	for i, it := range p.Items {
		out[i] = inventory.Line{ItemID: it.ItemID, Quantity: it.Quantity}
	}
	return out
}

// CreateCommand is the input for a new purchase.
type CreateCommand struct {
	SupplierID     id.ID
	PurchaseDate   time.Time
	TotalAmount    types.Money
	ReceivedAmount types.Money
	Status         entity.PurchaseStatus
	Delivered      bool
	PaymentMethod  string
	Notes          string
	Items          []entity.Item
}

// UpdateCommand replaces a purchase's editable state. Items is the full new list.
type UpdateCommand struct {
	ID id.ID
	CreateCommand
}

// UpdateResult reports what an edit did.
type UpdateResult struct {
	Purchase     *Purchase              `json:"purchase"`
	StockDeltas  []inventory.StockDelta `json:"stock_deltas"`
	AdjustmentID *id.ID                 `json:"adjustment_id,omitempty"`
	NoChanges    bool                   `json:"no_changes"`
}

// Outstanding is an open credit purchase as seen by the allocator.
type Outstanding struct {
	ID             id.ID                 `db:"id"`
	PurchaseDate   time.Time             `db:"purchase_date"`
	TotalAmount    types.Money           `db:"total_amount"`
	ReceivedAmount types.Money           `db:"received_amount"`
	Status         entity.PurchaseStatus `db:"status"`
}

// Balance is what is still owed on the purchase.
func (o Outstanding) Balance() types.Money {
	return o.TotalAmount.Sub(o.ReceivedAmount)
}

// PaymentCommand is one payment to a supplier.
type PaymentCommand struct {
	SupplierID    id.ID
	Amount        types.Money
	PaymentMethod string
	PaymentDate   time.Time
	Notes         string
}

// Allocation is the part of a payment applied to one purchase.
type Allocation struct {
	PurchaseID       id.ID                 `json:"purchase_id"`
	AllocatedAmount  types.Money           `json:"allocated_amount"`
	ResultingStatus  entity.PurchaseStatus `json:"resulting_status"`
	RemainingBalance types.Money           `json:"remaining_balance"`
}

// PaymentResult reports how a payment was spread.
type PaymentResult struct {
	Allocations    []Allocation `json:"allocations"`
	LedgerEntryID  id.ID        `json:"ledger_entry_id"`
	TotalAllocated types.Money  `json:"total_allocated"`
}
