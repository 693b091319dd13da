// Package sales orchestrates the sale lifecycle: create, edit and delete,
// each as one unit of work covering items, stock and ledger.
package sales

import (
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
	"posledger/internal/domain/inventory"
	"posledger/internal/domain/ledger"
)

// Sale is a sale to a customer.
type Sale struct {
	entity.Bill
	CustomerID *id.ID            `db:"customer_id" json:"customer_id,omitempty"`
	SaleDate   time.Time         `db:"sale_date" json:"sale_date"`
	Discount   types.Money       `db:"discount" json:"discount"`
	Status     entity.SaleStatus `db:"status" json:"status"`
	Items      []entity.Item     `db:"-" json:"items"`
}

// Validate checks the sale before anything is written.
func (s *Sale) Validate() error {
	if err := s.ValidateAmounts(); err != nil {
		return err
	}
	if !s.Status.Valid() {
		return apperror.NewValidation("unknown sale status").WithDetail("status", s.Status)
	}
	if s.Discount.IsNegative() {
		return apperror.NewValidation("discount must not be negative").WithDetail("field", "discount")
	}
	return entity.ValidateItems(s.Items)
}

// AppliesStock reports whether this sale's items are currently deducted from stock.
func (s *Sale) AppliesStock() bool {
	return s.Status.AppliesStock(s.Delivered)
}

// Snapshot captures the money state used by adjustments.
func (s *Sale) Snapshot(cogs types.Money) ledger.SaleSnapshot {
	return ledger.SaleSnapshot{
		TotalAmount:    s.TotalAmount,
		ReceivedAmount: s.ReceivedAmount,
		Discount:       s.Discount,
		COGS:           cogs,
		Status:         s.Status,
	}
}

func (s *Sale) lines() []inventory.Line {
	out := make([]inventory.Line, len(s.Items))
	for i, it := range s.Items {
		out[i] = inventory.Line{ItemID: it.ItemID, Quantity: it.Quantity}
	}
	return out
}

// CreateCommand is the input for a new sale.
type CreateCommand struct {
	CustomerID     *id.ID
	SaleDate       time.Time
	TotalAmount    types.Money
	ReceivedAmount types.Money
	Discount       types.Money
	Status         entity.SaleStatus
	Delivered      bool
	PaymentMethod  string
	Notes          string
	Items          []entity.Item
}

// UpdateCommand replaces a sale's editable state. Items is the full new list.
type UpdateCommand struct {
	ID id.ID
	CreateCommand
}

// UpdateResult reports what an edit did.
type UpdateResult struct {
	Sale         *Sale                  `json:"sale"`
	StockDeltas  []inventory.StockDelta `json:"stock_deltas"`
	AdjustmentID *id.ID                 `json:"adjustment_id,omitempty"`
	// NoChanges is set when the edit moved neither money nor cost.
	NoChanges bool `json:"no_changes"`
}
