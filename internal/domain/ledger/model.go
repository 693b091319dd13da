// Package ledger classifies business events into debit, credit and cost
// amounts and appends them to the transaction log.
//
// The log is a single-row-per-event model: every sale, purchase, adjustment,
// manual entry and supplier payment produces exactly one Entry. Entries are
// never updated; they are removed only together with the sale or purchase
// they reference.
package ledger

import (
	"context"
	"time"

	"posledger/internal/core/id"
	"posledger/internal/core/types"
)

// EventType is the kind of business event an entry explains.
type EventType string

const (
	EventSale            EventType = "sale"
	EventPurchase        EventType = "purchase"
	EventAdjustment      EventType = "adjustment"
	EventManual          EventType = "manual"
	EventSupplierPayment EventType = "supplier_payment"
)

// ReferenceType names the table an entry's ReferenceID points into.
type ReferenceType string

const (
	RefSale     ReferenceType = "sale"
	RefPurchase ReferenceType = "purchase"
	RefSupplier ReferenceType = "supplier"
	RefManual   ReferenceType = "manual"
)

// Status labels written on adjustment and payment rows.
const (
	StatusAdjustment = "Adjustment"
	StatusPayment    = "Payment"
	StatusManual     = "Manual"
)

// Entry is one immutable row of the transaction log.
type Entry struct {
	ID              id.ID         `db:"id" json:"id"`
	DeviceID        string        `db:"device_id" json:"device_id"`
	TransactionDate time.Time     `db:"transaction_date" json:"transaction_date"`
	EventType       EventType     `db:"event_type" json:"event_type"`
	ReferenceType   ReferenceType `db:"reference_type" json:"reference_type"`
	ReferenceID     *id.ID        `db:"reference_id" json:"reference_id,omitempty"`
	CounterpartyID  *id.ID        `db:"counterparty_id" json:"counterparty_id,omitempty"`

	// Amount is the face value of the underlying bill.
	Amount         types.Money `db:"amount" json:"amount"`
	ReceivedAmount types.Money `db:"received_amount" json:"received_amount"`
	CostAmount     types.Money `db:"cost_amount" json:"cost_amount"`
	// PriorCostAmount is the COGS the referenced sale carried before an adjustment.
	PriorCostAmount types.Money `db:"prior_cost_amount" json:"prior_cost_amount"`
	DebitAmount     types.Money `db:"debit_amount" json:"debit_amount"`
	CreditAmount    types.Money `db:"credit_amount" json:"credit_amount"`

	Status        string    `db:"status" json:"status"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	Description   string    `db:"description" json:"description"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// IsNoop is true for a row that moves no money and no cost.
func (e *Entry) IsNoop() bool {
	return e.DebitAmount.IsZero() && e.CreditAmount.IsZero() && e.CostAmount.IsZero()
}

// Repository persists ledger entries.
type Repository interface {
	// Insert appends an entry. Re-inserting an existing id is a no-op.
	Insert(ctx context.Context, e *Entry) error

	// DeleteByReference removes every entry explaining the given sale or purchase.
	DeleteByReference(ctx context.Context, deviceID string, refType ReferenceType, refID id.ID) (int64, error)

	// ListByReference returns entries for one sale or purchase, oldest first.
	ListByReference(ctx context.Context, deviceID string, refType ReferenceType, refID id.ID) ([]Entry, error)
}

// Outbox receives entries that must leave the current transaction:
// deferred writes that failed in-line, and notifications of recorded rows.
type Outbox interface {
	DeferEntry(ctx context.Context, e *Entry, cause error) error
	EntryRecorded(ctx context.Context, e *Entry) error
}
