package ledger

import (
	"fmt"
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
	"posledger/internal/core/validation"
)

// SaleEvent describes a sale as it should appear in the ledger.
type SaleEvent struct {
	SaleID          id.ID             `json:"sale_id" validate:"required"`
	DeviceID        string            `json:"device_id" validate:"required"`
	UserID          string            `json:"user_id" validate:"required"`
	CustomerID      *id.ID            `json:"customer_id"`
	Status          entity.SaleStatus `json:"status" validate:"required"`
	TotalAmount     types.Money       `json:"total_amount"`
	ReceivedAmount  types.Money       `json:"received_amount"`
	COGSAmount      types.Money       `json:"cogs_amount"`
	PaymentMethod   string            `json:"payment_method"`
	TransactionDate time.Time         `json:"transaction_date"`
	Description     string            `json:"description"`
}

// Validate checks required fields, amount signs and that no more was
// received than billed.
func (e SaleEvent) Validate() error {
	if err := validation.Struct(e); err != nil {
		return err
	}
	if !e.Status.Valid() {
		return apperror.NewValidation("unknown sale status").WithDetail("status", e.Status)
	}
	if err := nonNegative(
		field{"total_amount", e.TotalAmount},
		field{"received_amount", e.ReceivedAmount},
		field{"cogs_amount", e.COGSAmount},
	); err != nil {
		return err
	}
	return receivedWithinTotal(e.ReceivedAmount, e.TotalAmount)
}

// NewSaleEntry classifies a sale:
//
//	Cancelled  debit = received, cost = 0
//	Credit     credit = received, cost = cogs
//	Completed  credit = received - cogs, cost = cogs
//
// A row is produced even when every amount is zero so later adjustments
// and deletions always find it.
func NewSaleEntry(e SaleEvent) *Entry {
	entry := baseEntry(e.DeviceID, e.UserID, e.TransactionDate)
	entry.EventType = EventSale
	entry.ReferenceType = RefSale
	entry.ReferenceID = ptr(e.SaleID)
	entry.CounterpartyID = e.CustomerID
	entry.Amount = e.TotalAmount
	entry.ReceivedAmount = e.ReceivedAmount
	entry.Status = string(e.Status)
	entry.PaymentMethod = e.PaymentMethod
	entry.Description = describe(e.Description, "Sale", e.SaleID)

	switch e.Status {
	case entity.SaleCancelled:
		entry.DebitAmount = e.ReceivedAmount
	case entity.SaleCredit:
		entry.CreditAmount = e.ReceivedAmount
		entry.CostAmount = e.COGSAmount
	default:
		entry.CreditAmount = e.ReceivedAmount.Sub(e.COGSAmount)
		entry.CostAmount = e.COGSAmount
	}
	return entry
}

// PurchaseEvent describes a purchase as it should appear in the ledger.
type PurchaseEvent struct {
	PurchaseID      id.ID                 `json:"purchase_id" validate:"required"`
	DeviceID        string                `json:"device_id" validate:"required"`
	UserID          string                `json:"user_id" validate:"required"`
	SupplierID      *id.ID                `json:"supplier_id"`
	Status          entity.PurchaseStatus `json:"status" validate:"required"`
	TotalAmount     types.Money           `json:"total_amount"`
	ReceivedAmount  types.Money           `json:"received_amount"`
	PaymentMethod   string                `json:"payment_method"`
	TransactionDate time.Time             `json:"transaction_date"`
	Description     string                `json:"description"`
}

// Validate checks required fields and amount signs.
func (e PurchaseEvent) Validate() error {
	if err := validation.Struct(e); err != nil {
		return err
	}
	if err := nonNegative(
		field{"total_amount", e.TotalAmount},
		field{"received_amount", e.ReceivedAmount},
	); err != nil {
		return err
	}
	return receivedWithinTotal(e.ReceivedAmount, e.TotalAmount)
}

// NewPurchaseEntry records money paid out. Purchases never carry COGS.
func NewPurchaseEntry(e PurchaseEvent) *Entry {
	entry := baseEntry(e.DeviceID, e.UserID, e.TransactionDate)
	entry.EventType = EventPurchase
	entry.ReferenceType = RefPurchase
	entry.ReferenceID = ptr(e.PurchaseID)
	entry.CounterpartyID = e.SupplierID
	entry.Amount = e.TotalAmount
	entry.ReceivedAmount = e.ReceivedAmount
	entry.DebitAmount = e.ReceivedAmount
	entry.Status = string(e.Status)
	entry.PaymentMethod = e.PaymentMethod
	entry.Description = describe(e.Description, "Purchase", e.PurchaseID)
	return entry
}

// SupplierPaymentEvent is one payment to a supplier, however many purchases it settles.
type SupplierPaymentEvent struct {
	SupplierID      id.ID       `json:"supplier_id" validate:"required"`
	DeviceID        string      `json:"device_id" validate:"required"`
	UserID          string      `json:"user_id" validate:"required"`
	Amount          types.Money `json:"amount"`
	PaymentMethod   string      `json:"payment_method"`
	TransactionDate time.Time   `json:"transaction_date"`
	Description     string      `json:"description"`
}

// NewSupplierPaymentEntry debits the whole payment amount.
func NewSupplierPaymentEntry(e SupplierPaymentEvent) *Entry {
	entry := baseEntry(e.DeviceID, e.UserID, e.TransactionDate)
	entry.EventType = EventSupplierPayment
	entry.ReferenceType = RefSupplier
	entry.ReferenceID = ptr(e.SupplierID)
	entry.CounterpartyID = ptr(e.SupplierID)
	entry.Amount = e.Amount
	entry.ReceivedAmount = e.Amount
	entry.DebitAmount = e.Amount
	entry.Status = StatusPayment
	entry.PaymentMethod = e.PaymentMethod
	entry.Description = e.Description
	if entry.Description == "" {
		entry.Description = fmt.Sprintf("Payment to supplier %s", short(e.SupplierID))
	}
	return entry
}

// ManualType says which side a manual entry goes to.
type ManualType string

const (
	ManualDebit  ManualType = "debit"
	ManualCredit ManualType = "credit"
)

// ManualEvent is a bookkeeping entry typed in by a user.
type ManualEvent struct {
	DeviceID        string      `json:"device_id" validate:"required"`
	UserID          string      `json:"user_id" validate:"required"`
	Type            ManualType  `json:"type" validate:"required,oneof=debit credit"`
	Amount          types.Money `json:"amount"`
	ReferenceID     *id.ID      `json:"reference_id"`
	PaymentMethod   string      `json:"payment_method"`
	TransactionDate time.Time   `json:"transaction_date"`
	Description     string      `json:"description"`
}

// Validate checks required fields and amount sign.
func (e ManualEvent) Validate() error {
	if err := validation.Struct(e); err != nil {
		return err
	}
	return nonNegative(field{"amount", e.Amount})
}

// NewManualEntry puts the amount on the debit or credit side.
func NewManualEntry(e ManualEvent) *Entry {
	entry := baseEntry(e.DeviceID, e.UserID, e.TransactionDate)
	entry.EventType = EventManual
	entry.ReferenceType = RefManual
	entry.ReferenceID = e.ReferenceID
	entry.Amount = e.Amount
	entry.Status = StatusManual
	entry.PaymentMethod = e.PaymentMethod
	entry.Description = e.Description

	switch e.Type {
	case ManualDebit:
		entry.DebitAmount = e.Amount
	case ManualCredit:
		entry.CreditAmount = e.Amount
		entry.ReceivedAmount = e.Amount
	}
	return entry
}

func baseEntry(deviceID, userID string, date time.Time) *Entry {
	now := time.Now().UTC()
	if date.IsZero() {
		date = now
	}
	return &Entry{
		ID:              id.New(),
		DeviceID:        deviceID,
		TransactionDate: date,
		CreatedBy:       userID,
		CreatedAt:       now,
	}
}

type field struct {
	name  string
	value types.Money
}

func receivedWithinTotal(received, total types.Money) error {
	if received.GreaterThan(total) {
		return apperror.NewReceivedExceedsTotal(received.StringFixed(2), total.StringFixed(2))
	}
	return nil
}

func nonNegative(fields ...field) error {
	for _, f := range fields {
		if f.value.IsNegative() {
			return apperror.NewValidation(f.name+" must not be negative").WithDetail("field", f.name)
		}
	}
	return nil
}

func describe(given, kind string, ref id.ID) string {
	if given != "" {
		return given
	}
	return fmt.Sprintf("%s %s", kind, short(ref))
}

func short(v id.ID) string {
	s := v.String()
	return s[len(s)-8:]
}

func ptr[T any](v T) *T { return &v }
