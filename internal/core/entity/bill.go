// Package entity holds the building blocks shared by sales and purchases.
package entity

import (
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
)

// Item is one line of a sale or purchase. ItemID points at either a stocked
// product or a service.
type Item struct {
	ItemID    id.ID          `db:"item_id" json:"item_id"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unit_price"`
	// UnitCost is the purchase cost recorded on the line, if known.
	UnitCost *types.Money `db:"unit_cost" json:"unit_cost,omitempty"`
}

// Bill carries the money fields common to sales and purchases.
type Bill struct {
	ID             id.ID       `db:"id" json:"id"`
	DeviceID       string      `db:"device_id" json:"device_id"`
	TotalAmount    types.Money `db:"total_amount" json:"total_amount"`
	ReceivedAmount types.Money `db:"received_amount" json:"received_amount"`
	Delivered      bool        `db:"delivered" json:"delivered"`
	PaymentMethod  string      `db:"payment_method" json:"payment_method"`
	Notes          string      `db:"notes" json:"notes,omitempty"`
	CreatedBy      string      `db:"created_by" json:"created_by"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// Outstanding is what is still owed on the bill.
func (b *Bill) Outstanding() types.Money {
	return b.TotalAmount.Sub(b.ReceivedAmount)
}

// ValidateAmounts enforces non-negative amounts and received <= total.
func (b *Bill) ValidateAmounts() error {
	if b.DeviceID == "" {
		return apperror.NewMissingField("device_id")
	}
	if b.TotalAmount.IsNegative() {
		return apperror.NewValidation("total_amount must not be negative").
			WithDetail("field", "total_amount")
	}
	if b.ReceivedAmount.IsNegative() {
		return apperror.NewValidation("received_amount must not be negative").
			WithDetail("field", "received_amount")
	}
	if b.ReceivedAmount.GreaterThan(b.TotalAmount) {
		return apperror.NewReceivedExceedsTotal(b.ReceivedAmount.String(), b.TotalAmount.String())
	}
	return nil
}

// ValidateItems rejects lines without an item or with a non-positive quantity.
func ValidateItems(items []Item) error {
	for i, it := range items {
		if id.IsNil(it.ItemID) {
			return apperror.NewMissingField("item_id").WithDetail("line", i)
		}
		if !it.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("line", i)
		}
		if it.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit_price must not be negative").
				WithDetail("line", i)
		}
	}
	return nil
}

// NewBill stamps a fresh id and timestamps.
func NewBill(deviceID, createdBy string) Bill {
	now := time.Now().UTC()
	return Bill{
		ID:        id.New(),
		DeviceID:  deviceID,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
