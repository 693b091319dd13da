// Package catalog manages the products, customers and suppliers that sales
// and purchases point at.
package catalog

import (
	"strings"
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
	"posledger/internal/domain/filter"
	"posledger/internal/domain/inventory"
)

// Product is a stocked good or a service.
type Product struct {
	ID             id.ID          `db:"id" json:"id"`
	DeviceID       string         `db:"device_id" json:"device_id"`
	Kind           inventory.Kind `db:"kind" json:"kind"`
	Name           string         `db:"name" json:"name"`
	WholesalePrice *types.Money   `db:"wholesale_price" json:"wholesale_price,omitempty"`
	StockQuantity  types.Quantity `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Validate checks a new product.
func (p *Product) Validate() error {
	if p.DeviceID == "" {
		return apperror.NewMissingField("device_id")
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewMissingField("name")
	}
	switch p.Kind {
	case inventory.KindProduct:
	case inventory.KindService:
		if !p.StockQuantity.IsZero() {
			return apperror.NewValidation("services carry no stock").WithDetail("field", "stock_quantity")
		}
	default:
		return apperror.NewValidation("unknown product kind").WithDetail("kind", p.Kind)
	}
	if p.WholesalePrice != nil && p.WholesalePrice.IsNegative() {
		return apperror.NewValidation("wholesale_price must not be negative").WithDetail("field", "wholesale_price")
	}
	return nil
}

// PartyKind tells customers and suppliers apart.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
)

// Party is a customer or a supplier.
type Party struct {
	ID        id.ID     `db:"id" json:"id"`
	DeviceID  string    `db:"device_id" json:"device_id"`
	Name      string    `db:"name" json:"name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ListQuery narrows and pages a list.
type ListQuery struct {
	Filters []filter.Item
	Limit   int
	Offset  int
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

func (q ListQuery) normalized() ListQuery {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
