// Package inventory keeps product stock counters in step with the state of
// sales and purchases, and prices the goods a sale takes off the shelf.
package inventory

import (
	"context"
	"time"

	"posledger/internal/core/id"
	"posledger/internal/core/types"
)

// Kind tells stocked products apart from services.
type Kind string

const (
	KindProduct Kind = "product"
	KindService Kind = "service"
)

// ItemInfo is what the reconciler and the COGS calculator need to know about
// an item id.
type ItemInfo struct {
	ID             id.ID        `db:"id"`
	Kind           Kind         `db:"kind"`
	Name           string       `db:"name"`
	WholesalePrice *types.Money `db:"wholesale_price"`
}

// Direction is the sign convention of the owning document.
type Direction string

const (
	// DirectionSale takes goods off the shelf.
	DirectionSale Direction = "sale"
	// DirectionPurchase puts goods on the shelf.
	DirectionPurchase Direction = "purchase"
)

// Line is an item id with the quantity a document holds of it.
type Line struct {
	ItemID   id.ID
	Quantity types.Quantity
}

// HistoryEntry records one change to a product's stock counter.
type HistoryEntry struct {
	ID            id.ID          `db:"id" json:"id"`
	DeviceID      string         `db:"device_id" json:"device_id"`
	ProductID     id.ID          `db:"product_id" json:"product_id"`
	QuantityDelta types.Quantity `db:"quantity_delta" json:"quantity_delta"`
	Reason        string         `db:"change_reason" json:"change_reason"`
	ReferenceType Direction      `db:"reference_type" json:"reference_type"`
	ReferenceID   id.ID          `db:"reference_id" json:"reference_id"`
	CreatedBy     string         `db:"created_by" json:"created_by"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// StockDelta is a change applied to one product's stock counter.
type StockDelta struct {
	ProductID id.ID          `json:"product_id"`
	Delta     types.Quantity `json:"delta"`
}

// Catalog resolves item ids. Ids unknown to the device are absent from the map.
type Catalog interface {
	ResolveItems(ctx context.Context, deviceID string, ids []id.ID) (map[id.ID]ItemInfo, error)
}

// Repository writes stock counters and their history.
type Repository interface {
	Catalog

	// AdjustStock adds delta to the product's counter in a single update.
	AdjustStock(ctx context.Context, deviceID string, productID id.ID, delta types.Quantity) error

	// AppendHistory inserts entries in slice order.
	AppendHistory(ctx context.Context, entries []HistoryEntry) error

	// HistoryByReference returns the entries caused by one sale or purchase, oldest first.
	HistoryByReference(ctx context.Context, deviceID string, refType Direction, refID id.ID) ([]HistoryEntry, error)
}
