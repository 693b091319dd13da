package catalog

import (
	"context"

	"posledger/internal/core/id"
)

// Repository persists catalog entries. Every method is scoped to a device.
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, deviceID string, productID id.ID) (*Product, error)
	ListProducts(ctx context.Context, deviceID string, q ListQuery) ([]Product, error)

	CreateParty(ctx context.Context, kind PartyKind, p *Party) error
	ListParties(ctx context.Context, kind PartyKind, deviceID string, q ListQuery) ([]Party, error)
}
