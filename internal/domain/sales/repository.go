package sales

import (
	"context"

	"posledger/internal/core/entity"
	"posledger/internal/core/id"
)

// Repository persists sales and their items. Every method is scoped to a device.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	Get(ctx context.Context, deviceID string, saleID id.ID) (*Sale, error)

	// GetForUpdate loads a sale and locks its row for the rest of the transaction.
	GetForUpdate(ctx context.Context, deviceID string, saleID id.ID) (*Sale, error)

	Update(ctx context.Context, s *Sale) error
	Delete(ctx context.Context, deviceID string, saleID id.ID) error

	GetItems(ctx context.Context, saleID id.ID) ([]entity.Item, error)
	ReplaceItems(ctx context.Context, saleID id.ID, items []entity.Item) error
}
