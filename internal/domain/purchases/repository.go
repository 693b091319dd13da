package purchases

import (
	"context"

	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
)

// Repository persists purchases and their items. Every method is scoped to a device.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	Get(ctx context.Context, deviceID string, purchaseID id.ID) (*Purchase, error)

	// GetForUpdate loads a purchase and locks its row for the rest of the transaction.
	GetForUpdate(ctx context.Context, deviceID string, purchaseID id.ID) (*Purchase, error)

	Update(ctx context.Context, p *Purchase) error
	Delete(ctx context.Context, deviceID string, purchaseID id.ID) error

	GetItems(ctx context.Context, purchaseID id.ID) ([]entity.Item, error)
	ReplaceItems(ctx context.Context, purchaseID id.ID, items []entity.Item) error

	SupplierExists(ctx context.Context, deviceID string, supplierID id.ID) (bool, error)

	// ListOutstanding locks and returns the supplier's non-cancelled purchases
	// with a positive balance, oldest purchase_date first, ties by id.
	ListOutstanding(ctx context.Context, deviceID string, supplierID id.ID) ([]Outstanding, error)

	// ApplyPayment sets the paid amount and status of one purchase.
	ApplyPayment(ctx context.Context, deviceID string, purchaseID id.ID, received types.Money, status entity.PurchaseStatus) error
}
