package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/apperror"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
	"posledger/internal/domain/purchases"
	"posledger/internal/infrastructure/storage/postgres"
)

const (
	purchasesTable     = "purchases"
	purchaseItemsTable = "purchase_items"
)

var _ purchases.Repository = (*PurchaseRepo)(nil)

// PurchaseRepo implements purchases.Repository.
type PurchaseRepo struct {
	*BaseBillRepo[*purchases.Purchase]
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseBillRepo: NewBaseBillRepo(
			txManager,
			purchasesTable, purchaseItemsTable, "purchase_id",
			[]string{"supplier_id", "purchase_date", "status"},
			func() *purchases.Purchase { return &purchases.Purchase{} },
			purchaseValues,
		),
	}
}

func purchaseValues(p *purchases.Purchase) map[string]any {
	data := billValues(&p.Bill)
	data["supplier_id"] = p.SupplierID
	data["purchase_date"] = p.PurchaseDate
	data["status"] = string(p.Status)
	return data
}

// Create inserts a purchase row. Items are written separately.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchases.Purchase) error {
	return r.Insert(ctx, p)
}

// Update overwrites a purchase row.
func (r *PurchaseRepo) Update(ctx context.Context, p *purchases.Purchase) error {
	return r.Save(ctx, p)
}

// SupplierExists reports whether the device knows the supplier.
func (r *PurchaseRepo) SupplierExists(ctx context.Context, deviceID string, supplierID id.ID) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		Prefix("SELECT EXISTS (").
		From("suppliers").
		Where(squirrel.Eq{"id": supplierID, "device_id": deviceID}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists bool
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("supplier exists: %w", err)
	}
	return exists, nil
}

// ListOutstanding locks the supplier's open purchases, oldest first.
func (r *PurchaseRepo) ListOutstanding(ctx context.Context, deviceID string, supplierID id.ID) ([]purchases.Outstanding, error) {
	sql, args, err := r.Builder().
		Select("id", "purchase_date", "total_amount", "received_amount", "status").
		From(purchasesTable).
		Where(squirrel.Eq{"device_id": deviceID, "supplier_id": supplierID}).
		Where(squirrel.NotEq{"status": string(entity.PurchaseCancelled)}).
		Where("total_amount > received_amount").
		OrderBy("purchase_date", "id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var open []purchases.Outstanding
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &open, sql, args...); err != nil {
		return nil, fmt.Errorf("list outstanding purchases: %w", err)
	}
	return open, nil
}

// ApplyPayment sets the paid amount and status of one purchase.
func (r *PurchaseRepo) ApplyPayment(ctx context.Context, deviceID string, purchaseID id.ID, received types.Money, status entity.PurchaseStatus) error {
	sql, args, err := r.Builder().
		Update(purchasesTable).
		Set("received_amount", received).
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": purchaseID, "device_id": deviceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("apply payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(purchasesTable, purchaseID.String())
	}
	return nil
}
