package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/apperror"
	"posledger/internal/core/id"
	"posledger/internal/domain/catalog"
	"posledger/internal/infrastructure/storage/postgres"
)

var _ catalog.Repository = (*CatalogRepo)(nil)

var productsTable = listTable{
	tableName: "products",
	selectCols: []string{
		"id", "device_id", "kind", "name", "wholesale_price", "stock_quantity", "created_at", "updated_at",
	},
	orderBy: "name",
}

// CatalogRepo implements catalog.Repository.
type CatalogRepo struct {
	txManager *postgres.TxManager
}

// NewCatalogRepo creates a new catalog repository.
func NewCatalogRepo(txManager *postgres.TxManager) *CatalogRepo {
	return &CatalogRepo{txManager: txManager}
}

// CreateProduct inserts a product.
func (r *CatalogRepo) CreateProduct(ctx context.Context, p *catalog.Product) error {
	sql, args, err := builder().
		Insert(productsTable.tableName).
		Columns(productsTable.selectCols...).
		Values(
			p.ID, p.DeviceID, string(p.Kind), p.Name, p.WholesalePrice,
			p.StockQuantity.Int64Scaled(), p.CreatedAt, p.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by id.
func (r *CatalogRepo) GetProduct(ctx context.Context, deviceID string, productID id.ID) (*catalog.Product, error) {
	sql, args, err := builder().
		Select(productsTable.selectCols...).
		From(productsTable.tableName).
		Where(squirrel.Eq{"id": productID, "device_id": deviceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p catalog.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ListProducts lists the device's products.
func (r *CatalogRepo) ListProducts(ctx context.Context, deviceID string, q catalog.ListQuery) ([]catalog.Product, error) {
	sb, err := productsTable.listQuery(deviceID, q)
	if err != nil {
		return nil, apperror.NewValidation(err.Error())
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	products := []catalog.Product{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
