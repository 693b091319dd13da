// Package register_repo provides PostgreSQL implementations for the stock
// counters, their history and the ledger.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/apperror"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
	"posledger/internal/domain/inventory"
	"posledger/internal/infrastructure/storage/postgres"
)

const (
	productsTable     = "products"
	stockHistoryTable = "stock_history"
)

var stockHistoryCols = []string{
	"id", "device_id", "product_id", "quantity_delta", "change_reason",
	"reference_type", "reference_id", "created_by", "created_at",
}

var _ inventory.Repository = (*StockRepo)(nil)

// StockRepo implements inventory.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ResolveItems returns what the device knows about ids. Unknown ids are absent.
func (r *StockRepo) ResolveItems(ctx context.Context, deviceID string, ids []id.ID) (map[id.ID]inventory.ItemInfo, error) {
	if len(ids) == 0 {
		return map[id.ID]inventory.ItemInfo{}, nil
	}

	sql, args, err := r.builder.
		Select("id", "kind", "name", "wholesale_price").
		From(productsTable).
		Where(squirrel.Eq{"device_id": deviceID, "id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []inventory.ItemInfo
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("resolve items: %w", err)
	}

	infos := make(map[id.ID]inventory.ItemInfo, len(rows))
	for _, row := range rows {
		infos[row.ID] = row
	}
	return infos, nil
}

// AdjustStock adds delta to the counter in a single statement, taking the row lock.
func (r *StockRepo) AdjustStock(ctx context.Context, deviceID string, productID id.ID, delta types.Quantity) error {
	sql, args, err := r.builder.
		Update(productsTable).
		Set("stock_quantity", squirrel.Expr("stock_quantity + ?", delta.Int64Scaled())).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID, "device_id": deviceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewProductNotFound(productID)
	}
	return nil
}

// AppendHistory inserts entries in slice order so seq follows it.
func (r *StockRepo) AppendHistory(ctx context.Context, entries []inventory.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	q := r.builder.Insert(stockHistoryTable).Columns(stockHistoryCols...)
	for _, e := range entries {
		q = q.Values(
			e.ID, e.DeviceID, e.ProductID, e.QuantityDelta.Int64Scaled(), e.Reason,
			string(e.ReferenceType), e.ReferenceID, e.CreatedBy, e.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock history: %w", err)
	}
	return nil
}

// HistoryByReference returns the movements one sale or purchase caused, oldest first.
func (r *StockRepo) HistoryByReference(ctx context.Context, deviceID string, refType inventory.Direction, refID id.ID) ([]inventory.HistoryEntry, error) {
	sql, args, err := r.builder.
		Select(stockHistoryCols...).
		From(stockHistoryTable).
		Where(squirrel.Eq{
			"device_id":      deviceID,
			"reference_type": string(refType),
			"reference_id":   refID,
		}).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []inventory.HistoryEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("stock history: %w", err)
	}
	return entries, nil
}
