// Package document_repo provides PostgreSQL implementations for the sale and
// purchase repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/apperror"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/infrastructure/storage/postgres"
)

var billCols = []string{
	"id", "device_id", "total_amount", "received_amount", "delivered",
	"payment_method", "notes", "created_by", "created_at", "updated_at",
}

var itemCols = []string{"item_id", "quantity", "unit_price", "unit_cost"}

// BaseBillRepo provides the row and item-list operations shared by sales and purchases.
type BaseBillRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	itemsTable string
	ownerCol   string
	selectCols []string
	newFn      func() T
	valuesFn   func(T) map[string]any
}

// NewBaseBillRepo creates a base repository over tableName and its item table.
func NewBaseBillRepo[T any](
	txManager *postgres.TxManager,
	tableName, itemsTable, ownerCol string,
	extraCols []string,
	newFn func() T,
	valuesFn func(T) map[string]any,
) *BaseBillRepo[T] {
	cols := make([]string, 0, len(billCols)+len(extraCols))
	cols = append(cols, billCols...)
	cols = append(cols, extraCols...)
	return &BaseBillRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		itemsTable: itemsTable,
		ownerCol:   ownerCol,
		selectCols: cols,
		newFn:      newFn,
		valuesFn:   valuesFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseBillRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func billValues(b *entity.Bill) map[string]any {
	return map[string]any{
		"id":              b.ID,
		"device_id":       b.DeviceID,
		"total_amount":    b.TotalAmount,
		"received_amount": b.ReceivedAmount,
		"delivered":       b.Delivered,
		"payment_method":  b.PaymentMethod,
		"notes":           b.Notes,
		"created_by":      b.CreatedBy,
		"created_at":      b.CreatedAt,
		"updated_at":      b.UpdatedAt,
	}
}

// Insert writes a new row.
func (r *BaseBillRepo[T]) Insert(ctx context.Context, row T) error {
	sql, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(r.valuesFn(row)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// Save overwrites the mutable columns of an existing row.
func (r *BaseBillRepo[T]) Save(ctx context.Context, row T) error {
	data := r.valuesFn(row)
	rowID, deviceID := data["id"], data["device_id"]
	for _, immutable := range []string{"id", "device_id", "created_by", "created_at"} {
		delete(data, immutable)
	}

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(data).
		Where(squirrel.Eq{"id": rowID, "device_id": deviceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, fmt.Sprint(rowID))
	}
	return nil
}

// Get retrieves a row by id within a device.
func (r *BaseBillRepo[T]) Get(ctx context.Context, deviceID string, rowID id.ID) (T, error) {
	return r.get(ctx, deviceID, rowID, false)
}

// GetForUpdate retrieves a row and locks it until the transaction ends.
func (r *BaseBillRepo[T]) GetForUpdate(ctx context.Context, deviceID string, rowID id.ID) (T, error) {
	return r.get(ctx, deviceID, rowID, true)
}

func (r *BaseBillRepo[T]) get(ctx context.Context, deviceID string, rowID id.ID, lock bool) (T, error) {
	row := r.newFn()

	q := r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"id": rowID, "device_id": deviceID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return row, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return row, apperror.NewNotFound(r.tableName, rowID.String())
		}
		return row, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return row, nil
}

// Delete removes a row; its items go with it through ON DELETE CASCADE.
func (r *BaseBillRepo[T]) Delete(ctx context.Context, deviceID string, rowID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": rowID, "device_id": deviceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, rowID.String())
	}
	return nil
}

// GetItems returns a row's items in line order.
func (r *BaseBillRepo[T]) GetItems(ctx context.Context, ownerID id.ID) ([]entity.Item, error) {
	sql, args, err := r.Builder().
		Select(itemCols...).
		From(r.itemsTable).
		Where(squirrel.Eq{r.ownerCol: ownerID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []entity.Item
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get %s: %w", r.itemsTable, err)
	}
	return items, nil
}

// ReplaceItems deletes a row's items and inserts the new list, numbering lines from 1.
func (r *BaseBillRepo[T]) ReplaceItems(ctx context.Context, ownerID id.ID, items []entity.Item) error {
	querier := r.txManager.GetQuerier(ctx)

	sql, args, err := r.Builder().
		Delete(r.itemsTable).
		Where(squirrel.Eq{r.ownerCol: ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete %s: %w", r.itemsTable, err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(r.itemsTable).
		Columns(append([]string{r.ownerCol, "line_no"}, itemCols...)...)
	for i, it := range items {
		q = q.Values(ownerID, i+1, it.ItemID, it.Quantity.Int64Scaled(), it.UnitPrice, it.UnitCost)
	}

	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.itemsTable, err)
	}
	return nil
}
