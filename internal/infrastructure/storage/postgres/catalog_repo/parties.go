package catalog_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/apperror"
	"posledger/internal/domain/catalog"
)

var partyCols = []string{"id", "device_id", "name", "phone", "created_at"}

func partyTable(kind catalog.PartyKind) listTable {
	name := "customers"
	if kind == catalog.PartySupplier {
		name = "suppliers"
	}
	return listTable{tableName: name, selectCols: partyCols, orderBy: "name"}
}

// CreateParty inserts a customer or supplier.
func (r *CatalogRepo) CreateParty(ctx context.Context, kind catalog.PartyKind, p *catalog.Party) error {
	t := partyTable(kind)
	sql, args, err := builder().
		Insert(t.tableName).
		Columns(t.selectCols...).
		Values(p.ID, p.DeviceID, p.Name, p.Phone, p.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	return nil
}

// ListParties lists the device's customers or suppliers.
func (r *CatalogRepo) ListParties(ctx context.Context, kind catalog.PartyKind, deviceID string, q catalog.ListQuery) ([]catalog.Party, error) {
	sb, err := partyTable(kind).listQuery(deviceID, q)
	if err != nil {
		return nil, apperror.NewValidation(err.Error())
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	parties := []catalog.Party{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &parties, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return parties, nil
}
