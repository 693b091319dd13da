package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/id"
	"posledger/internal/domain/inventory"
	"posledger/internal/domain/sales"
	"posledger/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "sales"
	saleItemsTable = "sale_items"
)

var (
	_ sales.Repository         = (*SaleRepo)(nil)
	_ inventory.SaleCostSource = (*SaleRepo)(nil)
)

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	*BaseBillRepo[*sales.Sale]
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseBillRepo: NewBaseBillRepo(
			txManager,
			salesTable, saleItemsTable, "sale_id",
			[]string{"customer_id", "sale_date", "discount", "status"},
			func() *sales.Sale { return &sales.Sale{} },
			saleValues,
		),
	}
}

func saleValues(s *sales.Sale) map[string]any {
	data := billValues(&s.Bill)
	data["customer_id"] = s.CustomerID
	data["sale_date"] = s.SaleDate
	data["discount"] = s.Discount
	data["status"] = string(s.Status)
	return data
}

// Create inserts a sale row. Items are written separately.
func (r *SaleRepo) Create(ctx context.Context, s *sales.Sale) error {
	return r.Insert(ctx, s)
}

// Update overwrites a sale row.
func (r *SaleRepo) Update(ctx context.Context, s *sales.Sale) error {
	return r.Save(ctx, s)
}

// SaleCostLines returns the sale's stored lines with the current wholesale
// price of each item, in line order.
func (r *SaleRepo) SaleCostLines(ctx context.Context, deviceID string, saleID id.ID) ([]inventory.CostLine, error) {
	sql, args, err := r.Builder().
		Select("si.quantity", "si.unit_cost", "p.wholesale_price").
		From(saleItemsTable + " si").
		Join(salesTable + " s ON s.id = si.sale_id").
		LeftJoin("products p ON p.id = si.item_id").
		Where(squirrel.Eq{"si.sale_id": saleID, "s.device_id": deviceID}).
		OrderBy("si.line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []inventory.CostLine
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("sale cost lines: %w", err)
	}
	return lines, nil
}
