package inventory

import (
	"context"

	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/tx"
	"posledger/internal/core/types"
	"posledger/pkg/logger"
)

// CostLine is one line to be priced at cost.
type CostLine struct {
	Quantity       types.Quantity `db:"quantity"`
	UnitCost       *types.Money   `db:"unit_cost"`
	WholesalePrice *types.Money   `db:"wholesale_price"`
}

// CostPrice is the explicit unit cost when recorded, else the wholesale
// price, else zero.
func (l CostLine) CostPrice() types.Money {
	switch {
	case l.UnitCost != nil:
		return *l.UnitCost
	case l.WholesalePrice != nil:
		return *l.WholesalePrice
	}
	return types.Zero()
}

// TotalCost is Σ quantity × cost price, rounded to cents.
func TotalCost(lines []CostLine) types.Money {
	total := types.Zero()
	for _, l := range lines {
		total = total.Add(l.Quantity.Decimal().Mul(l.CostPrice()))
	}
	return types.Round2(total)
}

// SaleCostSource loads the cost lines stored for a sale.
type SaleCostSource interface {
	SaleCostLines(ctx context.Context, deviceID string, saleID id.ID) ([]CostLine, error)
}

// COGSCalculator prices sale items at cost.
type COGSCalculator struct {
	catalog   Catalog
	stored    SaleCostSource
	savepoint tx.SavepointManager
}

// NewCOGSCalculator creates a calculator. stored may be nil. Lookups that are
// allowed to fail run in a savepoint so the caller's transaction survives.
func NewCOGSCalculator(catalog Catalog, stored SaleCostSource, savepoint tx.SavepointManager) *COGSCalculator {
	return &COGSCalculator{catalog: catalog, stored: stored, savepoint: savepoint}
}

// ForItems prices caller-supplied items, filling missing unit costs from the
// catalog's wholesale prices. Services count like products.
func (c *COGSCalculator) ForItems(ctx context.Context, deviceID string, items []entity.Item) (types.Money, error) {
	lines, err := c.Lines(ctx, deviceID, items)
	if err != nil {
		return types.Zero(), err
	}
	return TotalCost(lines), nil
}

// Lines builds cost lines for items.
func (c *COGSCalculator) Lines(ctx context.Context, deviceID string, items []entity.Item) ([]CostLine, error) {
	var missing []id.ID
	for _, it := range items {
		if it.UnitCost == nil {
			missing = append(missing, it.ItemID)
		}
	}

	var infos map[id.ID]ItemInfo
	if len(missing) > 0 {
		var err error
		infos, err = c.catalog.ResolveItems(ctx, deviceID, missing)
		if err != nil {
			return nil, err
		}
	}

	lines := make([]CostLine, len(items))
	for i, it := range items {
		lines[i] = CostLine{Quantity: it.Quantity, UnitCost: it.UnitCost}
		if info, ok := infos[it.ItemID]; ok {
			lines[i].WholesalePrice = info.WholesalePrice
		}
	}
	return lines, nil
}

// ForSale re-derives a persisted sale's COGS from storage. If the lookup
// fails it falls back to the given items instead of erroring.
func (c *COGSCalculator) ForSale(ctx context.Context, deviceID string, saleID id.ID, fallback []entity.Item) types.Money {
	if c.stored != nil {
		var lines []CostLine
		err := c.savepoint.RunInSavepoint(ctx, func(ctx context.Context) error {
			var err error
			lines, err = c.stored.SaleCostLines(ctx, deviceID, saleID)
			return err
		})
		if err == nil {
			return TotalCost(lines)
		}
		logger.Warn(ctx, "stored cost lookup failed, using supplied items",
			"sale_id", saleID,
			"error", err,
		)
	}

	var total types.Money
	err := c.savepoint.RunInSavepoint(ctx, func(ctx context.Context) error {
		var err error
		total, err = c.ForItems(ctx, deviceID, fallback)
		return err
	})
	if err != nil {
		logger.Warn(ctx, "wholesale price lookup failed, pricing recorded costs only",
			"sale_id", saleID,
			"error", err,
		)
		lines := make([]CostLine, len(fallback))
		for i, it := range fallback {
			lines[i] = CostLine{Quantity: it.Quantity, UnitCost: it.UnitCost}
		}
		return TotalCost(lines)
	}
	return total
}
