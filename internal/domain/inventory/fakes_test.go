package inventory

import (
	"context"
	"errors"

	"posledger/internal/core/id"
	"posledger/internal/core/types"
)

type memStock struct {
	items   map[id.ID]ItemInfo
	stock   map[id.ID]types.Quantity
	history []HistoryEntry

	resolveErr error
	adjustErr  error
}

func newMemStock() *memStock {
	return &memStock{
		items: make(map[id.ID]ItemInfo),
		stock: make(map[id.ID]types.Quantity),
	}
}

func (m *memStock) addProduct(wholesale string) id.ID {
	itemID := id.New()
	info := ItemInfo{ID: itemID, Kind: KindProduct, Name: "product"}
	if wholesale != "" {
		w := types.MustMoney(wholesale)
		info.WholesalePrice = &w
	}
	m.items[itemID] = info
	return itemID
}

func (m *memStock) addService() id.ID {
	itemID := id.New()
	m.items[itemID] = ItemInfo{ID: itemID, Kind: KindService, Name: "service"}
	return itemID
}

func (m *memStock) ResolveItems(_ context.Context, _ string, ids []id.ID) (map[id.ID]ItemInfo, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	out := make(map[id.ID]ItemInfo)
	for _, itemID := range ids {
		if info, ok := m.items[itemID]; ok {
			out[itemID] = info
		}
	}
	return out, nil
}

func (m *memStock) AdjustStock(_ context.Context, _ string, productID id.ID, delta types.Quantity) error {
	if m.adjustErr != nil {
		return m.adjustErr
	}
	m.stock[productID] += delta
	return nil
}

func (m *memStock) AppendHistory(_ context.Context, entries []HistoryEntry) error {
	m.history = append(m.history, entries...)
	return nil
}

func (m *memStock) HistoryByReference(_ context.Context, _ string, dir Direction, refID id.ID) ([]HistoryEntry, error) {
	var out []HistoryEntry
	for _, h := range m.history {
		if h.ReferenceType == dir && h.ReferenceID == refID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStock) historySum(refID, productID id.ID) types.Quantity {
	var total types.Quantity
	for _, h := range m.history {
		if h.ReferenceID == refID && h.ProductID == productID {
			total += h.QuantityDelta
		}
	}
	return total
}

type failingCostSource struct{}

func (failingCostSource) SaleCostLines(context.Context, string, id.ID) ([]CostLine, error) {
	return nil, errors.New("sale_items unavailable")
}

type fixedCostSource struct{ lines []CostLine }

func (f fixedCostSource) SaleCostLines(context.Context, string, id.ID) ([]CostLine, error) {
	return f.lines, nil
}
