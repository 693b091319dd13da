package sales

import (
	"context"

	"posledger/internal/core/apperror"
	appctx "posledger/internal/core/context"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/tx"
	"posledger/internal/core/types"
	"posledger/internal/domain/inventory"
	"posledger/internal/domain/ledger"
)

const testDevice = "till-1"

func scoped() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "cashier", DeviceID: testDevice})
}

func money(s string) types.Money { return types.MustMoney(s) }

func qty(units int64) types.Quantity { return types.NewQuantity(units) }

type memSales struct {
	sales map[id.ID]Sale
	items map[id.ID][]entity.Item
	stock *memStock
}

func newMemSales(stock *memStock) *memSales {
	return &memSales{
		sales: make(map[id.ID]Sale),
		items: make(map[id.ID][]entity.Item),
		stock: stock,
	}
}

func (m *memSales) Create(_ context.Context, s *Sale) error {
	row := *s
	row.Items = nil
	m.sales[s.ID] = row
	return nil
}

func (m *memSales) Get(_ context.Context, deviceID string, saleID id.ID) (*Sale, error) {
	s, ok := m.sales[saleID]
	if !ok || s.DeviceID != deviceID {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return &s, nil
}

func (m *memSales) GetForUpdate(ctx context.Context, deviceID string, saleID id.ID) (*Sale, error) {
	return m.Get(ctx, deviceID, saleID)
}

func (m *memSales) Update(_ context.Context, s *Sale) error {
	row := *s
	row.Items = nil
	m.sales[s.ID] = row
	return nil
}

func (m *memSales) Delete(_ context.Context, _ string, saleID id.ID) error {
	delete(m.sales, saleID)
	delete(m.items, saleID)
	return nil
}

func (m *memSales) GetItems(_ context.Context, saleID id.ID) ([]entity.Item, error) {
	return append([]entity.Item(nil), m.items[saleID]...), nil
}

func (m *memSales) ReplaceItems(_ context.Context, saleID id.ID, items []entity.Item) error {
	m.items[saleID] = append([]entity.Item(nil), items...)
	return nil
}

func (m *memSales) SaleCostLines(_ context.Context, _ string, saleID id.ID) ([]inventory.CostLine, error) {
	var lines []inventory.CostLine
	for _, it := range m.items[saleID] {
		lines = append(lines, inventory.CostLine{
			Quantity:       it.Quantity,
			UnitCost:       it.UnitCost,
			WholesalePrice: m.stock.items[it.ItemID].WholesalePrice,
		})
	}
	return lines, nil
}

type memStock struct {
	items   map[id.ID]inventory.ItemInfo
	stock   map[id.ID]types.Quantity
	history []inventory.HistoryEntry
}

func newMemStock() *memStock {
	return &memStock{
		items: make(map[id.ID]inventory.ItemInfo),
		stock: make(map[id.ID]types.Quantity),
	}
}

func (m *memStock) addProduct(wholesale string, onHand int64) id.ID {
	itemID := id.New()
	w := money(wholesale)
	m.items[itemID] = inventory.ItemInfo{ID: itemID, Kind: inventory.KindProduct, WholesalePrice: &w}
	m.stock[itemID] = qty(onHand)
	return itemID
}

func (m *memStock) ResolveItems(_ context.Context, _ string, ids []id.ID) (map[id.ID]inventory.ItemInfo, error) {
	out := make(map[id.ID]inventory.ItemInfo)
	for _, itemID := range ids {
		if info, ok := m.items[itemID]; ok {
			out[itemID] = info
		}
	}
	return out, nil
}

func (m *memStock) AdjustStock(_ context.Context, _ string, productID id.ID, delta types.Quantity) error {
	m.stock[productID] += delta
	return nil
}

func (m *memStock) AppendHistory(_ context.Context, entries []inventory.HistoryEntry) error {
	m.history = append(m.history, entries...)
	return nil
}

func (m *memStock) HistoryByReference(_ context.Context, _ string, dir inventory.Direction, refID id.ID) ([]inventory.HistoryEntry, error) {
	var out []inventory.HistoryEntry
	for _, h := range m.history {
		if h.ReferenceType == dir && h.ReferenceID == refID {
			out = append(out, h)
		}
	}
	return out, nil
}

type memLedger struct {
	entries   []ledger.Entry
	insertErr error
}

func (m *memLedger) Insert(_ context.Context, e *ledger.Entry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memLedger) DeleteByReference(_ context.Context, _ string, refType ledger.ReferenceType, refID id.ID) (int64, error) {
	kept := m.entries[:0]
	var n int64
	for _, e := range m.entries {
		if e.ReferenceType == refType && e.ReferenceID != nil && *e.ReferenceID == refID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

func (m *memLedger) ListByReference(_ context.Context, _ string, refType ledger.ReferenceType, refID id.ID) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range m.entries {
		if e.ReferenceType == refType && e.ReferenceID != nil && *e.ReferenceID == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fixture struct {
	svc    *Service
	sales  *memSales
	stock  *memStock
	ledger *memLedger
}

func newFixture() *fixture {
	stock := newMemStock()
	salesRepo := newMemSales(stock)
	led := &memLedger{}
	runner := tx.Passthrough{}

	svc := NewService(
		salesRepo,
		runner,
		inventory.NewReconciler(stock),
		inventory.NewCOGSCalculator(stock, salesRepo, runner),
		ledger.NewRecorder(led, runner, nil),
		nil,
	)
	return &fixture{svc: svc, sales: salesRepo, stock: stock, ledger: led}
}

// failingCommit runs fn like tx.Passthrough and then fails the commit.
type failingCommit struct {
	tx.Passthrough
	err error
}

func (f failingCommit) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return f.err
}
