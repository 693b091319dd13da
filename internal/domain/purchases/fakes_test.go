package purchases

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
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "buyer", DeviceID: testDevice})
}

func money(s string) types.Money { return types.MustMoney(s) }

func qty(units int64) types.Quantity { return types.NewQuantity(units) }

type memPurchases struct {
	purchases map[id.ID]Purchase
	items     map[id.ID][]entity.Item
	suppliers map[id.ID]bool
	applyErr  error
}

func newMemPurchases() *memPurchases {
	return &memPurchases{
		purchases: make(map[id.ID]Purchase),
		items:     make(map[id.ID][]entity.Item),
		suppliers: make(map[id.ID]bool),
	}
}

func (m *memPurchases) addSupplier() id.ID {
	supplierID := id.New()
	m.suppliers[supplierID] = true
	return supplierID
}

func (m *memPurchases) Create(_ context.Context, p *Purchase) error {
	row := *p
	row.Items = nil
	m.purchases[p.ID] = row
	return nil
}

func (m *memPurchases) Get(_ context.Context, deviceID string, purchaseID id.ID) (*Purchase, error) {
	p, ok := m.purchases[purchaseID]
	if !ok || p.DeviceID != deviceID {
		return nil, apperror.NewNotFound("purchase", purchaseID)
	}
	return &p, nil
}

func (m *memPurchases) GetForUpdate(ctx context.Context, deviceID string, purchaseID id.ID) (*Purchase, error) {
	return m.Get(ctx, deviceID, purchaseID)
}

func (m *memPurchases) Update(_ context.Context, p *Purchase) error {
	row := *p
	row.Items = nil
	m.purchases[p.ID] = row
	return nil
}

func (m *memPurchases) Delete(_ context.Context, _ string, purchaseID id.ID) error {
	delete(m.purchases, purchaseID)
	delete(m.items, purchaseID)
	return nil
}

func (m *memPurchases) GetItems(_ context.Context, purchaseID id.ID) ([]entity.Item, error) {
	return append([]entity.Item(nil), m.items[purchaseID]...), nil
}

func (m *memPurchases) ReplaceItems(_ context.Context, purchaseID id.ID, items []entity.Item) error {
	m.items[purchaseID] = append([]entity.Item(nil), items...)
	return nil
}

func (m *memPurchases) SupplierExists(_ context.Context, _ string, supplierID id.ID) (bool, error) {
	return m.suppliers[supplierID], nil
}

func (m *memPurchases) ListOutstanding(_ context.Context, deviceID string, supplierID id.ID) ([]Outstanding, error) {
	var out []Outstanding
	for _, p := range m.purchases {
		if p.DeviceID != deviceID || p.SupplierID != supplierID || p.Status.IsCancelled() {
			continue
		}
		if !p.Outstanding().IsPositive() {
			continue
		}
		out = append(out, Outstanding{
			ID:             p.ID,
			PurchaseDate:   p.PurchaseDate,
			TotalAmount:    p.TotalAmount,
			ReceivedAmount: p.ReceivedAmount,
			Status:         p.Status,
		})
	}
	return out, nil
}

func (m *memPurchases) ApplyPayment(_ context.Context, _ string, purchaseID id.ID, received types.Money, status entity.PurchaseStatus) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	p := m.purchases[purchaseID]
	p.ReceivedAmount = received
	p.Status = status
	m.purchases[purchaseID] = p
	return nil
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

func (m *memStock) addProduct() id.ID {
	itemID := id.New()
	m.items[itemID] = inventory.ItemInfo{ID: itemID, Kind: inventory.KindProduct}
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

func (m *memStock) HistoryByReference(context.Context, string, inventory.Direction, id.ID) ([]inventory.HistoryEntry, error) {
	return m.history, nil
}

type memLedger struct {
	entries []ledger.Entry
}

func (m *memLedger) Insert(_ context.Context, e *ledger.Entry) error {
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

func (m *memLedger) ListByReference(context.Context, string, ledger.ReferenceType, id.ID) ([]ledger.Entry, error) {
	return m.entries, nil
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
