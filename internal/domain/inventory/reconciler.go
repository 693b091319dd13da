package inventory

import (
	"context"
	"fmt"
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
	"posledger/pkg/logger"
)

// Delta is the net change a document's edit implies for one item id,
// before the sale/purchase sign is applied.
type Delta struct {
	ItemID    id.ID
	NetChange types.Quantity
}

// ComputeDeltas compares what a document had applied with what it should
// apply now.
//
// wasApplied says whether prev is currently reflected in stock, shouldApply
// whether next must be. Ids are visited in order of first appearance in next,
// then ids only present in prev. Duplicate ids within a list are summed.
// Ids with no net change are omitted.
func ComputeDeltas(prev, next []Line, wasApplied, shouldApply bool) []Delta {
	oldQty, _ := sumLines(prev)
	newQty, order := sumLines(next)

	for _, l := range prev {
		if _, seen := newQty[l.ItemID]; !seen && !contains(order, l.ItemID) {
			order = append(order, l.ItemID)
		}
	}

	var deltas []Delta
	for _, itemID := range order {
		var effectiveOld, effectiveNew types.Quantity
		if wasApplied {
			effectiveOld = oldQty[itemID]
		}
		if shouldApply {
			effectiveNew = newQty[itemID]
		}
		if net := effectiveNew - effectiveOld; net != 0 {
			deltas = append(deltas, Delta{ItemID: itemID, NetChange: net})
		}
	}
	return deltas
}

func sumLines(lines []Line) (map[id.ID]types.Quantity, []id.ID) {
	totals := make(map[id.ID]types.Quantity, len(lines))
	order := make([]id.ID, 0, len(lines))
	for _, l := range lines {
		if _, seen := totals[l.ItemID]; !seen {
			order = append(order, l.ItemID)
		}
		totals[l.ItemID] += l.Quantity
	}
	return totals, order
}

func contains(ids []id.ID, v id.ID) bool {
	for _, x := range ids {
		if x == v {
			return true
		}
	}
	return false
}

// Change describes one lifecycle step of a sale or purchase.
type Change struct {
	Direction   Direction
	ReferenceID id.ID
	DeviceID    string
	UserID      string
	Previous    []Line
	Next        []Line
	WasApplied  bool
	ShouldApply bool
	Reason      string
}

// Reconciler applies stock deltas and writes their history.
type Reconciler struct {
	repo Repository
	now  func() time.Time
}

// NewReconciler creates a reconciler.
func NewReconciler(repo Repository) *Reconciler {
	return &Reconciler{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile brings stock in line with the document's new state. Services are
// skipped; an id that is neither product nor service fails with
// PRODUCT_NOT_FOUND before anything is written. Must run inside the owning
// unit of work.
func (r *Reconciler) Reconcile(ctx context.Context, c Change) ([]StockDelta, error) {
	deltas := ComputeDeltas(c.Previous, c.Next, c.WasApplied, c.ShouldApply)
	if len(deltas) == 0 {
		return nil, nil
	}

	ids := make([]id.ID, len(deltas))
	for i, d := range deltas {
		ids[i] = d.ItemID
	}
	infos, err := r.resolve(ctx, c.DeviceID, ids)
	if err != nil {
		return nil, err
	}

	now := r.now()
	applied := make([]StockDelta, 0, len(deltas))
	history := make([]HistoryEntry, 0, len(deltas))
	for _, d := range deltas {
		if infos[d.ItemID].Kind == KindService {
			continue
		}

		stockDelta := d.NetChange
		if c.Direction == DirectionSale {
			stockDelta = -stockDelta
		}

		if err := r.repo.AdjustStock(ctx, c.DeviceID, d.ItemID, stockDelta); err != nil {
			return nil, apperror.Persist(fmt.Errorf("adjust stock for %s: %w", d.ItemID, err))
		}

		applied = append(applied, StockDelta{ProductID: d.ItemID, Delta: stockDelta})
		history = append(history, HistoryEntry{
			ID:            id.New(),
			DeviceID:      c.DeviceID,
			ProductID:     d.ItemID,
			QuantityDelta: stockDelta,
			Reason:        reason(c, stockDelta),
			ReferenceType: c.Direction,
			ReferenceID:   c.ReferenceID,
			CreatedBy:     c.UserID,
			CreatedAt:     now,
		})
	}

	if len(history) > 0 {
		if err := r.repo.AppendHistory(ctx, history); err != nil {
			return nil, apperror.Persist(fmt.Errorf("append stock history: %w", err))
		}
	}

	logger.Debug(ctx, "stock reconciled",
		"direction", c.Direction,
		"reference_id", c.ReferenceID,
		"products", len(applied),
	)
	return applied, nil
}

// CheckItems fails with PRODUCT_NOT_FOUND when a line references an id the
// device has neither as product nor as service. Lifecycles call it before
// writing item rows, since lines that move no stock never reach Reconcile.
func (r *Reconciler) CheckItems(ctx context.Context, deviceID string, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	_, ids := sumLines(lines)
	_, err := r.resolve(ctx, deviceID, ids)
	return err
}

func (r *Reconciler) resolve(ctx context.Context, deviceID string, ids []id.ID) (map[id.ID]ItemInfo, error) {
	infos, err := r.repo.ResolveItems(ctx, deviceID, ids)
	if err != nil {
		return nil, apperror.Persist(fmt.Errorf("resolve items: %w", err))
	}
	for _, itemID := range ids {
		if _, ok := infos[itemID]; !ok {
			return nil, apperror.NewProductNotFound(itemID)
		}
	}
	return infos, nil
}

// History returns the stock movements a sale or purchase caused.
func (r *Reconciler) History(ctx context.Context, deviceID string, dir Direction, refID id.ID) ([]HistoryEntry, error) {
	entries, err := r.repo.HistoryByReference(ctx, deviceID, dir, refID)
	if err != nil {
		return nil, apperror.Persist(fmt.Errorf("stock history: %w", err))
	}
	return entries, nil
}

func reason(c Change, delta types.Quantity) string {
	if c.Reason != "" {
		return c.Reason
	}
	verb := "edited"
	switch {
	case !c.WasApplied && c.ShouldApply:
		verb = "applied"
	case c.WasApplied && !c.ShouldApply:
		verb = "reversed"
	}
	return fmt.Sprintf("%s %s (%s)", c.Direction, verb, delta)
}
