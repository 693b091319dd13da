package ledger

import (
	"context"
	"fmt"

	"posledger/internal/core/apperror"
	"posledger/internal/core/id"
	"posledger/internal/core/tx"
	"posledger/pkg/logger"
)

// Recorder appends entries to the ledger.
//
// Two write modes exist. Record is strict: a failure is returned to the caller
// and, inside a unit of work, rolls it back. Shadow is used by the sale and
// purchase lifecycles after the primary row is written: it runs in a savepoint,
// and a failure is logged and handed to the outbox for retry instead of
// failing the business operation.
type Recorder struct {
	repo      Repository
	savepoint tx.SavepointManager
	outbox    Outbox
}

// NewRecorder creates a recorder. outbox may be nil, in which case failed
// shadow writes are only logged.
func NewRecorder(repo Repository, savepoint tx.SavepointManager, outbox Outbox) *Recorder {
	return &Recorder{
		repo:      repo,
		savepoint: savepoint,
		outbox:    outbox,
	}
}

// Record validates and inserts e.
func (r *Recorder) Record(ctx context.Context, e *Entry) error {
	if e.DeviceID == "" {
		return apperror.NewMissingField("device_id")
	}
	if e.CreatedBy == "" {
		return apperror.NewMissingField("user_id")
	}

	if err := r.repo.Insert(ctx, e); err != nil {
		return apperror.Persist(fmt.Errorf("insert ledger entry: %w", err))
	}
	r.announce(ctx, e)
	return nil
}

// Shadow writes e without letting a failure escape. It reports whether the
// row was written in-line.
func (r *Recorder) Shadow(ctx context.Context, e *Entry) bool {
	err := r.savepoint.RunInSavepoint(ctx, func(ctx context.Context) error {
		return r.repo.Insert(ctx, e)
	})
	if err == nil {
		r.announce(ctx, e)
		return true
	}

	logger.Warn(ctx, "ledger write failed, deferring",
		"entry_id", e.ID,
		"event_type", e.EventType,
		"reference_type", e.ReferenceType,
		"reference_id", e.ReferenceID,
		"error", err,
	)

	if r.outbox == nil {
		return false
	}
	deferErr := r.savepoint.RunInSavepoint(ctx, func(ctx context.Context) error {
		return r.outbox.DeferEntry(ctx, e, err)
	})
	if deferErr != nil {
		logger.Error(ctx, "ledger entry lost: deferral failed",
			"entry_id", e.ID,
			"reference_id", e.ReferenceID,
			"error", deferErr,
		)
	}
	return false
}

// announce queues a notification for a written row. It runs in a savepoint
// so a failing outbox cannot poison the surrounding transaction.
func (r *Recorder) announce(ctx context.Context, e *Entry) {
	if r.outbox == nil {
		return
	}
	err := r.savepoint.RunInSavepoint(ctx, func(ctx context.Context) error {
		return r.outbox.EntryRecorded(ctx, e)
	})
	if err != nil {
		logger.Warn(ctx, "ledger notification not queued", "entry_id", e.ID, "error", err)
	}
}

// RecordSaleTransaction classifies and strictly records a sale.
func (r *Recorder) RecordSaleTransaction(ctx context.Context, ev SaleEvent) (id.ID, error) {
	if err := ev.Validate(); err != nil {
		return id.ID{}, err
	}
	e := NewSaleEntry(ev)
	if err := r.Record(ctx, e); err != nil {
		return id.ID{}, err
	}
	return e.ID, nil
}

// RecordSale validates and shadow-writes a sale booked by the sale
// lifecycle. Only an invalid event is returned as an error.
func (r *Recorder) RecordSale(ctx context.Context, ev SaleEvent) (id.ID, error) {
	if err := ev.Validate(); err != nil {
		return id.ID{}, err
	}
	e := NewSaleEntry(ev)
	r.Shadow(ctx, e)
	return e.ID, nil
}

// RecordPurchase is RecordSale for purchases.
func (r *Recorder) RecordPurchase(ctx context.Context, ev PurchaseEvent) (id.ID, error) {
	if err := ev.Validate(); err != nil {
		return id.ID{}, err
	}
	e := NewPurchaseEntry(ev)
	r.Shadow(ctx, e)
	return e.ID, nil
}

// RecordManual records a user-entered debit or credit.
func (r *Recorder) RecordManual(ctx context.Context, ev ManualEvent) (id.ID, error) {
	if err := ev.Validate(); err != nil {
		return id.ID{}, err
	}
	e := NewManualEntry(ev)
	if err := r.Record(ctx, e); err != nil {
		return id.ID{}, err
	}
	return e.ID, nil
}

// SaleAdjustmentRequest asks for the adjustment between two sale states.
type SaleAdjustmentRequest struct {
	Target   AdjustmentTarget
	Previous SaleSnapshot
	Next     SaleSnapshot
}

// RecordSaleAdjustment shadow-writes the adjustment for a sale edit. A nil
// id means nothing changed and no row was written.
func (r *Recorder) RecordSaleAdjustment(ctx context.Context, req SaleAdjustmentRequest) *id.ID {
	adj, ok := SaleAdjustment(req.Previous, req.Next)
	if !ok {
		return nil
	}
	req.Target.ReferenceType = RefSale
	return r.shadowAdjustment(ctx, req.Target, adj)
}

// PurchaseAdjustmentRequest asks for the adjustment between two purchase states.
type PurchaseAdjustmentRequest struct {
	Target   AdjustmentTarget
	Previous PurchaseSnapshot
	Next     PurchaseSnapshot
}

// RecordPurchaseAdjustment is RecordSaleAdjustment for purchases.
func (r *Recorder) RecordPurchaseAdjustment(ctx context.Context, req PurchaseAdjustmentRequest) *id.ID {
	adj, ok := PurchaseAdjustment(req.Previous, req.Next)
	if !ok {
		return nil
	}
	req.Target.ReferenceType = RefPurchase
	return r.shadowAdjustment(ctx, req.Target, adj)
}

// shadowAdjustment returns the entry id even when the row was deferred; the
// outbox writes it under the same id.
func (r *Recorder) shadowAdjustment(ctx context.Context, t AdjustmentTarget, adj Adjustment) *id.ID {
	if t.ChangeType == "" {
		t.ChangeType = "edit"
		if adj.Cancellation {
			t.ChangeType = "cancel"
		}
	}
	e := NewAdjustmentEntry(t, adj)
	r.Shadow(ctx, e)
	return &e.ID
}

// DeleteForReference removes every row explaining a sale or purchase.
func (r *Recorder) DeleteForReference(ctx context.Context, deviceID string, refType ReferenceType, refID id.ID) error {
	n, err := r.repo.DeleteByReference(ctx, deviceID, refType, refID)
	if err != nil {
		return apperror.Persist(fmt.Errorf("delete ledger entries: %w", err))
	}
	logger.Debug(ctx, "ledger entries removed",
		"reference_type", refType,
		"reference_id", refID,
		"count", n,
	)
	return nil
}

// ListForReference returns the rows explaining a sale or purchase.
func (r *Recorder) ListForReference(ctx context.Context, deviceID string, refType ReferenceType, refID id.ID) ([]Entry, error) {
	entries, err := r.repo.ListByReference(ctx, deviceID, refType, refID)
	if err != nil {
		return nil, apperror.Persist(fmt.Errorf("list ledger entries: %w", err))
	}
	return entries, nil
}
