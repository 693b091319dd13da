package ledger

import (
	"context"

	"posledger/internal/core/apperror"
	appctx "posledger/internal/core/context"
	"posledger/internal/core/id"
	"posledger/internal/core/tx"
)

// Service exposes the recorder to callers outside a lifecycle, scoping
// every call to the device in ctx.
type Service struct {
	recorder  *Recorder
	txManager tx.Manager
}

// NewService creates a ledger service.
func NewService(recorder *Recorder, txManager tx.Manager) *Service {
	return &Service{recorder: recorder, txManager: txManager}
}

// RecordSale strictly records a sale event for the caller's device.
func (s *Service) RecordSale(ctx context.Context, ev SaleEvent) (id.ID, error) {
	if user := appctx.GetUser(ctx); user != nil {
		ev.DeviceID, ev.UserID = user.DeviceID, user.UserID
	}

	var entryID id.ID
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		entryID, err = s.recorder.RecordSaleTransaction(ctx, ev)
		return err
	})
	if err != nil {
		return id.ID{}, apperror.Persist(err)
	}
	return entryID, nil
}

// RecordManual strictly records a manual entry for the caller's device.
func (s *Service) RecordManual(ctx context.Context, ev ManualEvent) (id.ID, error) {
	if user := appctx.GetUser(ctx); user != nil {
		ev.DeviceID, ev.UserID = user.DeviceID, user.UserID
	}

	var entryID id.ID
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		entryID, err = s.recorder.RecordManual(ctx, ev)
		return err
	})
	if err != nil {
		return id.ID{}, apperror.Persist(err)
	}
	return entryID, nil
}

// ListForReference returns the caller's rows explaining a sale or purchase.
func (s *Service) ListForReference(ctx context.Context, refType ReferenceType, refID id.ID) ([]Entry, error) {
	user, err := appctx.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.recorder.ListForReference(ctx, user.DeviceID, refType, refID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
