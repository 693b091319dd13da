// Package audit keeps a before/after trail of edits to sales and purchases.
package audit

import (
	"context"

	"posledger/internal/core/id"
	"posledger/internal/core/tx"
	"posledger/pkg/logger"
)

// Action is the audited operation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionAllocate Action = "allocate"
)

// Store persists audit rows.
type Store interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// Trail writes audit rows without ever failing the caller. A nil *Trail is
// valid and records nothing.
type Trail struct {
	store     Store
	savepoint tx.SavepointManager
}

// NewTrail creates an audit trail.
func NewTrail(store Store, savepoint tx.SavepointManager) *Trail {
	return &Trail{store: store, savepoint: savepoint}
}

// Record stores the before and after state of an entity.
func (t *Trail) Record(ctx context.Context, entityType string, entityID id.ID, action Action, before, after any) {
	if t == nil || t.store == nil {
		return
	}

	changes := map[string]any{}
	if before != nil {
		changes["before"] = before
	}
	if after != nil {
		changes["after"] = after
	}

	err := t.savepoint.RunInSavepoint(ctx, func(ctx context.Context) error {
		return t.store.LogChange(ctx, entityType, entityID, action, changes)
	})
	if err != nil {
		logger.Warn(ctx, "audit write failed",
			"entity_type", entityType,
			"entity_id", entityID,
			"action", action,
			"error", err,
		)
	}
}
