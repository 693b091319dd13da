package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"posledger/internal/core/id"
	"posledger/internal/core/tx"
)

type memStore struct {
	rows []map[string]any
	err  error
}

func (m *memStore) LogChange(_ context.Context, _ string, _ id.ID, _ Action, changes map[string]any) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, changes)
	return nil
}

func TestTrail_Record(t *testing.T) {
	store := &memStore{}
	trail := NewTrail(store, tx.Passthrough{})

	trail.Record(context.Background(), "sale", id.New(), ActionUpdate, map[string]string{"status": "Credit"}, map[string]string{"status": "Completed"})

	if assert.Len(t, store.rows, 1) {
		assert.Contains(t, store.rows[0], "before")
		assert.Contains(t, store.rows[0], "after")
	}
}

func TestTrail_NeverFails(t *testing.T) {
	var nilTrail *Trail
	assert.NotPanics(t, func() {
		nilTrail.Record(context.Background(), "sale", id.New(), ActionDelete, nil, nil)
	})

	failing := NewTrail(&memStore{err: assert.AnError}, tx.Passthrough{})
	assert.NotPanics(t, func() {
		failing.Record(context.Background(), "sale", id.New(), ActionDelete, "x", nil)
	})
}
