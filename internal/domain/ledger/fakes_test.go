package ledger

import (
	"context"
	"errors"
	"sync"

	"posledger/internal/core/id"
	"posledger/internal/core/tx"
)

var errStoreDown = errors.New("store down")

type memRepo struct {
	mu        sync.Mutex
	entries   []Entry
	insertErr error
}

func (m *memRepo) Insert(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memRepo) DeleteByReference(_ context.Context, deviceID string, refType ReferenceType, refID id.ID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	var n int64
	for _, e := range m.entries {
		if e.DeviceID == deviceID && e.ReferenceType == refType && e.ReferenceID != nil && *e.ReferenceID == refID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

func (m *memRepo) ListByReference(_ context.Context, deviceID string, refType ReferenceType, refID id.ID) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.DeviceID == deviceID && e.ReferenceType == refType && e.ReferenceID != nil && *e.ReferenceID == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memOutbox struct {
	deferred []Entry
	recorded []Entry
	deferErr error

	// sp, when set, captures the savepoint depth of each deferral
	sp          *depthSavepoint
	deferDepths []int
}

func (o *memOutbox) DeferEntry(_ context.Context, e *Entry, _ error) error {
	if o.sp != nil {
		o.deferDepths = append(o.deferDepths, o.sp.depth)
	}
	if o.deferErr != nil {
		return o.deferErr
	}
	o.deferred = append(o.deferred, *e)
	return nil
}

func (o *memOutbox) EntryRecorded(_ context.Context, e *Entry) error {
	o.recorded = append(o.recorded, *e)
	return nil
}

// depthSavepoint counts how many savepoints the current call runs inside.
type depthSavepoint struct {
	depth int
	calls int
}

func (s *depthSavepoint) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	s.depth++
	s.calls++
	defer func() { s.depth-- }()
	return fn(ctx)
}

var (
	_ tx.SavepointManager = tx.Passthrough{}
	_ tx.SavepointManager = (*depthSavepoint)(nil)
)

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
