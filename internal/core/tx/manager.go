// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SavepointManager isolates a step inside the current transaction.
//
// When fn fails only the work done by fn is rolled back and the surrounding
// transaction stays usable. Outside a transaction fn runs in its own one.
type SavepointManager interface {
	RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

// Runner is what write-path services need: a unit of work plus savepoints.
type Runner interface {
	Manager
	SavepointManager
}

// Passthrough runs callbacks directly. Used by tests and by callers that
// already own the transaction.
type Passthrough struct{}

func (Passthrough) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (Passthrough) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
