package auth

import (
	"context"
)

// OperatorRepository stores operators per device.
type OperatorRepository interface {
	Create(ctx context.Context, o *Operator) error

	// GetByEmail returns a NOT_FOUND AppError when no operator matches.
	GetByEmail(ctx context.Context, deviceID, email string) (*Operator, error)

	Update(ctx context.Context, o *Operator) error
}
