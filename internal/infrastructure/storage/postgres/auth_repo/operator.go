// Package auth_repo provides the PostgreSQL operator repository.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/apperror"
	"posledger/internal/domain/auth"
	"posledger/internal/infrastructure/storage/postgres"
)

const operatorCols = `id, device_id, email, password_hash, display_name, is_active,
	last_login_at, failed_login_attempts, locked_until, created_at, updated_at`

var _ auth.OperatorRepository = (*OperatorRepo)(nil)

// OperatorRepo implements auth.OperatorRepository.
type OperatorRepo struct {
	txManager *postgres.TxManager
}

// NewOperatorRepo creates a new operator repository.
func NewOperatorRepo(txManager *postgres.TxManager) *OperatorRepo {
	return &OperatorRepo{txManager: txManager}
}

// Create inserts a new operator.
func (r *OperatorRepo) Create(ctx context.Context, o *auth.Operator) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO operators (`+operatorCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		o.ID, o.DeviceID, o.Email, o.PasswordHash, o.DisplayName, o.IsActive,
		o.LastLoginAt, o.FailedLoginAttempts, o.LockedUntil, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert operator: %w", err)
	}
	return nil
}

// GetByEmail retrieves an operator of a device by email.
func (r *OperatorRepo) GetByEmail(ctx context.Context, deviceID, email string) (*auth.Operator, error) {
	var o auth.Operator
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &o, `
		SELECT `+operatorCols+`
		FROM operators
		WHERE device_id = $1 AND email = $2
	`, deviceID, email)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("operator", email)
		}
		return nil, fmt.Errorf("get operator: %w", err)
	}
	return &o, nil
}

// Update stores login bookkeeping and profile changes.
func (r *OperatorRepo) Update(ctx context.Context, o *auth.Operator) error {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE operators SET
			display_name = $1, is_active = $2, last_login_at = $3,
			failed_login_attempts = $4, locked_until = $5, updated_at = $6
		WHERE id = $7 AND device_id = $8
	`,
		o.DisplayName, o.IsActive, o.LastLoginAt,
		o.FailedLoginAttempts, o.LockedUntil, o.UpdatedAt,
		o.ID, o.DeviceID,
	)
	if err != nil {
		return fmt.Errorf("update operator: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("operator", o.ID.String())
	}
	return nil
}
