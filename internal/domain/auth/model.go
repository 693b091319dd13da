package auth

import (
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/id"
)

// Operator is a person allowed to ring up sales on one device.
type Operator struct {
	ID                  id.ID      `db:"id" json:"id"`
	DeviceID            string     `db:"device_id" json:"device_id"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	DisplayName         string     `db:"display_name" json:"display_name,omitempty"`
	IsActive            bool       `db:"is_active" json:"is_active"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// NewOperator creates an active operator.
func NewOperator(deviceID, email, passwordHash string) *Operator {
	now := time.Now().UTC()
	return &Operator{
		ID:           id.New(),
		DeviceID:     deviceID,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsLocked returns true if the account is temporarily locked.
func (o *Operator) IsLocked(now time.Time) bool {
	return o.LockedUntil != nil && now.Before(*o.LockedUntil)
}

// CanLogin checks whether the operator may sign in.
func (o *Operator) CanLogin(now time.Time) error {
	if !o.IsActive {
		return apperror.NewUnauthorized("account is disabled")
	}
	if o.IsLocked(now) {
		return apperror.NewUnauthorized("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failure counter and locks after maxAttempts.
func (o *Operator) RecordFailedLogin(now time.Time, maxAttempts int, lockDuration time.Duration) {
	o.FailedLoginAttempts++
	if o.FailedLoginAttempts >= maxAttempts {
		until := now.Add(lockDuration)
		o.LockedUntil = &until
	}
	o.UpdatedAt = now
}

// RecordSuccessfulLogin resets the failure counter.
func (o *Operator) RecordSuccessfulLogin(now time.Time) {
	o.FailedLoginAttempts = 0
	o.LockedUntil = nil
	o.LastLoginAt = &now
	o.UpdatedAt = now
}

// Credentials is a sign-in attempt.
type Credentials struct {
	DeviceID string `json:"device_id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
