// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"posledger/internal/core/apperror"
)

// UserContext identifies who is acting and for which device (store location).
// Every read and write is partitioned by DeviceID.
type UserContext struct {
	UserID   string
	DeviceID string
	Email    string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetDeviceID returns the device scope from context or empty string.
func GetDeviceID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.DeviceID
	}
	return ""
}

// RequireScope returns the acting user and device, failing with
// MISSING_REQUIRED_FIELD when either is absent.
func RequireScope(ctx context.Context) (*UserContext, error) {
	u := GetUser(ctx)
	if u == nil || u.DeviceID == "" {
		return nil, apperror.NewMissingField("device_id")
	}
	if u.UserID == "" {
		return nil, apperror.NewMissingField("user_id")
	}
	return u, nil
}
