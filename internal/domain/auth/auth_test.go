package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/core/apperror"
)

type memOperators struct {
	byKey map[string]*Operator
}

func newMemOperators() *memOperators {
	return &memOperators{byKey: make(map[string]*Operator)}
}

func (m *memOperators) Create(_ context.Context, o *Operator) error {
	m.byKey[o.DeviceID+"/"+o.Email] = o
	return nil
}

func (m *memOperators) GetByEmail(_ context.Context, deviceID, email string) (*Operator, error) {
	o, ok := m.byKey[deviceID+"/"+email]
	if !ok {
		return nil, apperror.NewNotFound("operator", email)
	}
	cp := *o
	return &cp, nil
}

func (m *memOperators) Update(_ context.Context, o *Operator) error {
	cp := *o
	m.byKey[o.DeviceID+"/"+o.Email] = &cp
	return nil
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))

	token, expires, err := svc.GenerateAccessToken("u-1", "till-1", "a@b.c")
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	u, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.UserID)
	assert.Equal(t, "till-1", u.DeviceID)

	other := NewJWTService(DefaultJWTConfig("other"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsMissingDevice(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	token, _, err := svc.GenerateAccessToken("u-1", "", "a@b.c")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMemOperators()
	svc := NewService(repo, NewJWTService(DefaultJWTConfig("secret")), DefaultServiceConfig())
	ctx := context.Background()
	creds := Credentials{DeviceID: "till-1", Email: "Cashier@Shop.test", Password: "correct horse"}

	op, err := svc.Register(ctx, creds, "Cashier")
	require.NoError(t, err)
	assert.Equal(t, "cashier@shop.test", op.Email)
	assert.NotEqual(t, creds.Password, op.PasswordHash)

	_, err = svc.Register(ctx, creds, "again")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	token, _, err := svc.Login(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
}

func TestLoginLocksAfterFailures(t *testing.T) {
	repo := newMemOperators()
	cfg := DefaultServiceConfig()
	cfg.MaxLoginAttempts = 2
	svc := NewService(repo, NewJWTService(DefaultJWTConfig("secret")), cfg)
	ctx := context.Background()
	creds := Credentials{DeviceID: "till-1", Email: "c@shop.test", Password: "correct horse"}
	_, err := svc.Register(ctx, creds, "")
	require.NoError(t, err)

	bad := creds
	bad.Password = "wrong password"
	for i := 0; i < 2; i++ {
		_, _, err = svc.Login(ctx, bad)
		assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	}

	_, _, err = svc.Login(ctx, creds)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized), "locked account rejects valid password")
}
