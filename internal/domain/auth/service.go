package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"posledger/internal/core/apperror"
	"posledger/internal/core/validation"
	"posledger/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
	}
}

// Service registers and signs in operators.
type Service struct {
	repo   OperatorRepository
	jwt    *JWTService
	config ServiceConfig
	now    func() time.Time
}

// NewService creates a new auth service.
func NewService(repo OperatorRepository, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{
		repo:   repo,
		jwt:    jwtService,
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an operator on a device.
func (s *Service) Register(ctx context.Context, creds Credentials, displayName string) (*Operator, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}
	if len(creds.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	existing, err := s.repo.GetByEmail(ctx, creds.DeviceID, creds.Email)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, apperror.Persist(fmt.Errorf("lookup operator: %w", err))
	}
	if existing != nil {
		return nil, apperror.NewValidation("email already registered on this device").WithDetail("email", creds.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hash password: %w", err))
	}

	op := NewOperator(creds.DeviceID, creds.Email, string(hash))
	op.DisplayName = displayName
	if err := s.repo.Create(ctx, op); err != nil {
		return nil, apperror.Persist(fmt.Errorf("create operator: %w", err))
	}

	logger.Info(ctx, "operator registered", "operator_id", op.ID, "device_id", op.DeviceID)
	return op, nil
}

// Login checks credentials and issues an access token scoped to the device.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, *Operator, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := validation.Struct(creds); err != nil {
		return nil, nil, err
	}

	op, err := s.repo.GetByEmail(ctx, creds.DeviceID, creds.Email)
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	now := s.now()
	if err := op.CanLogin(now); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(creds.Password)); err != nil {
		op.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.repo.Update(ctx, op); err != nil {
			logger.Warn(ctx, "failed login not recorded", "operator_id", op.ID, "error", err)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	access, expiresAt, err := s.jwt.GenerateAccessToken(op.ID.String(), op.DeviceID, op.Email)
	if err != nil {
		return nil, nil, apperror.NewInternal(err)
	}

	op.RecordSuccessfulLogin(now)
	if err := s.repo.Update(ctx, op); err != nil {
		logger.Warn(ctx, "login not recorded", "operator_id", op.ID, "error", err)
	}

	logger.Info(ctx, "operator logged in", "operator_id", op.ID, "device_id", op.DeviceID)
	return &Token{AccessToken: access, TokenType: "Bearer", ExpiresAt: expiresAt}, op, nil
}
