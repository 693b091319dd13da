package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"posledger/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent request.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// staleAfter is how long a pending key may sit before another request takes it over.
const staleAfter = time.Minute

// IdempotencyReplay is the stored HTTP response of a finished request.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyKey identifies one retried request of a device.
type IdempotencyKey struct {
	DeviceID    string
	Key         string
	UserID      string
	Operation   string
	RequestHash string
}

// IdempotencyStore remembers the outcome of mutating requests so that a till
// retrying after a dropped connection gets the first response back instead
// of booking the sale twice.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, ttl: ttl}
}

// AcquireKey claims k. It returns (nil, nil) when the caller should run the
// request, a replay when the request already finished, and an error when the
// key is busy or belongs to a different request.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, k IdempotencyKey) (*IdempotencyReplay, error) {
	now := time.Now().UTC()

	var (
		inserted    bool
		userID      string
		operation   string
		status      IdempotencyStatus
		requestHash string
		response    []byte
		respStatus  int
		contentType string
		updatedAt   time.Time
	)
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_idempotency (device_id, idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		ON CONFLICT (device_id, idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, EXCLUDED.expires_at)
		RETURNING (xmax = 0), user_id, operation, status, request_hash, response,
		          response_status, response_content_type, updated_at
	`, k.DeviceID, k.Key, k.UserID, k.Operation, IdempotencyStatusPending, k.RequestHash, now, now.Add(s.ttl)).Scan(
		&inserted, &userID, &operation, &status, &requestHash, &response, &respStatus, &contentType, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if inserted {
		return nil, nil
	}

	if userID != k.UserID || operation != k.Operation || requestHash != k.RequestHash {
		return nil, apperror.NewIdempotencyMismatch(k.Key).
			WithDetail("operation", operation)
	}

	switch status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return &IdempotencyReplay{
			StatusCode:  replayStatus(respStatus),
			ContentType: replayContentType(contentType),
			Body:        response,
		}, nil
	}

	if now.Sub(updatedAt) <= staleAfter {
		return nil, apperror.NewIdempotencyConflict(k.Key)
	}

	// the first attempt died mid-request; take the key over
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency SET updated_at = $1
		WHERE device_id = $2 AND idempotency_key = $3 AND status = $4 AND updated_at = $5
	`, now, k.DeviceID, k.Key, IdempotencyStatusPending, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewIdempotencyConflict(k.Key)
	}
	return nil, nil
}

// CompleteKey stores a successful response for replay.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, deviceID, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, deviceID, key, IdempotencyStatusSuccess, statusCode, contentType, response)
}

// FailKey stores an error response for replay.
func (s *IdempotencyStore) FailKey(ctx context.Context, deviceID, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, deviceID, key, IdempotencyStatusFailed, statusCode, contentType, response)
}

func (s *IdempotencyStore) finish(ctx context.Context, deviceID, key string, status IdempotencyStatus, statusCode int, contentType string, response any) error {
	var body []byte
	if response != nil {
		b, err := json.Marshal(response)
		if err != nil {
			b, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		body = b
	}

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1, response = $2, response_status = $3, response_content_type = $4, updated_at = $5
		WHERE device_id = $6 AND idempotency_key = $7
	`, status, body, statusCode, contentType, time.Now().UTC(), deviceID, key)
	if err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		"DELETE FROM sys_idempotency WHERE expires_at < $1", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return result.RowsAffected(), nil
}

func replayStatus(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}

func replayContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}
