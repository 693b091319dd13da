package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"posledger/internal/core/apperror"
	appctx "posledger/internal/core/context"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

const (
	ctxIdempotencyKey   = "idempotency_key"
	ctxIdempotencyStore = "idempotency_store"
)

// IdempotencyStore remembers responses by device and key.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, k postgres.IdempotencyKey) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, deviceID, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, deviceID, key string, statusCode int, contentType string, response any) error
}

// Idempotency middleware replays the stored response when a till retries a
// POST, PUT or PATCH with the same X-Idempotency-Key. Must run after Auth.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)

		replay, err := store.AcquireKey(c.Request.Context(), postgres.IdempotencyKey{
			DeviceID:    user.DeviceID,
			Key:         key,
			UserID:      user.UserID,
			Operation:   c.Request.Method + " " + c.Request.URL.Path,
			RequestHash: hex.EncodeToString(hash[:]),
		})
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(ctxIdempotencyKey, key)
		c.Set(ctxIdempotencyStore, store)

		c.Next()
	}
}

// CompleteIdempotency stores a successful response for replay when the
// request carried an idempotency key.
func CompleteIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	finishIdempotency(c, func(ctx context.Context, s IdempotencyStore, deviceID, key string) error {
		return s.CompleteKey(ctx, deviceID, key, statusCode, contentType, response)
	})
}

// FailIdempotency stores an error response for replay.
func FailIdempotency(c *gin.Context, statusCode int, response any) {
	finishIdempotency(c, func(ctx context.Context, s IdempotencyStore, deviceID, key string) error {
		return s.FailKey(ctx, deviceID, key, statusCode, "application/json", response)
	})
}

func finishIdempotency(c *gin.Context, fn func(ctx context.Context, s IdempotencyStore, deviceID, key string) error) {
	key := c.GetString(ctxIdempotencyKey)
	if key == "" {
		return
	}
	v, _ := c.Get(ctxIdempotencyStore)
	store, ok := v.(IdempotencyStore)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := fn(ctx, store, appctx.GetDeviceID(ctx), key); err != nil {
		logger.Warn(ctx, "idempotency result not stored", "idempotency_key", key, "error", err)
	}
}
