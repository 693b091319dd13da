package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/id"
	"posledger/internal/domain/ledger"
	"posledger/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Outbox event types.
const (
	// EventLedgerEntryDeferred carries an entry whose in-line write failed.
	EventLedgerEntryDeferred = "ledger.entry.deferred"
	// EventLedgerEntryRecorded announces an entry that is in the ledger.
	EventLedgerEntryRecorded = "ledger.entry.recorded"
)

// MaxOutboxRetries is how often a message is retried before it is failed.
const MaxOutboxRetries = 5

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// DeferredEntry is the payload of EventLedgerEntryDeferred.
type DeferredEntry struct {
	Entry ledger.Entry `json:"entry"`
	Cause string       `json:"cause"`
}

// LedgerOutbox queues ledger work in sys_outbox. Inserts join the unit of
// work in ctx, so a rolled-back sale leaves no message behind.
type LedgerOutbox struct {
	txManager *TxManager
}

var _ ledger.Outbox = (*LedgerOutbox)(nil)

// NewLedgerOutbox creates the ledger outbox.
func NewLedgerOutbox(txManager *TxManager) *LedgerOutbox {
	return &LedgerOutbox{txManager: txManager}
}

// DeferEntry queues e for a later write by the relay.
func (o *LedgerOutbox) DeferEntry(ctx context.Context, e *ledger.Entry, cause error) error {
	msg := DeferredEntry{Entry: *e}
	if cause != nil {
		msg.Cause = cause.Error()
	}
	return o.publish(ctx, e, EventLedgerEntryDeferred, msg)
}

// EntryRecorded queues a notification for downstream consumers.
func (o *LedgerOutbox) EntryRecorded(ctx context.Context, e *ledger.Entry) error {
	return o.publish(ctx, e, EventLedgerEntryRecorded, e)
}

func (o *LedgerOutbox) publish(ctx context.Context, e *ledger.Entry, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = o.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id.New(), "ledger_entry", e.ID, eventType, body, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle calls f.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// OutboxDispatcher routes messages to a handler by event type.
type OutboxDispatcher map[string]OutboxHandler

// Handle implements OutboxHandler.
func (d OutboxDispatcher) Handle(ctx context.Context, msg *OutboxMessage) error {
	h, ok := d[msg.EventType]
	if !ok {
		return fmt.Errorf("no handler for event type %q", msg.EventType)
	}
	return h.Handle(ctx, msg)
}

// OutboxRelay drains the outbox. Used by the worker.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	return &OutboxRelay{
		txManager: txManager,
		batchSize: batchSize,
		handler:   handler,
	}
}

// ProcessBatch claims due messages, handles each in a savepoint and records
// the outcome. Returns how many messages were handled successfully.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			ok, err := r.processMessage(ctx, msg)
			if err != nil {
				return err
			}
			if ok {
				processed++
			}
		}
		return nil
	})
	return processed, err
}

func (r *OutboxRelay) processMessage(ctx context.Context, msg *OutboxMessage) (bool, error) {
	q := r.txManager.GetQuerier(ctx)

	handleErr := r.txManager.RunInSavepoint(ctx, func(ctx context.Context) error {
		return r.handler.Handle(ctx, msg)
	})
	if handleErr != nil {
		logger.Warn(ctx, "outbox message failed",
			"message_id", msg.ID,
			"event_type", msg.EventType,
			"retry_count", msg.RetryCount,
			"error", handleErr,
		)

		retries := msg.RetryCount + 1
		status := OutboxStatusPending
		if retries >= MaxOutboxRetries {
			status = OutboxStatusFailed
		}
		nextRetry := time.Now().UTC().Add(time.Duration(retries) * time.Minute)

		if _, err := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = $1, last_error = $2, next_retry_at = $3, status = $4
			WHERE id = $5
		`, retries, handleErr.Error(), nextRetry, status, msg.ID); err != nil {
			return false, fmt.Errorf("update failed message: %w", err)
		}
		return false, nil
	}

	if _, err := q.Exec(ctx, `
		UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3
	`, OutboxStatusPublished, time.Now().UTC(), msg.ID); err != nil {
		return false, fmt.Errorf("mark message published: %w", err)
	}
	return true, nil
}

// MoveToDLQ moves failed messages to the dead letter table.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1
			RETURNING id, aggregate_type, aggregate_id, event_type, payload, retry_count, created_at, last_error
		)
		INSERT INTO sys_outbox_dlq (id, aggregate_type, aggregate_id, event_type, payload, retry_count, created_at, failed_at, failure_reason)
		SELECT id, aggregate_type, aggregate_id, event_type, payload, retry_count, created_at, NOW(), last_error FROM moved
	`, OutboxStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return result.RowsAffected(), nil
}

// PurgePublished deletes published messages older than age.
func (r *OutboxRelay) PurgePublished(ctx context.Context, age time.Duration) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		"DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2",
		OutboxStatusPublished, time.Now().UTC().Add(-age),
	)
	if err != nil {
		return 0, fmt.Errorf("purge published messages: %w", err)
	}
	return result.RowsAffected(), nil
}
