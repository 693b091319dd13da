package register_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/id"
	"posledger/internal/domain/ledger"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/pkg/logger"
)

const ledgerTable = "ledger_entries"

// LedgerCols is the column list of ledger_entries in select order.
var LedgerCols = []string{
	"id", "device_id", "transaction_date", "event_type", "reference_type", "reference_id",
	"counterparty_id", "amount", "received_amount", "cost_amount", "prior_cost_amount",
	"debit_amount", "credit_amount", "status", "payment_method", "description",
	"created_by", "created_at",
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert appends e. A row with the same id is left untouched, so a replayed
// deferred entry is written at most once.
func (r *LedgerRepo) Insert(ctx context.Context, e *ledger.Entry) error {
	sql, args, err := r.builder.
		Insert(ledgerTable).
		Columns(LedgerCols...).
		Values(
			e.ID, e.DeviceID, e.TransactionDate, string(e.EventType), string(e.ReferenceType), e.ReferenceID,
			e.CounterpartyID, e.Amount, e.ReceivedAmount, e.CostAmount, e.PriorCostAmount,
			e.DebitAmount, e.CreditAmount, e.Status, e.PaymentMethod, e.Description,
			e.CreatedBy, e.CreatedAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// DeleteByReference removes every entry explaining one sale or purchase.
func (r *LedgerRepo) DeleteByReference(ctx context.Context, deviceID string, refType ledger.ReferenceType, refID id.ID) (int64, error) {
	sql, args, err := r.builder.
		Delete(ledgerTable).
		Where(squirrel.Eq{
			"device_id":      deviceID,
			"reference_type": string(refType),
			"reference_id":   refID,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete ledger entries: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListByReference returns the entries for one sale or purchase, oldest first.
func (r *LedgerRepo) ListByReference(ctx context.Context, deviceID string, refType ledger.ReferenceType, refID id.ID) ([]ledger.Entry, error) {
	sql, args, err := r.builder.
		Select(LedgerCols...).
		From(ledgerTable).
		Where(squirrel.Eq{
			"device_id":      deviceID,
			"reference_type": string(refType),
			"reference_id":   refID,
		}).
		OrderBy("transaction_date", "created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

// ReplayDeferred returns an outbox handler that writes entries whose in-line
// write failed. The reference may have been deleted since; the entry is then
// dropped, since deleting a sale or purchase removes its ledger rows.
func (r *LedgerRepo) ReplayDeferred() postgres.OutboxHandlerFunc {
	return func(ctx context.Context, msg *postgres.OutboxMessage) error {
		var deferred postgres.DeferredEntry
		if err := json.Unmarshal(msg.Payload, &deferred); err != nil {
			return fmt.Errorf("decode deferred entry: %w", err)
		}
		e := &deferred.Entry

		if e.ReferenceID != nil && referencesDocument(e.ReferenceType) {
			exists, err := r.referenceExists(ctx, e)
			if err != nil {
				return err
			}
			if !exists {
				logger.Warn(ctx, "deferred ledger entry dropped: reference deleted",
					"entry_id", e.ID,
					"reference_type", e.ReferenceType,
					"reference_id", e.ReferenceID,
				)
				return nil
			}
		}

		if err := r.Insert(ctx, e); err != nil {
			return err
		}
		logger.Info(ctx, "deferred ledger entry written",
			"entry_id", e.ID,
			"event_type", e.EventType,
			"reference_id", e.ReferenceID,
		)
		return nil
	}
}

func referencesDocument(t ledger.ReferenceType) bool {
	return t == ledger.RefSale || t == ledger.RefPurchase
}

func (r *LedgerRepo) referenceExists(ctx context.Context, e *ledger.Entry) (bool, error) {
	table := "sales"
	if e.ReferenceType == ledger.RefPurchase {
		table = "purchases"
	}

	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = $1 AND device_id = $2)",
		*e.ReferenceID, e.DeviceID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger reference: %w", err)
	}
	return exists, nil
}
