// Package report_repo provides the read-only queries behind financial reports.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/types"
	"posledger/internal/domain/ledger"
	"posledger/internal/domain/reports"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/internal/infrastructure/storage/postgres/register_repo"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListEntries returns the ledger rows of [from, to], oldest first.
func (r *ReportRepo) ListEntries(ctx context.Context, deviceID string, from, to time.Time) ([]ledger.Entry, error) {
	sql, args, err := r.builder.
		Select(register_repo.LedgerCols...).
		From("ledger_entries").
		Where(squirrel.Eq{"device_id": deviceID}).
		Where(squirrel.GtOrEq{"transaction_date": from}).
		Where(squirrel.LtOrEq{"transaction_date": to}).
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

// OpenSales returns receivables.
func (r *ReportRepo) OpenSales(ctx context.Context, deviceID string) ([]reports.OpenBill, error) {
	return r.openBills(ctx, deviceID, "sales", "customers", "customer_id", "sale_date")
}

// OpenPurchases returns payables.
func (r *ReportRepo) OpenPurchases(ctx context.Context, deviceID string) ([]reports.OpenBill, error) {
	return r.openBills(ctx, deviceID, "purchases", "suppliers", "supplier_id", "purchase_date")
}

func (r *ReportRepo) openBills(ctx context.Context, deviceID, table, partyTable, partyCol, dateCol string) ([]reports.OpenBill, error) {
	sql, args, err := r.builder.
		Select(
			"b.id",
			"b."+partyCol+" AS counterparty_id",
			"COALESCE(c.name, '') AS counterparty_name",
			"b."+dateCol+" AS bill_date",
			"b.total_amount",
			"b.received_amount",
			"b.total_amount - b.received_amount AS outstanding_amount",
			"b.status",
		).
		From(table + " b").
		LeftJoin(partyTable + " c ON c.id = b." + partyCol).
		Where(squirrel.Eq{"b.device_id": deviceID}).
		Where(squirrel.NotEq{"b.status": "Cancelled"}).
		Where("b.total_amount > b.received_amount").
		OrderBy("b."+dateCol, "b.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var bills []reports.OpenBill
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &bills, sql, args...); err != nil {
		return nil, fmt.Errorf("open %s: %w", table, err)
	}
	return bills, nil
}

// BalanceAt is Σ(credit - debit) over rows dated at or before at.
func (r *ReportRepo) BalanceAt(ctx context.Context, deviceID string, at time.Time) (types.Money, error) {
	sql, args, err := r.builder.
		Select("COALESCE(SUM(credit_amount - debit_amount), 0)").
		From("ledger_entries").
		Where(squirrel.Eq{"device_id": deviceID}).
		Where(squirrel.LtOrEq{"transaction_date": at}).
		ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var balance types.Money
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		return types.Zero(), fmt.Errorf("balance at %s: %w", at.Format(time.RFC3339), err)
	}
	return balance, nil
}
