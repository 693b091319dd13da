package reports

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"posledger/internal/core/types"
	"posledger/internal/domain/ledger"
	"posledger/pkg/logger"
)

var tracer = otel.Tracer("posledger/reports")

// Service builds financial summaries. Failures degrade to zeroed results
// instead of errors.
type Service struct {
	repo Repository
	loc  *time.Location
}

// NewService creates the reports service. Day boundaries are taken in loc.
func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, loc: loc}
}

// Summarize computes the period totals over ledger rows.
func Summarize(entries []ledger.Entry) Totals {
	t := Totals{
		TotalIncome:   types.Zero(),
		TotalExpenses: types.Zero(),
		TotalCOGS:     types.Zero(),
		TotalProfit:   types.Zero(),
	}
	for _, e := range entries {
		t.TotalIncome = t.TotalIncome.Add(e.CreditAmount)
		t.TotalExpenses = t.TotalExpenses.Add(e.DebitAmount)
		t.TotalCOGS = t.TotalCOGS.Add(e.CostAmount)
		if e.CostAmount.IsPositive() && e.CreditAmount.IsPositive() {
			t.TotalProfit = t.TotalProfit.Add(e.CreditAmount)
		}
	}
	t.NetProfit = t.TotalIncome.Sub(t.TotalExpenses)
	return t
}

// Period normalizes an inclusive date range to local day boundaries.
func (s *Service) Period(from, to time.Time) (time.Time, time.Time) {
	return startOfDay(from, s.loc), endOfDay(to, s.loc)
}

// ParseDay reads a YYYY-MM-DD date in the service's location. An empty
// string yields today.
func (s *Service) ParseDay(v string) (time.Time, error) {
	if v == "" {
		return time.Now().In(s.loc), nil
	}
	return time.ParseInLocation(time.DateOnly, v, s.loc)
}

// GetFinancialSummary returns the summary for deviceID over [from, to]. It
// never fails: any read error yields a zeroed summary and a log line.
func (s *Service) GetFinancialSummary(ctx context.Context, deviceID string, from, to time.Time) *Summary {
	start, end := s.Period(from, to)

	ctx, span := tracer.Start(ctx, "reports.financial_summary")
	span.SetAttributes(
		attribute.String("device_id", deviceID),
		attribute.String("from", start.Format(time.RFC3339)),
		attribute.String("to", end.Format(time.RFC3339)),
	)
	defer span.End()

	summary, err := s.buildSummary(ctx, deviceID, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn(ctx, "financial summary degraded to empty",
			"device_id", deviceID,
			"from", start,
			"to", end,
			"error", err,
		)
		return emptySummary(start, end)
	}
	return summary
}

func (s *Service) buildSummary(ctx context.Context, deviceID string, start, end time.Time) (*Summary, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device scope missing")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range ends before it starts")
	}

	entries, err := s.repo.ListEntries(ctx, deviceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	receivables, err := s.repo.OpenSales(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("open sales: %w", err)
	}
	payables, err := s.repo.OpenPurchases(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("open purchases: %w", err)
	}
	opening, closing, err := s.balances(ctx, deviceID, start, end)
	if err != nil {
		return nil, err
	}

	summary := emptySummary(start, end)
	summary.Totals = Summarize(entries)
	if entries != nil {
		summary.Transactions = entries
	}
	if receivables != nil {
		summary.Receivables = receivables
	}
	if payables != nil {
		summary.Payables = payables
	}
	summary.TotalReceivables = sumOutstanding(receivables)
	summary.TotalPayables = sumOutstanding(payables)
	summary.OpeningBalance = opening
	summary.ClosingBalance = closing
	return summary, nil
}

// GetAccountingBalances returns the running balance at start-of-day(from)
// and end-of-day(to). Failures yield zeros.
func (s *Service) GetAccountingBalances(ctx context.Context, deviceID string, from, to time.Time) Balances {
	start, end := s.Period(from, to)
	out := Balances{
		OpeningAt:      start,
		ClosingAt:      end,
		OpeningBalance: types.Zero(),
		ClosingBalance: types.Zero(),
	}
	if deviceID == "" {
		return out
	}

	opening, closing, err := s.balances(ctx, deviceID, start, end)
	if err != nil {
		logger.Warn(ctx, "accounting balances degraded to zero", "device_id", deviceID, "error", err)
		return out
	}
	out.OpeningBalance = opening
	out.ClosingBalance = closing
	return out
}

func (s *Service) balances(ctx context.Context, deviceID string, start, end time.Time) (types.Money, types.Money, error) {
	opening, err := s.repo.BalanceAt(ctx, deviceID, start)
	if err != nil {
		return types.Zero(), types.Zero(), fmt.Errorf("opening balance: %w", err)
	}
	closing, err := s.repo.BalanceAt(ctx, deviceID, end)
	if err != nil {
		return types.Zero(), types.Zero(), fmt.Errorf("closing balance: %w", err)
	}
	return opening, closing, nil
}

func sumOutstanding(bills []OpenBill) types.Money {
	total := types.Zero()
	for _, b := range bills {
		total = total.Add(b.OutstandingAmount)
	}
	return total
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	return startOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
