package reports

import (
	"context"
	"time"

	"posledger/internal/core/types"
	"posledger/internal/domain/ledger"
)

// Repository reads what the reports are computed from. Reads are not
// transactional and may race with writers.
type Repository interface {
	// ListEntries returns ledger rows with from <= transaction_date <= to, oldest first.
	ListEntries(ctx context.Context, deviceID string, from, to time.Time) ([]ledger.Entry, error)

	// OpenSales returns non-cancelled sales with a positive outstanding amount.
	OpenSales(ctx context.Context, deviceID string) ([]OpenBill, error)

	// OpenPurchases returns non-cancelled purchases with a positive outstanding amount.
	OpenPurchases(ctx context.Context, deviceID string) ([]OpenBill, error)

	// BalanceAt sums credit - debit over every row with transaction_date <= at.
	BalanceAt(ctx context.Context, deviceID string, at time.Time) (types.Money, error)
}
