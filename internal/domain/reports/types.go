// Package reports derives financial summaries from the ledger and from the
// current outstanding sales and purchases. It never writes.
package reports

import (
	"time"

	"posledger/internal/core/id"
	"posledger/internal/core/types"
	"posledger/internal/domain/ledger"
)

// Totals are the figures computed over the ledger rows of a period.
type Totals struct {
	TotalIncome   types.Money `json:"total_income"`
	TotalExpenses types.Money `json:"total_expenses"`
	TotalCOGS     types.Money `json:"total_cogs"`
	// TotalProfit counts credit only on rows that also carry cost, so an
	// unpaid credit sale contributes nothing until money arrives.
	TotalProfit types.Money `json:"total_profit"`
	NetProfit   types.Money `json:"net_profit"`
}

// OpenBill is a sale or purchase with money still owed on it.
type OpenBill struct {
	ID                id.ID       `db:"id" json:"id"`
	CounterpartyID    *id.ID      `db:"counterparty_id" json:"counterparty_id,omitempty"`
	CounterpartyName  string      `db:"counterparty_name" json:"counterparty_name,omitempty"`
	Date              time.Time   `db:"bill_date" json:"date"`
	TotalAmount       types.Money `db:"total_amount" json:"total_amount"`
	ReceivedAmount    types.Money `db:"received_amount" json:"received_amount"`
	OutstandingAmount types.Money `db:"outstanding_amount" json:"outstanding_amount"`
	Status            string      `db:"status" json:"status"`
}

// Summary is the financial picture of one device over an inclusive date range.
type Summary struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Totals

	Transactions []ledger.Entry `json:"transactions"`

	Receivables      []OpenBill  `json:"receivables"`
	Payables         []OpenBill  `json:"payables"`
	TotalReceivables types.Money `json:"total_receivables"`
	TotalPayables    types.Money `json:"total_payables"`

	OpeningBalance types.Money `json:"opening_balance"`
	ClosingBalance types.Money `json:"closing_balance"`
}

// Balances is the running cash balance at the two ends of a period.
type Balances struct {
	OpeningAt      time.Time   `json:"opening_at"`
	ClosingAt      time.Time   `json:"closing_at"`
	OpeningBalance types.Money `json:"opening_balance"`
	ClosingBalance types.Money `json:"closing_balance"`
}

func emptySummary(from, to time.Time) *Summary {
	return &Summary{
		From: from,
		To:   to,
		Totals: Totals{
			TotalIncome:   types.Zero(),
			TotalExpenses: types.Zero(),
			TotalCOGS:     types.Zero(),
			TotalProfit:   types.Zero(),
			NetProfit:     types.Zero(),
		},
		Transactions:     []ledger.Entry{},
		Receivables:      []OpenBill{},
		Payables:         []OpenBill{},
		TotalReceivables: types.Zero(),
		TotalPayables:    types.Zero(),
		OpeningBalance:   types.Zero(),
		ClosingBalance:   types.Zero(),
	}
}
