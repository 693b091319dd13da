// Package export renders reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"posledger/internal/core/types"
	"posledger/internal/domain/reports"
)

// ContentTypeXLSX is the MIME type of the files written here.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetSummary      = "Summary"
	sheetTransactions = "Transactions"
	sheetReceivables  = "Receivables"
	sheetPayables     = "Payables"
	dateLayout        = "2006-01-02 15:04"
)

// WriteSummaryXLSX writes s as a workbook with one sheet for the totals and
// one each for transactions, receivables and payables.
func WriteSummaryXLSX(w io.Writer, s *reports.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetTransactions, sheetReceivables, sheetPayables} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	if err := writeTotals(f, s); err != nil {
		return err
	}
	if err := writeTransactions(f, s); err != nil {
		return err
	}
	if err := writeBills(f, sheetReceivables, "Customer", s.Receivables); err != nil {
		return err
	}
	if err := writeBills(f, sheetPayables, "Supplier", s.Payables); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTotals(f *excelize.File, s *reports.Summary) error {
	rows := [][]any{
		{"From", s.From.Format(dateLayout)},
		{"To", s.To.Format(dateLayout)},
		{"Total income", amount(s.TotalIncome)},
		{"Total expenses", amount(s.TotalExpenses)},
		{"Total COGS", amount(s.TotalCOGS)},
		{"Total profit", amount(s.TotalProfit)},
		{"Net profit", amount(s.NetProfit)},
		{"Total receivables", amount(s.TotalReceivables)},
		{"Total payables", amount(s.TotalPayables)},
		{"Opening balance", amount(s.OpeningBalance)},
		{"Closing balance", amount(s.ClosingBalance)},
	}
	return writeRows(f, sheetSummary, rows)
}

func writeTransactions(f *excelize.File, s *reports.Summary) error {
	rows := make([][]any, 0, len(s.Transactions)+1)
	rows = append(rows, []any{"Date", "Event", "Status", "Debit", "Credit", "Cost", "Payment method", "Description"})
	for _, e := range s.Transactions {
		rows = append(rows, []any{
			e.TransactionDate.Format(dateLayout),
			string(e.EventType),
			e.Status,
			amount(e.DebitAmount),
			amount(e.CreditAmount),
			amount(e.CostAmount),
			e.PaymentMethod,
			e.Description,
		})
	}
	return writeRows(f, sheetTransactions, rows)
}

func writeBills(f *excelize.File, sheet, party string, bills []reports.OpenBill) error {
	rows := make([][]any, 0, len(bills)+1)
	rows = append(rows, []any{"Date", party, "Status", "Total", "Received", "Outstanding"})
	for _, b := range bills {
		rows = append(rows, []any{
			b.Date.Format(dateLayout),
			b.CounterpartyName,
			b.Status,
			amount(b.TotalAmount),
			amount(b.ReceivedAmount),
			amount(b.OutstandingAmount),
		})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func amount(m types.Money) float64 {
	return types.Round2(m).InexactFloat64()
}
