// Package report renders ledger summaries for the shop's accountant.
package report

import (
	"fmt"
	"io"

	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet   = "Summary"
	breakdownSheet = "Breakdown"

	// ContentTypeXLSX is the MIME type of the rendered workbook
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FileName returns the attachment name for a day's ledger export
func FileName(date string) string {
	return fmt.Sprintf("ledger-%s.xlsx", date)
}

// WriteLedgerXLSX renders a ledger summary as a two-sheet workbook
func WriteLedgerXLSX(w io.Writer, summary *domain.LedgerSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(breakdownSheet); err != nil {
		return fmt.Errorf("create breakdown sheet: %w", err)
	}

	rows := [][]any{
		{"Business date", summary.Date},
		{"Sales", money(summary.SalesTotal)},
		{"Services", money(summary.ServicesTotal)},
		{"Expenses", money(summary.ExpensesTotal)},
		{"Net income", money(summary.NetIncome)},
		{"Opening cash", money(summary.OpeningCashBalance)},
		{"Opening account", money(summary.OpeningAccountBalance)},
		{"Cash balance", money(summary.CashBalance)},
		{"Account balance", money(summary.AccountBalance)},
	}
	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := setRow(f, breakdownSheet, 1, []any{"Side", "Method", "Count", "Amount"}); err != nil {
		return err
	}
	line := 2
	for _, side := range []struct {
		name   string
		totals []domain.MethodTotal
	}{
		{"Income", summary.PaymentBreakdown.Income},
		{"Expenses", summary.PaymentBreakdown.Expenses},
	} {
		for _, t := range side.totals {
			if err := setRow(f, breakdownSheet, line, []any{side.name, string(t.Method), t.Count, money(t.Amount)}); err != nil {
				return err
			}
			line++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// money keeps two decimals as a numeric cell
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
