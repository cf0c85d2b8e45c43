// Package wire holds the JSON shapes of ledger data shared by the HTTP API,
// websocket events and the closure archive.
package wire

import (
	"time"

	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/util"
)

// MethodTotal is one payment method row of the breakdown
type MethodTotal struct {
	Method string `json:"method"`
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

// PaymentBreakdown groups the day's money by payment method
type PaymentBreakdown struct {
	Income   []MethodTotal `json:"income"`
	Expenses []MethodTotal `json:"expenses"`
}

// LedgerSummary carries amounts as decimal strings with two places
type LedgerSummary struct {
	Date                  string           `json:"date"`
	SalesTotal            string           `json:"salesTotal"`
	ServicesTotal         string           `json:"servicesTotal"`
	ExpensesTotal         string           `json:"expensesTotal"`
	NetIncome             string           `json:"netIncome"`
	OpeningCashBalance    string           `json:"openingCashBalance"`
	OpeningAccountBalance string           `json:"openingAccountBalance"`
	CashBalance           string           `json:"cashBalance"`
	AccountBalance        string           `json:"accountBalance"`
	PaymentBreakdown      PaymentBreakdown `json:"paymentBreakdown"`
}

// COBRecord is a closure with its date as YYYY-MM-DD and closedAt in RFC 3339 UTC
type COBRecord struct {
	ID       string        `json:"id"`
	Date     string        `json:"date"`
	Summary  LedgerSummary `json:"summary"`
	Notes    string        `json:"notes"`
	ClosedBy string        `json:"closedBy"`
	ClosedAt string        `json:"closedAt"`
}

func methodTotals(rows []domain.MethodTotal) []MethodTotal {
	result := make([]MethodTotal, len(rows))
	for i, r := range rows {
		result[i] = MethodTotal{
			Method: string(r.Method),
			Count:  r.Count,
			Amount: r.Amount.StringFixed(2),
		}
	}
	return result
}

// FromLedgerSummary converts a computed summary to its wire form
func FromLedgerSummary(s *domain.LedgerSummary) LedgerSummary {
	return LedgerSummary{
		Date:                  s.Date,
		SalesTotal:            s.SalesTotal.StringFixed(2),
		ServicesTotal:         s.ServicesTotal.StringFixed(2),
		ExpensesTotal:         s.ExpensesTotal.StringFixed(2),
		NetIncome:             s.NetIncome.StringFixed(2),
		OpeningCashBalance:    s.OpeningCashBalance.StringFixed(2),
		OpeningAccountBalance: s.OpeningAccountBalance.StringFixed(2),
		CashBalance:           s.CashBalance.StringFixed(2),
		AccountBalance:        s.AccountBalance.StringFixed(2),
		PaymentBreakdown: PaymentBreakdown{
			Income:   methodTotals(s.PaymentBreakdown.Income),
			Expenses: methodTotals(s.PaymentBreakdown.Expenses),
		},
	}
}

// FromCOBRecord converts a closure record to its wire form
func FromCOBRecord(r *domain.COBRecord) COBRecord {
	return COBRecord{
		ID:       r.ID.String(),
		Date:     util.FormatDate(r.Date),
		Summary:  FromLedgerSummary(&r.Summary),
		Notes:    r.Notes,
		ClosedBy: r.ClosedBy,
		ClosedAt: r.ClosedAt.UTC().Format(time.RFC3339),
	}
}
