package domain

import "github.com/shopspring/decimal"

// MethodTotal aggregates entries settled with one payment method
type MethodTotal struct {
	Method PaymentMethod   `json:"method"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentBreakdown groups a day's money by payment method.
// Rows keep the order in which each method first appeared that day.
type PaymentBreakdown struct {
	Income   []MethodTotal `json:"income"`
	Expenses []MethodTotal `json:"expenses"`
}

// IncomeTotal sums the income side of the breakdown
func (b PaymentBreakdown) IncomeTotal() decimal.Decimal {
	return sumMethodTotals(b.Income)
}

// ExpenseTotal sums the expense side of the breakdown
func (b PaymentBreakdown) ExpenseTotal() decimal.Decimal {
	return sumMethodTotals(b.Expenses)
}

func sumMethodTotals(rows []MethodTotal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}

// LedgerSummary is the derived financial picture of one business date.
// It is computed on demand and only persisted inside a COBRecord.
type LedgerSummary struct {
	Date                  string           `json:"date"`
	SalesTotal            decimal.Decimal  `json:"salesTotal"`
	ServicesTotal         decimal.Decimal  `json:"servicesTotal"`
	ExpensesTotal         decimal.Decimal  `json:"expensesTotal"`
	NetIncome             decimal.Decimal  `json:"netIncome"`
	PaymentBreakdown      PaymentBreakdown `json:"paymentBreakdown"`
	OpeningCashBalance    decimal.Decimal  `json:"openingCashBalance"`
	OpeningAccountBalance decimal.Decimal  `json:"openingAccountBalance"`
	CashBalance           decimal.Decimal  `json:"cashBalance"`
	AccountBalance        decimal.Decimal  `json:"accountBalance"`
}
