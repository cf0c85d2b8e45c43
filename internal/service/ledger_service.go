package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/util"
	"github.com/shopspring/decimal"
)

// LedgerService aggregates the day's sources into a LedgerSummary.
// It only reads; nothing here writes to the entry or COB stores.
type LedgerService struct {
	entryRepo domain.EntryRepository
	cobRepo   domain.COBRepository
	metrics   MetricsRecorder
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(entryRepo domain.EntryRepository, cobRepo domain.COBRepository) *LedgerService {
	return &LedgerService{
		entryRepo: entryRepo,
		cobRepo:   cobRepo,
		metrics:   noopMetrics{},
	}
}

// SetMetrics sets the metrics recorder
func (s *LedgerService) SetMetrics(recorder MetricsRecorder) {
	s.metrics = recorder
}

// ComputeLedger derives the summary of a business date. date must be a
// business date in the shop's location; its window is [date, date+1).
// Any failing read aborts with ErrDataUnavailable; there are no partial summaries.
func (s *LedgerService) ComputeLedger(ctx context.Context, date time.Time) (*domain.LedgerSummary, error) {
	started := time.Now()
	summary, err := s.computeLedger(ctx, date)
	s.metrics.RecordLedgerComputation(err == nil, time.Since(started))
	return summary, err
}

func (s *LedgerService) computeLedger(ctx context.Context, date time.Time) (*domain.LedgerSummary, error) {
	start, end := util.DayWindow(date)

	sales, err := s.loadEligible(ctx, domain.EntryKindSale, start, end)
	if err != nil {
		return nil, err
	}
	services, err := s.loadEligible(ctx, domain.EntryKindService, start, end)
	if err != nil {
		return nil, err
	}
	expenses, err := s.loadEligible(ctx, domain.EntryKindExpense, start, end)
	if err != nil {
		return nil, err
	}

	openingCash, openingAccount := decimal.Zero, decimal.Zero
	prior, err := s.cobRepo.GetLatestBefore(ctx, start)
	switch {
	case err == nil:
		// days left unclosed since the prior closure still move the drawer
		_, gapStart := util.DayWindow(prior.Date)
		cashNet, accountNet, err := s.netBetween(ctx, gapStart, start)
		if err != nil {
			return nil, err
		}
		openingCash = prior.Summary.CashBalance.Add(cashNet)
		openingAccount = prior.Summary.AccountBalance.Add(accountNet)
	case errors.Is(err, domain.ErrCOBNotFound):
	default:
		return nil, fmt.Errorf("%w: prior closure: %w", domain.ErrDataUnavailable, err)
	}

	income := append(append(make([]*domain.Entry, 0, len(sales)+len(services)), sales...), services...)
	sortByOccurrence(income)

	summary := &domain.LedgerSummary{
		Date:          util.FormatDate(start),
		SalesTotal:    sumAmounts(sales),
		ServicesTotal: sumAmounts(services),
		ExpensesTotal: sumAmounts(expenses),
		PaymentBreakdown: domain.PaymentBreakdown{
			Income:   breakdown(income),
			Expenses: breakdown(expenses),
		},
		OpeningCashBalance:    openingCash,
		OpeningAccountBalance: openingAccount,
	}
	summary.NetIncome = summary.SalesTotal.Add(summary.ServicesTotal).Sub(summary.ExpensesTotal)

	cashIn, accountIn := splitBuckets(summary.PaymentBreakdown.Income)
	cashOut, accountOut := splitBuckets(summary.PaymentBreakdown.Expenses)
	summary.CashBalance = openingCash.Add(cashIn).Sub(cashOut)
	summary.AccountBalance = openingAccount.Add(accountIn).Sub(accountOut)

	return summary, nil
}

// OpeningNotes returns the notes of the most recent closure strictly before date
func (s *LedgerService) OpeningNotes(ctx context.Context, date time.Time) (string, error) {
	start, _ := util.DayWindow(date)
	prior, err := s.cobRepo.GetLatestBefore(ctx, start)
	if errors.Is(err, domain.ErrCOBNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: prior closure: %w", domain.ErrDataUnavailable, err)
	}
	return prior.Notes, nil
}

// netBetween returns the cash and account movement of eligible entries in
// [start, end). An empty or inverted window moves nothing.
func (s *LedgerService) netBetween(ctx context.Context, start, end time.Time) (cash, account decimal.Decimal, err error) {
	cash, account = decimal.Zero, decimal.Zero
	if !start.Before(end) {
		return cash, account, nil
	}
	for _, kind := range []domain.EntryKind{domain.EntryKindSale, domain.EntryKindService, domain.EntryKindExpense} {
		entries, err := s.loadEligible(ctx, kind, start, end)
		if err != nil {
			return cash, account, err
		}
		kindCash, kindAccount := splitBuckets(breakdown(entries))
		if !kind.IsIncome() {
			kindCash, kindAccount = kindCash.Neg(), kindAccount.Neg()
		}
		cash, account = cash.Add(kindCash), account.Add(kindAccount)
	}
	return cash, account, nil
}

func (s *LedgerService) loadEligible(ctx context.Context, kind domain.EntryKind, start, end time.Time) ([]*domain.Entry, error) {
	entries, err := s.entryRepo.ListLedgerEligible(ctx, kind, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDataUnavailable, kind, err)
	}

	eligible := make([]*domain.Entry, 0, len(entries))
	for _, e := range entries {
		if e.CountsTowardLedger() {
			eligible = append(eligible, e)
		}
	}
	sortByOccurrence(eligible)
	return eligible, nil
}

func sortByOccurrence(entries []*domain.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].OccurredAt.Equal(entries[j].OccurredAt) {
			return entries[i].OccurredAt.Before(entries[j].OccurredAt)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

func sumAmounts(entries []*domain.Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// breakdown groups entries by payment method in first-occurrence order
func breakdown(entries []*domain.Entry) []domain.MethodTotal {
	rows := []domain.MethodTotal{}
	index := make(map[domain.PaymentMethod]int)
	for _, e := range entries {
		i, ok := index[e.PaymentMethod]
		if !ok {
			i = len(rows)
			index[e.PaymentMethod] = i
			rows = append(rows, domain.MethodTotal{Method: e.PaymentMethod, Amount: decimal.Zero})
		}
		rows[i].Count++
		rows[i].Amount = rows[i].Amount.Add(e.Amount)
	}
	return rows
}

// splitBuckets partitions breakdown rows into the cash drawer and everything else
func splitBuckets(rows []domain.MethodTotal) (cash, account decimal.Decimal) {
	cash, account = decimal.Zero, decimal.Zero
	for _, r := range rows {
		if r.Method.IsCash() {
			cash = cash.Add(r.Amount)
		} else {
			account = account.Add(r.Amount)
		}
	}
	return cash, account
}
