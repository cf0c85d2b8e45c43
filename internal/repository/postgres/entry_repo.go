package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `id, kind, amount, payment_method, occurred_at, status,
	description, reference, created_by, created_at, updated_at`

// ledgerEligibility holds the per-kind inclusion predicate for ledger totals.
// Must stay in sync with domain.Entry.CountsTowardLedger.
var ledgerEligibility = map[domain.EntryKind]string{
	domain.EntryKindSale:    `status = 'completed'`,
	domain.EntryKindService: `status <> 'cancelled' AND payment_method IS NOT NULL AND amount > 0`,
	domain.EntryKindExpense: `status = 'recorded'`,
}

// EntryRepository implements domain.EntryRepository using PostgreSQL
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts a new entry
func (r *EntryRepository) Create(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	amount, err := decimalToPgNumeric(entry.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	id := entry.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO entries (
			id, kind, amount, payment_method, occurred_at, status,
			description, reference, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+entryColumns,
		id, string(entry.Kind), amount, stringToPgText(string(entry.PaymentMethod)),
		entry.OccurredAt, string(entry.Status), entry.Description,
		ptrToPgText(entry.Reference), entry.CreatedBy,
	)
	created, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return created, nil
}

// GetByID retrieves an entry by its ID
func (r *EntryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Entry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = $1`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// UpdateStatus changes the lifecycle status of an entry
func (r *EntryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EntryStatus) (*domain.Entry, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE entries SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+entryColumns,
		id, string(status),
	)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// ListByRange returns every entry that occurred in [start, end)
func (r *EntryRepository) ListByRange(ctx context.Context, start, end time.Time) ([]*domain.Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM entries
		WHERE occurred_at >= $1 AND occurred_at < $2
		ORDER BY occurred_at, created_at, id`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return collectEntries(rows)
}

// ListLedgerEligible returns the entries of one kind in [start, end) that count toward the ledger
func (r *EntryRepository) ListLedgerEligible(ctx context.Context, kind domain.EntryKind, start, end time.Time) ([]*domain.Entry, error) {
	predicate, ok := ledgerEligibility[kind]
	if !ok {
		return nil, domain.ErrInvalidEntryKind
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM entries
		WHERE kind = $1 AND occurred_at >= $2 AND occurred_at < $3
			AND `+predicate+`
		ORDER BY occurred_at, created_at, id`,
		string(kind), start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s entries: %w", kind, err)
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]*domain.Entry, error) {
	defer rows.Close()

	entries := []*domain.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanEntry(row rowScanner) (*domain.Entry, error) {
	var (
		e             domain.Entry
		kind, status  string
		amount        pgtype.Numeric
		paymentMethod pgtype.Text
		reference     pgtype.Text
	)
	err := row.Scan(
		&e.ID, &kind, &amount, &paymentMethod, &e.OccurredAt, &status,
		&e.Description, &reference, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Kind = domain.EntryKind(kind)
	e.Status = domain.EntryStatus(status)
	e.Amount = pgNumericToDecimal(amount)
	if paymentMethod.Valid {
		e.PaymentMethod = domain.PaymentMethod(paymentMethod.String)
	}
	e.Reference = pgTextToPtr(reference)
	return &e, nil
}
