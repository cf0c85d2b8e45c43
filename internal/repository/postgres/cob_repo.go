package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cobColumns = `id, business_date, summary, notes, closed_by, closed_at`

// COBRepository implements domain.COBRepository using PostgreSQL.
// The UNIQUE constraint on business_date is what serializes racing closures.
type COBRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// NewCOBRepository creates a new COBRepository; loc is the shop's time zone
func NewCOBRepository(pool *pgxpool.Pool, loc *time.Location) *COBRepository {
	return &COBRepository{
		pool: pool,
		loc:  loc,
	}
}

// Create persists a closure record
func (r *COBRepository) Create(ctx context.Context, record *domain.COBRecord) (*domain.COBRecord, error) {
	summary, err := json.Marshal(record.Summary)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}

	id := record.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO cob_records (id, business_date, summary, notes, closed_by, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+cobColumns,
		id, timeToPgDate(record.Date), summary, record.Notes, record.ClosedBy, record.ClosedAt,
	)
	created, err := r.scan(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrAlreadyClosed
		}
		return nil, fmt.Errorf("create cob record: %w", err)
	}
	return created, nil
}

// GetByDate retrieves the closure record of a business date
func (r *COBRepository) GetByDate(ctx context.Context, date time.Time) (*domain.COBRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+cobColumns+` FROM cob_records WHERE business_date = $1`,
		timeToPgDate(date))
	return r.scanOne(row)
}

// GetLatestBefore retrieves the most recent closure strictly before date
func (r *COBRepository) GetLatestBefore(ctx context.Context, date time.Time) (*domain.COBRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+cobColumns+` FROM cob_records
		WHERE business_date < $1
		ORDER BY business_date DESC
		LIMIT 1`,
		timeToPgDate(date))
	return r.scanOne(row)
}

// GetLatest retrieves the most recent closure
func (r *COBRepository) GetLatest(ctx context.Context) (*domain.COBRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+cobColumns+` FROM cob_records ORDER BY business_date DESC LIMIT 1`)
	return r.scanOne(row)
}

// List returns closure records, most recent first
func (r *COBRepository) List(ctx context.Context, limit int) ([]*domain.COBRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cobColumns+` FROM cob_records ORDER BY business_date DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list cob records: %w", err)
	}
	defer rows.Close()

	records := []*domain.COBRecord{}
	for rows.Next() {
		record, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *COBRepository) scanOne(row pgx.Row) (*domain.COBRecord, error) {
	record, err := r.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCOBNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *COBRepository) scan(row rowScanner) (*domain.COBRecord, error) {
	var (
		record  domain.COBRecord
		date    pgtype.Date
		summary []byte
	)
	if err := row.Scan(&record.ID, &date, &summary, &record.Notes, &record.ClosedBy, &record.ClosedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(summary, &record.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	record.Date = pgDateToLocal(date, r.loc)
	return &record, nil
}
