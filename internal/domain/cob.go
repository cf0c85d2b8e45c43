package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DayState is the close-of-business state of a business date
type DayState string

const (
	DayStateOpen   DayState = "OPEN"
	DayStateClosed DayState = "CLOSED"
)

// COBRecord is the permanent closure of a business date.
// There is at most one per date and it is never updated or deleted.
type COBRecord struct {
	ID       uuid.UUID     `json:"id"`
	Date     time.Time     `json:"date"`
	Summary  LedgerSummary `json:"summary"`
	Notes    string        `json:"notes"`
	ClosedBy string        `json:"closedBy"`
	ClosedAt time.Time     `json:"closedAt"`
}

// DayStatus reports whether a business date is still open for writes
type DayStatus struct {
	Date     time.Time  `json:"date"`
	State    DayState   `json:"state"`
	ClosedBy *string    `json:"closedBy,omitempty"`
	ClosedAt *time.Time `json:"closedAt,omitempty"`
}

// CloseBusinessDayInput carries a closure request. Totals are never part of
// the input: the snapshot is always recomputed server-side.
type CloseBusinessDayInput struct {
	Date     time.Time
	Notes    string
	ClosedBy string
}

// COBRepository defines persistence for closure records.
// Dates are business dates at midnight in the shop's location.
type COBRepository interface {
	// Create persists a record; a second record for the same date returns ErrAlreadyClosed
	Create(ctx context.Context, record *COBRecord) (*COBRecord, error)
	GetByDate(ctx context.Context, date time.Time) (*COBRecord, error)
	// GetLatestBefore returns the most recent record strictly before date, or ErrCOBNotFound
	GetLatestBefore(ctx context.Context, date time.Time) (*COBRecord, error)
	// GetLatest returns the most recent record overall, or ErrCOBNotFound
	GetLatest(ctx context.Context) (*COBRecord, error)
	List(ctx context.Context, limit int) ([]*COBRecord, error)
}
