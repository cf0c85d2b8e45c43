package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/lock"
	"github.com/horologium/ledger-backend/internal/repository/storage"
	"github.com/horologium/ledger-backend/internal/util"
	"github.com/horologium/ledger-backend/internal/websocket"
	"github.com/horologium/ledger-backend/internal/wire"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCOBListLimit = 30
	MaxCOBListLimit     = 366

	archiveTimeout = 10 * time.Second
)

// COBService closes business days. A closure is permanent: there is no
// reopen path and a COBRecord is never updated.
type COBService struct {
	cobRepo        domain.COBRepository
	ledgerService  *LedgerService
	locker         lock.Locker
	loc            *time.Location
	now            func() time.Time
	eventPublisher websocket.EventPublisher
	archive        storage.ArchiveRepository
	metrics        MetricsRecorder
}

// NewCOBService creates a new COBService
func NewCOBService(cobRepo domain.COBRepository, ledgerService *LedgerService, locker lock.Locker, loc *time.Location) *COBService {
	return &COBService{
		cobRepo:       cobRepo,
		ledgerService: ledgerService,
		locker:        locker,
		loc:           loc,
		now:           time.Now,
		metrics:       noopMetrics{},
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *COBService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetArchive sets the snapshot archive; without one, archiving is skipped
func (s *COBService) SetArchive(archive storage.ArchiveRepository) {
	s.archive = archive
}

// SetMetrics sets the metrics recorder
func (s *COBService) SetMetrics(recorder MetricsRecorder) {
	s.metrics = recorder
}

// SetClock overrides the time source
func (s *COBService) SetClock(now func() time.Time) {
	s.now = now
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *COBService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// CloseBusinessDay freezes the day's ledger into a COBRecord.
// The summary is always recomputed here; callers cannot supply totals.
func (s *COBService) CloseBusinessDay(ctx context.Context, input domain.CloseBusinessDayInput) (*domain.COBRecord, error) {
	started := time.Now()
	record, err := s.closeBusinessDay(ctx, input)
	s.metrics.RecordClosure(closureOutcome(err), time.Since(started))
	return record, err
}

func (s *COBService) closeBusinessDay(ctx context.Context, input domain.CloseBusinessDayInput) (*domain.COBRecord, error) {
	closedBy := strings.TrimSpace(input.ClosedBy)
	if closedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	notes := strings.TrimSpace(input.Notes)
	if utf8.RuneCountInString(notes) > domain.MaxNotesLength {
		return nil, domain.ErrNotesTooLong
	}
	if input.Date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	date := util.StartOfDay(input.Date, s.loc)

	if err := s.ensureNotClosed(ctx, date); err != nil {
		return nil, err
	}
	if util.IsFutureDate(date, s.now(), s.loc) {
		return nil, domain.ErrInvalidDate
	}
	waitStarted := time.Now()
	held, err := s.locker.Acquire(ctx)
	s.metrics.RecordLockWait(time.Since(waitStarted))
	if err != nil {
		return nil, fmt.Errorf("%w: closure lock: %w", domain.ErrDataUnavailable, err)
	}
	defer releaseLock(ctx, held)

	// A racing closure may have finished while we waited
	if err := s.ensureNotClosed(ctx, date); err != nil {
		return nil, err
	}
	if err := s.ensureNotBeforeLatest(ctx, date); err != nil {
		return nil, err
	}

	summary, err := s.ledgerService.ComputeLedger(ctx, date)
	if err != nil {
		return nil, err
	}

	record, err := s.cobRepo.Create(ctx, &domain.COBRecord{
		ID:       uuid.New(),
		Date:     date,
		Summary:  *summary,
		Notes:    notes,
		ClosedBy: closedBy,
		ClosedAt: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyClosed) {
			return nil, domain.ErrAlreadyClosed
		}
		return nil, fmt.Errorf("persist closure: %w", err)
	}

	log.Info().
		Str("date", summary.Date).
		Str("closed_by", closedBy).
		Str("net_income", summary.NetIncome.StringFixed(2)).
		Msg("Business day closed")

	s.publishEvent(websocket.BusinessDayClosed(wire.FromCOBRecord(record)))
	s.archiveRecord(ctx, record)

	return record, nil
}

func (s *COBService) ensureNotClosed(ctx context.Context, date time.Time) error {
	_, err := s.cobRepo.GetByDate(ctx, date)
	switch {
	case err == nil:
		return domain.ErrAlreadyClosed
	case errors.Is(err, domain.ErrCOBNotFound):
		return nil
	default:
		return fmt.Errorf("%w: closure lookup: %w", domain.ErrDataUnavailable, err)
	}
}

// ensureNotBeforeLatest rejects dates earlier than the most recent closure
func (s *COBService) ensureNotBeforeLatest(ctx context.Context, date time.Time) error {
	latest, err := s.cobRepo.GetLatest(ctx)
	switch {
	case err == nil:
		if latest.Date.After(date) {
			return domain.ErrInvalidDate
		}
		return nil
	case errors.Is(err, domain.ErrCOBNotFound):
		return nil
	default:
		return fmt.Errorf("%w: latest closure: %w", domain.ErrDataUnavailable, err)
	}
}

// archiveRecord copies the snapshot to object storage. Failures are logged
// only; the database row is the record of truth.
func (s *COBService) archiveRecord(ctx context.Context, record *domain.COBRecord) {
	if s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	key, err := s.archive.Put(ctx, record)
	if err != nil {
		log.Error().Err(err).Str("date", record.Summary.Date).Msg("Failed to archive closure snapshot")
		return
	}
	log.Debug().Str("key", key).Msg("Archived closure snapshot")
}

// GetDayStatus reports whether a business date is open or closed
func (s *COBService) GetDayStatus(ctx context.Context, date time.Time) (*domain.DayStatus, error) {
	date = util.StartOfDay(date, s.loc)
	record, err := s.cobRepo.GetByDate(ctx, date)
	if errors.Is(err, domain.ErrCOBNotFound) {
		return &domain.DayStatus{Date: date, State: domain.DayStateOpen}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: closure lookup: %w", domain.ErrDataUnavailable, err)
	}
	return &domain.DayStatus{
		Date:     date,
		State:    domain.DayStateClosed,
		ClosedBy: &record.ClosedBy,
		ClosedAt: &record.ClosedAt,
	}, nil
}

// GetRecord returns the closure record of a business date
func (s *COBService) GetRecord(ctx context.Context, date time.Time) (*domain.COBRecord, error) {
	return s.cobRepo.GetByDate(ctx, util.StartOfDay(date, s.loc))
}

// ListRecords returns closure records, most recent first
func (s *COBService) ListRecords(ctx context.Context, limit int) ([]*domain.COBRecord, error) {
	if limit <= 0 {
		limit = DefaultCOBListLimit
	}
	if limit > MaxCOBListLimit {
		limit = MaxCOBListLimit
	}
	return s.cobRepo.List(ctx, limit)
}

// LatestClosedDate returns the most recent closed business date, or nil if none
func (s *COBService) LatestClosedDate(ctx context.Context) (*time.Time, error) {
	latest, err := s.cobRepo.GetLatest(ctx)
	if errors.Is(err, domain.ErrCOBNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: latest closure: %w", domain.ErrDataUnavailable, err)
	}
	return &latest.Date, nil
}

func releaseLock(ctx context.Context, held lock.Lock) {
	if err := held.Release(context.WithoutCancel(ctx)); err != nil {
		log.Warn().Err(err).Msg("Failed to release closure lock")
	}
}

func closureOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrAlreadyClosed):
		return "already_closed"
	case errors.Is(err, domain.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, domain.ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotesTooLong):
		return "invalid_input"
	default:
		return "error"
	}
}
