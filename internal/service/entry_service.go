package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/lock"
	"github.com/horologium/ledger-backend/internal/util"
	"github.com/horologium/ledger-backend/internal/websocket"
)

// EntryService records sales, service jobs and expenses, refusing any write
// that would land on a closed business day
type EntryService struct {
	entryRepo      domain.EntryRepository
	cobRepo        domain.COBRepository
	locker         lock.Locker
	loc            *time.Location
	eventPublisher websocket.EventPublisher
	metrics        MetricsRecorder
}

// NewEntryService creates a new EntryService
func NewEntryService(entryRepo domain.EntryRepository, cobRepo domain.COBRepository, locker lock.Locker, loc *time.Location) *EntryService {
	return &EntryService{
		entryRepo: entryRepo,
		cobRepo:   cobRepo,
		locker:    locker,
		loc:       loc,
		metrics:   noopMetrics{},
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *EntryService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *EntryService) SetMetrics(recorder MetricsRecorder) {
	s.metrics = recorder
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *EntryService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// Record validates and stores a new entry on behalf of actor
func (s *EntryService) Record(ctx context.Context, entry *domain.Entry, actor string) (*domain.Entry, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, domain.ErrInvalidInput
	}

	entry.ID = uuid.New()
	entry.CreatedBy = actor
	entry.Description = strings.TrimSpace(entry.Description)
	if entry.Status == "" {
		entry.Status = entry.Kind.DefaultStatus()
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Entry
	err := s.withOpenDay(ctx, entry.OccurredAt, func() error {
		var err error
		created, err = s.entryRepo.Create(ctx, entry)
		return err
	})
	s.metrics.RecordEntryWrite(string(entry.Kind), err == nil)
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.EntryCreated(created))
	return created, nil
}

// UpdateStatus moves an entry along its kind's lifecycle
func (s *EntryService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EntryStatus, actor string) (*domain.Entry, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.Kind.AllowsStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	var updated *domain.Entry
	err = s.withOpenDay(ctx, existing.OccurredAt, func() error {
		var err error
		updated, err = s.entryRepo.UpdateStatus(ctx, id, status)
		return err
	})
	s.metrics.RecordEntryWrite(string(existing.Kind), err == nil)
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.EntryUpdated(updated))
	return updated, nil
}

// Get returns a single entry
func (s *EntryService) Get(ctx context.Context, id uuid.UUID) (*domain.Entry, error) {
	return s.entryRepo.GetByID(ctx, id)
}

// ListByDate returns every entry of a business date regardless of kind or status
func (s *EntryService) ListByDate(ctx context.Context, date time.Time) ([]*domain.Entry, error) {
	start, end := util.DayWindow(util.StartOfDay(date, s.loc))
	return s.entryRepo.ListByRange(ctx, start, end)
}

// withOpenDay runs write under the closure lock once it has checked that
// occurredAt falls after the latest closed business date
func (s *EntryService) withOpenDay(ctx context.Context, occurredAt time.Time, write func() error) error {
	waitStarted := time.Now()
	held, err := s.locker.Acquire(ctx)
	s.metrics.RecordLockWait(time.Since(waitStarted))
	if err != nil {
		return fmt.Errorf("%w: closure lock: %w", domain.ErrDataUnavailable, err)
	}
	defer releaseLock(ctx, held)

	latest, err := s.cobRepo.GetLatest(ctx)
	switch {
	case err == nil:
		if !util.StartOfDay(occurredAt, s.loc).After(latest.Date) {
			return domain.ErrDayClosed
		}
	case errors.Is(err, domain.ErrCOBNotFound):
	default:
		return fmt.Errorf("%w: latest closure: %w", domain.ErrDataUnavailable, err)
	}

	return write()
}
