package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/lock"
	"github.com/horologium/ledger-backend/internal/websocket"
)

// MockEntryRepository is a mock implementation of domain.EntryRepository
type MockEntryRepository struct {
	Entries              map[uuid.UUID]*domain.Entry
	CreateFn             func(entry *domain.Entry) (*domain.Entry, error)
	UpdateStatusFn       func(id uuid.UUID, status domain.EntryStatus) (*domain.Entry, error)
	ListLedgerEligibleFn func(kind domain.EntryKind, start, end time.Time) ([]*domain.Entry, error)
	mu                   sync.Mutex
	seq                  int
}

// NewMockEntryRepository creates a new MockEntryRepository
func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		Entries: make(map[uuid.UUID]*domain.Entry),
	}
}

// AddEntry adds an entry to the mock repository (helper for tests).
// Entries added in sequence get increasing CreatedAt values when none is set.
func (m *MockEntryRepository) AddEntry(entry *domain.Entry) *domain.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(entry)
	return entry
}

func (m *MockEntryRepository) store(entry *domain.Entry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		m.seq++
		entry.CreatedAt = time.Date(2000, 1, 1, 0, 0, m.seq, 0, time.UTC)
		entry.UpdatedAt = entry.CreatedAt
	}
	m.Entries[entry.ID] = entry
}

// Create stores a new entry
func (m *MockEntryRepository) Create(_ context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if m.CreateFn != nil {
		return m.CreateFn(entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(entry)
	return entry, nil
}

// GetByID retrieves an entry by its ID
func (m *MockEntryRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.Entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return entry, nil
}

// UpdateStatus changes the status of an entry
func (m *MockEntryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.EntryStatus) (*domain.Entry, error) {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.Entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	entry.Status = status
	return entry, nil
}

// ListByRange returns every entry in [start, end)
func (m *MockEntryRepository) ListByRange(_ context.Context, start, end time.Time) ([]*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(e *domain.Entry) bool {
		return !e.OccurredAt.Before(start) && e.OccurredAt.Before(end)
	}), nil
}

// ListLedgerEligible returns the entries of one kind in [start, end) that count toward the ledger
func (m *MockEntryRepository) ListLedgerEligible(_ context.Context, kind domain.EntryKind, start, end time.Time) ([]*domain.Entry, error) {
	if m.ListLedgerEligibleFn != nil {
		return m.ListLedgerEligibleFn(kind, start, end)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(e *domain.Entry) bool {
		return e.Kind == kind &&
			!e.OccurredAt.Before(start) && e.OccurredAt.Before(end) &&
			e.CountsTowardLedger()
	}), nil
}

func (m *MockEntryRepository) filter(keep func(e *domain.Entry) bool) []*domain.Entry {
	result := []*domain.Entry{}
	for _, e := range m.Entries {
		if keep(e) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].OccurredAt.Equal(result[j].OccurredAt) {
			return result[i].OccurredAt.Before(result[j].OccurredAt)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// MockCOBRepository is a mock implementation of domain.COBRepository
type MockCOBRepository struct {
	Records           map[string]*domain.COBRecord
	CreateFn          func(record *domain.COBRecord) (*domain.COBRecord, error)
	GetByDateFn       func(date time.Time) (*domain.COBRecord, error)
	GetLatestBeforeFn func(date time.Time) (*domain.COBRecord, error)
	GetLatestFn       func() (*domain.COBRecord, error)
	CreateCalls       int
	mu                sync.Mutex
}

// NewMockCOBRepository creates a new MockCOBRepository
func NewMockCOBRepository() *MockCOBRepository {
	return &MockCOBRepository{
		Records: make(map[string]*domain.COBRecord),
	}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// AddRecord adds a record to the mock repository (helper for tests)
func (m *MockCOBRepository) AddRecord(record *domain.COBRecord) *domain.COBRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.Records[dateKey(record.Date)] = record
	return record
}

// Create persists a record, enforcing one record per date
func (m *MockCOBRepository) Create(_ context.Context, record *domain.COBRecord) (*domain.COBRecord, error) {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()
	if m.CreateFn != nil {
		return m.CreateFn(record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dateKey(record.Date)
	if _, exists := m.Records[key]; exists {
		return nil, domain.ErrAlreadyClosed
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.Records[key] = record
	return record, nil
}

// GetByDate retrieves the record of a business date
func (m *MockCOBRepository) GetByDate(_ context.Context, date time.Time) (*domain.COBRecord, error) {
	if m.GetByDateFn != nil {
		return m.GetByDateFn(date)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.Records[dateKey(date)]
	if !ok {
		return nil, domain.ErrCOBNotFound
	}
	return record, nil
}

// GetLatestBefore retrieves the most recent record strictly before date
func (m *MockCOBRepository) GetLatestBefore(_ context.Context, date time.Time) (*domain.COBRecord, error) {
	if m.GetLatestBeforeFn != nil {
		return m.GetLatestBeforeFn(date)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.COBRecord
	for _, r := range m.sorted() {
		if dateKey(r.Date) < dateKey(date) {
			latest = r
		}
	}
	if latest == nil {
		return nil, domain.ErrCOBNotFound
	}
	return latest, nil
}

// GetLatest retrieves the most recent record
func (m *MockCOBRepository) GetLatest(_ context.Context) (*domain.COBRecord, error) {
	if m.GetLatestFn != nil {
		return m.GetLatestFn()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.sorted()
	if len(records) == 0 {
		return nil, domain.ErrCOBNotFound
	}
	return records[len(records)-1], nil
}

// List returns records most recent first
func (m *MockCOBRepository) List(_ context.Context, limit int) ([]*domain.COBRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.sorted()
	result := make([]*domain.COBRecord, 0, len(records))
	for i := len(records) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, records[i])
	}
	return result, nil
}

// sorted returns records in ascending date order; caller holds mu
func (m *MockCOBRepository) sorted() []*domain.COBRecord {
	records := make([]*domain.COBRecord, 0, len(m.Records))
	for _, r := range m.Records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return dateKey(records[i].Date) < dateKey(records[j].Date)
	})
	return records
}

// MockLocker is a lock.Locker whose acquisition can be made to fail
type MockLocker struct {
	AcquireFn func(ctx context.Context) (lock.Lock, error)
	inner     *lock.LocalLocker
}

// NewMockLocker creates a MockLocker backed by an in-process lock
func NewMockLocker() *MockLocker {
	return &MockLocker{inner: lock.NewLocalLocker(time.Second)}
}

// Acquire obtains the lock
func (m *MockLocker) Acquire(ctx context.Context) (lock.Lock, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(ctx)
	}
	return m.inner.Acquire(ctx)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	Events []websocket.Event
	mu     sync.Mutex
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// Types returns the type of every published event in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Type
	}
	return types
}

// MockArchive is a mock implementation of storage.ArchiveRepository
type MockArchive struct {
	Records []*domain.COBRecord
	PutFn   func(record *domain.COBRecord) (string, error)
	mu      sync.Mutex
}

// NewMockArchive creates a new MockArchive
func NewMockArchive() *MockArchive {
	return &MockArchive{}
}

// Put records the archived snapshot
func (m *MockArchive) Put(_ context.Context, record *domain.COBRecord) (string, error) {
	if m.PutFn != nil {
		return m.PutFn(record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, record)
	return "cob/" + dateKey(record.Date) + ".json", nil
}
