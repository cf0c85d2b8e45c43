package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/middleware"
	"github.com/horologium/ledger-backend/internal/service"
	"github.com/horologium/ledger-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

var shopLoc = time.FixedZone("IST", 5*60*60+30*60)

// Helper to set up auth context
func setupAuthContext(c echo.Context, actor string) {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: actor,
		},
		CustomClaims: &middleware.CustomClaims{Email: "owner@shop.local", Name: "Owner"},
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.ActorKey, actor)
	c.SetRequest(c.Request().WithContext(ctx))
}

// testServer wires handlers to services backed by in-memory repositories
type testServer struct {
	e         *echo.Echo
	entryRepo *testutil.MockEntryRepository
	cobRepo   *testutil.MockCOBRepository
	locker    *testutil.MockLocker
	publisher *testutil.MockEventPublisher
	ledger    *LedgerHandler
	cob       *COBHandler
	entry     *EntryHandler
}

func newTestServer() *testServer {
	entryRepo := testutil.NewMockEntryRepository()
	cobRepo := testutil.NewMockCOBRepository()
	locker := testutil.NewMockLocker()
	publisher := testutil.NewMockEventPublisher()

	ledgerService := service.NewLedgerService(entryRepo, cobRepo)
	cobService := service.NewCOBService(cobRepo, ledgerService, locker, shopLoc)
	cobService.SetClock(func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, shopLoc) })
	cobService.SetEventPublisher(publisher)
	entryService := service.NewEntryService(entryRepo, cobRepo, locker, shopLoc)
	entryService.SetEventPublisher(publisher)

	return &testServer{
		e:         echo.New(),
		entryRepo: entryRepo,
		cobRepo:   cobRepo,
		locker:    locker,
		publisher: publisher,
		ledger:    NewLedgerHandler(ledgerService, cobService, shopLoc),
		cob:       NewCOBHandler(cobService, shopLoc),
		entry:     NewEntryHandler(entryService, shopLoc),
	}
}

// newContext builds an echo context; an empty actor leaves the request unauthenticated
func (s *testServer) newContext(method, target, body, actor string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	if actor != "" {
		setupAuthContext(c, actor)
	}
	return c, rec
}

// seedDay stores a sale, a service job and an expense on 2026-10-14 and
// a closure of 2026-10-13 carrying 300 cash and 100 account forward
func (s *testServer) seedDay() {
	s.cobRepo.AddRecord(&domain.COBRecord{
		Date: time.Date(2026, 10, 13, 0, 0, 0, 0, shopLoc),
		Summary: domain.LedgerSummary{
			Date:           "2026-10-13",
			CashBalance:    decimal.NewFromInt(300),
			AccountBalance: decimal.NewFromInt(100),
		},
		Notes:    "Float counted",
		ClosedBy: "auth0|owner",
		ClosedAt: time.Date(2026, 10, 13, 14, 0, 0, 0, time.UTC),
	})
	s.entryRepo.AddEntry(&domain.Entry{
		Kind:          domain.EntryKindSale,
		Amount:        decimal.NewFromInt(1000),
		PaymentMethod: domain.PaymentMethodCash,
		OccurredAt:    time.Date(2026, 10, 14, 10, 0, 0, 0, shopLoc),
		Status:        domain.SaleStatusCompleted,
	})
	s.entryRepo.AddEntry(&domain.Entry{
		Kind:          domain.EntryKindService,
		Amount:        decimal.NewFromInt(500),
		PaymentMethod: domain.PaymentMethodUPI,
		OccurredAt:    time.Date(2026, 10, 14, 11, 0, 0, 0, shopLoc),
		Status:        domain.ServiceStatusDelivered,
	})
	s.entryRepo.AddEntry(&domain.Entry{
		Kind:          domain.EntryKindExpense,
		Amount:        decimal.NewFromInt(200),
		PaymentMethod: domain.PaymentMethodCash,
		OccurredAt:    time.Date(2026, 10, 14, 12, 0, 0, 0, shopLoc),
		Status:        domain.ExpenseStatusRecorded,
		Description:   "Courier",
	})
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem: %v", err)
	}
	return problem
}

func assertProblem(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) ProblemDetails {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("Expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	problem := decodeProblem(t, rec)
	if problem.Code != code {
		t.Errorf("Expected code %s, got %s", code, problem.Code)
	}
	if problem.Status != status {
		t.Errorf("Expected problem status %d, got %d", status, problem.Status)
	}
	return problem
}
