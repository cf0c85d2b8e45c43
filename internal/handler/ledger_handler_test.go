package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/report"
	"github.com/xuri/excelize/v2"
)

func TestGetLedger_Success(t *testing.T) {
	s := newTestServer()
	s.seedDay()

	c, rec := s.newContext(http.MethodGet, "/api/v1/ledger/2026-10-14", "", "auth0|owner")
	c.SetParamNames("date")
	c.SetParamValues("2026-10-14")

	if err := s.ledger.GetLedger(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response LedgerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	expected := map[string]string{
		"date":                  "2026-10-14",
		"salesTotal":            "1000.00",
		"servicesTotal":         "500.00",
		"expensesTotal":         "200.00",
		"netIncome":             "1300.00",
		"openingCashBalance":    "300.00",
		"openingAccountBalance": "100.00",
		"cashBalance":           "1100.00",
		"accountBalance":        "600.00",
	}
	actual := map[string]string{
		"date":                  response.Date,
		"salesTotal":            response.SalesTotal,
		"servicesTotal":         response.ServicesTotal,
		"expensesTotal":         response.ExpensesTotal,
		"netIncome":             response.NetIncome,
		"openingCashBalance":    response.OpeningCashBalance,
		"openingAccountBalance": response.OpeningAccountBalance,
		"cashBalance":           response.CashBalance,
		"accountBalance":        response.AccountBalance,
	}
	for field, want := range expected {
		if actual[field] != want {
			t.Errorf("Expected %s %s, got %s", field, want, actual[field])
		}
	}

	if response.OpeningNotes != "Float counted" {
		t.Errorf("Expected opening notes 'Float counted', got %q", response.OpeningNotes)
	}
	if response.Status != "OPEN" {
		t.Errorf("Expected status OPEN, got %s", response.Status)
	}

	income := response.PaymentBreakdown.Income
	if len(income) != 2 || income[0].Method != "Cash" || income[1].Method != "UPI" {
		t.Fatalf("Expected income rows [Cash UPI], got %+v", income)
	}
	if income[0].Count != 1 || income[0].Amount != "1000.00" {
		t.Errorf("Unexpected cash row %+v", income[0])
	}
	expenses := response.PaymentBreakdown.Expenses
	if len(expenses) != 1 || expenses[0].Amount != "200.00" {
		t.Errorf("Unexpected expense rows %+v", expenses)
	}
}

func TestGetLedger_EmptyDay(t *testing.T) {
	s := newTestServer()

	c, rec := s.newContext(http.MethodGet, "/api/v1/ledger/2026-10-10", "", "auth0|owner")
	c.SetParamNames("date")
	c.SetParamValues("2026-10-10")

	if err := s.ledger.GetLedger(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response LedgerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.NetIncome != "0.00" || response.CashBalance != "0.00" {
		t.Errorf("Expected zero totals, got net %s cash %s", response.NetIncome, response.CashBalance)
	}
	if len(response.PaymentBreakdown.Income) != 0 {
		t.Errorf("Expected empty income breakdown, got %+v", response.PaymentBreakdown.Income)
	}
}

func TestGetLedger_ClosedDayReportsStatus(t *testing.T) {
	s := newTestServer()
	s.seedDay()

	c, rec := s.newContext(http.MethodGet, "/api/v1/ledger/2026-10-13", "", "auth0|owner")
	c.SetParamNames("date")
	c.SetParamValues("2026-10-13")

	if err := s.ledger.GetLedger(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response LedgerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Status != "CLOSED" {
		t.Errorf("Expected status CLOSED, got %s", response.Status)
	}
}

func TestGetLedger_InvalidDate(t *testing.T) {
	s := newTestServer()

	c, rec := s.newContext(http.MethodGet, "/api/v1/ledger/14-10-2026", "", "auth0|owner")
	c.SetParamNames("date")
	c.SetParamValues("14-10-2026")

	if err := s.ledger.GetLedger(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	problem := assertProblem(t, rec, http.StatusBadRequest, CodeValidation)
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "date" {
		t.Errorf("Expected a date field error, got %+v", problem.Errors)
	}
}

func TestGetLedger_SourceUnavailable(t *testing.T) {
	s := newTestServer()
	s.entryRepo.ListLedgerEligibleFn = func(kind domain.EntryKind, start, end time.Time) ([]*domain.Entry, error) {
		return nil, errors.New("connection refused")
	}

	c, rec := s.newContext(http.MethodGet, "/api/v1/ledger/2026-10-14", "", "auth0|owner")
	c.SetParamNames("date")
	c.SetParamValues("2026-10-14")

	if err := s.ledger.GetLedger(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	assertProblem(t, rec, http.StatusServiceUnavailable, CodeDataUnavailable)
}

func TestExportLedger_Success(t *testing.T) {
	s := newTestServer()
	s.seedDay()

	c, rec := s.newContext(http.MethodGet, "/api/v1/ledger/2026-10-14/export", "", "auth0|owner")
	c.SetParamNames("date")
	c.SetParamValues("2026-10-14")

	if err := s.ledger.ExportLedger(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != report.ContentTypeXLSX {
		t.Errorf("Expected content type %s, got %s", report.ContentTypeXLSX, got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="ledger-2026-10-14.xlsx"` {
		t.Errorf("Unexpected content disposition %q", got)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 {
		t.Errorf("Expected 2 sheets, got %v", sheets)
	}
}

func TestExportLedger_SourceUnavailable(t *testing.T) {
	s := newTestServer()
	s.cobRepo.GetLatestBeforeFn = func(date time.Time) (*domain.COBRecord, error) {
		return nil, errors.New("timeout")
	}

	c, rec := s.newContext(http.MethodGet, "/api/v1/ledger/2026-10-14/export", "", "auth0|owner")
	c.SetParamNames("date")
	c.SetParamValues("2026-10-14")

	if err := s.ledger.ExportLedger(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	assertProblem(t, rec, http.StatusServiceUnavailable, CodeDataUnavailable)
}
