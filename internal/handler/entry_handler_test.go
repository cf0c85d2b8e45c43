package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func TestCreateEntry_Success(t *testing.T) {
	s := newTestServer()

	body := `{"kind": "sale", "amount": "12500.50", "paymentMethod": "Card", "occurredAt": "2026-10-15T10:30:00+05:30", "description": "Chronograph", "reference": "INV-0042"}`
	c, rec := s.newContext(http.MethodPost, "/api/v1/entries", body, "auth0|clerk")

	if err := s.entry.CreateEntry(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Amount != "12500.50" {
		t.Errorf("Expected amount 12500.50, got %s", response.Amount)
	}
	if response.Status != "completed" {
		t.Errorf("Expected default status completed, got %s", response.Status)
	}
	if response.PaymentMethod == nil || *response.PaymentMethod != "Card" {
		t.Errorf("Expected payment method Card, got %v", response.PaymentMethod)
	}
	if response.BusinessDate != "2026-10-15" {
		t.Errorf("Expected business date 2026-10-15, got %s", response.BusinessDate)
	}
	if response.CreatedBy != "auth0|clerk" {
		t.Errorf("Expected createdBy auth0|clerk, got %s", response.CreatedBy)
	}
	if response.Reference == nil || *response.Reference != "INV-0042" {
		t.Errorf("Expected reference INV-0042, got %v", response.Reference)
	}

	if types := s.publisher.Types(); len(types) != 1 || types[0] != "entry.created" {
		t.Errorf("Expected one entry.created event, got %v", types)
	}
}

func TestCreateEntry_ServiceWithoutPayment(t *testing.T) {
	s := newTestServer()

	body := `{"kind": "service", "occurredAt": "2026-10-15T09:00:00+05:30", "description": "Battery replacement"}`
	c, rec := s.newContext(http.MethodPost, "/api/v1/entries", body, "auth0|clerk")

	if err := s.entry.CreateEntry(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Status != "received" || response.Amount != "0.00" || response.PaymentMethod != nil {
		t.Errorf("Unexpected service entry %+v", response)
	}
}

func TestCreateEntry_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing kind", `{"amount": "10", "paymentMethod": "Cash", "occurredAt": "2026-10-15T10:00:00+05:30"}`, "kind"},
		{"unknown kind", `{"kind": "refund", "amount": "10", "paymentMethod": "Cash", "occurredAt": "2026-10-15T10:00:00+05:30"}`, "kind"},
		{"missing occurredAt", `{"kind": "sale", "amount": "10", "paymentMethod": "Cash"}`, "occurredAt"},
		{"malformed occurredAt", `{"kind": "sale", "amount": "10", "paymentMethod": "Cash", "occurredAt": "15/10/2026"}`, "occurredAt"},
		{"malformed amount", `{"kind": "sale", "amount": "ten", "paymentMethod": "Cash", "occurredAt": "2026-10-15T10:00:00+05:30"}`, "amount"},
		{"zero sale", `{"kind": "sale", "amount": "0", "paymentMethod": "Cash", "occurredAt": "2026-10-15T10:00:00+05:30"}`, "amount"},
		{"negative expense", `{"kind": "expense", "amount": "-5", "paymentMethod": "Cash", "occurredAt": "2026-10-15T10:00:00+05:30", "description": "Tea"}`, "amount"},
		{"sale without payment", `{"kind": "sale", "amount": "10", "occurredAt": "2026-10-15T10:00:00+05:30"}`, "paymentMethod"},
		{"unknown payment", `{"kind": "sale", "amount": "10", "paymentMethod": "Cheque", "occurredAt": "2026-10-15T10:00:00+05:30"}`, "paymentMethod"},
		{"status of other kind", `{"kind": "sale", "amount": "10", "paymentMethod": "Cash", "status": "void", "occurredAt": "2026-10-15T10:00:00+05:30"}`, "status"},
		{"expense without description", `{"kind": "expense", "amount": "10", "paymentMethod": "Cash", "occurredAt": "2026-10-15T10:00:00+05:30"}`, "description"},
		{"description too long", `{"kind": "sale", "amount": "10", "paymentMethod": "Cash", "occurredAt": "2026-10-15T10:00:00+05:30", "description": "` + strings.Repeat("d", 501) + `"}`, "description"},
		{"amount beyond storage", `{"kind": "sale", "amount": "1000000000000", "paymentMethod": "Cash", "occurredAt": "2026-10-15T10:00:00+05:30"}`, "amount"},
		{"reference too long", `{"kind": "sale", "amount": "10", "paymentMethod": "Cash", "occurredAt": "2026-10-15T10:00:00+05:30", "reference": "` + strings.Repeat("r", 101) + `"}`, "reference"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			c, rec := s.newContext(http.MethodPost, "/api/v1/entries", tt.body, "auth0|clerk")

			if err := s.entry.CreateEntry(c); err != nil {
				t.Fatalf("Expected no error (error should be in response), got %v", err)
			}

			problem := assertProblem(t, rec, http.StatusBadRequest, CodeValidation)
			if len(problem.Errors) == 0 || problem.Errors[0].Field != tt.field {
				t.Errorf("Expected error on %s, got %+v", tt.field, problem.Errors)
			}
			if len(s.entryRepo.Entries) != 0 {
				t.Errorf("Expected nothing stored, got %d entries", len(s.entryRepo.Entries))
			}
		})
	}
}

func TestCreateEntry_DayClosed(t *testing.T) {
	s := newTestServer()
	s.seedDay()

	body := `{"kind": "sale", "amount": "100", "paymentMethod": "Cash", "occurredAt": "2026-10-13T18:00:00+05:30"}`
	c, rec := s.newContext(http.MethodPost, "/api/v1/entries", body, "auth0|clerk")

	if err := s.entry.CreateEntry(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	assertProblem(t, rec, http.StatusConflict, CodeDayClosed)
}

func TestCreateEntry_Unauthenticated(t *testing.T) {
	s := newTestServer()
	c, rec := s.newContext(http.MethodPost, "/api/v1/entries", `{"kind": "sale"}`, "")

	if err := s.entry.CreateEntry(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	assertProblem(t, rec, http.StatusUnauthorized, CodeUnauthorized)
}

func TestListEntries(t *testing.T) {
	s := newTestServer()
	s.seedDay()
	s.entryRepo.AddEntry(&domain.Entry{
		Kind:          domain.EntryKindSale,
		Amount:        decimal.NewFromInt(50),
		PaymentMethod: domain.PaymentMethodCash,
		OccurredAt:    time.Date(2026, 10, 14, 16, 0, 0, 0, shopLoc),
		Status:        domain.SaleStatusCancelled,
	})
	s.entryRepo.AddEntry(&domain.Entry{
		Kind:          domain.EntryKindSale,
		Amount:        decimal.NewFromInt(75),
		PaymentMethod: domain.PaymentMethodCash,
		OccurredAt:    time.Date(2026, 10, 15, 0, 0, 0, 0, shopLoc),
		Status:        domain.SaleStatusCompleted,
	})

	c, rec := s.newContext(http.MethodGet, "/api/v1/entries?date=2026-10-14", "", "auth0|clerk")

	if err := s.entry.ListEntries(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response []EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	// Cancelled entries are listed; the next day's midnight entry is not
	if len(response) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(response))
	}
	if response[0].Kind != "sale" || response[3].Status != "cancelled" {
		t.Errorf("Expected entries in occurrence order, got %+v", response)
	}
}

func TestListEntries_InvalidDate(t *testing.T) {
	s := newTestServer()
	c, rec := s.newContext(http.MethodGet, "/api/v1/entries", "", "auth0|clerk")

	if err := s.entry.ListEntries(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	assertProblem(t, rec, http.StatusBadRequest, CodeValidation)
}

func TestGetEntry(t *testing.T) {
	s := newTestServer()
	entry := s.entryRepo.AddEntry(&domain.Entry{
		Kind:          domain.EntryKindExpense,
		Amount:        decimal.RequireFromString("80.25"),
		PaymentMethod: domain.PaymentMethodUPI,
		OccurredAt:    time.Date(2026, 10, 15, 9, 0, 0, 0, shopLoc),
		Status:        domain.ExpenseStatusRecorded,
		Description:   "Cleaning supplies",
	})

	c, rec := s.newContext(http.MethodGet, "/api/v1/entries/"+entry.ID.String(), "", "auth0|clerk")
	c.SetParamNames("id")
	c.SetParamValues(entry.ID.String())

	if err := s.entry.GetEntry(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.ID != entry.ID.String() || response.Amount != "80.25" || response.Description != "Cleaning supplies" {
		t.Errorf("Unexpected entry %+v", response)
	}
}

func TestGetEntry_NotFoundAndInvalidID(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		status int
		code   string
	}{
		{"not found", uuid.New().String(), http.StatusNotFound, CodeNotFound},
		{"invalid id", "not-a-uuid", http.StatusBadRequest, CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			c, rec := s.newContext(http.MethodGet, "/api/v1/entries/"+tt.id, "", "auth0|clerk")
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			if err := s.entry.GetEntry(c); err != nil {
				t.Fatalf("Expected no error (error should be in response), got %v", err)
			}

			assertProblem(t, rec, tt.status, tt.code)
		})
	}
}

func TestUpdateEntryStatus_Success(t *testing.T) {
	s := newTestServer()
	entry := s.entryRepo.AddEntry(&domain.Entry{
		Kind:          domain.EntryKindService,
		Amount:        decimal.NewFromInt(900),
		PaymentMethod: domain.PaymentMethodCash,
		OccurredAt:    time.Date(2026, 10, 15, 9, 0, 0, 0, shopLoc),
		Status:        domain.ServiceStatusReceived,
	})

	c, rec := s.newContext(http.MethodPatch, "/api/v1/entries/"+entry.ID.String()+"/status", `{"status": "ready"}`, "auth0|clerk")
	c.SetParamNames("id")
	c.SetParamValues(entry.ID.String())

	if err := s.entry.UpdateEntryStatus(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Status != "ready" {
		t.Errorf("Expected status ready, got %s", response.Status)
	}
	if types := s.publisher.Types(); len(types) != 1 || types[0] != "entry.updated" {
		t.Errorf("Expected one entry.updated event, got %v", types)
	}
}

func TestUpdateEntryStatus_Errors(t *testing.T) {
	tests := []struct {
		name       string
		occurredAt time.Time
		body       string
		status     int
		code       string
	}{
		{"status of other kind", time.Date(2026, 10, 15, 9, 0, 0, 0, shopLoc), `{"status": "refunded"}`, http.StatusBadRequest, CodeValidation},
		{"missing status", time.Date(2026, 10, 15, 9, 0, 0, 0, shopLoc), `{}`, http.StatusBadRequest, CodeValidation},
		{"closed day", time.Date(2026, 10, 13, 9, 0, 0, 0, shopLoc), `{"status": "delivered"}`, http.StatusConflict, CodeDayClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.seedDay()
			entry := s.entryRepo.AddEntry(&domain.Entry{
				Kind:          domain.EntryKindService,
				Amount:        decimal.NewFromInt(900),
				PaymentMethod: domain.PaymentMethodCash,
				OccurredAt:    tt.occurredAt,
				Status:        domain.ServiceStatusReceived,
			})

			c, rec := s.newContext(http.MethodPatch, "/api/v1/entries/"+entry.ID.String()+"/status", tt.body, "auth0|clerk")
			c.SetParamNames("id")
			c.SetParamValues(entry.ID.String())

			if err := s.entry.UpdateEntryStatus(c); err != nil {
				t.Fatalf("Expected no error (error should be in response), got %v", err)
			}

			assertProblem(t, rec, tt.status, tt.code)
			if entry.Status != domain.ServiceStatusReceived {
				t.Errorf("Expected status unchanged, got %s", entry.Status)
			}
		})
	}
}

func TestUpdateEntryStatus_NotFound(t *testing.T) {
	s := newTestServer()
	id := uuid.New().String()

	c, rec := s.newContext(http.MethodPatch, "/api/v1/entries/"+id+"/status", `{"status": "void"}`, "auth0|clerk")
	c.SetParamNames("id")
	c.SetParamValues(id)

	if err := s.entry.UpdateEntryStatus(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	assertProblem(t, rec, http.StatusNotFound, CodeNotFound)
}
