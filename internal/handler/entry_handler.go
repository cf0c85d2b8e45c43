package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/middleware"
	"github.com/horologium/ledger-backend/internal/service"
	"github.com/horologium/ledger-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// EntryHandler handles sale, service and expense entry requests
type EntryHandler struct {
	entryService *service.EntryService
	loc          *time.Location
	validate     *validator.Validate
}

// NewEntryHandler creates a new EntryHandler
func NewEntryHandler(entryService *service.EntryService, loc *time.Location) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		loc:          loc,
		validate:     newValidator(),
	}
}

// CreateEntryRequest represents the create entry request body
type CreateEntryRequest struct {
	Kind          string  `json:"kind" validate:"required,oneof=sale service expense"`
	Amount        string  `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	OccurredAt    string  `json:"occurredAt" validate:"required"`
	Status        string  `json:"status"`
	Description   string  `json:"description" validate:"max=500"`
	Reference     *string `json:"reference,omitempty" validate:"omitempty,max=100"`
}

// UpdateEntryStatusRequest represents the update entry status request body
type UpdateEntryStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// EntryResponse represents an entry in API responses
type EntryResponse struct {
	ID            string  `json:"id"`
	Kind          string  `json:"kind"`
	Amount        string  `json:"amount"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	OccurredAt    string  `json:"occurredAt"`
	BusinessDate  string  `json:"businessDate"`
	Status        string  `json:"status"`
	Description   string  `json:"description"`
	Reference     *string `json:"reference,omitempty"`
	CreatedBy     string  `json:"createdBy"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// CreateEntry godoc
// @Summary Record a sale, service job or expense
// @Description Rejected with DAY_CLOSED when the entry is dated on or before the latest closed business day
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEntryRequest true "Entry creation request"
// @Success 201 {object} EntryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /entries [post]
func (h *EntryHandler) CreateEntry(c echo.Context) error {
	actor := middleware.GetActor(c)
	if actor == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateEntryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return NewValidationError(c, "Validation failed", validationErrors(err))
	}

	amount := decimal.Zero
	if req.Amount != "" {
		var err error
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
	}

	occurredAt, err := time.Parse(time.RFC3339, req.OccurredAt)
	if err != nil {
		return NewValidationError(c, "Invalid occurredAt", []ValidationError{
			{Field: "occurredAt", Message: "Must be an RFC 3339 timestamp"},
		})
	}

	entry := &domain.Entry{
		Kind:          domain.EntryKind(req.Kind),
		Amount:        amount.Round(2),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		OccurredAt:    occurredAt,
		Status:        domain.EntryStatus(req.Status),
		Description:   req.Description,
		Reference:     req.Reference,
	}

	created, err := h.entryService.Record(c.Request().Context(), entry, actor)
	if err != nil {
		return h.writeError(c, err, "Failed to record entry")
	}

	log.Info().
		Str("entry_id", created.ID.String()).
		Str("kind", string(created.Kind)).
		Str("actor", actor).
		Msg("Entry recorded")

	return c.JSON(http.StatusCreated, h.toEntryResponse(created))
}

// ListEntries godoc
// @Summary List the entries of a business date
// @Description Returns every entry of the date regardless of kind or status
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param date query string true "Business date (YYYY-MM-DD)"
// @Success 200 {array} EntryResponse
// @Failure 400 {object} ProblemDetails
// @Router /entries [get]
func (h *EntryHandler) ListEntries(c echo.Context) error {
	date, err := util.ParseBusinessDate(c.QueryParam("date"), h.loc)
	if err != nil {
		return invalidDateParam(c)
	}

	entries, err := h.entryService.ListByDate(c.Request().Context(), date)
	if err != nil {
		log.Error().Err(err).Str("date", util.FormatDate(date)).Msg("Failed to list entries")
		return NewInternalError(c, "Failed to list entries")
	}

	response := make([]EntryResponse, len(entries))
	for i, entry := range entries {
		response[i] = h.toEntryResponse(entry)
	}
	return c.JSON(http.StatusOK, response)
}

// GetEntry godoc
// @Summary Get an entry
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} EntryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /entries/{id} [get]
func (h *EntryHandler) GetEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	entry, err := h.entryService.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return NewNotFoundError(c, "Entry not found")
		}
		log.Error().Err(err).Str("entry_id", id.String()).Msg("Failed to get entry")
		return NewInternalError(c, "Failed to get entry")
	}

	return c.JSON(http.StatusOK, h.toEntryResponse(entry))
}

// UpdateEntryStatus godoc
// @Summary Change the status of an entry
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param request body UpdateEntryStatusRequest true "New status"
// @Success 200 {object} EntryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /entries/{id}/status [patch]
func (h *EntryHandler) UpdateEntryStatus(c echo.Context) error {
	actor := middleware.GetActor(c)
	if actor == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid entry ID", nil)
	}

	var req UpdateEntryStatusRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return NewValidationError(c, "Validation failed", validationErrors(err))
	}

	updated, err := h.entryService.UpdateStatus(c.Request().Context(), id, domain.EntryStatus(req.Status), actor)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return NewNotFoundError(c, "Entry not found")
		}
		return h.writeError(c, err, "Failed to update entry status")
	}

	log.Info().
		Str("entry_id", updated.ID.String()).
		Str("status", string(updated.Status)).
		Str("actor", actor).
		Msg("Entry status updated")

	return c.JSON(http.StatusOK, h.toEntryResponse(updated))
}

// entryFieldErrors maps entry validation errors to the request field they concern
var entryFieldErrors = []struct {
	err     error
	field   string
	message string
}{
	{domain.ErrInvalidEntryKind, "kind", "Must be one of: sale service expense"},
	{domain.ErrNegativeAmount, "amount", "Amount cannot be negative"},
	{domain.ErrInvalidAmount, "amount", "Amount must be greater than zero"},
	{domain.ErrAmountTooLarge, "amount", "Amount must not exceed 999999999999.99"},
	{domain.ErrPaymentMethodRequired, "paymentMethod", "Payment method is required"},
	{domain.ErrInvalidPaymentMethod, "paymentMethod", "Must be one of: Cash, Card, UPI, Bank Transfer, Multiple"},
	{domain.ErrInvalidStatus, "status", "Status is not valid for this kind of entry"},
	{domain.ErrDescriptionRequired, "description", "Description is required"},
	{domain.ErrDescriptionTooLong, "description", "Description must be 500 characters or less"},
}

func (h *EntryHandler) writeError(c echo.Context, err error, message string) error {
	for _, fe := range entryFieldErrors {
		if errors.Is(err, fe.err) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: fe.field, Message: fe.message},
			})
		}
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid entry", nil)
	case errors.Is(err, domain.ErrDayClosed):
		return NewDayClosedError(c, "The business day of this entry is closed")
	case errors.Is(err, domain.ErrDataUnavailable):
		log.Error().Err(err).Msg("Entry write aborted: ledger data unavailable")
		return NewDataUnavailableError(c, "Ledger data is temporarily unavailable")
	}
	log.Error().Err(err).Msg(message)
	return NewInternalError(c, message)
}

func (h *EntryHandler) toEntryResponse(e *domain.Entry) EntryResponse {
	response := EntryResponse{
		ID:           e.ID.String(),
		Kind:         string(e.Kind),
		Amount:       e.Amount.StringFixed(2),
		OccurredAt:   e.OccurredAt.Format(time.RFC3339),
		BusinessDate: util.FormatDate(util.StartOfDay(e.OccurredAt, h.loc)),
		Status:       string(e.Status),
		Description:  e.Description,
		Reference:    e.Reference,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    e.UpdatedAt.Format(time.RFC3339),
	}
	if e.PaymentMethod != "" {
		method := string(e.PaymentMethod)
		response.PaymentMethod = &method
	}
	return response
}
