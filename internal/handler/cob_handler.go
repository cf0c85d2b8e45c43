package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/middleware"
	"github.com/horologium/ledger-backend/internal/service"
	"github.com/horologium/ledger-backend/internal/util"
	"github.com/horologium/ledger-backend/internal/wire"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// COBHandler handles close-of-business HTTP requests
type COBHandler struct {
	cobService *service.COBService
	loc        *time.Location
	validate   *validator.Validate
}

// NewCOBHandler creates a new COBHandler
func NewCOBHandler(cobService *service.COBService, loc *time.Location) *COBHandler {
	return &COBHandler{
		cobService: cobService,
		loc:        loc,
		validate:   newValidator(),
	}
}

// CloseBusinessDayRequest represents the close business day request body.
// Totals are not accepted; the server recomputes them.
type CloseBusinessDayRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Notes string `json:"notes" validate:"max=2000"`
}

// COBRecordResponse represents a closure record in API responses
type COBRecordResponse = wire.COBRecord

// DayStatusResponse represents the close-of-business state of a date
type DayStatusResponse struct {
	Date     string  `json:"date"`
	State    string  `json:"state"`
	ClosedBy *string `json:"closedBy,omitempty"`
	ClosedAt *string `json:"closedAt,omitempty"`
	// LatestClosedDate is the most recent closed date of the shop, if any
	LatestClosedDate *string `json:"latestClosedDate,omitempty"`
}

// CloseBusinessDay godoc
// @Summary Close a business day
// @Description Recomputes the ledger of the date and freezes it into a permanent record
// @Tags cob
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CloseBusinessDayRequest true "Close business day request"
// @Success 201 {object} COBRecordResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /cob [post]
func (h *COBHandler) CloseBusinessDay(c echo.Context) error {
	actor := middleware.GetActor(c)
	if actor == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CloseBusinessDayRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return NewValidationError(c, "Validation failed", validationErrors(err))
	}

	date, err := util.ParseBusinessDate(req.Date, h.loc)
	if err != nil {
		return invalidDateParam(c)
	}

	record, err := h.cobService.CloseBusinessDay(c.Request().Context(), domain.CloseBusinessDayInput{
		Date:     date,
		Notes:    req.Notes,
		ClosedBy: actor,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyClosed):
			return NewAlreadyClosedError(c, "Business day "+req.Date+" is already closed")
		case errors.Is(err, domain.ErrInvalidDate):
			return NewInvalidDateError(c, "Business day "+req.Date+" cannot be closed: it is in the future or a later day is already closed")
		case errors.Is(err, domain.ErrNotesTooLong):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "notes", Message: "Notes must be 2000 characters or less"},
			})
		case errors.Is(err, domain.ErrInvalidInput):
			return NewValidationError(c, "Invalid close request", nil)
		case errors.Is(err, domain.ErrDataUnavailable):
			log.Error().Err(err).Str("date", req.Date).Str("actor", actor).Msg("Closure aborted: ledger data unavailable")
			return NewDataUnavailableError(c, "Ledger data is temporarily unavailable; nothing was closed")
		}
		log.Error().Err(err).Str("date", req.Date).Str("actor", actor).Msg("Failed to close business day")
		return NewInternalError(c, "Failed to close business day")
	}

	return c.JSON(http.StatusCreated, toCOBRecordResponse(record))
}

// ListRecords godoc
// @Summary List closure records
// @Tags cob
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of records (default 30, max 366)"
// @Success 200 {array} COBRecordResponse
// @Failure 400 {object} ProblemDetails
// @Router /cob [get]
func (h *COBHandler) ListRecords(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return NewValidationError(c, "Invalid limit", []ValidationError{
				{Field: "limit", Message: "Must be a positive integer"},
			})
		}
		limit = parsed
	}

	records, err := h.cobService.ListRecords(c.Request().Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list closure records")
		return NewInternalError(c, "Failed to list closure records")
	}

	response := make([]COBRecordResponse, len(records))
	for i, record := range records {
		response[i] = toCOBRecordResponse(record)
	}
	return c.JSON(http.StatusOK, response)
}

// GetRecord godoc
// @Summary Get the closure record of a business date
// @Tags cob
// @Produce json
// @Security BearerAuth
// @Param date path string true "Business date (YYYY-MM-DD)"
// @Success 200 {object} COBRecordResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /cob/{date} [get]
func (h *COBHandler) GetRecord(c echo.Context) error {
	date, err := util.ParseBusinessDate(c.Param("date"), h.loc)
	if err != nil {
		return invalidDateParam(c)
	}

	record, err := h.cobService.GetRecord(c.Request().Context(), date)
	if err != nil {
		if errors.Is(err, domain.ErrCOBNotFound) {
			return NewNotFoundError(c, "Business day "+c.Param("date")+" is not closed")
		}
		log.Error().Err(err).Str("date", c.Param("date")).Msg("Failed to get closure record")
		return NewInternalError(c, "Failed to get closure record")
	}

	return c.JSON(http.StatusOK, toCOBRecordResponse(record))
}

// GetDayStatus godoc
// @Summary Get the close-of-business state of a date
// @Tags cob
// @Produce json
// @Security BearerAuth
// @Param date path string true "Business date (YYYY-MM-DD)"
// @Success 200 {object} DayStatusResponse
// @Failure 400 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /cob/{date}/status [get]
func (h *COBHandler) GetDayStatus(c echo.Context) error {
	date, err := util.ParseBusinessDate(c.Param("date"), h.loc)
	if err != nil {
		return invalidDateParam(c)
	}

	status, err := h.cobService.GetDayStatus(c.Request().Context(), date)
	if err != nil {
		log.Error().Err(err).Str("date", c.Param("date")).Msg("Failed to get day status")
		return NewDataUnavailableError(c, "Close-of-business state is temporarily unavailable")
	}

	latest, err := h.cobService.LatestClosedDate(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get latest closed date")
		return NewDataUnavailableError(c, "Failed to read close of business records")
	}

	response := DayStatusResponse{
		Date:     util.FormatDate(status.Date),
		State:    string(status.State),
		ClosedBy: status.ClosedBy,
	}
	if status.ClosedAt != nil {
		closedAt := status.ClosedAt.UTC().Format(time.RFC3339)
		response.ClosedAt = &closedAt
	}
	if latest != nil {
		latestDate := util.FormatDate(*latest)
		response.LatestClosedDate = &latestDate
	}
	return c.JSON(http.StatusOK, response)
}

func toCOBRecordResponse(r *domain.COBRecord) COBRecordResponse {
	return wire.FromCOBRecord(r)
}
