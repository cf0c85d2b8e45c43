package handler

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/report"
	"github.com/horologium/ledger-backend/internal/service"
	"github.com/horologium/ledger-backend/internal/util"
	"github.com/horologium/ledger-backend/internal/wire"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LedgerHandler serves the derived ledger of a business date
type LedgerHandler struct {
	ledgerService *service.LedgerService
	cobService    *service.COBService
	loc           *time.Location
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *service.LedgerService, cobService *service.COBService, loc *time.Location) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		cobService:    cobService,
		loc:           loc,
	}
}

// Ledger payloads share their wire form with websocket events and the archive
type (
	MethodTotalResponse      = wire.MethodTotal
	PaymentBreakdownResponse = wire.PaymentBreakdown
	LedgerSummaryResponse    = wire.LedgerSummary
)

// LedgerResponse is the ledger of a date with its opening notes and close-of-business state
type LedgerResponse struct {
	LedgerSummaryResponse
	OpeningNotes string `json:"openingNotes"`
	Status       string `json:"status"`
}

// GetLedger godoc
// @Summary Get the ledger of a business date
// @Description Computes totals, payment breakdown and closing balances for the date
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param date path string true "Business date (YYYY-MM-DD)"
// @Success 200 {object} LedgerResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /ledger/{date} [get]
func (h *LedgerHandler) GetLedger(c echo.Context) error {
	date, err := util.ParseBusinessDate(c.Param("date"), h.loc)
	if err != nil {
		return invalidDateParam(c)
	}

	ctx := c.Request().Context()
	summary, err := h.ledgerService.ComputeLedger(ctx, date)
	if err != nil {
		return h.ledgerError(c, err, date)
	}
	notes, err := h.ledgerService.OpeningNotes(ctx, date)
	if err != nil {
		return h.ledgerError(c, err, date)
	}
	status, err := h.cobService.GetDayStatus(ctx, date)
	if err != nil {
		return h.ledgerError(c, err, date)
	}

	return c.JSON(http.StatusOK, LedgerResponse{
		LedgerSummaryResponse: toLedgerSummaryResponse(summary),
		OpeningNotes:          notes,
		Status:                string(status.State),
	})
}

// ExportLedger godoc
// @Summary Export the ledger of a business date
// @Description Renders the ledger summary and payment breakdown as an XLSX workbook
// @Tags ledger
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param date path string true "Business date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Failure 400 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /ledger/{date}/export [get]
func (h *LedgerHandler) ExportLedger(c echo.Context) error {
	date, err := util.ParseBusinessDate(c.Param("date"), h.loc)
	if err != nil {
		return invalidDateParam(c)
	}

	summary, err := h.ledgerService.ComputeLedger(c.Request().Context(), date)
	if err != nil {
		return h.ledgerError(c, err, date)
	}

	var buf bytes.Buffer
	if err := report.WriteLedgerXLSX(&buf, summary); err != nil {
		log.Error().Err(err).Str("date", summary.Date).Msg("Failed to render ledger export")
		return NewInternalError(c, "Failed to render ledger export")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+report.FileName(summary.Date)+`"`)
	return c.Blob(http.StatusOK, report.ContentTypeXLSX, buf.Bytes())
}

func (h *LedgerHandler) ledgerError(c echo.Context, err error, date time.Time) error {
	if errors.Is(err, domain.ErrDataUnavailable) {
		log.Error().Err(err).Str("date", util.FormatDate(date)).Msg("Ledger data unavailable")
		return NewDataUnavailableError(c, "Ledger data is temporarily unavailable")
	}
	log.Error().Err(err).Str("date", util.FormatDate(date)).Msg("Failed to compute ledger")
	return NewInternalError(c, "Failed to compute ledger")
}

func invalidDateParam(c echo.Context) error {
	return NewValidationError(c, "Invalid date", []ValidationError{
		{Field: "date", Message: "Must be a date in YYYY-MM-DD format"},
	})
}

func toLedgerSummaryResponse(s *domain.LedgerSummary) LedgerSummaryResponse {
	return wire.FromLedgerSummary(s)
}
