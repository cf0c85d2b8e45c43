package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Code     string            `json:"code"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation      = "https://ledger.horologium.shop/errors/validation"
	ErrorTypeNotFound        = "https://ledger.horologium.shop/errors/not-found"
	ErrorTypeUnauthorized    = "https://ledger.horologium.shop/errors/unauthorized"
	ErrorTypeAlreadyClosed   = "https://ledger.horologium.shop/errors/already-closed"
	ErrorTypeDayClosed       = "https://ledger.horologium.shop/errors/day-closed"
	ErrorTypeInvalidDate     = "https://ledger.horologium.shop/errors/invalid-date"
	ErrorTypeDataUnavailable = "https://ledger.horologium.shop/errors/data-unavailable"
	ErrorTypeInternal        = "https://ledger.horologium.shop/errors/internal"
)

// Error codes carried in the problem body so clients can branch without parsing types
const (
	CodeValidation      = "VALIDATION"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeAlreadyClosed   = "ALREADY_CLOSED"
	CodeDayClosed       = "DAY_CLOSED"
	CodeInvalidDate     = "INVALID_DATE"
	CodeDataUnavailable = "DATA_UNAVAILABLE"
	CodeInternal        = "INTERNAL"
)

func problem(c echo.Context, status int, errType, title, code, detail string) error {
	return c.JSON(status, ProblemDetails{
		Type:     errType,
		Title:    title,
		Status:   status,
		Code:     code,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Code:     CodeValidation,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", CodeNotFound, detail)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", CodeUnauthorized, detail)
}

// NewAlreadyClosedError creates the response for a second closure of a date
func NewAlreadyClosedError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeAlreadyClosed, "Business Day Already Closed", CodeAlreadyClosed, detail)
}

// NewDayClosedError creates the response for a write into a closed day
func NewDayClosedError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeDayClosed, "Business Day Closed", CodeDayClosed, detail)
}

// NewInvalidDateError creates the response for a date that cannot be closed
func NewInvalidDateError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnprocessableEntity, ErrorTypeInvalidDate, "Invalid Business Date", CodeInvalidDate, detail)
}

// NewDataUnavailableError creates the response for a failed ledger read
func NewDataUnavailableError(c echo.Context, detail string) error {
	return problem(c, http.StatusServiceUnavailable, ErrorTypeDataUnavailable, "Ledger Data Unavailable", CodeDataUnavailable, detail)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", CodeInternal, detail)
}
