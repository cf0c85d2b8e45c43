package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrInvalidInput = errors.New("invalid input")

	// Ledger / close of business
	ErrDataUnavailable = errors.New("ledger data unavailable")
	ErrAlreadyClosed   = errors.New("business day already closed")
	ErrInvalidDate     = errors.New("invalid business date")
	ErrCOBNotFound     = errors.New("close of business record not found")
	ErrNotesTooLong    = errors.New("notes exceed maximum length")

	// Transaction sources
	ErrEntryNotFound         = errors.New("entry not found")
	ErrDayClosed             = errors.New("business day is closed for writes")
	ErrInvalidEntryKind      = errors.New("invalid entry kind")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrInvalidStatus         = errors.New("invalid status for entry kind")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrNegativeAmount        = errors.New("amount cannot be negative")
	ErrAmountTooLarge        = errors.New("amount exceeds maximum")
	ErrPaymentMethodRequired = errors.New("payment method is required")
	ErrDescriptionRequired   = errors.New("description is required")
	ErrDescriptionTooLong    = errors.New("description exceeds maximum length")
)

// Validation constants
const (
	MaxNotesLength       = 2000
	MaxDescriptionLength = 500
	MaxReferenceLength   = 100
)

// MaxAmount is the largest amount an entries.amount NUMERIC(14, 2) column holds
var MaxAmount = decimal.RequireFromString("999999999999.99")
