package domain

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind identifies which transaction source an entry belongs to
type EntryKind string

const (
	EntryKindSale    EntryKind = "sale"
	EntryKindService EntryKind = "service"
	EntryKindExpense EntryKind = "expense"
)

// PaymentMethod is the closed set of tender types accepted by the shop
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "Cash"
	PaymentMethodCard         PaymentMethod = "Card"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodBankTransfer PaymentMethod = "Bank Transfer"
	PaymentMethodMultiple     PaymentMethod = "Multiple"
)

// PaymentMethods lists every accepted payment method in display order
var PaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodUPI,
	PaymentMethodBankTransfer,
	PaymentMethodMultiple,
}

// IsValid reports whether m is one of the accepted payment methods
func (m PaymentMethod) IsValid() bool {
	for _, pm := range PaymentMethods {
		if m == pm {
			return true
		}
	}
	return false
}

// IsCash reports whether money moved through the cash drawer.
// Every other method settles into the shop's accounts.
func (m PaymentMethod) IsCash() bool {
	return m == PaymentMethodCash
}

// EntryStatus is a per-kind lifecycle status
type EntryStatus string

// Sale statuses
const (
	SaleStatusCompleted EntryStatus = "completed"
	SaleStatusCancelled EntryStatus = "cancelled"
	SaleStatusRefunded  EntryStatus = "refunded"
)

// Service job statuses
const (
	ServiceStatusReceived   EntryStatus = "received"
	ServiceStatusInProgress EntryStatus = "in_progress"
	ServiceStatusReady      EntryStatus = "ready"
	ServiceStatusDelivered  EntryStatus = "delivered"
	ServiceStatusCancelled  EntryStatus = "cancelled"
)

// Expense statuses
const (
	ExpenseStatusRecorded EntryStatus = "recorded"
	ExpenseStatusVoid     EntryStatus = "void"
)

// Entry is a single record from one of the transaction sources (sales,
// services, expenses). Kind selects the validation rules in kindRules.
type Entry struct {
	ID            uuid.UUID       `json:"id"`
	Kind          EntryKind       `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Status        EntryStatus     `json:"status"`
	Description   string          `json:"description,omitempty"`
	Reference     *string         `json:"reference,omitempty"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type kindRule struct {
	statuses           []EntryStatus
	defaultStatus      EntryStatus
	requirePayment     bool
	requirePositive    bool
	requireDescription bool
}

var kindRules = map[EntryKind]kindRule{
	EntryKindSale: {
		statuses:        []EntryStatus{SaleStatusCompleted, SaleStatusCancelled, SaleStatusRefunded},
		defaultStatus:   SaleStatusCompleted,
		requirePayment:  true,
		requirePositive: true,
	},
	EntryKindService: {
		statuses: []EntryStatus{
			ServiceStatusReceived,
			ServiceStatusInProgress,
			ServiceStatusReady,
			ServiceStatusDelivered,
			ServiceStatusCancelled,
		},
		defaultStatus: ServiceStatusReceived,
	},
	EntryKindExpense: {
		statuses:           []EntryStatus{ExpenseStatusRecorded, ExpenseStatusVoid},
		defaultStatus:      ExpenseStatusRecorded,
		requirePayment:     true,
		requirePositive:    true,
		requireDescription: true,
	},
}

// IsValid reports whether k is a known entry kind
func (k EntryKind) IsValid() bool {
	_, ok := kindRules[k]
	return ok
}

// IsIncome reports whether entries of this kind bring money in
func (k EntryKind) IsIncome() bool {
	return k == EntryKindSale || k == EntryKindService
}

// DefaultStatus returns the status assigned to a new entry of this kind
func (k EntryKind) DefaultStatus() EntryStatus {
	return kindRules[k].defaultStatus
}

// AllowsStatus reports whether status belongs to the kind's enumeration
func (k EntryKind) AllowsStatus(status EntryStatus) bool {
	rule, ok := kindRules[k]
	if !ok {
		return false
	}
	for _, s := range rule.statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Validate checks the entry against the rules of its kind
func (e *Entry) Validate() error {
	rule, ok := kindRules[e.Kind]
	if !ok {
		return ErrInvalidEntryKind
	}

	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if rule.requirePositive && !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Amount.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}

	if e.PaymentMethod == "" {
		if rule.requirePayment {
			return ErrPaymentMethodRequired
		}
	} else if !e.PaymentMethod.IsValid() {
		return ErrInvalidPaymentMethod
	}

	if !e.Kind.AllowsStatus(e.Status) {
		return ErrInvalidStatus
	}

	description := strings.TrimSpace(e.Description)
	if rule.requireDescription && description == "" {
		return ErrDescriptionRequired
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if e.Reference != nil && utf8.RuneCountInString(*e.Reference) > MaxReferenceLength {
		return ErrInvalidInput
	}
	if e.OccurredAt.IsZero() {
		return ErrInvalidInput
	}
	return nil
}

// CountsTowardLedger reports whether the entry is included in ledger totals:
// completed sales, non-cancelled services with a recorded payment, and
// recorded (non-void) expenses.
func (e *Entry) CountsTowardLedger() bool {
	switch e.Kind {
	case EntryKindSale:
		return e.Status == SaleStatusCompleted
	case EntryKindService:
		return e.Status != ServiceStatusCancelled && e.PaymentMethod != "" && e.Amount.IsPositive()
	case EntryKindExpense:
		return e.Status == ExpenseStatusRecorded
	}
	return false
}

// EntryRepository defines persistence for the transaction sources
type EntryRepository interface {
	Create(ctx context.Context, entry *Entry) (*Entry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status EntryStatus) (*Entry, error)
	// ListByRange returns every entry with occurredAt in [start, end), ordered by occurredAt
	ListByRange(ctx context.Context, start, end time.Time) ([]*Entry, error)
	// ListLedgerEligible returns the entries of one kind in [start, end) that
	// count toward the ledger, ordered by occurredAt then creation
	ListLedgerEligible(ctx context.Context, kind EntryKind, start, end time.Time) ([]*Entry, error)
}
