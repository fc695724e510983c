package account

import (
	"errors"
	"fmt"
	"time"
)

// Amounts are minor units (e.g., cents). No floats.

// Type classifies an account. The two-digit code is embedded in generated
// account numbers.
type Type string

const (
	TypeLoan     Type = "LOAN"
	TypeSavings  Type = "SAVINGS"
	TypeForeign  Type = "FOREIGN"
	TypeChecking Type = "CHECKING"
	TypeInternal Type = "INTERNAL"
)

// Code returns the account-type fragment used by the number generator.
func (t Type) Code() string {
	switch t {
	case TypeLoan:
		return "01"
	case TypeSavings:
		return "02"
	case TypeForeign:
		return "03"
	case TypeChecking:
		return "04"
	case TypeInternal:
		return "05"
	}
	return "00"
}

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	switch t {
	case TypeLoan, TypeSavings, TypeForeign, TypeChecking, TypeInternal:
		return true
	}
	return false
}

// Status is the account state machine position. CLOSED is terminal.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusFrozen   Status = "FROZEN"
	StatusDormant  Status = "DORMANT"
	StatusClosed   Status = "CLOSED"
)

// Currency is an ISO-style code from the supported set.
type Currency string

const (
	KES Currency = "KES"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// Account is the ledger record for one customer account. CurrentBalance and
// AvailableBalance are mutated together; both stay non-negative after a debit.
type Account struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Number           string    `json:"account_number"`
	Type             Type      `json:"account_type"`
	Status           Status    `json:"account_status"`
	Currency         Currency  `json:"currency"`
	CurrentBalance   int64     `json:"current_balance"`
	AvailableBalance int64     `json:"available_balance"`
	InterestRateBps  int64     `json:"interest_rate_bps"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FreezeResult reports the outcome of a freeze/unfreeze action.
type FreezeResult struct {
	Action        string    `json:"action"`
	AccountNumber string    `json:"account_number"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// CloseResult reports the outcome of closing an account, including the sweep
// legs when the account still carried a balance.
type CloseResult struct {
	AccountNumber string    `json:"account_number"`
	ClosedAt      time.Time `json:"closed_at"`
	SweptAmount   int64     `json:"swept_amount,omitempty"`
	ReceivingInto string    `json:"receiving_account,omitempty"`
}

var (
	ErrInvalidAmount   = errors.New("invalid amount (must be > 0)")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidType     = errors.New("invalid account type")
)

// NotFoundError reports a lookup miss by account number or user id.
type NotFoundError struct {
	AccountNumber string
	UserID        string
}

func (e *NotFoundError) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("no accounts for user %s", e.UserID)
	}
	return fmt.Sprintf("account %s not found", e.AccountNumber)
}

// IneligibleAccountError reports that the account's status forbids the
// attempted operation.
type IneligibleAccountError struct {
	AccountNumber string
	Status        Status
	Operation     string
}

func (e *IneligibleAccountError) Error() string {
	return fmt.Sprintf("account %s is %s: %s not permitted", e.AccountNumber, e.Status, e.Operation)
}

// InsufficientFundsError carries the balance snapshot for the failed debit.
type InsufficientFundsError struct {
	AccountNumber string
	Balance       int64
	Requested     int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: account %s has balance %d, tried to debit %d",
		e.AccountNumber, e.Balance, e.Requested)
}
