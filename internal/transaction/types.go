package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
)

// Status tracks the orchestration state machine. Records move PENDING →
// COMPLETED or PENDING → FAILED exactly once and are never deleted.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
	StatusReversed   Status = "REVERSED"
)

// Type classifies the money movement. The code letter prefixes generated
// transaction references.
type Type string

const (
	TypeInternal   Type = "INTERNAL"
	TypeExternal   Type = "EXTERNAL"
	TypeDeposit    Type = "DEPOSIT"
	TypeWithdrawal Type = "WITHDRAWAL"
)

// Code returns the reference prefix letter for the type.
func (t Type) Code() byte {
	switch t {
	case TypeDeposit:
		return 'D'
	case TypeWithdrawal:
		return 'W'
	case TypeInternal:
		return 'I'
	case TypeExternal:
		return 'E'
	}
	return 'X'
}

// Transaction is the persisted record of one orchestrated money movement.
// DebitBalanceAfter/CreditBalanceAfter are populated only on the completed
// legs. Version supports optimistic concurrency on updates.
type Transaction struct {
	ID                 string           `json:"id"`
	Reference          string           `json:"transaction_reference"`
	FromAccount        string           `json:"from_account,omitempty"`
	ToAccount          string           `json:"to_account,omitempty"`
	Amount             int64            `json:"amount"`
	Currency           account.Currency `json:"currency"`
	Status             Status           `json:"status"`
	Type               Type             `json:"transaction_type"`
	Description        string           `json:"description,omitempty"`
	FeeAmount          int64            `json:"fee_amount,omitempty"`
	FeeCurrency        account.Currency `json:"fee_currency,omitempty"`
	InitiatedBy        string           `json:"initiated_by,omitempty"`
	DebitBalanceAfter  *int64           `json:"debit_balance_after,omitempty"`
	CreditBalanceAfter *int64           `json:"credit_balance_after,omitempty"`
	RejectionReason    string           `json:"rejection_reason,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	Version            int64            `json:"version"`
}

var (
	ErrInvalidAmount = errors.New("invalid amount (must be > 0)")
	// ErrStaleVersion signals a lost optimistic-concurrency race on update.
	ErrStaleVersion = errors.New("transaction version is stale")
)

// NotFoundError reports a lookup miss by transaction reference.
type NotFoundError struct {
	Reference string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found", e.Reference)
}
