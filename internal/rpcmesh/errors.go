package rpcmesh

import (
	"fmt"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
)

// Trailer keys carried alongside domain failures. Servers set them, clients
// read them back to rebuild the typed error on the caller's side.
const (
	MDErrorType            = "error-type"
	MDAccountNumber        = "account-number"
	MDAccountStatus        = "account-status"
	MDAttemptedOperation   = "attempted-operation"
	MDBalance              = "balance"
	MDTransactionReference = "transaction-reference"
)

// Values of the error-type trailer.
const (
	ErrTypeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrTypeIneligibleAccount   = "INELIGIBLE_ACCOUNT"
	ErrTypeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	ErrTypeTransactionNotFound = "TRANSACTION_NOT_FOUND"
)

// AuthExhaustedError reports that a call kept failing authentication after
// the allowed number of credential refreshes. It is fatal for the call.
type AuthExhaustedError struct {
	Method   string
	Attempts int
	Err      error
}

func (e *AuthExhaustedError) Error() string {
	return fmt.Sprintf("%s: authentication failed after %d attempts: %v", e.Method, e.Attempts, e.Err)
}

func (e *AuthExhaustedError) Unwrap() error { return e.Err }

// RemoteFailureError wraps a transport or server failure that does not map
// to a domain error. The original status, when present, is preserved.
type RemoteFailureError struct {
	Method string
	Status *status.Status
	Err    error
}

func (e *RemoteFailureError) Error() string {
	if e.Status != nil {
		return fmt.Sprintf("%s: remote call failed: %s: %s", e.Method, e.Status.Code(), e.Status.Message())
	}
	return fmt.Sprintf("%s: remote call failed: %v", e.Method, e.Err)
}

func (e *RemoteFailureError) Unwrap() error { return e.Err }

// Hints supplies identifiers known to the caller for error translation when
// a trailer omits them.
type Hints struct {
	AccountNumber string
	Reference     string
}

// TranslateError rebuilds a typed domain error from a failed call's status
// and trailing metadata. Anything that does not map cleanly comes back as a
// RemoteFailureError.
func TranslateError(method string, err error, trailer metadata.MD, hints Hints) error {
	st, ok := status.FromError(err)
	if !ok {
		return &RemoteFailureError{Method: method, Err: err}
	}
	errType := trailerValue(trailer, MDErrorType, "")

	switch st.Code() {
	case codes.NotFound:
		if errType == ErrTypeTransactionNotFound {
			return &transaction.NotFoundError{
				Reference: trailerValue(trailer, MDTransactionReference, hints.Reference),
			}
		}
		return &account.NotFoundError{
			AccountNumber: trailerValue(trailer, MDAccountNumber, hints.AccountNumber),
		}
	case codes.FailedPrecondition:
		num := trailerValue(trailer, MDAccountNumber, hints.AccountNumber)
		switch errType {
		case ErrTypeInsufficientBalance:
			return &account.InsufficientFundsError{
				AccountNumber: num,
				Balance:       trailerInt(trailer, MDBalance),
				Requested:     trailerInt(trailer, MDAttemptedOperation),
			}
		case ErrTypeIneligibleAccount:
			return &account.IneligibleAccountError{
				AccountNumber: num,
				Status:        account.Status(trailerValue(trailer, MDAccountStatus, "")),
				Operation:     trailerValue(trailer, MDAttemptedOperation, ""),
			}
		}
	}
	return &RemoteFailureError{Method: method, Status: st, Err: err}
}

func trailerValue(md metadata.MD, key, fallback string) string {
	if vals := md.Get(key); len(vals) > 0 && vals[0] != "" {
		return vals[0]
	}
	return fallback
}

func trailerInt(md metadata.MD, key string) int64 {
	n, _ := strconv.ParseInt(trailerValue(md, key, "0"), 10, 64)
	return n
}
