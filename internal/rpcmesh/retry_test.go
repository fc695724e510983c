package rpcmesh

import (
	"context"
	"errors"
	"sync"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	token string
	err   error
}

func (s *countingSource) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func (s *countingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCallerRetriesOnUnauthenticated(t *testing.T) {
	t.Parallel()

	src := &countingSource{token: "h.p.s"}
	broker := NewCredentialBroker(src, nil)
	caller := NewCaller(broker, 0, nil)

	attempts := 0
	op := func(context.Context) (metadata.MD, error) {
		attempts++
		if attempts < 3 {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, nil
	}

	if err := caller.Invoke(context.Background(), "GetAccount", op, Hints{}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts=%d, want 3", attempts)
	}
	if src.count() != 2 {
		t.Fatalf("token source called %d times, want 2", src.count())
	}
}

func TestCallerAuthExhausted(t *testing.T) {
	t.Parallel()

	broker := NewCredentialBroker(&countingSource{token: "h.p.s"}, nil)
	caller := NewCaller(broker, 0, nil)

	op := func(context.Context) (metadata.MD, error) {
		return nil, status.Error(codes.Unauthenticated, "nope")
	}

	err := caller.Invoke(context.Background(), "GetAccount", op, Hints{})
	var exhausted *AuthExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("got %v, want AuthExhaustedError", err)
	}
	if exhausted.Attempts != maxAttempts {
		t.Fatalf("attempts=%d, want %d", exhausted.Attempts, maxAttempts)
	}
}

func TestCallerRefreshFailureIsFatal(t *testing.T) {
	t.Parallel()

	src := &countingSource{err: errors.New("issuer down")}
	broker := NewCredentialBroker(src, nil)
	caller := NewCaller(broker, 0, nil)

	attempts := 0
	op := func(context.Context) (metadata.MD, error) {
		attempts++
		return nil, status.Error(codes.Unauthenticated, "nope")
	}

	err := caller.Invoke(context.Background(), "Credit", op, Hints{})
	var exhausted *AuthExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("got %v, want AuthExhaustedError", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts=%d, want 1 when refresh fails", attempts)
	}
}

func TestCallerTranslatesDomainErrors(t *testing.T) {
	t.Parallel()

	broker := NewCredentialBroker(&countingSource{token: "h.p.s"}, nil)
	caller := NewCaller(broker, 0, nil)

	t.Run("insufficient balance", func(t *testing.T) {
		op := func(context.Context) (metadata.MD, error) {
			md := metadata.Pairs(
				MDErrorType, ErrTypeInsufficientBalance,
				MDAccountNumber, "0004123451",
				MDBalance, "150",
				MDAttemptedOperation, "500",
			)
			return md, status.Error(codes.FailedPrecondition, "insufficient balance")
		}
		err := caller.Invoke(context.Background(), "Debit", op, Hints{})
		var insufficient *account.InsufficientFundsError
		if !errors.As(err, &insufficient) {
			t.Fatalf("got %v, want InsufficientFundsError", err)
		}
		if insufficient.Balance != 150 || insufficient.Requested != 500 {
			t.Fatalf("balance=%d requested=%d", insufficient.Balance, insufficient.Requested)
		}
	})

	t.Run("ineligible account", func(t *testing.T) {
		op := func(context.Context) (metadata.MD, error) {
			md := metadata.Pairs(
				MDErrorType, ErrTypeIneligibleAccount,
				MDAccountNumber, "0004123451",
				MDAccountStatus, "FROZEN",
				MDAttemptedOperation, "credit",
			)
			return md, status.Error(codes.FailedPrecondition, "ineligible")
		}
		err := caller.Invoke(context.Background(), "Credit", op, Hints{})
		var ineligible *account.IneligibleAccountError
		if !errors.As(err, &ineligible) {
			t.Fatalf("got %v, want IneligibleAccountError", err)
		}
		if ineligible.Status != account.StatusFrozen {
			t.Fatalf("status=%s, want FROZEN", ineligible.Status)
		}
	})

	t.Run("account not found falls back to hint", func(t *testing.T) {
		op := func(context.Context) (metadata.MD, error) {
			return nil, status.Error(codes.NotFound, "no such account")
		}
		err := caller.Invoke(context.Background(), "GetAccount", op, Hints{AccountNumber: "0002999992"})
		var notFound *account.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("got %v, want NotFoundError", err)
		}
		if notFound.AccountNumber != "0002999992" {
			t.Fatalf("account=%q", notFound.AccountNumber)
		}
	})

	t.Run("transaction not found", func(t *testing.T) {
		op := func(context.Context) (metadata.MD, error) {
			md := metadata.Pairs(MDErrorType, ErrTypeTransactionNotFound)
			return md, status.Error(codes.NotFound, "no such transaction")
		}
		err := caller.Invoke(context.Background(), "GetTransaction", op, Hints{Reference: "IABCDEFGH-1Z4"})
		var notFound *transaction.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("got %v, want transaction NotFoundError", err)
		}
		if notFound.Reference != "IABCDEFGH-1Z4" {
			t.Fatalf("reference=%q", notFound.Reference)
		}
	})

	t.Run("unmapped status", func(t *testing.T) {
		op := func(context.Context) (metadata.MD, error) {
			return nil, status.Error(codes.Unavailable, "connection refused")
		}
		err := caller.Invoke(context.Background(), "Credit", op, Hints{})
		var remote *RemoteFailureError
		if !errors.As(err, &remote) {
			t.Fatalf("got %v, want RemoteFailureError", err)
		}
		if remote.Status.Code() != codes.Unavailable {
			t.Fatalf("code=%s", remote.Status.Code())
		}
	})
}
