package account

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Wunenes/Core-Banking-System-Services/internal/ids"
)

const (
	// CHECKING accounts funded below this start INACTIVE.
	checkingMinimumBalance = 200
	// An INACTIVE account flips to ACTIVE when a single converted credit
	// exceeds this.
	reactivationThreshold = 200
)

// Ledger owns account records and their state machine.
type Ledger struct {
	store  Store
	ids    *ids.Generator
	rates  RateProvider
	logger *zap.Logger
}

// NewLedger wires the ledger. rates may be nil, in which case the flat-markup
// provider is used.
func NewLedger(store Store, gen *ids.Generator, rates RateProvider, logger *zap.Logger) *Ledger {
	if rates == nil {
		rates = FlatMarkup{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, ids: gen, rates: rates, logger: logger}
}

// CreateAccount persists a new account, generating account numbers until one
// is free. CHECKING accounts below the minimum funding threshold start
// INACTIVE.
func (l *Ledger) CreateAccount(ctx context.Context, userID string, typ Type, currency Currency, openingBalance, interestRateBps int64) (Account, error) {
	if !typ.Valid() {
		return Account{}, ErrInvalidType
	}
	if currency == "" {
		return Account{}, ErrInvalidCurrency
	}
	if openingBalance < 0 {
		return Account{}, ErrInvalidAmount
	}

	status := StatusActive
	if typ == TypeChecking && openingBalance < checkingMinimumBalance {
		status = StatusInactive
	}

	now := time.Now().UTC()
	acc := Account{
		ID:               l.ids.ULID(),
		UserID:           userID,
		Type:             typ,
		Status:           status,
		Currency:         currency,
		CurrentBalance:   openingBalance,
		AvailableBalance: openingBalance,
		InterestRateBps:  interestRateBps,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	for {
		acc.Number = l.ids.AccountNumber(typ.Code())
		err := l.store.Insert(ctx, &acc)
		if err == nil {
			break
		}
		if errors.Is(err, ErrDuplicateAccountNumber) {
			continue
		}
		return Account{}, err
	}

	l.logger.Info("account created",
		zap.String("account_number", acc.Number),
		zap.String("user_id", userID),
		zap.String("type", string(typ)),
		zap.String("status", string(status)))
	return acc, nil
}

// GetAccount looks up one account by number.
func (l *Ledger) GetAccount(ctx context.Context, number string) (Account, error) {
	return l.store.GetByNumber(ctx, number)
}

// GetAccountsByUser returns all accounts owned by the user, failing with
// NotFound when there are none.
func (l *Ledger) GetAccountsByUser(ctx context.Context, userID string) ([]Account, error) {
	accounts, err := l.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, &NotFoundError{UserID: userID}
	}
	return accounts, nil
}

// Credit adds the (converted) amount to both balances and returns the new
// available balance. FROZEN, CLOSED and DORMANT accounts are ineligible. An
// INACTIVE account receiving a converted credit above the reactivation
// threshold becomes ACTIVE.
func (l *Ledger) Credit(ctx context.Context, number string, amount int64, currency Currency) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	acc, err := l.store.Mutate(ctx, number, func(acc *Account) error {
		switch acc.Status {
		case StatusFrozen, StatusClosed, StatusDormant:
			return &IneligibleAccountError{AccountNumber: number, Status: acc.Status, Operation: "credit account"}
		}
		converted := l.rates.Convert(amount, currency, acc.Currency)
		acc.CurrentBalance += converted
		acc.AvailableBalance += converted
		if acc.Status == StatusInactive && converted > reactivationThreshold {
			acc.Status = StatusActive
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return acc.AvailableBalance, nil
}

// Debit subtracts the (converted) amount from both balances and returns the
// new current balance. Debit is stricter than credit: INACTIVE accounts are
// also ineligible. Fails with InsufficientFunds when the available balance
// cannot cover the converted amount.
func (l *Ledger) Debit(ctx context.Context, number string, amount int64, currency Currency) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	acc, err := l.store.Mutate(ctx, number, func(acc *Account) error {
		switch acc.Status {
		case StatusFrozen, StatusClosed, StatusDormant, StatusInactive:
			return &IneligibleAccountError{AccountNumber: number, Status: acc.Status, Operation: "debit account"}
		}
		converted := l.rates.Convert(amount, currency, acc.Currency)
		if acc.AvailableBalance < converted {
			return &InsufficientFundsError{AccountNumber: number, Balance: acc.CurrentBalance, Requested: converted}
		}
		acc.AvailableBalance -= converted
		acc.CurrentBalance -= converted
		return nil
	})
	if err != nil {
		return 0, err
	}
	return acc.CurrentBalance, nil
}

// FreezeAction sets the account FROZEN ("freeze") or back to ACTIVE
// ("unfreeze"). CLOSED is terminal, so neither action applies to a closed
// account. Unknown actions leave the status untouched.
func (l *Ledger) FreezeAction(ctx context.Context, action, number, reason string) (FreezeResult, error) {
	_, err := l.store.Mutate(ctx, number, func(acc *Account) error {
		switch action {
		case "freeze":
			if acc.Status == StatusClosed {
				return &IneligibleAccountError{AccountNumber: number, Status: acc.Status, Operation: "freeze account"}
			}
			acc.Status = StatusFrozen
		case "unfreeze":
			if acc.Status == StatusClosed {
				return &IneligibleAccountError{AccountNumber: number, Status: acc.Status, Operation: "unfreeze account"}
			}
			acc.Status = StatusActive
		}
		return nil
	})
	if err != nil {
		return FreezeResult{}, err
	}
	l.logger.Info("freeze action applied",
		zap.String("account_number", number),
		zap.String("action", action),
		zap.String("reason", reason))
	return FreezeResult{
		Action:        action,
		AccountNumber: number,
		Reason:        reason,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// CloseAccount closes the account after sweeping any remaining balance to the
// receiving account. The sweep reuses Debit and Credit, so their eligibility
// and conversion rules apply; if either leg fails the status is never set to
// CLOSED and the error propagates.
func (l *Ledger) CloseAccount(ctx context.Context, number, receivingNumber string) (CloseResult, error) {
	acc, err := l.store.GetByNumber(ctx, number)
	if err != nil {
		return CloseResult{}, err
	}
	if acc.Status == StatusFrozen {
		return CloseResult{}, &IneligibleAccountError{AccountNumber: number, Status: acc.Status, Operation: "close account"}
	}

	res := CloseResult{AccountNumber: number}
	if acc.CurrentBalance > 0 {
		if _, err := l.store.GetByNumber(ctx, receivingNumber); err != nil {
			return CloseResult{}, err
		}
		sweep := acc.CurrentBalance
		if _, err := l.Debit(ctx, number, sweep, acc.Currency); err != nil {
			return CloseResult{}, err
		}
		if _, err := l.Credit(ctx, receivingNumber, sweep, acc.Currency); err != nil {
			return CloseResult{}, err
		}
		res.SweptAmount = sweep
		res.ReceivingInto = receivingNumber
	}

	if _, err := l.store.Mutate(ctx, number, func(acc *Account) error {
		acc.Status = StatusClosed
		return nil
	}); err != nil {
		return CloseResult{}, err
	}

	l.logger.Info("account closed",
		zap.String("account_number", number),
		zap.Int64("swept_amount", res.SweptAmount))
	res.ClosedAt = time.Now().UTC()
	return res, nil
}
