package transaction

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/ids"
	"github.com/Wunenes/Core-Banking-System-Services/internal/ledgerfeed"
)

// Ledger is the slice of account operations the orchestrator drives.
// Satisfied by the in-process account ledger in dev mode and by the gRPC
// client in production.
type Ledger interface {
	GetAccount(ctx context.Context, number string) (account.Account, error)
	Credit(ctx context.Context, number string, amount int64, currency account.Currency) (int64, error)
	Debit(ctx context.Context, number string, amount int64, currency account.Currency) (int64, error)
}

// Orchestrator records a transaction before touching any balance, then moves
// it through the leg sequence. A record that reaches FAILED or COMPLETED
// never changes status again.
//
// There is no automatic compensation: if the credit leg of a transfer fails
// after the debit leg settled, the record is marked FAILED with the reason
// and the money stays on the books of neither party until reconciliation
// picks it up. The feed entries are only emitted for completed movements.
type Orchestrator struct {
	store  Store
	ledger Ledger
	ids    *ids.Generator
	feed   ledgerfeed.Publisher
	logger *zap.Logger
}

// NewOrchestrator wires the orchestrator. feed may be nil when no broker is
// configured; entries are then dropped.
func NewOrchestrator(store Store, ledger Ledger, gen *ids.Generator, feed ledgerfeed.Publisher, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{store: store, ledger: ledger, ids: gen, feed: feed, logger: logger}
}

// Deposit credits an external pay-in to the target account. The record is
// persisted PENDING before the credit; an ineligible target fails the
// record, any other failure leaves it PENDING for retry or reconciliation.
func (o *Orchestrator) Deposit(ctx context.Context, toAccount string, amount int64, currency account.Currency, description string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	tx := o.newRecord(TypeDeposit, "", toAccount, amount, currency, description, "")
	if err := o.store.Insert(ctx, &tx); err != nil {
		return Transaction{}, err
	}

	balance, err := o.ledger.Credit(ctx, toAccount, amount, currency)
	if err != nil {
		var ineligible *account.IneligibleAccountError
		if errors.As(err, &ineligible) {
			o.fail(ctx, &tx, err.Error())
		}
		return tx, err
	}

	o.publish(ctx, ledgerfeed.Entry{
		AccountNumber:  toAccount,
		Amount:         amount,
		Currency:       string(currency),
		Type:           ledgerfeed.Credit,
		TransactionRef: tx.Reference,
	})

	tx.Status = StatusCompleted
	tx.CreditBalanceAfter = &balance
	if err := o.store.Update(ctx, &tx); err != nil {
		return tx, err
	}
	o.logger.Info("deposit completed",
		zap.String("reference", tx.Reference),
		zap.String("to_account", toAccount),
		zap.Int64("amount", amount))
	return tx, nil
}

// InternalTransfer moves funds between two accounts as a debit leg followed
// by a credit leg. A domain rejection on either leg fails the record with
// the reason; transport failures leave it in its current state.
func (o *Orchestrator) InternalTransfer(ctx context.Context, fromAccount, toAccount string, amount int64, currency account.Currency, description, initiatedBy string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	tx := o.newRecord(TypeInternal, fromAccount, toAccount, amount, currency, description, initiatedBy)
	if err := o.store.Insert(ctx, &tx); err != nil {
		return Transaction{}, err
	}

	debitBalance, err := o.ledger.Debit(ctx, fromAccount, amount, currency)
	if err != nil {
		if reason, domain := rejectionReason(err); domain {
			o.fail(ctx, &tx, reason)
		}
		return tx, err
	}

	tx.Status = StatusProcessing
	tx.DebitBalanceAfter = &debitBalance
	if uerr := o.store.Update(ctx, &tx); uerr != nil {
		return tx, uerr
	}

	creditBalance, err := o.ledger.Credit(ctx, toAccount, amount, currency)
	if err != nil {
		if reason, domain := rejectionReason(err); domain {
			o.logger.Error("credit leg rejected after settled debit",
				zap.String("reference", tx.Reference),
				zap.String("from_account", fromAccount),
				zap.String("to_account", toAccount),
				zap.String("reason", reason))
			o.fail(ctx, &tx, reason)
		}
		return tx, err
	}

	o.publish(ctx,
		ledgerfeed.Entry{
			AccountNumber:  fromAccount,
			Amount:         amount,
			Currency:       string(currency),
			Type:           ledgerfeed.Debit,
			TransactionRef: tx.Reference,
		},
		ledgerfeed.Entry{
			AccountNumber:  toAccount,
			Amount:         amount,
			Currency:       string(currency),
			Type:           ledgerfeed.Credit,
			TransactionRef: tx.Reference,
		},
	)

	tx.Status = StatusCompleted
	tx.CreditBalanceAfter = &creditBalance
	if err := o.store.Update(ctx, &tx); err != nil {
		return tx, err
	}
	o.logger.Info("transfer completed",
		zap.String("reference", tx.Reference),
		zap.String("from_account", fromAccount),
		zap.String("to_account", toAccount),
		zap.Int64("amount", amount))
	return tx, nil
}

// Withdrawal debits an external pay-out from the source account.
func (o *Orchestrator) Withdrawal(ctx context.Context, fromAccount string, amount int64, currency account.Currency, description string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	tx := o.newRecord(TypeWithdrawal, fromAccount, "", amount, currency, description, "")
	if err := o.store.Insert(ctx, &tx); err != nil {
		return Transaction{}, err
	}

	balance, err := o.ledger.Debit(ctx, fromAccount, amount, currency)
	if err != nil {
		if reason, domain := rejectionReason(err); domain {
			o.fail(ctx, &tx, reason)
		}
		return tx, err
	}

	o.publish(ctx, ledgerfeed.Entry{
		AccountNumber:  fromAccount,
		Amount:         amount,
		Currency:       string(currency),
		Type:           ledgerfeed.Debit,
		TransactionRef: tx.Reference,
	})

	tx.Status = StatusCompleted
	tx.DebitBalanceAfter = &balance
	if err := o.store.Update(ctx, &tx); err != nil {
		return tx, err
	}
	o.logger.Info("withdrawal completed",
		zap.String("reference", tx.Reference),
		zap.String("from_account", fromAccount),
		zap.Int64("amount", amount))
	return tx, nil
}

// GetByReference returns one transaction record.
func (o *Orchestrator) GetByReference(ctx context.Context, reference string) (Transaction, error) {
	return o.store.GetByReference(ctx, reference)
}

// ListByFromAccount returns transactions debiting the account.
func (o *Orchestrator) ListByFromAccount(ctx context.Context, fromAccount string) ([]Transaction, error) {
	return o.store.ListByFromAccount(ctx, fromAccount)
}

// ListByToAccount returns transactions crediting the account.
func (o *Orchestrator) ListByToAccount(ctx context.Context, toAccount string) ([]Transaction, error) {
	return o.store.ListByToAccount(ctx, toAccount)
}

// ListByTime returns transactions created in [from, to).
func (o *Orchestrator) ListByTime(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	return o.store.ListByTime(ctx, from, to)
}

func (o *Orchestrator) newRecord(typ Type, fromAccount, toAccount string, amount int64, currency account.Currency, description, initiatedBy string) Transaction {
	now := time.Now().UTC()
	return Transaction{
		ID:          o.ids.ULID(),
		Reference:   o.ids.Reference(typ.Code()),
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      amount,
		Currency:    currency,
		Status:      StatusPending,
		Type:        typ,
		Description: description,
		InitiatedBy: initiatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// rejectionReason maps a leg failure to the persisted rejection reason.
// Only domain rejections fail the record; everything else (transport,
// auth, unknown server errors) leaves its status for a later sweep.
func rejectionReason(err error) (string, bool) {
	var insufficient *account.InsufficientFundsError
	if errors.As(err, &insufficient) {
		return err.Error(), true
	}
	var ineligible *account.IneligibleAccountError
	if errors.As(err, &ineligible) {
		return string(ineligible.Status), true
	}
	var notFound *account.NotFoundError
	if errors.As(err, &notFound) {
		return err.Error(), true
	}
	return "", false
}

func (o *Orchestrator) fail(ctx context.Context, tx *Transaction, reason string) {
	tx.Status = StatusFailed
	tx.RejectionReason = reason
	if err := o.store.Update(ctx, tx); err != nil {
		o.logger.Error("failed to persist rejection",
			zap.String("reference", tx.Reference),
			zap.Error(err))
	}
}

func (o *Orchestrator) publish(ctx context.Context, entries ...ledgerfeed.Entry) {
	if o.feed == nil {
		return
	}
	for _, entry := range entries {
		if err := o.feed.Publish(ctx, entry); err != nil {
			o.logger.Warn("ledger feed publish failed",
				zap.String("reference", entry.TransactionRef),
				zap.String("type", string(entry.Type)),
				zap.Error(err))
		}
	}
}
