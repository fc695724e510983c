package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/ids"
	"github.com/Wunenes/Core-Banking-System-Services/internal/ledgerfeed"
)

type fixture struct {
	orch   *Orchestrator
	ledger *account.Ledger
	store  *InMemory
	feed   *ledgerfeed.InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gen := ids.NewGenerator(1)
	ledger := account.NewLedger(account.NewInMemory(), gen, nil, nil)
	store := NewInMemory()
	feed := ledgerfeed.NewInMemory()
	return &fixture{
		orch:   NewOrchestrator(store, ledger, gen, feed, nil),
		ledger: ledger,
		store:  store,
		feed:   feed,
	}
}

func (f *fixture) account(t *testing.T, opening int64) account.Account {
	t.Helper()
	acc, err := f.ledger.CreateAccount(context.Background(), "user-1", account.TypeSavings, account.KES, opening, 0)
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return acc
}

func (f *fixture) frozenAccount(t *testing.T, opening int64) account.Account {
	t.Helper()
	acc := f.account(t, opening)
	if _, err := f.ledger.FreezeAction(context.Background(), "freeze", acc.Number, "test"); err != nil {
		t.Fatalf("FreezeAction: %v", err)
	}
	return acc
}

func TestDeposit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	acc := f.account(t, 100)

	tx, err := f.orch.Deposit(ctx, acc.Number, 500, account.KES, "payroll")
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if tx.Status != StatusCompleted {
		t.Fatalf("status=%s, want COMPLETED", tx.Status)
	}
	if tx.Type != TypeDeposit || tx.Reference[0] != 'D' {
		t.Fatalf("type=%s reference=%q", tx.Type, tx.Reference)
	}
	if tx.CreditBalanceAfter == nil || *tx.CreditBalanceAfter != 600 {
		t.Fatalf("credit balance after=%v, want 600", tx.CreditBalanceAfter)
	}
	if !ids.ValidateChecksum(tx.Reference) {
		t.Fatalf("reference %q fails checksum", tx.Reference)
	}

	// The record is persisted and retrievable by reference.
	got, err := f.orch.GetByReference(ctx, tx.Reference)
	if err != nil {
		t.Fatalf("GetByReference: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("persisted status=%s", got.Status)
	}

	// One credit entry went to the feed, keyed by the reference.
	entries := f.feed.Entries()
	if len(entries) != 1 {
		t.Fatalf("feed entries=%d, want 1", len(entries))
	}
	if entries[0].Type != ledgerfeed.Credit || entries[0].TransactionRef != tx.Reference {
		t.Fatalf("entry=%+v", entries[0])
	}
}

func TestDepositIneligibleTargetFailsRecord(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	acc := f.frozenAccount(t, 100)

	tx, err := f.orch.Deposit(ctx, acc.Number, 500, account.KES, "")
	var ineligible *account.IneligibleAccountError
	if !errors.As(err, &ineligible) {
		t.Fatalf("got %v, want IneligibleAccountError", err)
	}

	got, gerr := f.orch.GetByReference(ctx, tx.Reference)
	if gerr != nil {
		t.Fatalf("GetByReference: %v", gerr)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status=%s, want FAILED", got.Status)
	}
	if got.RejectionReason == "" {
		t.Fatalf("rejection reason missing")
	}
	if len(f.feed.Entries()) != 0 {
		t.Fatalf("no feed entries expected on failure")
	}
}

func TestDepositMissingTargetStaysPending(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.orch.Deposit(ctx, "0009999990", 500, account.KES, "")
	var notFound *account.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want NotFoundError", err)
	}

	got, gerr := f.orch.GetByReference(ctx, tx.Reference)
	if gerr != nil {
		t.Fatalf("GetByReference: %v", gerr)
	}
	if got.Status != StatusPending {
		t.Fatalf("status=%s, want PENDING for non-domain failure", got.Status)
	}
}

func TestDepositInvalidAmount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if _, err := f.orch.Deposit(context.Background(), "0002000013", 0, account.KES, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("got %v, want ErrInvalidAmount", err)
	}
}

func TestInternalTransfer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	src := f.account(t, 1000)
	dst := f.account(t, 200)

	tx, err := f.orch.InternalTransfer(ctx, src.Number, dst.Number, 300, account.KES, "rent", "user-1")
	if err != nil {
		t.Fatalf("InternalTransfer: %v", err)
	}
	if tx.Status != StatusCompleted {
		t.Fatalf("status=%s, want COMPLETED", tx.Status)
	}
	if tx.Reference[0] != 'I' {
		t.Fatalf("reference=%q, want I prefix", tx.Reference)
	}
	if tx.DebitBalanceAfter == nil || *tx.DebitBalanceAfter != 700 {
		t.Fatalf("debit balance after=%v, want 700", tx.DebitBalanceAfter)
	}
	if tx.CreditBalanceAfter == nil || *tx.CreditBalanceAfter != 500 {
		t.Fatalf("credit balance after=%v, want 500", tx.CreditBalanceAfter)
	}

	entries := f.feed.Entries()
	if len(entries) != 2 {
		t.Fatalf("feed entries=%d, want 2", len(entries))
	}
	if entries[0].Type != ledgerfeed.Debit || entries[0].AccountNumber != src.Number {
		t.Fatalf("first entry=%+v, want debit of source", entries[0])
	}
	if entries[1].Type != ledgerfeed.Credit || entries[1].AccountNumber != dst.Number {
		t.Fatalf("second entry=%+v, want credit of destination", entries[1])
	}
	if entries[0].TransactionRef != tx.Reference || entries[1].TransactionRef != tx.Reference {
		t.Fatalf("entries not keyed by reference")
	}
}

func TestInternalTransferInsufficientFunds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	src := f.account(t, 100)
	dst := f.account(t, 0)

	tx, err := f.orch.InternalTransfer(ctx, src.Number, dst.Number, 300, account.KES, "", "")
	var insufficient *account.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %v, want InsufficientFundsError", err)
	}

	got, _ := f.orch.GetByReference(ctx, tx.Reference)
	if got.Status != StatusFailed {
		t.Fatalf("status=%s, want FAILED", got.Status)
	}
	if got.RejectionReason != err.Error() {
		t.Fatalf("reason=%q, want debit error message", got.RejectionReason)
	}

	// Neither balance moved.
	gotSrc, _ := f.ledger.GetAccount(ctx, src.Number)
	if gotSrc.CurrentBalance != 100 {
		t.Fatalf("source balance=%d, want 100", gotSrc.CurrentBalance)
	}
}

func TestInternalTransferFrozenSource(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	src := f.frozenAccount(t, 1000)
	dst := f.account(t, 0)

	tx, err := f.orch.InternalTransfer(ctx, src.Number, dst.Number, 300, account.KES, "", "")
	var ineligible *account.IneligibleAccountError
	if !errors.As(err, &ineligible) {
		t.Fatalf("got %v, want IneligibleAccountError", err)
	}

	got, _ := f.orch.GetByReference(ctx, tx.Reference)
	if got.Status != StatusFailed {
		t.Fatalf("status=%s, want FAILED", got.Status)
	}
	if got.RejectionReason != string(account.StatusFrozen) {
		t.Fatalf("reason=%q, want account status", got.RejectionReason)
	}
}

func TestInternalTransferCreditLegRejection(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	src := f.account(t, 1000)
	dst := f.frozenAccount(t, 0)

	tx, err := f.orch.InternalTransfer(ctx, src.Number, dst.Number, 300, account.KES, "", "")
	var ineligible *account.IneligibleAccountError
	if !errors.As(err, &ineligible) {
		t.Fatalf("got %v, want IneligibleAccountError", err)
	}

	// The record fails, and the settled debit is not compensated; the
	// money is off the source's books pending reconciliation.
	got, _ := f.orch.GetByReference(ctx, tx.Reference)
	if got.Status != StatusFailed {
		t.Fatalf("status=%s, want FAILED", got.Status)
	}
	if got.DebitBalanceAfter == nil || *got.DebitBalanceAfter != 700 {
		t.Fatalf("debit balance after=%v, want recorded 700", got.DebitBalanceAfter)
	}
	gotSrc, _ := f.ledger.GetAccount(ctx, src.Number)
	if gotSrc.CurrentBalance != 700 {
		t.Fatalf("source balance=%d, want 700 after uncompensated debit", gotSrc.CurrentBalance)
	}
	gotDst, _ := f.ledger.GetAccount(ctx, dst.Number)
	if gotDst.CurrentBalance != 0 {
		t.Fatalf("destination balance=%d, want 0", gotDst.CurrentBalance)
	}
	if len(f.feed.Entries()) != 0 {
		t.Fatalf("no feed entries expected for failed transfer")
	}
}

func TestWithdrawal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	acc := f.account(t, 800)

	tx, err := f.orch.Withdrawal(ctx, acc.Number, 300, account.KES, "atm")
	if err != nil {
		t.Fatalf("Withdrawal: %v", err)
	}
	if tx.Status != StatusCompleted {
		t.Fatalf("status=%s, want COMPLETED", tx.Status)
	}
	if tx.Reference[0] != 'W' {
		t.Fatalf("reference=%q, want W prefix", tx.Reference)
	}
	if tx.DebitBalanceAfter == nil || *tx.DebitBalanceAfter != 500 {
		t.Fatalf("debit balance after=%v, want 500", tx.DebitBalanceAfter)
	}

	entries := f.feed.Entries()
	if len(entries) != 1 || entries[0].Type != ledgerfeed.Debit {
		t.Fatalf("entries=%+v, want one debit", entries)
	}
}

func TestWithdrawalInsufficientFunds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	acc := f.account(t, 100)

	tx, err := f.orch.Withdrawal(ctx, acc.Number, 300, account.KES, "")
	var insufficient *account.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %v, want InsufficientFundsError", err)
	}
	got, _ := f.orch.GetByReference(ctx, tx.Reference)
	if got.Status != StatusFailed {
		t.Fatalf("status=%s, want FAILED", got.Status)
	}
}

func TestListTransactions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	src := f.account(t, 1000)
	dst := f.account(t, 0)

	if _, err := f.orch.InternalTransfer(ctx, src.Number, dst.Number, 100, account.KES, "", ""); err != nil {
		t.Fatalf("InternalTransfer: %v", err)
	}
	if _, err := f.orch.InternalTransfer(ctx, src.Number, dst.Number, 200, account.KES, "", ""); err != nil {
		t.Fatalf("InternalTransfer: %v", err)
	}
	if _, err := f.orch.Deposit(ctx, dst.Number, 50, account.KES, ""); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	out, err := f.orch.ListByFromAccount(ctx, src.Number)
	if err != nil {
		t.Fatalf("ListByFromAccount: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("from-account list=%d, want 2", len(out))
	}

	in, err := f.orch.ListByToAccount(ctx, dst.Number)
	if err != nil {
		t.Fatalf("ListByToAccount: %v", err)
	}
	if len(in) != 3 {
		t.Fatalf("to-account list=%d, want 3", len(in))
	}

	var notFound *NotFoundError
	if _, err := f.orch.GetByReference(ctx, "IAAAAAAAA-ZZ9"); !errors.As(err, &notFound) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}
