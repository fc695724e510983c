package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
)

// TransactionStore implements transaction.Store on Postgres.
type TransactionStore struct {
	db *sql.DB
}

var _ transaction.Store = (*TransactionStore)(nil)

const transactionColumns = `id, reference, from_account, to_account, amount, currency, status,
	transaction_type, description, fee_amount, fee_currency, initiated_by,
	debit_balance_after, credit_balance_after, rejection_reason, created_at, updated_at, version`

func (s *TransactionStore) Insert(ctx context.Context, tx *transaction.Transaction) error {
	tx.Version = 1
	_, err := s.db.ExecContext(ctx, `
		insert into transactions(id, reference, from_account, to_account, amount, currency, status,
			transaction_type, description, fee_amount, fee_currency, initiated_by,
			debit_balance_after, credit_balance_after, rejection_reason, created_at, updated_at, version)
		values ($1,$2,nullif($3,''),nullif($4,''),$5,$6,$7,$8,$9,$10,nullif($11,''),nullif($12,''),
			$13,$14,nullif($15,''),$16,$17,$18)
	`, tx.ID, tx.Reference, tx.FromAccount, tx.ToAccount, tx.Amount, tx.Currency, tx.Status,
		tx.Type, tx.Description, tx.FeeAmount, tx.FeeCurrency, tx.InitiatedBy,
		tx.DebitBalanceAfter, tx.CreditBalanceAfter, tx.RejectionReason, tx.CreatedAt, tx.UpdatedAt, tx.Version)
	return err
}

// Update writes the record back only if the caller still holds the current
// version, then bumps it.
func (s *TransactionStore) Update(ctx context.Context, tx *transaction.Transaction) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		update transactions
		set status=$3, description=$4, fee_amount=$5, fee_currency=nullif($6,''),
			debit_balance_after=$7, credit_balance_after=$8, rejection_reason=nullif($9,''),
			updated_at=$10, version=version+1
		where reference=$1 and version=$2
	`, tx.Reference, tx.Version, tx.Status, tx.Description, tx.FeeAmount, tx.FeeCurrency,
		tx.DebitBalanceAfter, tx.CreditBalanceAfter, tx.RejectionReason, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`select exists(select 1 from transactions where reference=$1)`, tx.Reference).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return &transaction.NotFoundError{Reference: tx.Reference}
		}
		return transaction.ErrStaleVersion
	}
	tx.Version++
	tx.UpdatedAt = now
	return nil
}

func (s *TransactionStore) GetByReference(ctx context.Context, reference string) (transaction.Transaction, error) {
	tx, err := scanTransaction(s.db.QueryRowContext(ctx,
		`select `+transactionColumns+` from transactions where reference=$1`, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return transaction.Transaction{}, &transaction.NotFoundError{Reference: reference}
	}
	return tx, err
}

func (s *TransactionStore) ListByFromAccount(ctx context.Context, fromAccount string) ([]transaction.Transaction, error) {
	return s.list(ctx,
		`select `+transactionColumns+` from transactions where from_account=$1 order by created_at`, fromAccount)
}

func (s *TransactionStore) ListByToAccount(ctx context.Context, toAccount string) ([]transaction.Transaction, error) {
	return s.list(ctx,
		`select `+transactionColumns+` from transactions where to_account=$1 order by created_at`, toAccount)
}

func (s *TransactionStore) ListByTime(ctx context.Context, from, to time.Time) ([]transaction.Transaction, error) {
	return s.list(ctx,
		`select `+transactionColumns+` from transactions where created_at >= $1 and created_at < $2 order by created_at`, from, to)
}

func (s *TransactionStore) list(ctx context.Context, query string, args ...any) ([]transaction.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []transaction.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, tx)
	}
	return res, rows.Err()
}

func scanTransaction(row rowScanner) (transaction.Transaction, error) {
	var tx transaction.Transaction
	var fromAccount, toAccount, feeCurrency, initiatedBy, rejection sql.NullString
	var debitAfter, creditAfter sql.NullInt64
	err := row.Scan(&tx.ID, &tx.Reference, &fromAccount, &toAccount, &tx.Amount, &tx.Currency,
		&tx.Status, &tx.Type, &tx.Description, &tx.FeeAmount, &feeCurrency, &initiatedBy,
		&debitAfter, &creditAfter, &rejection, &tx.CreatedAt, &tx.UpdatedAt, &tx.Version)
	if err != nil {
		return transaction.Transaction{}, err
	}
	tx.FromAccount = fromAccount.String
	tx.ToAccount = toAccount.String
	tx.FeeCurrency = account.Currency(feeCurrency.String)
	tx.InitiatedBy = initiatedBy.String
	tx.RejectionReason = rejection.String
	if debitAfter.Valid {
		tx.DebitBalanceAfter = &debitAfter.Int64
	}
	if creditAfter.Valid {
		tx.CreditBalanceAfter = &creditAfter.Int64
	}
	return tx, nil
}
