package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
)

// AccountStore implements account.Store on Postgres.
type AccountStore struct {
	db *sql.DB
}

var _ account.Store = (*AccountStore)(nil)

const accountColumns = `id, user_id, account_number, account_type, account_status, currency,
	current_balance, available_balance, interest_rate_bps, created_at, updated_at`

func (s *AccountStore) Insert(ctx context.Context, acc *account.Account) error {
	_, err := s.db.ExecContext(ctx, `
		insert into accounts(id, user_id, account_number, account_type, account_status, currency,
			current_balance, available_balance, interest_rate_bps, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, acc.ID, acc.UserID, acc.Number, acc.Type, acc.Status, acc.Currency,
		acc.CurrentBalance, acc.AvailableBalance, acc.InterestRateBps, acc.CreatedAt, acc.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return account.ErrDuplicateAccountNumber
	}
	return err
}

func (s *AccountStore) GetByNumber(ctx context.Context, number string) (account.Account, error) {
	acc, err := scanAccount(s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where account_number=$1`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return account.Account{}, &account.NotFoundError{AccountNumber: number}
	}
	return acc, err
}

func (s *AccountStore) ListByUser(ctx context.Context, userID string) ([]account.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+accountColumns+` from accounts where user_id=$1 order by created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, acc)
	}
	return res, rows.Err()
}

// Mutate locks the row, applies fn, and writes the result back. A fn error
// rolls the whole thing back.
func (s *AccountStore) Mutate(ctx context.Context, number string, fn func(*account.Account) error) (account.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return account.Account{}, err
	}
	defer func() { _ = tx.Rollback() }()

	acc, err := scanAccount(tx.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where account_number=$1 for update`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return account.Account{}, &account.NotFoundError{AccountNumber: number}
	}
	if err != nil {
		return account.Account{}, err
	}

	if err := fn(&acc); err != nil {
		return account.Account{}, err
	}
	acc.UpdatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		update accounts
		set account_status=$2, currency=$3, current_balance=$4, available_balance=$5,
			interest_rate_bps=$6, updated_at=$7
		where account_number=$1
	`, number, acc.Status, acc.Currency, acc.CurrentBalance, acc.AvailableBalance,
		acc.InterestRateBps, acc.UpdatedAt); err != nil {
		return account.Account{}, err
	}

	if err := tx.Commit(); err != nil {
		return account.Account{}, err
	}
	return acc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (account.Account, error) {
	var acc account.Account
	err := row.Scan(&acc.ID, &acc.UserID, &acc.Number, &acc.Type, &acc.Status, &acc.Currency,
		&acc.CurrentBalance, &acc.AvailableBalance, &acc.InterestRateBps, &acc.CreatedAt, &acc.UpdatedAt)
	return acc, err
}
