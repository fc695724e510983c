// Package pg backs the account and transaction stores with Postgres through
// database/sql over the pgx stdlib driver.
package pg

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store owns the connection pool. Per-aggregate stores share it.
type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Accounts returns the account store view of the pool.
func (s *Store) Accounts() *AccountStore { return &AccountStore{db: s.db} }

// Transactions returns the transaction store view of the pool.
func (s *Store) Transactions() *TransactionStore { return &TransactionStore{db: s.db} }

// NewAccountStore wraps an existing handle; used by tests.
func NewAccountStore(db *sql.DB) *AccountStore { return &AccountStore{db: db} }

// NewTransactionStore wraps an existing handle; used by tests.
func NewTransactionStore(db *sql.DB) *TransactionStore { return &TransactionStore{db: db} }
