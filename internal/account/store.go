package account

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrDuplicateAccountNumber is returned by Insert when the generated account
// number already exists. The ledger regenerates and retries.
var ErrDuplicateAccountNumber = errors.New("account number already exists")

// Store is the persistence contract for account records. Mutate must apply fn
// under the record's row-level lock (or equivalent) so concurrent credits and
// debits of the same account number serialize.
type Store interface {
	Insert(ctx context.Context, acc *Account) error
	GetByNumber(ctx context.Context, number string) (Account, error)
	ListByUser(ctx context.Context, userID string) ([]Account, error)
	Mutate(ctx context.Context, number string, fn func(*Account) error) (Account, error)
}

// InMemory implements Store with in-process concurrency safety. Used by tests
// and single-node dev mode; production runs the Postgres store.
type InMemory struct {
	mu    sync.Mutex
	accts map[string]*Account
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{accts: make(map[string]*Account)}
}

func (s *InMemory) Insert(ctx context.Context, acc *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accts[acc.Number]; ok {
		return ErrDuplicateAccountNumber
	}
	cp := *acc
	s.accts[acc.Number] = &cp
	return nil
}

func (s *InMemory) GetByNumber(ctx context.Context, number string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accts[number]
	if !ok {
		return Account{}, &NotFoundError{AccountNumber: number}
	}
	return *acc, nil
}

func (s *InMemory) ListByUser(ctx context.Context, userID string) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Account
	for _, acc := range s.accts {
		if acc.UserID == userID {
			res = append(res, *acc)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Number < res[j].Number })
	return res, nil
}

func (s *InMemory) Mutate(ctx context.Context, number string, fn func(*Account) error) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accts[number]
	if !ok {
		return Account{}, &NotFoundError{AccountNumber: number}
	}
	cp := *acc
	if err := fn(&cp); err != nil {
		return Account{}, err
	}
	cp.UpdatedAt = time.Now().UTC()
	s.accts[number] = &cp
	return cp, nil
}
