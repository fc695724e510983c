package transaction

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store is the persistence contract for transaction records. Update must
// reject stale versions so two orchestrator instances cannot both settle the
// same record.
type Store interface {
	Insert(ctx context.Context, tx *Transaction) error
	Update(ctx context.Context, tx *Transaction) error
	GetByReference(ctx context.Context, reference string) (Transaction, error)
	ListByFromAccount(ctx context.Context, fromAccount string) ([]Transaction, error)
	ListByToAccount(ctx context.Context, toAccount string) ([]Transaction, error)
	ListByTime(ctx context.Context, from, to time.Time) ([]Transaction, error)
}

// InMemory implements Store for tests and dev mode.
type InMemory struct {
	mu  sync.Mutex
	txs map[string]*Transaction
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{txs: make(map[string]*Transaction)}
}

func (s *InMemory) Insert(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.Version = 1
	cp := *tx
	s.txs[tx.Reference] = &cp
	return nil
}

func (s *InMemory) Update(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.txs[tx.Reference]
	if !ok {
		return &NotFoundError{Reference: tx.Reference}
	}
	if cur.Version != tx.Version {
		return ErrStaleVersion
	}
	tx.Version++
	tx.UpdatedAt = time.Now().UTC()
	cp := *tx
	s.txs[tx.Reference] = &cp
	return nil
}

func (s *InMemory) GetByReference(ctx context.Context, reference string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[reference]
	if !ok {
		return Transaction{}, &NotFoundError{Reference: reference}
	}
	return *tx, nil
}

func (s *InMemory) ListByFromAccount(ctx context.Context, fromAccount string) ([]Transaction, error) {
	return s.list(func(tx *Transaction) bool { return tx.FromAccount == fromAccount })
}

func (s *InMemory) ListByToAccount(ctx context.Context, toAccount string) ([]Transaction, error) {
	return s.list(func(tx *Transaction) bool { return tx.ToAccount == toAccount })
}

func (s *InMemory) ListByTime(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	return s.list(func(tx *Transaction) bool {
		return !tx.CreatedAt.Before(from) && tx.CreatedAt.Before(to)
	})
}

func (s *InMemory) list(match func(*Transaction) bool) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []Transaction{}
	for _, tx := range s.txs {
		if match(tx) {
			res = append(res, *tx)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}
