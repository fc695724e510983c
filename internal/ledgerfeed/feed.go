package ledgerfeed

import (
	"context"
	"sync"
)

// Topic consumed by the downstream ledger service.
const Topic = "external-ledger-requests"

// EntryType marks which side of the movement an entry records.
type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// Entry is one side of a money movement, emitted for downstream double-entry
// reconciliation. TransactionRef doubles as the partition key so both legs of
// one transaction land in order.
type Entry struct {
	AccountNumber  string    `json:"account_number"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Type           EntryType `json:"type"`
	TransactionRef string    `json:"transaction_id"`
}

// Publisher emits ledger entries to the message broker.
type Publisher interface {
	Publish(ctx context.Context, entry Entry) error
}

// InMemory buffers entries in process. It backs tests and dev mode without a
// broker.
type InMemory struct {
	mu      sync.Mutex
	entries []Entry
}

var _ Publisher = (*InMemory)(nil)

// NewInMemory creates an empty buffer.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Publish(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of everything published so far.
func (m *InMemory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
