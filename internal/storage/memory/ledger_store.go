package memory

import (
	"context"
	"sync"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
)

// LedgerStore is an in-memory implementation of storage.LedgerStore.
type LedgerStore struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

// Append adds a journal entry at the tail.
func (s *LedgerStore) Append(_ context.Context, e *domain.LedgerEntry) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *e
	s.entries = append(s.entries, &entryCopy)
	return nil
}

// GetAll retrieves the journal in insertion order.
func (s *LedgerStore) GetAll(_ context.Context) ([]*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.LedgerEntry, len(s.entries))
	for i, e := range s.entries {
		entryCopy := *e
		result[i] = &entryCopy
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.LedgerStore = (*LedgerStore)(nil)
