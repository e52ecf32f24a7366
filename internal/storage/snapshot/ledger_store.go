package snapshot

import (
	"context"
	"fmt"
	"sync"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
)

// LedgerStore is a file-backed storage.LedgerStore.
type LedgerStore struct {
	mu      sync.Mutex
	entries []*domain.LedgerEntry
	path    string
}

// NewLedgerStore creates a ledger store backed by the given file,
// loading any existing snapshot.
func NewLedgerStore(path string) (*LedgerStore, error) {
	s := &LedgerStore{path: path}

	var records []*domain.LedgerEntry
	ok, err := readFile(path, &records)
	if err != nil {
		return nil, fmt.Errorf("load ledger snapshot: %w", err)
	}
	if ok {
		s.entries = records
	}
	return s, nil
}

// Append adds a journal entry at the tail and persists the snapshot.
func (s *LedgerStore) Append(_ context.Context, e *domain.LedgerEntry) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *e
	s.entries = append(s.entries, &entryCopy)
	return writeFile(s.path, s.entries)
}

// GetAll retrieves the journal in insertion order.
func (s *LedgerStore) GetAll(_ context.Context) ([]*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*domain.LedgerEntry, len(s.entries))
	for i, e := range s.entries {
		entryCopy := *e
		result[i] = &entryCopy
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.LedgerStore = (*LedgerStore)(nil)
