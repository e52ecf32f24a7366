package memory

import (
	"context"
	"sync"

	"solana-promo-agent/internal/storage"
)

// ProcessedIDStore is an in-memory implementation of storage.ProcessedIDStore.
type ProcessedIDStore struct {
	mu   sync.RWMutex
	seen map[string]map[string]struct{} // producer -> set of source ids
}

// NewProcessedIDStore creates a new in-memory processed-id store.
func NewProcessedIDStore() *ProcessedIDStore {
	return &ProcessedIDStore{
		seen: make(map[string]map[string]struct{}),
	}
}

// IsProcessed checks whether the (producer, sourceID) pair was handled.
func (s *ProcessedIDStore) IsProcessed(_ context.Context, producer, sourceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.seen[producer]
	if !ok {
		return false, nil
	}
	_, processed := ids[sourceID]
	return processed, nil
}

// MarkProcessed records that the pair was handled. Idempotent.
func (s *ProcessedIDStore) MarkProcessed(_ context.Context, producer, sourceID string) error {
	if producer == "" || sourceID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[producer] == nil {
		s.seen[producer] = make(map[string]struct{})
	}
	s.seen[producer][sourceID] = struct{}{}
	return nil
}

// LoadProcessed returns all handled source ids for a producer.
func (s *ProcessedIDStore) LoadProcessed(_ context.Context, producer string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.seen[producer]))
	for id := range s.seen[producer] {
		ids = append(ids, id)
	}
	return ids, nil
}

// Verify interface compliance at compile time.
var _ storage.ProcessedIDStore = (*ProcessedIDStore)(nil)
