package snapshot

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-promo-agent/internal/storage"
)

// processedRecord is one line of the processed-id snapshot.
type processedRecord struct {
	Producer string `json:"producer"`
	SourceID string `json:"sourceId"`
}

// ProcessedIDStore is a file-backed storage.ProcessedIDStore.
type ProcessedIDStore struct {
	mu   sync.Mutex
	seen map[string]map[string]struct{} // producer -> set of source ids
	path string
}

// NewProcessedIDStore creates a processed-id store backed by the given
// file, loading any existing snapshot.
func NewProcessedIDStore(path string) (*ProcessedIDStore, error) {
	s := &ProcessedIDStore{
		seen: make(map[string]map[string]struct{}),
		path: path,
	}

	var records []processedRecord
	ok, err := readFile(path, &records)
	if err != nil {
		return nil, fmt.Errorf("load processed-id snapshot: %w", err)
	}
	if ok {
		for _, r := range records {
			if s.seen[r.Producer] == nil {
				s.seen[r.Producer] = make(map[string]struct{})
			}
			s.seen[r.Producer][r.SourceID] = struct{}{}
		}
	}
	return s, nil
}

// IsProcessed checks whether the (producer, sourceID) pair was handled.
func (s *ProcessedIDStore) IsProcessed(_ context.Context, producer, sourceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.seen[producer]
	if !ok {
		return false, nil
	}
	_, processed := ids[sourceID]
	return processed, nil
}

// MarkProcessed records that the pair was handled and persists the snapshot.
func (s *ProcessedIDStore) MarkProcessed(_ context.Context, producer, sourceID string) error {
	if producer == "" || sourceID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[producer] == nil {
		s.seen[producer] = make(map[string]struct{})
	}
	if _, exists := s.seen[producer][sourceID]; exists {
		return nil
	}
	s.seen[producer][sourceID] = struct{}{}
	return s.persist()
}

// LoadProcessed returns all handled source ids for a producer.
func (s *ProcessedIDStore) LoadProcessed(_ context.Context, producer string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.seen[producer]))
	for id := range s.seen[producer] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *ProcessedIDStore) persist() error {
	var records []processedRecord
	producers := make([]string, 0, len(s.seen))
	for p := range s.seen {
		producers = append(producers, p)
	}
	sort.Strings(producers)
	for _, p := range producers {
		ids := make([]string, 0, len(s.seen[p]))
		for id := range s.seen[p] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			records = append(records, processedRecord{Producer: p, SourceID: id})
		}
	}
	return writeFile(s.path, records)
}

// Verify interface compliance at compile time.
var _ storage.ProcessedIDStore = (*ProcessedIDStore)(nil)
