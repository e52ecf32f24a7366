package memory

import (
	"context"
	"sync"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
)

// RewardStore is an in-memory implementation of storage.RewardStore.
type RewardStore struct {
	mu    sync.RWMutex
	order []string                        // discovery order of ids
	data  map[string]*domain.RewardRecord // keyed by record id
}

// NewRewardStore creates a new in-memory reward store.
func NewRewardStore() *RewardStore {
	return &RewardStore{
		data: make(map[string]*domain.RewardRecord),
	}
}

// Insert adds a new reward record. Returns ErrDuplicateKey if the id exists.
func (s *RewardStore) Insert(_ context.Context, r *domain.RewardRecord) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	recordCopy := *r
	s.data[r.ID] = &recordCopy
	s.order = append(s.order, r.ID)
	return nil
}

// Update replaces an existing record. Returns ErrNotFound if absent.
func (s *RewardStore) Update(_ context.Context, r *domain.RewardRecord) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; !exists {
		return storage.ErrNotFound
	}

	recordCopy := *r
	s.data[r.ID] = &recordCopy
	return nil
}

// GetByID retrieves a record by id. Returns ErrNotFound if absent.
func (s *RewardStore) GetByID(_ context.Context, id string) (*domain.RewardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// GetAll retrieves every record in discovery order.
func (s *RewardStore) GetAll(_ context.Context) ([]*domain.RewardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RewardRecord, 0, len(s.order))
	for _, id := range s.order {
		recordCopy := *s.data[id]
		result = append(result, &recordCopy)
	}
	return result, nil
}

// GetByProducer retrieves records for one producer in discovery order.
func (s *RewardStore) GetByProducer(_ context.Context, producer string) ([]*domain.RewardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RewardRecord
	for _, id := range s.order {
		if s.data[id].Producer == producer {
			recordCopy := *s.data[id]
			result = append(result, &recordCopy)
		}
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.RewardStore = (*RewardStore)(nil)
