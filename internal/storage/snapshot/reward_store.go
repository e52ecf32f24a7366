package snapshot

import (
	"context"
	"fmt"
	"sync"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
	"solana-promo-agent/internal/storage/memory"
)

// RewardStore is a file-backed storage.RewardStore.
type RewardStore struct {
	mu   sync.Mutex
	mem  *memory.RewardStore
	path string
}

// NewRewardStore creates a reward store backed by the given file,
// loading any existing snapshot.
func NewRewardStore(path string) (*RewardStore, error) {
	s := &RewardStore{
		mem:  memory.NewRewardStore(),
		path: path,
	}

	var records []*domain.RewardRecord
	ok, err := readFile(path, &records)
	if err != nil {
		return nil, fmt.Errorf("load reward snapshot: %w", err)
	}
	if ok {
		ctx := context.Background()
		for _, r := range records {
			if err := s.mem.Insert(ctx, r); err != nil {
				return nil, fmt.Errorf("restore reward %s: %w", r.ID, err)
			}
		}
	}
	return s, nil
}

// Insert adds a new reward record and persists the snapshot.
func (s *RewardStore) Insert(ctx context.Context, r *domain.RewardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mem.Insert(ctx, r); err != nil {
		return err
	}
	return s.persist(ctx)
}

// Update replaces an existing record and persists the snapshot.
func (s *RewardStore) Update(ctx context.Context, r *domain.RewardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mem.Update(ctx, r); err != nil {
		return err
	}
	return s.persist(ctx)
}

// GetByID retrieves a record by id.
func (s *RewardStore) GetByID(ctx context.Context, id string) (*domain.RewardRecord, error) {
	return s.mem.GetByID(ctx, id)
}

// GetAll retrieves every record in discovery order.
func (s *RewardStore) GetAll(ctx context.Context) ([]*domain.RewardRecord, error) {
	return s.mem.GetAll(ctx)
}

// GetByProducer retrieves records for one producer in discovery order.
func (s *RewardStore) GetByProducer(ctx context.Context, producer string) ([]*domain.RewardRecord, error) {
	return s.mem.GetByProducer(ctx, producer)
}

func (s *RewardStore) persist(ctx context.Context) error {
	records, err := s.mem.GetAll(ctx)
	if err != nil {
		return err
	}
	return writeFile(s.path, records)
}

// Verify interface compliance at compile time.
var _ storage.RewardStore = (*RewardStore)(nil)
