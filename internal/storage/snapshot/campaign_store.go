package snapshot

import (
	"context"
	"fmt"
	"sync"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
	"solana-promo-agent/internal/storage/memory"
)

// CampaignStore is a file-backed storage.CampaignStore: an in-memory store
// snapshotted whole to disk after every mutation.
type CampaignStore struct {
	mu   sync.Mutex
	mem  *memory.CampaignStore
	path string
}

// NewCampaignStore creates a campaign store backed by the given file,
// loading any existing snapshot.
func NewCampaignStore(path string) (*CampaignStore, error) {
	s := &CampaignStore{
		mem:  memory.NewCampaignStore(),
		path: path,
	}

	var records []*domain.Campaign
	ok, err := readFile(path, &records)
	if err != nil {
		return nil, fmt.Errorf("load campaign snapshot: %w", err)
	}
	if ok {
		ctx := context.Background()
		for _, c := range records {
			if err := s.mem.Insert(ctx, c); err != nil {
				return nil, fmt.Errorf("restore campaign %s: %w", c.ID, err)
			}
		}
	}
	return s, nil
}

// Insert adds a new campaign and persists the snapshot.
func (s *CampaignStore) Insert(ctx context.Context, c *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mem.Insert(ctx, c); err != nil {
		return err
	}
	return s.persist(ctx)
}

// Update replaces an existing campaign and persists the snapshot.
func (s *CampaignStore) Update(ctx context.Context, c *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mem.Update(ctx, c); err != nil {
		return err
	}
	return s.persist(ctx)
}

// GetByID retrieves a campaign by id.
func (s *CampaignStore) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.mem.GetByID(ctx, id)
}

// GetAll retrieves every campaign in insertion order.
func (s *CampaignStore) GetAll(ctx context.Context) ([]*domain.Campaign, error) {
	return s.mem.GetAll(ctx)
}

func (s *CampaignStore) persist(ctx context.Context) error {
	records, err := s.mem.GetAll(ctx)
	if err != nil {
		return err
	}
	return writeFile(s.path, records)
}

// Verify interface compliance at compile time.
var _ storage.CampaignStore = (*CampaignStore)(nil)
