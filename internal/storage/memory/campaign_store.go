package memory

import (
	"context"
	"sync"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
)

// CampaignStore is an in-memory implementation of storage.CampaignStore.
type CampaignStore struct {
	mu    sync.RWMutex
	order []string                    // insertion order of ids
	data  map[string]*domain.Campaign // keyed by campaign id
}

// NewCampaignStore creates a new in-memory campaign store.
func NewCampaignStore() *CampaignStore {
	return &CampaignStore{
		data: make(map[string]*domain.Campaign),
	}
}

// Insert adds a new campaign. Returns ErrDuplicateKey if the id exists.
func (s *CampaignStore) Insert(_ context.Context, c *domain.Campaign) error {
	if c == nil || c.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	campaignCopy := copyCampaign(c)
	s.data[c.ID] = campaignCopy
	s.order = append(s.order, c.ID)
	return nil
}

// Update replaces an existing campaign. Returns ErrNotFound if absent.
func (s *CampaignStore) Update(_ context.Context, c *domain.Campaign) error {
	if c == nil || c.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.ID]; !exists {
		return storage.ErrNotFound
	}

	s.data[c.ID] = copyCampaign(c)
	return nil
}

// GetByID retrieves a campaign by id. Returns ErrNotFound if absent.
func (s *CampaignStore) GetByID(_ context.Context, id string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyCampaign(c), nil
}

// GetAll retrieves every campaign in insertion order.
func (s *CampaignStore) GetAll(_ context.Context) ([]*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Campaign, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, copyCampaign(s.data[id]))
	}
	return result, nil
}

// copyCampaign deep-copies a campaign including its metrics maps.
func copyCampaign(c *domain.Campaign) *domain.Campaign {
	campaignCopy := *c
	if c.Metrics != nil {
		campaignCopy.Metrics = make(domain.Metrics, len(c.Metrics))
		for k, v := range c.Metrics {
			campaignCopy.Metrics[k] = v
		}
	}
	if c.MetricsHistory != nil {
		campaignCopy.MetricsHistory = make([]domain.MetricsSnapshot, len(c.MetricsHistory))
		for i, snap := range c.MetricsHistory {
			snapCopy := snap
			if snap.Metrics != nil {
				snapCopy.Metrics = make(domain.Metrics, len(snap.Metrics))
				for k, v := range snap.Metrics {
					snapCopy.Metrics[k] = v
				}
			}
			campaignCopy.MetricsHistory[i] = snapCopy
		}
	}
	return &campaignCopy
}

// Verify interface compliance at compile time.
var _ storage.CampaignStore = (*CampaignStore)(nil)
