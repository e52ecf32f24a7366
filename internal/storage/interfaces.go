package storage

import (
	"context"

	"solana-promo-agent/internal/domain"
)

// CampaignStore provides access to campaign record storage.
// Records are append-only aside from the metrics-refresh mutation;
// insertion order is significant and must be preserved by GetAll.
type CampaignStore interface {
	// Insert adds a new campaign. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, c *domain.Campaign) error

	// Update replaces the mutable fields (metrics, history, status,
	// last check) of an existing campaign. Returns ErrNotFound if absent.
	Update(ctx context.Context, c *domain.Campaign) error

	// GetByID retrieves a campaign by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)

	// GetAll retrieves every campaign in insertion order.
	GetAll(ctx context.Context) ([]*domain.Campaign, error)
}

// RewardStore provides access to reward record storage.
// GetAll preserves discovery order; records are retained indefinitely
// for audit and idempotency.
type RewardStore interface {
	// Insert adds a new reward record. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, r *domain.RewardRecord) error

	// Update replaces an existing record. Returns ErrNotFound if absent.
	Update(ctx context.Context, r *domain.RewardRecord) error

	// GetByID retrieves a record by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.RewardRecord, error)

	// GetAll retrieves every record in discovery order.
	GetAll(ctx context.Context) ([]*domain.RewardRecord, error)

	// GetByProducer retrieves records for one producer in discovery order.
	GetByProducer(ctx context.Context, producer string) ([]*domain.RewardRecord, error)
}

// ProcessedIDStore persists the set of external identifiers a reward
// producer has already handled. Checked before creating a new record so a
// rediscovered item is a no-op across restarts.
type ProcessedIDStore interface {
	// IsProcessed checks whether the (producer, sourceID) pair was handled.
	IsProcessed(ctx context.Context, producer, sourceID string) (bool, error)

	// MarkProcessed records that the pair was handled. Idempotent.
	MarkProcessed(ctx context.Context, producer, sourceID string) error

	// LoadProcessed returns all handled source ids for a producer
	// (for warming the in-memory cache).
	LoadProcessed(ctx context.Context, producer string) ([]string, error)
}

// LedgerStore persists the treasury journal. Append-only.
type LedgerStore interface {
	// Append adds a journal entry at the tail.
	Append(ctx context.Context, e *domain.LedgerEntry) error

	// GetAll retrieves the journal in insertion order.
	GetAll(ctx context.Context) ([]*domain.LedgerEntry, error)
}

// EngagementTimeseriesStore persists per-campaign engagement snapshots for
// long-range analytics, beyond the capped in-record history.
type EngagementTimeseriesStore interface {
	// InsertSnapshot appends one engagement snapshot for a campaign.
	InsertSnapshot(ctx context.Context, campaignID string, snap domain.MetricsSnapshot) error

	// GetByCampaignID retrieves all snapshots for a campaign, ordered by timestamp ASC.
	GetByCampaignID(ctx context.Context, campaignID string) ([]domain.MetricsSnapshot, error)
}
