package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
)

// CampaignStore implements storage.CampaignStore using PostgreSQL.
type CampaignStore struct {
	pool *Pool
}

// NewCampaignStore creates a new CampaignStore.
func NewCampaignStore(pool *Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CampaignStore = (*CampaignStore)(nil)

// Insert adds a new campaign. Returns ErrDuplicateKey if the id exists.
func (s *CampaignStore) Insert(ctx context.Context, c *domain.Campaign) error {
	metrics, history, err := marshalCampaignJSON(c)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO campaigns (
			id, action, content, cost, rationale, created_at_ms,
			content_fingerprint, status, external_ref, metrics,
			metrics_history, last_metrics_check_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = s.pool.Exec(ctx, query,
		c.ID,
		string(c.Action),
		c.Content,
		c.Cost,
		c.Rationale,
		c.CreatedAtMs,
		c.ContentFingerprint,
		c.Status,
		c.ExternalRef,
		metrics,
		history,
		c.LastMetricsCheckMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing campaign.
func (s *CampaignStore) Update(ctx context.Context, c *domain.Campaign) error {
	metrics, history, err := marshalCampaignJSON(c)
	if err != nil {
		return err
	}

	query := `
		UPDATE campaigns
		SET status = $2, external_ref = $3, metrics = $4,
		    metrics_history = $5, last_metrics_check_ms = $6
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		c.ID,
		c.Status,
		c.ExternalRef,
		metrics,
		history,
		c.LastMetricsCheckMs,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a campaign by id. Returns ErrNotFound if absent.
func (s *CampaignStore) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	query := campaignSelect + ` WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	c, err := scanCampaign(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}
	return c, nil
}

// GetAll retrieves every campaign in insertion order.
func (s *CampaignStore) GetAll(ctx context.Context) ([]*domain.Campaign, error) {
	query := campaignSelect + ` ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	var result []*domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	return result, nil
}

const campaignSelect = `
	SELECT id, action, content, cost, rationale, created_at_ms,
	       content_fingerprint, status, external_ref, metrics,
	       metrics_history, last_metrics_check_ms
	FROM campaigns
`

// scanCampaign scans a single row into a Campaign.
func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var (
		c       domain.Campaign
		action  string
		metrics []byte
		history []byte
	)

	err := row.Scan(
		&c.ID,
		&action,
		&c.Content,
		&c.Cost,
		&c.Rationale,
		&c.CreatedAtMs,
		&c.ContentFingerprint,
		&c.Status,
		&c.ExternalRef,
		&metrics,
		&history,
		&c.LastMetricsCheckMs,
	)
	if err != nil {
		return nil, err
	}

	c.Action = domain.ActionKind(action)
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &c.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &c.MetricsHistory); err != nil {
			return nil, fmt.Errorf("unmarshal metrics history: %w", err)
		}
	}
	return &c, nil
}

// marshalCampaignJSON encodes the metrics columns. NULL when unset.
func marshalCampaignJSON(c *domain.Campaign) (metrics, history []byte, err error) {
	if c.Metrics != nil {
		metrics, err = json.Marshal(c.Metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal metrics: %w", err)
		}
	}
	if c.MetricsHistory != nil {
		history, err = json.Marshal(c.MetricsHistory)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal metrics history: %w", err)
		}
	}
	return metrics, history, nil
}
