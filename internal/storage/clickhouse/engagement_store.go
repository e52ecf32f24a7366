package clickhouse

import (
	"context"
	"fmt"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
)

// EngagementStore persists per-campaign engagement snapshots in ClickHouse.
// One row per (campaign, timestamp, metric); snapshots are reassembled on read.
type EngagementStore struct {
	conn *Conn
}

// Compile-time check that EngagementStore implements the interface.
var _ storage.EngagementTimeseriesStore = (*EngagementStore)(nil)

// NewEngagementStore creates an engagement timeseries store backed by ClickHouse.
func NewEngagementStore(conn *Conn) *EngagementStore {
	return &EngagementStore{conn: conn}
}

// InsertSnapshot appends one engagement snapshot for a campaign.
func (s *EngagementStore) InsertSnapshot(ctx context.Context, campaignID string, snap domain.MetricsSnapshot) error {
	if campaignID == "" {
		return fmt.Errorf("%w: campaign id is empty", storage.ErrInvalidInput)
	}
	if len(snap.Metrics) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO engagement_timeseries (campaign_id, timestamp_ms, metric, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare engagement batch: %w", err)
	}

	for metric, value := range snap.Metrics {
		if err := batch.Append(campaignID, snap.TimestampMs, metric, value); err != nil {
			return fmt.Errorf("append engagement row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send engagement batch: %w", err)
	}
	return nil
}

// GetByCampaignID retrieves all snapshots for a campaign, ordered by
// timestamp ascending. Rows sharing a timestamp are folded into one snapshot.
func (s *EngagementStore) GetByCampaignID(ctx context.Context, campaignID string) ([]domain.MetricsSnapshot, error) {
	if campaignID == "" {
		return nil, fmt.Errorf("%w: campaign id is empty", storage.ErrInvalidInput)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT timestamp_ms, metric, value
		FROM engagement_timeseries
		WHERE campaign_id = ?
		ORDER BY timestamp_ms ASC, metric ASC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("query engagement timeseries: %w", err)
	}
	defer rows.Close()

	var snaps []domain.MetricsSnapshot
	for rows.Next() {
		var (
			tsMs   int64
			metric string
			value  float64
		)
		if err := rows.Scan(&tsMs, &metric, &value); err != nil {
			return nil, fmt.Errorf("scan engagement row: %w", err)
		}

		if len(snaps) == 0 || snaps[len(snaps)-1].TimestampMs != tsMs {
			snaps = append(snaps, domain.MetricsSnapshot{
				TimestampMs: tsMs,
				Metrics:     domain.Metrics{},
			})
		}
		snaps[len(snaps)-1].Metrics[metric] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engagement rows: %w", err)
	}

	return snaps, nil
}
