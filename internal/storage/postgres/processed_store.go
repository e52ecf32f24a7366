package postgres

import (
	"context"
	"fmt"

	"solana-promo-agent/internal/storage"
)

// ProcessedIDStore implements storage.ProcessedIDStore using PostgreSQL.
type ProcessedIDStore struct {
	pool *Pool
}

// NewProcessedIDStore creates a new ProcessedIDStore.
func NewProcessedIDStore(pool *Pool) *ProcessedIDStore {
	return &ProcessedIDStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProcessedIDStore = (*ProcessedIDStore)(nil)

// IsProcessed checks whether the (producer, sourceID) pair was handled.
func (s *ProcessedIDStore) IsProcessed(ctx context.Context, producer, sourceID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM processed_ids WHERE producer = $1 AND source_id = $2)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, producer, sourceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check processed id: %w", err)
	}
	return exists, nil
}

// MarkProcessed records that the pair was handled. Idempotent.
func (s *ProcessedIDStore) MarkProcessed(ctx context.Context, producer, sourceID string) error {
	if producer == "" || sourceID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO processed_ids (producer, source_id)
		VALUES ($1, $2)
		ON CONFLICT (producer, source_id) DO NOTHING
	`

	if _, err := s.pool.Exec(ctx, query, producer, sourceID); err != nil {
		return fmt.Errorf("mark processed id: %w", err)
	}
	return nil
}

// LoadProcessed returns all handled source ids for a producer.
func (s *ProcessedIDStore) LoadProcessed(ctx context.Context, producer string) ([]string, error) {
	query := `SELECT source_id FROM processed_ids WHERE producer = $1 ORDER BY source_id ASC`

	rows, err := s.pool.Query(ctx, query, producer)
	if err != nil {
		return nil, fmt.Errorf("query processed ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan processed id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed ids: %w", err)
	}
	return ids, nil
}
