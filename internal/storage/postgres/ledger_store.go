package postgres

import (
	"context"
	"fmt"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
)

// LedgerStore implements storage.LedgerStore using PostgreSQL.
type LedgerStore struct {
	pool *Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool *Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LedgerStore = (*LedgerStore)(nil)

// Append adds a journal entry at the tail.
func (s *LedgerStore) Append(ctx context.Context, e *domain.LedgerEntry) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO ledger_entries (timestamp_ms, kind, amount, reason, campaign_id)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		e.TimestampMs,
		string(e.Kind),
		e.Amount,
		e.Reason,
		e.CampaignID,
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// GetAll retrieves the journal in insertion order.
func (s *LedgerStore) GetAll(ctx context.Context) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT timestamp_ms, kind, amount, reason, campaign_id
		FROM ledger_entries
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var result []*domain.LedgerEntry
	for rows.Next() {
		var (
			e    domain.LedgerEntry
			kind string
		)
		if err := rows.Scan(&e.TimestampMs, &kind, &e.Amount, &e.Reason, &e.CampaignID); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Kind = domain.LedgerEntryKind(kind)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return result, nil
}
