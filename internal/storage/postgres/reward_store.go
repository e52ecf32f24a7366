package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
)

// RewardStore implements storage.RewardStore using PostgreSQL.
type RewardStore struct {
	pool *Pool
}

// NewRewardStore creates a new RewardStore.
func NewRewardStore(pool *Pool) *RewardStore {
	return &RewardStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RewardStore = (*RewardStore)(nil)

// Insert adds a new reward record. Returns ErrDuplicateKey if the id exists.
func (s *RewardStore) Insert(ctx context.Context, r *domain.RewardRecord) error {
	query := `
		INSERT INTO reward_records (
			id, producer, source_id, subject_id, subject_handle, source_text,
			impressions, likes, state, credential_request_ref, credential,
			payment_ref, amount, discovered_at_ms, paid_at_ms, fail_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID,
		r.Producer,
		r.SourceID,
		r.SubjectID,
		r.SubjectHandle,
		r.SourceText,
		r.Impressions,
		r.Likes,
		r.State,
		r.CredentialRequestRef,
		r.Credential,
		r.PaymentRef,
		r.Amount,
		r.DiscoveredAtMs,
		r.PaidAtMs,
		r.FailReason,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert reward record: %w", err)
	}
	return nil
}

// Update replaces an existing record. Returns ErrNotFound if absent.
func (s *RewardStore) Update(ctx context.Context, r *domain.RewardRecord) error {
	query := `
		UPDATE reward_records
		SET state = $2, credential_request_ref = $3, credential = $4,
		    payment_ref = $5, paid_at_ms = $6, fail_reason = $7
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		r.ID,
		r.State,
		r.CredentialRequestRef,
		r.Credential,
		r.PaymentRef,
		r.PaidAtMs,
		r.FailReason,
	)
	if err != nil {
		return fmt.Errorf("update reward record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a record by id. Returns ErrNotFound if absent.
func (s *RewardStore) GetByID(ctx context.Context, id string) (*domain.RewardRecord, error) {
	query := rewardSelect + ` WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	r, err := scanReward(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get reward record by id: %w", err)
	}
	return r, nil
}

// GetAll retrieves every record in discovery order.
func (s *RewardStore) GetAll(ctx context.Context) ([]*domain.RewardRecord, error) {
	return s.query(ctx, rewardSelect+` ORDER BY seq ASC`)
}

// GetByProducer retrieves records for one producer in discovery order.
func (s *RewardStore) GetByProducer(ctx context.Context, producer string) ([]*domain.RewardRecord, error) {
	return s.query(ctx, rewardSelect+` WHERE producer = $1 ORDER BY seq ASC`, producer)
}

func (s *RewardStore) query(ctx context.Context, query string, args ...interface{}) ([]*domain.RewardRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reward records: %w", err)
	}
	defer rows.Close()

	var result []*domain.RewardRecord
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward record: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward records: %w", err)
	}
	return result, nil
}

const rewardSelect = `
	SELECT id, producer, source_id, subject_id, subject_handle, source_text,
	       impressions, likes, state, credential_request_ref, credential,
	       payment_ref, amount, discovered_at_ms, paid_at_ms, fail_reason
	FROM reward_records
`

// scanReward scans a single row into a RewardRecord.
func scanReward(row pgx.Row) (*domain.RewardRecord, error) {
	var r domain.RewardRecord

	err := row.Scan(
		&r.ID,
		&r.Producer,
		&r.SourceID,
		&r.SubjectID,
		&r.SubjectHandle,
		&r.SourceText,
		&r.Impressions,
		&r.Likes,
		&r.State,
		&r.CredentialRequestRef,
		&r.Credential,
		&r.PaymentRef,
		&r.Amount,
		&r.DiscoveredAtMs,
		&r.PaidAtMs,
		&r.FailReason,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
