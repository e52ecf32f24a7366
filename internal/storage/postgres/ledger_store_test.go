package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
)

func TestLedgerStore_AppendAndGetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerStore(pool)
	ctx := context.Background()

	entries := []*domain.LedgerEntry{
		{TimestampMs: 1000, Kind: domain.LedgerIncome, Amount: 5, Reason: "initial funding"},
		{TimestampMs: 2000, Kind: domain.LedgerSpend, Amount: 0.5, Reason: "twitter boost", CampaignID: "c1"},
		{TimestampMs: 3000, Kind: domain.LedgerSpend, Amount: 0.01, Reason: "reward payout"},
	}
	for _, e := range entries {
		require.NoError(t, store.Append(ctx, e))
	}

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, domain.LedgerIncome, got[0].Kind)
	assert.Equal(t, float64(5), got[0].Amount)
	assert.Equal(t, "twitter boost", got[1].Reason)
	assert.Equal(t, "c1", got[1].CampaignID)
	assert.Equal(t, int64(3000), got[2].TimestampMs)
}

func TestLedgerStore_AppendNil(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerStore(pool)
	assert.ErrorIs(t, store.Append(context.Background(), nil), storage.ErrInvalidInput)
}
