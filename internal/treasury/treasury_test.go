package treasury

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/observability"
	"solana-promo-agent/internal/storage/memory"
)

func newTestTreasury(t *testing.T, cfg Config) (*Treasury, *memory.LedgerStore) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ledger := memory.NewLedgerStore()
	return New(ledger, cfg, logger.WithField("component", "treasury")), ledger
}

func TestUpdateBalance_IncomeJournaled(t *testing.T) {
	tr, ledger := newTestTreasury(t, Config{MaxSpendPct: 0.1, MinThresholdSOL: 0.05})
	ctx := context.Background()

	require.NoError(t, tr.UpdateBalance(ctx, 2.0, "fee collection"))
	assert.Equal(t, 2.0, tr.Balance())

	entries, err := ledger.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LedgerIncome, entries[0].Kind)
	assert.Equal(t, 2.0, entries[0].Amount)
	assert.Equal(t, "fee collection", entries[0].Reason)
}

func TestUpdateBalance_NegativeDeltaNotJournaled(t *testing.T) {
	tr, ledger := newTestTreasury(t, Config{MaxSpendPct: 0.1})
	ctx := context.Background()

	require.NoError(t, tr.UpdateBalance(ctx, 2.0, "fee collection"))
	require.NoError(t, tr.UpdateBalance(ctx, 1.5, "fee collection"))

	assert.Equal(t, 1.5, tr.Balance())

	entries, err := ledger.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the positive delta is journaled")
}

func TestCanSpend_Boundaries(t *testing.T) {
	tr, _ := newTestTreasury(t, Config{MaxSpendPct: 0.1})
	ctx := context.Background()
	require.NoError(t, tr.UpdateBalance(ctx, 1.0, "funding"))

	assert.False(t, tr.CanSpend(0), "zero is never spendable")
	assert.False(t, tr.CanSpend(-0.1))
	assert.True(t, tr.CanSpend(0.1), "exact cap is allowed")
	assert.False(t, tr.CanSpend(0.11), "over the per-spend cap")

	// Allocation shrinks available funds but not the cap base.
	require.NoError(t, tr.Allocate(0.95))
	assert.False(t, tr.CanSpend(0.1), "only 0.05 available")
	tr.ReleaseAllocation(0.95)
	assert.True(t, tr.CanSpend(0.1))
}

func TestCanSpend_LowBalanceClamp(t *testing.T) {
	tr, _ := newTestTreasury(t, Config{MaxSpendPct: 0.1, MinThresholdSOL: 0.05})
	ctx := context.Background()
	require.NoError(t, tr.UpdateBalance(ctx, 0.50, "funding"))

	assert.True(t, tr.CanSpend(0.05))
	assert.False(t, tr.CanSpend(0.06))
	assert.True(t, tr.MeetsThreshold())
}

func TestSpend(t *testing.T) {
	tr, ledger := newTestTreasury(t, Config{MaxSpendPct: 0.5})
	ctx := context.Background()
	require.NoError(t, tr.UpdateBalance(ctx, 1.0, "funding"))

	require.NoError(t, tr.Spend(ctx, 0.3, "twitter boost", "camp-1"))
	assert.Equal(t, 0.7, tr.Balance())

	entries, err := ledger.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.LedgerSpend, entries[1].Kind)
	assert.Equal(t, "camp-1", entries[1].CampaignID)
}

func TestSpend_ReleasesAllocation(t *testing.T) {
	tr, _ := newTestTreasury(t, Config{MaxSpendPct: 0.5})
	ctx := context.Background()
	require.NoError(t, tr.UpdateBalance(ctx, 1.0, "funding"))

	require.NoError(t, tr.Allocate(0.3))
	require.NoError(t, tr.Spend(ctx, 0.3, "twitter boost", "camp-1"))

	s := tr.Summarize()
	assert.Equal(t, 0.0, s.Allocated)
	assert.InDelta(t, 0.7, s.Balance, 1e-9)
}

func TestSpend_RejectsNonPositive(t *testing.T) {
	tr, ledger := newTestTreasury(t, Config{MaxSpendPct: 0.1})
	ctx := context.Background()
	require.NoError(t, tr.UpdateBalance(ctx, 1.0, "funding"))

	assert.Error(t, tr.Spend(ctx, 0, "nothing", ""))
	assert.Error(t, tr.Spend(ctx, -1, "negative", ""))

	entries, err := ledger.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no spend entry written")
}

func TestAllocate(t *testing.T) {
	tr, _ := newTestTreasury(t, Config{MaxSpendPct: 1})
	ctx := context.Background()
	require.NoError(t, tr.UpdateBalance(ctx, 1.0, "funding"))

	require.NoError(t, tr.Allocate(0.6))
	assert.Error(t, tr.Allocate(0.5), "would exceed balance")
	assert.Error(t, tr.Allocate(0))

	tr.ReleaseAllocation(0.6)
	require.NoError(t, tr.Allocate(0.5))

	// Over-release clamps at zero.
	tr.ReleaseAllocation(10)
	s := tr.Summarize()
	assert.Equal(t, 0.0, s.Allocated)
}

func TestRestore_ReplaysJournal(t *testing.T) {
	tr, ledger := newTestTreasury(t, Config{MaxSpendPct: 0.5, MinThresholdSOL: 0.05})
	ctx := context.Background()

	require.NoError(t, tr.UpdateBalance(ctx, 2.0, "funding"))
	require.NoError(t, tr.Spend(ctx, 0.5, "boost", "c1"))
	require.NoError(t, tr.Spend(ctx, 0.25, "reward payout", ""))

	// Fresh treasury over the same ledger.
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	fresh := New(ledger, Config{MaxSpendPct: 0.5, MinThresholdSOL: 0.05}, logger.WithField("component", "treasury"))
	require.NoError(t, fresh.Restore(ctx))

	assert.InDelta(t, 1.25, fresh.Balance(), 1e-9)

	s := fresh.Summarize()
	assert.InDelta(t, 2.0, s.TotalIncome, 1e-9)
	assert.InDelta(t, 0.75, s.TotalSpent, 1e-9)
	assert.InDelta(t, s.TotalIncome-s.TotalSpent, s.Balance, 1e-9, "journal sums to balance")
}

func TestSummarize(t *testing.T) {
	tr, _ := newTestTreasury(t, Config{MaxSpendPct: 0.1, MinThresholdSOL: 0.05})
	ctx := context.Background()
	require.NoError(t, tr.UpdateBalance(ctx, 0.04, "funding"))

	s := tr.Summarize()
	assert.False(t, s.MeetsThreshold)
	assert.Equal(t, 0.04, s.Available)
}

func TestJournalMovesMetricCounters(t *testing.T) {
	prev := observability.DefaultMetrics
	observability.DefaultMetrics = observability.NewMetrics("treasury_counter_test")
	t.Cleanup(func() { observability.DefaultMetrics = prev })
	m := observability.DefaultMetrics

	tr, _ := newTestTreasury(t, Config{MaxSpendPct: 0.5})
	ctx := context.Background()

	require.NoError(t, tr.UpdateBalance(ctx, 2.0, "fee collection"))
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.IncomeTotalSOL), 1e-9)

	require.NoError(t, tr.Spend(ctx, 0.5, "reward payout", ""))
	assert.InDelta(t, 0.5, testutil.ToFloat64(m.SpendTotalSOL.WithLabelValues("reward payout")), 1e-9)

	// A dropped balance is not income and leaves the counter alone.
	require.NoError(t, tr.UpdateBalance(ctx, 1.0, "fee collection"))
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.IncomeTotalSOL), 1e-9)
}
