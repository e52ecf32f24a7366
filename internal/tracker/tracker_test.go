package tracker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage/memory"
)

// fakeEngagement records snapshot inserts and can be told to fail.
type fakeEngagement struct {
	inserts []string
	err     error
}

func (f *fakeEngagement) InsertSnapshot(_ context.Context, campaignID string, _ domain.MetricsSnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.inserts = append(f.inserts, campaignID)
	return nil
}

func (f *fakeEngagement) GetByCampaignID(_ context.Context, _ string) ([]domain.MetricsSnapshot, error) {
	return nil, nil
}

func newTestTracker(t *testing.T, opts ...Option) (*Tracker, *time.Time) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	opts = append(opts, WithClock(func() time.Time { return *clock }))
	return New(memory.NewCampaignStore(), logger.WithField("component", "tracker"), opts...), clock
}

func mustLog(t *testing.T, tr *Tracker, content, status string) *domain.Campaign {
	t.Helper()
	c, err := tr.Log(context.Background(), Draft{
		Action:  domain.ActionTweet,
		Content: content,
		Status:  status,
	})
	require.NoError(t, err)
	return c
}

func TestLog_AssignsIdentity(t *testing.T) {
	tr, _ := newTestTracker(t)

	c := mustLog(t, tr, "launch day is finally here", domain.StatusExecuted)

	assert.NotEmpty(t, c.ID)
	assert.NotEmpty(t, c.ContentFingerprint)
	assert.NotZero(t, c.CreatedAtMs)

	got, err := tr.All(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c.ID, got[0].ID)
}

func TestIsDuplicate_ExactWithinWindow(t *testing.T) {
	tr, clock := newTestTracker(t)
	ctx := context.Background()

	mustLog(t, tr, "gm to everyone holding through the dip", domain.StatusExecuted)

	dup, err := tr.IsDuplicate(ctx, "gm to everyone holding through the dip", 48*time.Hour)
	require.NoError(t, err)
	assert.True(t, dup)

	// Case and surrounding whitespace are normalized away.
	dup, err = tr.IsDuplicate(ctx, "  GM To Everyone Holding Through The Dip ", 48*time.Hour)
	require.NoError(t, err)
	assert.True(t, dup)

	// 49 hours later the 48h window has elapsed.
	*clock = clock.Add(49 * time.Hour)
	dup, err = tr.IsDuplicate(ctx, "gm to everyone holding through the dip", 48*time.Hour)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestIsDuplicate_TokenOverlap(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	mustLog(t, tr, "this token community keeps building through every market storm", domain.StatusExecuted)

	// Same significant tokens, reshuffled, different punctuation/case.
	dup, err := tr.IsDuplicate(ctx, "Building through every MARKET storm, this token community keeps!!", 48*time.Hour)
	require.NoError(t, err)
	assert.True(t, dup)

	// Largely different wording.
	dup, err = tr.IsDuplicate(ctx, "weekly analytics report shows steady growth across all channels", 48*time.Hour)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestIsDuplicate_ShortContentSkipsOverlap(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	mustLog(t, tr, "gm frens wagmi today", domain.StatusExecuted)

	// Fewer than 4 significant tokens on either side: overlap not checked.
	dup, err := tr.IsDuplicate(ctx, "gm frens wagmi tomorrow", 48*time.Hour)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestIsDuplicate_IgnoresFailed(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	mustLog(t, tr, "this exact promotional content failed to post earlier", domain.StatusFailed)

	dup, err := tr.IsDuplicate(ctx, "this exact promotional content failed to post earlier", 48*time.Hour)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestRecentContentSnippets(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	long := "first part of a thread about the roadmap" + "|||" + "second part nobody should see in snippets"
	mustLog(t, tr, long, domain.StatusExecuted)
	mustLog(t, tr, "a failed one", domain.StatusFailed)
	mustLog(t, tr, "most recent executed post", domain.StatusExecuted)

	snippets, err := tr.RecentContentSnippets(ctx, 5)
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "most recent executed post", snippets[0], "newest first")
	assert.Equal(t, "first part of a thread about the roadmap", snippets[1])
}

func TestRecentContentSnippets_Caps100Chars(t *testing.T) {
	tr, _ := newTestTracker(t)

	long := ""
	for i := 0; i < 30; i++ {
		long += "abcdefghij"
	}
	mustLog(t, tr, long, domain.StatusExecuted)

	snippets, err := tr.RecentContentSnippets(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Len(t, snippets[0], 100)
}

func TestUpdateMetrics(t *testing.T) {
	es := &fakeEngagement{}
	tr, clock := newTestTracker(t, WithEngagementStore(es))
	ctx := context.Background()

	c := mustLog(t, tr, "metrics target", domain.StatusExecuted)

	*clock = clock.Add(time.Hour)
	require.NoError(t, tr.UpdateMetrics(ctx, c.ID, domain.Metrics{"impressions": 100, "likes": 5}))

	*clock = clock.Add(time.Hour)
	require.NoError(t, tr.UpdateMetrics(ctx, c.ID, domain.Metrics{"impressions": 250}))

	got, err := tr.All(ctx)
	require.NoError(t, err)
	updated := got[0]

	assert.Equal(t, float64(250), updated.Metrics.Get("impressions"), "merged over previous")
	assert.Equal(t, float64(5), updated.Metrics.Get("likes"), "unmentioned keys survive")
	assert.Equal(t, domain.StatusPendingMetrics, updated.Status)
	assert.Equal(t, clock.UnixMilli(), updated.LastMetricsCheckMs)
	require.Len(t, updated.MetricsHistory, 2)
	assert.Equal(t, []string{c.ID, c.ID}, es.inserts)
}

func TestUpdateMetrics_HistoryCap(t *testing.T) {
	tr, clock := newTestTracker(t)
	ctx := context.Background()

	c := mustLog(t, tr, "history cap target", domain.StatusExecuted)

	for i := 0; i < 15; i++ {
		*clock = clock.Add(time.Minute)
		require.NoError(t, tr.UpdateMetrics(ctx, c.ID, domain.Metrics{"impressions": float64(i)}))
	}

	got, err := tr.All(ctx)
	require.NoError(t, err)
	require.Len(t, got[0].MetricsHistory, 10)
	// Oldest entries dropped, newest kept.
	assert.Equal(t, float64(14), got[0].MetricsHistory[9].Metrics.Get("impressions"))
	assert.Equal(t, float64(5), got[0].MetricsHistory[0].Metrics.Get("impressions"))
}

func TestUpdateMetrics_EngagementFailureNotSurfaced(t *testing.T) {
	es := &fakeEngagement{err: errors.New("clickhouse down")}
	tr, _ := newTestTracker(t, WithEngagementStore(es))
	ctx := context.Background()

	c := mustLog(t, tr, "best effort mirror", domain.StatusExecuted)
	assert.NoError(t, tr.UpdateMetrics(ctx, c.ID, domain.Metrics{"impressions": 1}))
}

func TestNeedingMetricsRefresh(t *testing.T) {
	tr, clock := newTestTracker(t)
	ctx := context.Background()

	fresh := mustLog(t, tr, "fresh with ref", domain.StatusExecuted)
	fresh.ExternalRef = "tweet-1"
	noRef := mustLog(t, tr, "no external ref", domain.StatusExecuted)
	failed := mustLog(t, tr, "failed one", domain.StatusFailed)
	failed.ExternalRef = "tweet-2"

	// Give the eligible campaign its ref through the store.
	require.NoError(t, tr.store.Update(ctx, fresh))
	require.NoError(t, tr.store.Update(ctx, failed))
	_ = noRef

	due, err := tr.NeedingMetricsRefresh(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, fresh.ID, due[0].ID)

	// A just-checked campaign is not due again within six hours.
	require.NoError(t, tr.UpdateMetrics(ctx, fresh.ID, domain.Metrics{"impressions": 10}))
	due, err = tr.NeedingMetricsRefresh(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	// But it is after the interval passes.
	*clock = clock.Add(7 * time.Hour)
	due, err = tr.NeedingMetricsRefresh(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	// And drops out entirely after a week.
	*clock = clock.Add(8 * 24 * time.Hour)
	due, err = tr.NeedingMetricsRefresh(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestNeedingMetricsRefresh_LimitKeepsNewest(t *testing.T) {
	tr, clock := newTestTracker(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		*clock = clock.Add(time.Minute)
		c := mustLog(t, tr, "campaign number "+string(rune('a'+i)), domain.StatusExecuted)
		c.ExternalRef = "ref"
		require.NoError(t, tr.store.Update(ctx, c))
		ids = append(ids, c.ID)
	}

	// A backlog larger than the batch yields the newest entries, so old
	// stragglers cannot starve recent campaigns.
	due, err := tr.NeedingMetricsRefresh(ctx, 3)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, ids[2], due[0].ID)
	assert.Equal(t, ids[4], due[2].ID)
}
