package reward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/social"
	socialstub "solana-promo-agent/internal/social/stub"
	"solana-promo-agent/internal/storage/memory"
)

// countingClassifier records every call so tests can assert the external
// classifier is only consulted when necessary.
type countingClassifier struct {
	valuable map[string]bool
	err      error
	calls    []string
}

func (c *countingClassifier) IsValuable(_ context.Context, text string) (bool, error) {
	c.calls = append(c.calls, text)
	if c.err != nil {
		return false, c.err
	}
	return c.valuable[text], nil
}

func mention(id, author, text string) social.Post {
	return social.Post{ID: id, AuthorID: "user-" + author, AuthorHandle: author, Text: text}
}

func TestMentionProducer_AdmitsValuableMentions(t *testing.T) {
	ctx := context.Background()
	s := socialstub.New()
	s.MentionItems = []social.Post{
		mention("m1", "alice", "this project is genuinely impressive work"),
		mention("m2", "bob", "meh, not convinced at all honestly"),
	}
	classifier := &countingClassifier{valuable: map[string]bool{
		"this project is genuinely impressive work": true,
	}}
	p := NewMentionProducer(s, classifier, memory.NewProcessedIDStore(), memory.NewRewardStore(),
		MentionConfig{Amount: 0.01, DailyCap: 10}, testLog())

	got, err := p.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].SourceID)
	assert.Equal(t, "user-alice", got[0].SubjectID)
	assert.Equal(t, "alice", got[0].SubjectHandle)
	assert.Equal(t, 0.01, got[0].Amount)
	assert.Len(t, classifier.calls, 2)
}

func TestMentionProducer_ShortTextSkipsClassifier(t *testing.T) {
	ctx := context.Background()
	s := socialstub.New()
	s.MentionItems = []social.Post{
		mention("m1", "alice", "  gm  "),
		mention("m2", "bob", "nice"),
	}
	classifier := &countingClassifier{}
	p := NewMentionProducer(s, classifier, memory.NewProcessedIDStore(), memory.NewRewardStore(),
		MentionConfig{Amount: 0.01, DailyCap: 10}, testLog())

	got, err := p.Discover(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, classifier.calls, "classifier must not run for short texts")

	// Short texts are resolved permanently, not re-examined.
	_, err = p.Discover(ctx)
	require.NoError(t, err)
	assert.Empty(t, classifier.calls)
}

func TestMentionProducer_RejectedTextNotReclassified(t *testing.T) {
	ctx := context.Background()
	s := socialstub.New()
	s.MentionItems = []social.Post{
		mention("m1", "alice", "buy my unrelated token right now please"),
	}
	classifier := &countingClassifier{}
	p := NewMentionProducer(s, classifier, memory.NewProcessedIDStore(), memory.NewRewardStore(),
		MentionConfig{Amount: 0.01, DailyCap: 10}, testLog())

	for i := 0; i < 3; i++ {
		got, err := p.Discover(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Len(t, classifier.calls, 1)
}

func TestMentionProducer_ClassifierErrorRetriesNextCycle(t *testing.T) {
	ctx := context.Background()
	s := socialstub.New()
	s.MentionItems = []social.Post{
		mention("m1", "alice", "this project is genuinely impressive work"),
	}
	classifier := &countingClassifier{err: errors.New("model unavailable")}
	p := NewMentionProducer(s, classifier, memory.NewProcessedIDStore(), memory.NewRewardStore(),
		MentionConfig{Amount: 0.01, DailyCap: 10}, testLog())

	got, err := p.Discover(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	classifier.err = nil
	classifier.valuable = map[string]bool{"this project is genuinely impressive work": true}
	got, err = p.Discover(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Len(t, classifier.calls, 2)
}

func TestMentionProducer_SkipsSubjectsPaidToday(t *testing.T) {
	ctx := context.Background()
	s := socialstub.New()
	s.MentionItems = []social.Post{
		mention("m1", "alice", "this project is genuinely impressive work"),
	}
	classifier := &countingClassifier{valuable: map[string]bool{
		"this project is genuinely impressive work": true,
	}}
	rewards := memory.NewRewardStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, rewards.Insert(ctx, &domain.RewardRecord{
		ID:        "prior",
		Producer:  domain.ProducerShillScan,
		SourceID:  "s0",
		SubjectID: "user-alice",
		State:     domain.RewardPaid,
		PaidAtMs:  now.Add(-2 * time.Hour).UnixMilli(),
	}))
	p := NewMentionProducer(s, classifier, memory.NewProcessedIDStore(), rewards,
		MentionConfig{Amount: 0.01, DailyCap: 10}, testLog())
	p.now = func() time.Time { return now }

	got, err := p.Discover(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, classifier.calls, "paid-today check precedes classification")
}

func TestShillProducer_ImpressionFloor(t *testing.T) {
	ctx := context.Background()
	s := socialstub.New()
	s.SearchResults["$TOKEN"] = []social.Post{
		{ID: "p1", AuthorID: "user-alice", AuthorHandle: "alice", Text: "loving $TOKEN", Impressions: 1500, Likes: 40},
		{ID: "p2", AuthorID: "user-bob", AuthorHandle: "bob", Text: "$TOKEN to the moon", Impressions: 200},
	}
	p := NewShillProducer(s, memory.NewProcessedIDStore(),
		ShillConfig{Query: "$TOKEN", Amount: 0.02, DailyCap: 5, MinImpressions: 1000}, testLog())

	got, err := p.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].SourceID)
	assert.Equal(t, int64(1500), got[0].Impressions)
	assert.Equal(t, 0.02, got[0].Amount)
}

func TestShillProducer_BelowFloorQualifiesLater(t *testing.T) {
	ctx := context.Background()
	s := socialstub.New()
	s.SearchResults["$TOKEN"] = []social.Post{
		{ID: "p1", AuthorID: "user-alice", AuthorHandle: "alice", Text: "loving $TOKEN", Impressions: 800},
	}
	p := NewShillProducer(s, memory.NewProcessedIDStore(),
		ShillConfig{Query: "$TOKEN", Amount: 0.02, DailyCap: 5, MinImpressions: 1000}, testLog())

	got, err := p.Discover(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Impressions grew past the floor since the last scan.
	s.SearchResults["$TOKEN"][0].Impressions = 1200
	got, err = p.Discover(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestShillProducer_SkipsProcessedPosts(t *testing.T) {
	ctx := context.Background()
	s := socialstub.New()
	s.SearchResults["$TOKEN"] = []social.Post{
		{ID: "p1", AuthorID: "user-alice", AuthorHandle: "alice", Text: "loving $TOKEN", Impressions: 1500},
	}
	processed := memory.NewProcessedIDStore()
	require.NoError(t, processed.MarkProcessed(ctx, domain.ProducerShillScan, "p1"))
	p := NewShillProducer(s, processed,
		ShillConfig{Query: "$TOKEN", Amount: 0.02, DailyCap: 5, MinImpressions: 1000}, testLog())

	got, err := p.Discover(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProducerDailyCaps(t *testing.T) {
	m := NewMentionProducer(socialstub.New(), &countingClassifier{}, memory.NewProcessedIDStore(),
		memory.NewRewardStore(), MentionConfig{Amount: 0.01, DailyCap: 10}, testLog())
	sh := NewShillProducer(socialstub.New(), memory.NewProcessedIDStore(),
		ShillConfig{Query: "q", Amount: 0.02, DailyCap: 5, MinImpressions: 1000}, testLog())

	assert.Equal(t, domain.ProducerMentionReply, m.Name())
	assert.Equal(t, 10, m.DailyCap())
	assert.Equal(t, domain.ProducerShillScan, sh.Name())
	assert.Equal(t, 5, sh.DailyCap())
}
