package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/idhash"
	"solana-promo-agent/internal/storage"
)

const (
	// historyCap bounds the in-record engagement history.
	historyCap = 10

	// snippetLen is how much of each campaign's content feeds novelty hints.
	snippetLen = 100

	// contentDelimiter separates parts of multi-part content (threads).
	contentDelimiter = "|||"

	// overlapThreshold is the token-set similarity above which two
	// contents count as duplicates.
	overlapThreshold = 0.7

	// minTokens below which the overlap check is skipped as meaningless.
	minTokens = 4

	// refreshMaxAge excludes campaigns older than this from metrics refresh.
	refreshMaxAge = 7 * 24 * time.Hour

	// refreshInterval is the minimum gap between metric checks per campaign.
	refreshInterval = 6 * time.Hour
)

// Draft is the caller-supplied part of a campaign record.
type Draft struct {
	Action      domain.ActionKind
	Content     string
	Cost        float64
	Rationale   string
	Status      string
	ExternalRef string
}

// Tracker owns the campaign log: append, dedup, novelty hints, metrics
// refresh bookkeeping, and analytics. All persistence goes through the
// injected CampaignStore; the engagement store mirror is best-effort.
type Tracker struct {
	store      storage.CampaignStore
	engagement storage.EngagementTimeseriesStore
	log        *logrus.Entry
	now        func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithEngagementStore mirrors every metrics snapshot into a timeseries
// store for long-range analytics.
func WithEngagementStore(es storage.EngagementTimeseriesStore) Option {
	return func(t *Tracker) { t.engagement = es }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a tracker over a campaign store.
func New(store storage.CampaignStore, log *logrus.Entry, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Log appends a campaign record, assigning id, timestamp and fingerprint.
func (t *Tracker) Log(ctx context.Context, d Draft) (*domain.Campaign, error) {
	createdAt := t.now().UnixMilli()
	c := &domain.Campaign{
		ID:                 idhash.ComputeCampaignID(d.Action, d.Content, createdAt),
		Action:             d.Action,
		Content:            d.Content,
		Cost:               d.Cost,
		Rationale:          d.Rationale,
		CreatedAtMs:        createdAt,
		ContentFingerprint: idhash.ContentFingerprint(d.Content),
		Status:             d.Status,
		ExternalRef:        d.ExternalRef,
	}

	if err := t.store.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("insert campaign: %w", err)
	}

	t.log.WithFields(logrus.Fields{
		"id":     c.ID,
		"action": c.Action,
		"status": c.Status,
		"cost":   c.Cost,
	}).Info("campaign logged")
	return c, nil
}

// IsDuplicate reports whether content repeats an executed campaign within
// the window: identical fingerprint, or token-set overlap above 70%.
func (t *Tracker) IsDuplicate(ctx context.Context, content string, window time.Duration) (bool, error) {
	fingerprint := idhash.ContentFingerprint(content)
	tokens := tokenSet(content)
	cutoff := t.now().Add(-window).UnixMilli()

	all, err := t.store.GetAll(ctx)
	if err != nil {
		return false, fmt.Errorf("load campaigns: %w", err)
	}

	for _, c := range all {
		if c.Status != domain.StatusExecuted || c.CreatedAtMs < cutoff {
			continue
		}
		if c.ContentFingerprint == fingerprint {
			return true, nil
		}
		if tokenOverlap(tokens, tokenSet(c.Content)) > overlapThreshold {
			return true, nil
		}
	}
	return false, nil
}

// RecentContentSnippets returns leading snippets of the most recent
// executed campaigns, newest first, for downstream novelty avoidance.
func (t *Tracker) RecentContentSnippets(ctx context.Context, limit int) ([]string, error) {
	all, err := t.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}

	var snippets []string
	for i := len(all) - 1; i >= 0 && len(snippets) < limit; i-- {
		if all[i].Status != domain.StatusExecuted {
			continue
		}
		snippets = append(snippets, snippet(all[i].Content))
	}
	return snippets, nil
}

// snippet takes the pre-delimiter segment of content, capped at snippetLen.
func snippet(content string) string {
	if idx := strings.Index(content, contentDelimiter); idx >= 0 {
		content = content[:idx]
	}
	runes := []rune(content)
	if len(runes) > snippetLen {
		return string(runes[:snippetLen])
	}
	return content
}

// UpdateMetrics merges new counters into a campaign, appends a capped
// history snapshot, and stamps the check time. The engagement timeseries
// mirror is best-effort: its failure is logged, never surfaced.
func (t *Tracker) UpdateMetrics(ctx context.Context, id string, m domain.Metrics) error {
	c, err := t.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load campaign %s: %w", id, err)
	}

	if c.Metrics == nil {
		c.Metrics = domain.Metrics{}
	}
	for k, v := range m {
		c.Metrics[k] = v
	}

	snap := domain.MetricsSnapshot{
		TimestampMs: t.now().UnixMilli(),
		Metrics:     m,
	}
	c.MetricsHistory = append(c.MetricsHistory, snap)
	if len(c.MetricsHistory) > historyCap {
		c.MetricsHistory = c.MetricsHistory[len(c.MetricsHistory)-historyCap:]
	}

	c.Status = domain.StatusPendingMetrics
	c.LastMetricsCheckMs = snap.TimestampMs

	if err := t.store.Update(ctx, c); err != nil {
		return fmt.Errorf("update campaign %s: %w", id, err)
	}

	if t.engagement != nil {
		if err := t.engagement.InsertSnapshot(ctx, id, snap); err != nil {
			t.log.WithError(err).WithField("id", id).Warn("engagement timeseries write failed")
		}
	}
	return nil
}

// NeedingMetricsRefresh selects campaigns due for a metrics check:
// non-failed, with an external reference, under a week old, and not
// checked in the last six hours. When more than max are due, the newest
// max win so a backlog of stale campaigns cannot starve fresh ones.
func (t *Tracker) NeedingMetricsRefresh(ctx context.Context, max int) ([]*domain.Campaign, error) {
	all, err := t.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}

	now := t.now()
	ageCutoff := now.Add(-refreshMaxAge).UnixMilli()
	checkCutoff := now.Add(-refreshInterval).UnixMilli()

	var due []*domain.Campaign
	for _, c := range all {
		if c.Status == domain.StatusFailed || c.ExternalRef == "" {
			continue
		}
		if c.CreatedAtMs < ageCutoff {
			continue
		}
		if c.LastMetricsCheckMs != 0 && c.LastMetricsCheckMs > checkCutoff {
			continue
		}
		due = append(due, c)
	}
	if len(due) > max {
		due = due[len(due)-max:]
	}
	return due, nil
}

// Recent returns the most recent limit campaigns, newest first.
func (t *Tracker) Recent(ctx context.Context, limit int) ([]*domain.Campaign, error) {
	all, err := t.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}

	var out []*domain.Campaign
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// All returns every campaign in insertion order.
func (t *Tracker) All(ctx context.Context) ([]*domain.Campaign, error) {
	return t.store.GetAll(ctx)
}

// tokenSet normalizes content into its set of significant tokens:
// lowercased, split on non-alphanumerics, only tokens longer than 3 chars.
func tokenSet(content string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	set := make(map[string]struct{})
	for _, f := range fields {
		if len([]rune(f)) > 3 {
			set[f] = struct{}{}
		}
	}
	return set
}

// tokenOverlap computes |intersection| / min(|a|,|b|), or 0 when either
// set is too small to compare meaningfully.
func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) < minTokens || len(b) < minTokens {
		return 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	var shared int
	for tok := range small {
		if _, ok := large[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}
