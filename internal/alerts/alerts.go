package alerts

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"solana-promo-agent/internal/domain"
)

// Score is the fixed linear engagement score. Monotone in every input.
func Score(impressions, likes, retweets float64) float64 {
	return impressions + likes*10 + retweets*20
}

// reasonRule is one rung of the reason ladder: first match wins.
type reasonRule struct {
	match func(impressions, likes, score float64) bool
	label string
}

var reasonLadder = []reasonRule{
	{func(impressions, _, _ float64) bool { return impressions >= 10000 }, "viral"},
	{func(impressions, _, _ float64) bool { return impressions >= 5000 }, "strong performance"},
	{func(_, likes, _ float64) bool { return likes >= 100 }, "high engagement"},
	{func(_, _, score float64) bool { return score >= 5000 }, "top performer"},
	{func(_, _, _ float64) bool { return true }, "above average"},
}

// reasonFor picks the first matching label for the raw metrics.
func reasonFor(impressions, likes, score float64) string {
	for _, rule := range reasonLadder {
		if rule.match(impressions, likes, score) {
			return rule.label
		}
	}
	return "above average"
}

// Config bounds alert creation.
type Config struct {
	// MinScore is the score below which no alert is created.
	MinScore float64
}

// Scorer flags high-performing campaigns as boost candidates. One alert
// per campaign: re-evaluation updates in place, dismissal is one-way, and
// an alerted campaign never drops back to unalerted.
type Scorer struct {
	mu     sync.Mutex
	cfg    Config
	alerts map[string]*domain.Alert
	order  []string
	log    *logrus.Entry
	now    func() time.Time
}

// New creates an alert scorer.
func New(cfg Config, log *logrus.Entry) *Scorer {
	return &Scorer{
		cfg:    cfg,
		alerts: make(map[string]*domain.Alert),
		log:    log,
		now:    time.Now,
	}
}

// Evaluate scores one campaign and creates or updates its alert.
// Returns the alert when the campaign is (still) flagged, nil otherwise.
func (s *Scorer) Evaluate(c *domain.Campaign) *domain.Alert {
	if c == nil || c.Status == domain.StatusFailed {
		return nil
	}

	impressions := c.Metrics.Get("impressions")
	likes := c.Metrics.Get("likes")
	retweets := c.Metrics.Get("retweets")
	score := Score(impressions, likes, retweets)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := "boost_" + c.ID
	existing, ok := s.alerts[id]
	if ok {
		// Update in place; an alerted campaign never regresses to
		// unalerted, even if its score falls below the threshold.
		existing.Impressions = impressions
		existing.Likes = likes
		existing.Retweets = retweets
		existing.Score = score
		existing.Reason = reasonFor(impressions, likes, score)
		existing.ExternalRef = c.ExternalRef
		return copyAlert(existing)
	}

	if impressions == 0 && likes == 0 && retweets == 0 {
		return nil
	}
	if score < s.cfg.MinScore {
		return nil
	}

	a := &domain.Alert{
		ID:          id,
		CampaignID:  c.ID,
		ExternalRef: c.ExternalRef,
		Content:     c.Content,
		Impressions: impressions,
		Likes:       likes,
		Retweets:    retweets,
		Score:       score,
		Reason:      reasonFor(impressions, likes, score),
		CreatedAtMs: s.now().UnixMilli(),
	}
	s.alerts[id] = a
	s.order = append(s.order, id)

	s.log.WithFields(logrus.Fields{
		"campaignId": c.ID,
		"score":      score,
		"reason":     a.Reason,
	}).Info("boost alert raised")
	return copyAlert(a)
}

// Dismiss permanently hides an alert from the active view.
func (s *Scorer) Dismiss(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return fmt.Errorf("alert %s not found", id)
	}
	a.Dismissed = true
	return nil
}

// Active returns undismissed alerts, highest score first.
func (s *Scorer) Active() []*domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Alert
	for _, id := range s.order {
		if a := s.alerts[id]; !a.Dismissed {
			out = append(out, copyAlert(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// All returns every alert, dismissed included, in creation order.
func (s *Scorer) All() []*domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Alert, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyAlert(s.alerts[id]))
	}
	return out
}

func copyAlert(a *domain.Alert) *domain.Alert {
	cp := *a
	return &cp
}
