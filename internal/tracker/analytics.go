package tracker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"solana-promo-agent/internal/domain"
)

// Stats is a quick status-count projection over the campaign log.
type Stats struct {
	Total            int     `json:"total"`
	Executed         int     `json:"executed"`
	Failed           int     `json:"failed"`
	PendingMetrics   int     `json:"pendingMetrics"`
	Skipped          int     `json:"skipped"`
	TotalCost        float64 `json:"totalCost"`
	TotalImpressions float64 `json:"totalImpressions"`
	TotalLikes       float64 `json:"totalLikes"`
}

// ActionStats aggregates performance per action kind.
type ActionStats struct {
	Count       int     `json:"count"`
	Cost        float64 `json:"cost"`
	Impressions float64 `json:"impressions"`
	Likes       float64 `json:"likes"`
}

// HourStats aggregates performance per UTC hour of day.
type HourStats struct {
	Count       int     `json:"count"`
	Impressions float64 `json:"impressions"`
}

// DayStats aggregates performance per calendar day.
type DayStats struct {
	Count       int     `json:"count"`
	Impressions float64 `json:"impressions"`
}

// TopCampaign is one entry of the top-performers list.
type TopCampaign struct {
	ID          string  `json:"id"`
	Action      string  `json:"action"`
	Snippet     string  `json:"snippet"`
	Score       float64 `json:"score"`
	Impressions float64 `json:"impressions"`
	Likes       float64 `json:"likes"`
}

// Analytics is the aggregated performance view over performed campaigns.
// All ratio fields are zero when their denominator is zero.
type Analytics struct {
	ByAction          map[string]ActionStats `json:"byAction"`
	ByHourUTC         map[int]HourStats      `json:"byHourUtc"`
	ByDay             map[string]DayStats    `json:"byDay"` // last 30 days, "2006-01-02" keys
	Top               []TopCampaign          `json:"top"`   // top 10 by impressions + likes*10
	EngagementRate    float64                `json:"engagementRate"`
	BestHourUTC       int                    `json:"bestHourUtc"`
	BestAction        string                 `json:"bestAction"`
	CostPerImpression float64                `json:"costPerImpression"`
}

// Stats counts campaigns by status and sums cost and headline metrics.
func (t *Tracker) Stats(ctx context.Context) (Stats, error) {
	all, err := t.store.GetAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load campaigns: %w", err)
	}

	var s Stats
	s.Total = len(all)
	for _, c := range all {
		switch c.Status {
		case domain.StatusExecuted:
			s.Executed++
		case domain.StatusFailed:
			s.Failed++
		case domain.StatusPendingMetrics:
			s.PendingMetrics++
		case domain.StatusSkipped:
			s.Skipped++
		}
		if c.Status != domain.StatusFailed && c.Status != domain.StatusSkipped {
			s.TotalCost += c.Cost
			s.TotalImpressions += c.Metrics.Get("impressions")
			s.TotalLikes += c.Metrics.Get("likes")
		}
	}
	return s, nil
}

// Analytics aggregates performed (non-failed) campaigns by action kind,
// UTC hour, and calendar day, and ranks top performers.
func (t *Tracker) Analytics(ctx context.Context) (*Analytics, error) {
	all, err := t.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}

	a := &Analytics{
		ByAction:  make(map[string]ActionStats),
		ByHourUTC: make(map[int]HourStats),
		ByDay:     make(map[string]DayStats),
	}

	dayCutoff := t.now().AddDate(0, 0, -30)

	var (
		totalCost        float64
		totalImpressions float64
		totalEngagements float64
	)

	for _, c := range all {
		if c.Status == domain.StatusFailed || c.Status == domain.StatusSkipped {
			continue
		}

		impressions := c.Metrics.Get("impressions")
		likes := c.Metrics.Get("likes")
		retweets := c.Metrics.Get("retweets")
		created := time.UnixMilli(c.CreatedAtMs).UTC()

		as := a.ByAction[string(c.Action)]
		as.Count++
		as.Cost += c.Cost
		as.Impressions += impressions
		as.Likes += likes
		a.ByAction[string(c.Action)] = as

		hs := a.ByHourUTC[created.Hour()]
		hs.Count++
		hs.Impressions += impressions
		a.ByHourUTC[created.Hour()] = hs

		if created.After(dayCutoff) {
			key := created.Format("2006-01-02")
			ds := a.ByDay[key]
			ds.Count++
			ds.Impressions += impressions
			a.ByDay[key] = ds
		}

		a.Top = append(a.Top, TopCampaign{
			ID:          c.ID,
			Action:      string(c.Action),
			Snippet:     snippet(c.Content),
			Score:       impressions + likes*10,
			Impressions: impressions,
			Likes:       likes,
		})

		totalCost += c.Cost
		totalImpressions += impressions
		totalEngagements += likes + retweets
	}

	sort.SliceStable(a.Top, func(i, j int) bool {
		return a.Top[i].Score > a.Top[j].Score
	})
	if len(a.Top) > 10 {
		a.Top = a.Top[:10]
	}

	if totalImpressions > 0 {
		a.EngagementRate = totalEngagements / totalImpressions
		a.CostPerImpression = totalCost / totalImpressions
	}

	var bestHourImpressions float64
	for hour, hs := range a.ByHourUTC {
		if hs.Impressions > bestHourImpressions {
			bestHourImpressions = hs.Impressions
			a.BestHourUTC = hour
		}
	}

	var bestActionImpressions float64
	for action, as := range a.ByAction {
		if as.Impressions > bestActionImpressions {
			bestActionImpressions = as.Impressions
			a.BestAction = action
		}
	}

	return a, nil
}
