package reward

import (
	"context"

	"github.com/sirupsen/logrus"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/social"
	"solana-promo-agent/internal/storage"
)

// ShillConfig controls the shill-scan producer.
type ShillConfig struct {
	Query          string  // search query for organic promotion posts
	Amount         float64 // SOL per reward
	DailyCap       int
	MinImpressions int64
}

// ShillProducer discovers organic promotion posts via search and admits
// them once their impressions cross the configured floor. Posts below the
// floor are left unprocessed so they can qualify on a later cycle once
// their counters grow.
type ShillProducer struct {
	searcher  social.Searcher
	processed storage.ProcessedIDStore
	cfg       ShillConfig
	log       *logrus.Entry
}

func NewShillProducer(
	searcher social.Searcher,
	processed storage.ProcessedIDStore,
	cfg ShillConfig,
	log *logrus.Entry,
) *ShillProducer {
	return &ShillProducer{
		searcher:  searcher,
		processed: processed,
		cfg:       cfg,
		log:       log.WithField("producer", domain.ProducerShillScan),
	}
}

func (p *ShillProducer) Name() string { return domain.ProducerShillScan }

func (p *ShillProducer) DailyCap() int { return p.cfg.DailyCap }

func (p *ShillProducer) Discover(ctx context.Context) ([]Candidate, error) {
	posts, err := p.searcher.Search(ctx, p.cfg.Query)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, post := range posts {
		seen, err := p.processed.IsProcessed(ctx, p.Name(), post.ID)
		if err != nil {
			return nil, err
		}
		if seen {
			continue
		}
		if post.Impressions < p.cfg.MinImpressions {
			continue
		}
		out = append(out, Candidate{
			SourceID:      post.ID,
			SubjectID:     post.AuthorID,
			SubjectHandle: post.AuthorHandle,
			SourceText:    post.Text,
			Impressions:   post.Impressions,
			Likes:         post.Likes,
			Amount:        p.cfg.Amount,
		})
	}
	return out, nil
}

var _ Producer = (*ShillProducer)(nil)
