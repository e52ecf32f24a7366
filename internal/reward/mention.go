package reward

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/social"
	"solana-promo-agent/internal/storage"
)

// minMentionLength filters out texts too short to carry any signal. The
// classifier is never called for these.
const minMentionLength = 10

// MentionConfig controls the mention-reply producer.
type MentionConfig struct {
	Amount   float64 // SOL per reward
	DailyCap int
}

// MentionProducer discovers qualitative replies mentioning the agent's
// account. Admission is two-staged: a cheap length gate, then an external
// classifier call. Rejected and already-paid items are marked processed so
// they are never re-classified.
type MentionProducer struct {
	searcher   social.Searcher
	classifier social.Classifier
	processed  storage.ProcessedIDStore
	rewards    storage.RewardStore
	cfg        MentionConfig
	log        *logrus.Entry
	now        func() time.Time
}

func NewMentionProducer(
	searcher social.Searcher,
	classifier social.Classifier,
	processed storage.ProcessedIDStore,
	rewards storage.RewardStore,
	cfg MentionConfig,
	log *logrus.Entry,
) *MentionProducer {
	return &MentionProducer{
		searcher:   searcher,
		classifier: classifier,
		processed:  processed,
		rewards:    rewards,
		cfg:        cfg,
		log:        log.WithField("producer", domain.ProducerMentionReply),
		now:        time.Now,
	}
}

func (p *MentionProducer) Name() string { return domain.ProducerMentionReply }

func (p *MentionProducer) DailyCap() int { return p.cfg.DailyCap }

func (p *MentionProducer) Discover(ctx context.Context) ([]Candidate, error) {
	mentions, err := p.searcher.Mentions(ctx)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, m := range mentions {
		seen, err := p.processed.IsProcessed(ctx, p.Name(), m.ID)
		if err != nil {
			return nil, err
		}
		if seen {
			continue
		}

		if len(strings.TrimSpace(m.Text)) < minMentionLength {
			if err := p.processed.MarkProcessed(ctx, p.Name(), m.ID); err != nil {
				return nil, err
			}
			continue
		}

		paid, err := subjectPaidToday(ctx, p.rewards, m.AuthorID, p.now().UnixMilli())
		if err != nil {
			return nil, err
		}
		if paid {
			if err := p.processed.MarkProcessed(ctx, p.Name(), m.ID); err != nil {
				return nil, err
			}
			p.log.WithField("subject", m.AuthorHandle).Debug("subject already rewarded today")
			continue
		}

		valuable, err := p.classifier.IsValuable(ctx, m.Text)
		if err != nil {
			// Transient classifier failure: leave unprocessed and retry
			// next cycle.
			p.log.WithError(err).WithField("mention", m.ID).Warn("classification failed")
			continue
		}
		if !valuable {
			if err := p.processed.MarkProcessed(ctx, p.Name(), m.ID); err != nil {
				return nil, err
			}
			continue
		}

		out = append(out, Candidate{
			SourceID:      m.ID,
			SubjectID:     m.AuthorID,
			SubjectHandle: m.AuthorHandle,
			SourceText:    m.Text,
			Impressions:   m.Impressions,
			Likes:         m.Likes,
			Amount:        p.cfg.Amount,
		})
	}
	return out, nil
}

var _ Producer = (*MentionProducer)(nil)
