package reward

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/idhash"
	"solana-promo-agent/internal/observability"
	"solana-promo-agent/internal/social"
	"solana-promo-agent/internal/storage"
	"solana-promo-agent/internal/treasury"
)

// Engine drives one producer's records through the reward progression:
// discovered -> credential_requested -> paid, with failed reachable from
// the first two states. Each cycle runs discovery, credential scanning and
// payments in that order. The engine owns idempotency and throttling; the
// producer only finds candidates.
type Engine struct {
	producer  Producer
	store     storage.RewardStore
	processed storage.ProcessedIDStore
	treasury  *treasury.Treasury
	poster    Poster
	searcher  CredentialSearcher
	payer     Payer
	extract   ExtractCredential
	onCurve   func(addr string) bool
	log       *logrus.Entry
	now       func() time.Time
}

// Poster is the outbound surface the engine needs: credential requests,
// payment confirmations and proof posts.
type Poster interface {
	Post(ctx context.Context, text string) (string, error)
	Reply(ctx context.Context, toID, text string) (string, error)
}

// CredentialSearcher looks up a subject's replies under the engine's
// credential request.
type CredentialSearcher interface {
	ConversationReplies(ctx context.Context, postID, authorID string) ([]social.Post, error)
}

// ExtractCredential pulls a payout address out of free-form text. Wired to
// the chain-specific extractor at construction so the engine stays free of
// chain imports.
type ExtractCredential func(text string) string

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCurveCheck supplies a predicate classifying accepted payout
// addresses as ed25519 curve points. Wallets surface this to tell keypair
// accounts from derived ones; when set, the engine records it alongside
// the credential. Wired to solana.IsOnCurve at construction for the same
// reason the extractor is injected.
func WithCurveCheck(onCurve func(addr string) bool) Option {
	return func(e *Engine) { e.onCurve = onCurve }
}

// NewEngine builds an engine for one producer. extract finds payout
// addresses in reply text.
func NewEngine(
	producer Producer,
	store storage.RewardStore,
	processed storage.ProcessedIDStore,
	tr *treasury.Treasury,
	poster Poster,
	searcher CredentialSearcher,
	payer Payer,
	extract ExtractCredential,
	log *logrus.Entry,
	opts ...Option,
) *Engine {
	e := &Engine{
		producer:  producer,
		store:     store,
		processed: processed,
		treasury:  tr,
		poster:    poster,
		searcher:  searcher,
		payer:     payer,
		log:       log.WithField("producer", producer.Name()),
		now:       time.Now,
	}
	e.extract = extract
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunCycle runs all three phases. Collaborator failures inside a phase are
// logged and skipped; a phase only returns an error when persistence
// itself fails, and later phases still run on earlier-phase errors.
func (e *Engine) RunCycle(ctx context.Context) error {
	var firstErr error
	if err := e.Discover(ctx); err != nil {
		e.log.WithError(err).Error("discovery phase failed")
		firstErr = err
	}
	if err := e.ScanCredentials(ctx); err != nil {
		e.log.WithError(err).Error("credential scan phase failed")
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := e.ProcessPayments(ctx); err != nil {
		e.log.WithError(err).Error("payment phase failed")
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Discover asks the producer for candidates, creates records for the
// unseen ones and immediately sends each a credential request.
func (e *Engine) Discover(ctx context.Context) error {
	candidates, err := e.producer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	name := e.producer.Name()
	for _, c := range candidates {
		seen, err := e.processed.IsProcessed(ctx, name, c.SourceID)
		if err != nil {
			return fmt.Errorf("check processed %s: %w", c.SourceID, err)
		}
		if seen {
			continue
		}

		record := &domain.RewardRecord{
			ID:             idhash.ComputeRewardID(name, c.SourceID),
			Producer:       name,
			SourceID:       c.SourceID,
			SubjectID:      c.SubjectID,
			SubjectHandle:  c.SubjectHandle,
			SourceText:     c.SourceText,
			Impressions:    c.Impressions,
			Likes:          c.Likes,
			State:          domain.RewardDiscovered,
			Amount:         c.Amount,
			DiscoveredAtMs: e.now().UnixMilli(),
		}
		if err := e.store.Insert(ctx, record); err != nil {
			return fmt.Errorf("insert reward %s: %w", record.ID, err)
		}
		if err := e.processed.MarkProcessed(ctx, name, c.SourceID); err != nil {
			return fmt.Errorf("mark processed %s: %w", c.SourceID, err)
		}
		observability.RecordRewardDiscovered(name)
		e.log.WithFields(logrus.Fields{
			"reward_id": record.ID,
			"source_id": c.SourceID,
			"subject":   c.SubjectHandle,
		}).Info("reward candidate discovered")

		if err := e.requestCredential(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// requestCredential replies to the source asking for a payout address. A
// send failure is terminal for the record.
func (e *Engine) requestCredential(ctx context.Context, r *domain.RewardRecord) error {
	text := fmt.Sprintf("@%s thanks for the support! Drop your SOL address below and we'll send %.4f SOL your way.",
		r.SubjectHandle, r.Amount)
	ref, err := e.poster.Reply(ctx, r.SourceID, text)
	if err != nil {
		e.log.WithError(err).WithField("reward_id", r.ID).Warn("credential request send failed")
		r.State = domain.RewardFailed
		r.FailReason = "credential request send failed"
		observability.RecordRewardFailed(r.Producer)
	} else {
		r.State = domain.RewardCredentialRequested
		r.CredentialRequestRef = ref
	}
	if err := e.store.Update(ctx, r); err != nil {
		return fmt.Errorf("update reward %s: %w", r.ID, err)
	}
	return nil
}

// ScanCredentials fills in payout addresses for records waiting on one by
// inspecting the subject's replies under the credential request.
func (e *Engine) ScanCredentials(ctx context.Context) error {
	records, err := e.store.GetByProducer(ctx, e.producer.Name())
	if err != nil {
		return fmt.Errorf("load rewards: %w", err)
	}
	for _, r := range records {
		if r.State != domain.RewardCredentialRequested || r.Credential != "" {
			continue
		}
		replies, err := e.searcher.ConversationReplies(ctx, r.CredentialRequestRef, r.SubjectID)
		if err != nil {
			e.log.WithError(err).WithField("reward_id", r.ID).Warn("credential scan failed")
			continue
		}
		for _, reply := range replies {
			addr := e.extract(reply.Text)
			if addr == "" {
				continue
			}
			r.Credential = addr
			if e.onCurve != nil {
				r.CredentialOnCurve = e.onCurve(addr)
			}
			if err := e.store.Update(ctx, r); err != nil {
				return fmt.Errorf("update reward %s: %w", r.ID, err)
			}
			e.log.WithFields(logrus.Fields{
				"reward_id": r.ID,
				"address":   addr,
				"on_curve":  r.CredentialOnCurve,
			}).Info("payout address received")
			break
		}
	}
	return nil
}

// ProcessPayments pays payment-ready records in discovery order until the
// producer's daily cap is reached or the treasury stops authorizing the
// amount. Subjects already paid today are skipped. The debit and the
// transfer are not atomic: a failed transfer keeps the debit and marks the
// record failed.
func (e *Engine) ProcessPayments(ctx context.Context) error {
	name := e.producer.Name()
	nowMs := e.now().UnixMilli()

	paidToday, err := paidCountToday(ctx, e.store, name, nowMs)
	if err != nil {
		return fmt.Errorf("count paid: %w", err)
	}
	records, err := e.store.GetByProducer(ctx, name)
	if err != nil {
		return fmt.Errorf("load rewards: %w", err)
	}

	for _, r := range records {
		if !r.PaymentReady() {
			continue
		}
		if paidToday >= e.producer.DailyCap() {
			e.log.WithField("cap", e.producer.DailyCap()).Info("daily payout cap reached")
			return nil
		}
		if !e.treasury.CanSpend(r.Amount) {
			e.log.WithField("amount", r.Amount).Warn("treasury declined payout amount")
			return nil
		}

		alreadyPaid, err := subjectPaidToday(ctx, e.store, r.SubjectID, nowMs)
		if err != nil {
			return fmt.Errorf("check subject payouts: %w", err)
		}
		if alreadyPaid {
			e.log.WithField("subject", r.SubjectHandle).Debug("subject already paid today")
			continue
		}

		if err := e.treasury.Spend(ctx, r.Amount, "reward payout "+name, ""); err != nil {
			return fmt.Errorf("debit treasury: %w", err)
		}
		txRef, err := e.payer.Pay(ctx, r.Credential, r.Amount, "reward "+r.SourceID)
		if err != nil {
			e.log.WithError(err).WithField("reward_id", r.ID).Error("payout transfer failed")
			r.State = domain.RewardFailed
			r.FailReason = "payout failed: " + err.Error()
			observability.RecordRewardFailed(name)
			if uerr := e.store.Update(ctx, r); uerr != nil {
				return fmt.Errorf("update reward %s: %w", r.ID, uerr)
			}
			continue
		}

		r.State = domain.RewardPaid
		r.PaymentRef = txRef
		r.PaidAtMs = e.now().UnixMilli()
		if err := e.store.Update(ctx, r); err != nil {
			return fmt.Errorf("update reward %s: %w", r.ID, err)
		}
		paidToday++
		observability.RecordRewardPaid(name, r.Amount)
		e.log.WithFields(logrus.Fields{
			"reward_id": r.ID,
			"subject":   r.SubjectHandle,
			"amount":    r.Amount,
			"tx":        txRef,
		}).Info("reward paid")

		e.announce(ctx, r)
	}
	return nil
}

// announce sends the confirmation reply and the public proof post. Both are
// best effort.
func (e *Engine) announce(ctx context.Context, r *domain.RewardRecord) {
	confirmation := fmt.Sprintf("@%s sent! %.4f SOL on its way. tx: %s", r.SubjectHandle, r.Amount, r.PaymentRef)
	if _, err := e.poster.Reply(ctx, r.SourceID, confirmation); err != nil {
		e.log.WithError(err).WithField("reward_id", r.ID).Warn("confirmation reply failed")
	}
	proof := fmt.Sprintf("Just rewarded @%s with %.4f SOL for spreading the word. Proof: %s", r.SubjectHandle, r.Amount, r.PaymentRef)
	if _, err := e.poster.Post(ctx, proof); err != nil {
		e.log.WithError(err).WithField("reward_id", r.ID).Warn("proof post failed")
	}
}
