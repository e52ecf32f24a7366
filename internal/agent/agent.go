// Package agent runs the promotional loop: one strictly sequential cycle
// per poll interval, each step isolated so a failing collaborator never
// stops the loop.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"solana-promo-agent/internal/alerts"
	"solana-promo-agent/internal/brain"
	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/observability"
	"solana-promo-agent/internal/reward"
	"solana-promo-agent/internal/social"
	"solana-promo-agent/internal/solana"
	"solana-promo-agent/internal/tracker"
	"solana-promo-agent/internal/treasury"
)

const (
	defaultMetricsRefreshBatch = 10
	defaultSnippetLimit        = 10
)

// Config controls the cycle cadence and spending limits.
type Config struct {
	PollInterval        time.Duration
	MaxPerCampaign      float64 // SOL ceiling for a single campaign budget
	DedupWindow         time.Duration
	TreasuryAddress     string
	MetricsRefreshBatch int
	SnippetLimit        int
}

// Deps are the agent's collaborators. WS and MetricsSource are optional.
type Deps struct {
	Treasury      *treasury.Treasury
	Tracker       *tracker.Tracker
	Proposer      brain.Proposer
	Router        *Router
	Engines       []*reward.Engine
	Alerts        *alerts.Scorer
	RPC           solana.RPCClient
	WS            solana.WSClient
	MetricsSource social.MetricsSource
}

type balanceObservation struct {
	sol float64
	at  time.Time
}

// Agent owns the promotional cycle.
type Agent struct {
	cfg  Config
	deps Deps
	log  *logrus.Entry
	now  func() time.Time

	obsMu   sync.Mutex
	lastObs *balanceObservation
}

func New(cfg Config, deps Deps, log *logrus.Entry) *Agent {
	if cfg.MetricsRefreshBatch <= 0 {
		cfg.MetricsRefreshBatch = defaultMetricsRefreshBatch
	}
	if cfg.SnippetLimit <= 0 {
		cfg.SnippetLimit = defaultSnippetLimit
	}
	return &Agent{
		cfg:  cfg,
		deps: deps,
		log:  log,
		now:  time.Now,
	}
}

// Run executes cycles until the context is cancelled. Cycles never
// overlap: the next one starts PollInterval after the previous finished.
func (a *Agent) Run(ctx context.Context) error {
	if a.deps.WS != nil {
		go a.watchBalance(ctx)
	}
	for {
		a.RunCycle(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.cfg.PollInterval):
		}
	}
}

// RunCycle runs one full cycle. Step failures are logged and counted; the
// remaining steps still run.
func (a *Agent) RunCycle(ctx context.Context) {
	start := a.now()
	a.step("refresh_balance", func() error { return a.refreshBalance(ctx) })
	a.step("propose_and_execute", func() error { return a.proposeAndExecute(ctx) })
	a.step("refresh_metrics", func() error { return a.refreshMetrics(ctx) })
	for _, engine := range a.deps.Engines {
		e := engine
		a.step("rewards", func() error { return e.RunCycle(ctx) })
	}
	a.step("alerts", func() error { return a.evaluateAlerts(ctx) })
	a.snapshotGauges()
	observability.RecordCycle(a.now().Sub(start).Seconds())
}

func (a *Agent) step(name string, fn func() error) {
	if err := fn(); err != nil {
		a.log.WithError(err).WithField("step", name).Error("cycle step failed")
		observability.RecordStepError(name)
	}
}

// watchBalance feeds account notifications into the latest-observation
// slot the balance refresh prefers over an RPC round trip.
func (a *Agent) watchBalance(ctx context.Context) {
	ch, err := a.deps.WS.SubscribeAccount(ctx, a.cfg.TreasuryAddress)
	if err != nil {
		a.log.WithError(err).Warn("balance subscription failed, falling back to RPC polling")
		return
	}
	for n := range ch {
		a.obsMu.Lock()
		a.lastObs = &balanceObservation{
			sol: float64(n.Lamports) / solana.LamportsPerSOL,
			at:  a.now(),
		}
		a.obsMu.Unlock()
	}
}

func (a *Agent) refreshBalance(ctx context.Context) error {
	balance, ok := a.freshObservation()
	if !ok {
		var err error
		balance, err = a.deps.RPC.GetBalance(ctx, a.cfg.TreasuryAddress)
		if err != nil {
			return fmt.Errorf("get balance: %w", err)
		}
	}
	return a.deps.Treasury.UpdateBalance(ctx, balance, "fee collection")
}

// freshObservation returns the last WS-observed balance if it arrived
// within the current poll interval.
func (a *Agent) freshObservation() (float64, bool) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	if a.lastObs == nil || a.now().Sub(a.lastObs.at) > a.cfg.PollInterval {
		return 0, false
	}
	return a.lastObs.sol, true
}

func (a *Agent) proposeAndExecute(ctx context.Context) error {
	summary := a.deps.Treasury.Summarize()

	var maxBudget float64
	if summary.MeetsThreshold {
		maxBudget = summary.MaxPerSpend
		if a.cfg.MaxPerCampaign > 0 && maxBudget > a.cfg.MaxPerCampaign {
			maxBudget = a.cfg.MaxPerCampaign
		}
	}

	snippets, err := a.deps.Tracker.RecentContentSnippets(ctx, a.cfg.SnippetLimit)
	if err != nil {
		return fmt.Errorf("recent snippets: %w", err)
	}

	p, err := a.deps.Proposer.Propose(ctx, brain.Input{
		AvailableBalance: summary.Available,
		MaxBudget:        maxBudget,
		RecentContent:    snippets,
	})
	if err != nil {
		return fmt.Errorf("propose: %w", err)
	}
	if p == nil {
		a.log.Debug("no proposal this cycle")
		return nil
	}

	budget := brain.ClampBudget(p, maxBudget)

	dup, err := a.deps.Tracker.IsDuplicate(ctx, p.Content, a.cfg.DedupWindow)
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if dup {
		observability.RecordDuplicateSkipped()
		a.log.WithField("action", p.Action).Info("duplicate proposal skipped")
		_, err := a.deps.Tracker.Log(ctx, tracker.Draft{
			Action:    p.Action,
			Content:   p.Content,
			Rationale: p.Rationale,
			Status:    domain.StatusSkipped,
		})
		return err
	}

	if budget > 0 {
		if !a.deps.Treasury.CanSpend(budget) {
			a.log.WithField("budget", budget).Warn("spend not authorized, proposal dropped")
			return nil
		}
		if err := a.deps.Treasury.Allocate(budget); err != nil {
			return fmt.Errorf("allocate budget: %w", err)
		}
	}

	result, rerr := a.deps.Router.Route(ctx, p, budget)
	if rerr != nil {
		a.log.WithError(rerr).WithField("action", p.Action).Warn("execution failed")
		result = &domain.ExecutionResult{FailReason: rerr.Error()}
	}

	draft := tracker.Draft{
		Action:    p.Action,
		Content:   p.Content,
		Rationale: p.Rationale,
	}
	if result.Success {
		draft.Status = domain.StatusExecuted
		draft.ExternalRef = result.ExternalRef
		draft.Cost = budget
	} else {
		draft.Status = domain.StatusFailed
	}

	c, err := a.deps.Tracker.Log(ctx, draft)
	if err != nil {
		if budget > 0 {
			a.deps.Treasury.ReleaseAllocation(budget)
		}
		return fmt.Errorf("log campaign: %w", err)
	}
	observability.RecordCampaign(string(p.Action), draft.Status)

	if budget > 0 {
		if result.Success {
			// Spend releases the allocation as it debits.
			if err := a.deps.Treasury.Spend(ctx, budget, "campaign "+string(p.Action), c.ID); err != nil {
				return fmt.Errorf("debit campaign spend: %w", err)
			}
		} else {
			a.deps.Treasury.ReleaseAllocation(budget)
		}
	}
	return nil
}

func (a *Agent) refreshMetrics(ctx context.Context) error {
	if a.deps.MetricsSource == nil {
		return nil
	}
	due, err := a.deps.Tracker.NeedingMetricsRefresh(ctx, a.cfg.MetricsRefreshBatch)
	if err != nil {
		return fmt.Errorf("select campaigns for refresh: %w", err)
	}
	for _, c := range due {
		m, err := a.deps.MetricsSource.PostMetrics(ctx, c.ExternalRef)
		if err != nil {
			a.log.WithError(err).WithField("campaign_id", c.ID).Warn("metrics fetch failed")
			continue
		}
		if err := a.deps.Tracker.UpdateMetrics(ctx, c.ID, m); err != nil {
			return fmt.Errorf("update metrics %s: %w", c.ID, err)
		}
		observability.RecordMetricsRefresh()
	}
	return nil
}

func (a *Agent) evaluateAlerts(ctx context.Context) error {
	all, err := a.deps.Tracker.All(ctx)
	if err != nil {
		return fmt.Errorf("load campaigns: %w", err)
	}
	for _, c := range all {
		a.deps.Alerts.Evaluate(c)
	}
	return nil
}

func (a *Agent) snapshotGauges() {
	summary := a.deps.Treasury.Summarize()
	observability.UpdateTreasury(summary.Balance, summary.Allocated)
	observability.UpdateActiveAlerts(len(a.deps.Alerts.Active()))
}
