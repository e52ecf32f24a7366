package treasury

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/observability"
	"solana-promo-agent/internal/storage"
)

// Config bounds what the treasury will authorize.
type Config struct {
	// MaxSpendPct caps a single spend at this fraction of the balance.
	MaxSpendPct float64
	// MinThresholdSOL pauses paid campaigns below this balance.
	MinThresholdSOL float64
}

// Summary is a point-in-time view of the treasury for reporting.
type Summary struct {
	Balance        float64 `json:"balance"`
	Allocated      float64 `json:"allocated"`
	Available      float64 `json:"available"`
	MaxPerSpend    float64 `json:"maxPerSpend"`
	TotalIncome    float64 `json:"totalIncome"`
	TotalSpent     float64 `json:"totalSpent"`
	MeetsThreshold bool    `json:"meetsThreshold"`
}

// Treasury tracks the agent's on-chain funds and keeps an append-only
// journal of every movement. Balance never goes below zero through this
// API; the journal is the audit trail.
type Treasury struct {
	mu        sync.Mutex
	balance   float64
	allocated float64

	cfg    Config
	ledger storage.LedgerStore
	log    *logrus.Entry

	totalIncome float64
	totalSpent  float64
}

// New creates a treasury over a ledger store.
func New(ledger storage.LedgerStore, cfg Config, log *logrus.Entry) *Treasury {
	return &Treasury{
		cfg:    cfg,
		ledger: ledger,
		log:    log,
	}
}

// Restore replays the persisted journal to rebuild balance and totals.
// Called once at startup, before the first cycle.
func (t *Treasury) Restore(ctx context.Context) error {
	entries, err := t.ledger.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.balance = 0
	t.totalIncome = 0
	t.totalSpent = 0
	for _, e := range entries {
		switch e.Kind {
		case domain.LedgerIncome:
			t.balance += e.Amount
			t.totalIncome += e.Amount
		case domain.LedgerSpend:
			t.balance -= e.Amount
			t.totalSpent += e.Amount
		}
	}
	if t.balance < 0 {
		t.balance = 0
	}

	t.log.WithFields(logrus.Fields{
		"balance": t.balance,
		"entries": len(entries),
	}).Info("treasury restored from journal")
	return nil
}

// UpdateBalance reconciles the tracked balance with an on-chain observation.
// A positive delta is journaled as income (fee collection, donations);
// a negative one only adjusts the balance, since outbound movements are
// journaled where they happen.
func (t *Treasury) UpdateBalance(ctx context.Context, observed float64, reason string) error {
	t.mu.Lock()
	delta := observed - t.balance
	t.mu.Unlock()

	if delta > 0 {
		entry := &domain.LedgerEntry{
			TimestampMs: time.Now().UnixMilli(),
			Kind:        domain.LedgerIncome,
			Amount:      delta,
			Reason:      reason,
		}
		if err := t.ledger.Append(ctx, entry); err != nil {
			return fmt.Errorf("journal income: %w", err)
		}
		observability.RecordIncome(delta)
		t.log.WithFields(logrus.Fields{
			"delta":   delta,
			"balance": observed,
			"reason":  reason,
		}).Info("income recorded")
	}

	t.mu.Lock()
	t.balance = observed
	if delta > 0 {
		t.totalIncome += delta
	}
	if t.allocated > t.balance {
		t.allocated = t.balance
	}
	t.mu.Unlock()
	return nil
}

// CanSpend reports whether a spend of the given size is authorized:
// positive, within available (unallocated) funds, and within the
// per-spend fraction of the balance. The exact cap amount is allowed.
func (t *Treasury) CanSpend(amount float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canSpendLocked(amount)
}

func (t *Treasury) canSpendLocked(amount float64) bool {
	if amount <= 0 {
		return false
	}
	if amount > t.balance-t.allocated {
		return false
	}
	return amount <= t.balance*t.cfg.MaxSpendPct
}

// Spend debits the balance, releases up to amount from the allocation,
// and journals the movement. Authorization is the caller's job via
// CanSpend; only non-positive amounts are rejected here. A journal write
// failure leaves the balance untouched.
func (t *Treasury) Spend(ctx context.Context, amount float64, reason, campaignID string) error {
	if amount <= 0 {
		return fmt.Errorf("spend must be positive")
	}

	entry := &domain.LedgerEntry{
		TimestampMs: time.Now().UnixMilli(),
		Kind:        domain.LedgerSpend,
		Amount:      amount,
		Reason:      reason,
		CampaignID:  campaignID,
	}
	if err := t.ledger.Append(ctx, entry); err != nil {
		return fmt.Errorf("journal spend: %w", err)
	}
	observability.RecordSpend(reason, amount)

	t.mu.Lock()
	t.balance -= amount
	if t.balance < 0 {
		t.balance = 0
	}
	t.allocated -= amount
	if t.allocated < 0 {
		t.allocated = 0
	}
	t.totalSpent += amount
	t.mu.Unlock()

	t.log.WithFields(logrus.Fields{
		"amount":     amount,
		"reason":     reason,
		"campaignId": campaignID,
	}).Info("spend recorded")
	return nil
}

// Allocate reserves funds for an in-flight action so concurrent proposals
// cannot double-commit them. Fails when the reservation would exceed the
// balance.
func (t *Treasury) Allocate(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("allocation must be positive")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allocated+amount > t.balance {
		return fmt.Errorf("allocation of %.6f SOL exceeds balance", amount)
	}
	t.allocated += amount
	return nil
}

// ReleaseAllocation returns reserved funds. Clamped at zero.
func (t *Treasury) ReleaseAllocation(amount float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allocated -= amount
	if t.allocated < 0 {
		t.allocated = 0
	}
}

// Balance returns the current tracked balance.
func (t *Treasury) Balance() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance
}

// MeetsThreshold reports whether paid campaigns are currently allowed.
func (t *Treasury) MeetsThreshold() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance >= t.cfg.MinThresholdSOL
}

// Summarize builds the reporting view.
func (t *Treasury) Summarize() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		Balance:        t.balance,
		Allocated:      t.allocated,
		Available:      t.balance - t.allocated,
		MaxPerSpend:    t.balance * t.cfg.MaxSpendPct,
		TotalIncome:    t.totalIncome,
		TotalSpent:     t.totalSpent,
		MeetsThreshold: t.balance >= t.cfg.MinThresholdSOL,
	}
}

// Journal returns the persisted movement history in order.
func (t *Treasury) Journal(ctx context.Context) ([]*domain.LedgerEntry, error) {
	return t.ledger.GetAll(ctx)
}
