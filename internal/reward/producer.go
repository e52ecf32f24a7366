package reward

import (
	"context"
	"time"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/storage"
)

// Candidate is a reward-worthy item a producer discovered. SourceID is the
// external identifier of the discovering item and the idempotency key.
type Candidate struct {
	SourceID      string
	SubjectID     string
	SubjectHandle string
	SourceText    string
	Impressions   int64
	Likes         int64
	Amount        float64
}

// Producer finds reward candidates. Discovery runs unboundedly; the
// shared engine throttles at payment time via DailyCap.
type Producer interface {
	// Name identifies the producer and namespaces its processed-ID set.
	Name() string

	// DailyCap is the maximum paid transitions per UTC day.
	DailyCap() int

	// Discover returns new candidates. Implementations filter out items
	// they have already resolved; the engine re-checks idempotency
	// before creating records.
	Discover(ctx context.Context) ([]Candidate, error)
}

// Payer executes the payout to a credential address and returns the
// transaction reference.
type Payer interface {
	Pay(ctx context.Context, to string, amountSOL float64, memo string) (string, error)
}

// PayerFunc adapts a function to the Payer interface.
type PayerFunc func(ctx context.Context, to string, amountSOL float64, memo string) (string, error)

func (f PayerFunc) Pay(ctx context.Context, to string, amountSOL float64, memo string) (string, error) {
	return f(ctx, to, amountSOL, memo)
}

// sameUTCDay reports whether two millisecond timestamps fall on the same
// UTC calendar day.
func sameUTCDay(aMs, bMs int64) bool {
	a := time.UnixMilli(aMs).UTC()
	b := time.UnixMilli(bMs).UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// subjectPaidToday reports whether the subject already has a paid record
// on the given day, across all producers.
func subjectPaidToday(ctx context.Context, store storage.RewardStore, subjectID string, nowMs int64) (bool, error) {
	all, err := store.GetAll(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range all {
		if r.SubjectID == subjectID && r.State == domain.RewardPaid && sameUTCDay(r.PaidAtMs, nowMs) {
			return true, nil
		}
	}
	return false, nil
}

// paidCountToday counts a producer's paid transitions on the given day.
func paidCountToday(ctx context.Context, store storage.RewardStore, producer string, nowMs int64) (int, error) {
	records, err := store.GetByProducer(ctx, producer)
	if err != nil {
		return 0, err
	}
	var n int
	for _, r := range records {
		if r.State == domain.RewardPaid && sameUTCDay(r.PaidAtMs, nowMs) {
			n++
		}
	}
	return n, nil
}
