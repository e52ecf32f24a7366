// Package brain defines the proposal source the agent consults each cycle
// and the budget clamping applied to whatever it returns. The actual
// creative generation is an external collaborator; the agent only enforces
// spending discipline on its output.
package brain

import (
	"context"

	"solana-promo-agent/internal/domain"
)

// Input is the context handed to the proposal source: what the agent can
// afford and what it has already said recently.
type Input struct {
	AvailableBalance float64
	MaxBudget        float64
	RecentContent    []string
}

// Proposer produces the next promotional action. A nil proposal with a nil
// error means the source has nothing to suggest this cycle.
type Proposer interface {
	Propose(ctx context.Context, in Input) (*domain.Proposal, error)
}

// ProposerFunc adapts a function to the Proposer interface.
type ProposerFunc func(ctx context.Context, in Input) (*domain.Proposal, error)

func (f ProposerFunc) Propose(ctx context.Context, in Input) (*domain.Proposal, error) {
	return f(ctx, in)
}

// ClampBudget returns the budget actually granted to a proposal: zero for
// free action kinds and for non-positive requests, otherwise the requested
// budget capped at maxBudget. The proposal itself is not mutated.
func ClampBudget(p *domain.Proposal, maxBudget float64) float64 {
	if p == nil || p.Action.IsFree() {
		return 0
	}
	if p.Budget <= 0 || maxBudget <= 0 {
		return 0
	}
	if p.Budget > maxBudget {
		return maxBudget
	}
	return p.Budget
}
