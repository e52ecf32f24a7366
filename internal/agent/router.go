package agent

import (
	"context"
	"fmt"

	"solana-promo-agent/internal/domain"
)

// Executor carries out one kind of promotional action. Implementations
// live outside the core: posting executors wrap the social client, payment
// executors wrap the chain transfer.
type Executor interface {
	Execute(ctx context.Context, p *domain.Proposal, budget float64) (*domain.ExecutionResult, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, p *domain.Proposal, budget float64) (*domain.ExecutionResult, error)

func (f ExecutorFunc) Execute(ctx context.Context, p *domain.Proposal, budget float64) (*domain.ExecutionResult, error) {
	return f(ctx, p, budget)
}

// Router dispatches proposals to the executor registered for their action
// kind. The kind set is open: registering a new executor is enough to
// support a new kind.
type Router struct {
	executors map[domain.ActionKind]Executor
}

func NewRouter() *Router {
	return &Router{executors: make(map[domain.ActionKind]Executor)}
}

// Register binds an executor to an action kind, replacing any previous one.
func (r *Router) Register(kind domain.ActionKind, e Executor) {
	r.executors[kind] = e
}

// Supports reports whether an executor is registered for the kind.
func (r *Router) Supports(kind domain.ActionKind) bool {
	_, ok := r.executors[kind]
	return ok
}

// Route executes the proposal with its kind's executor.
func (r *Router) Route(ctx context.Context, p *domain.Proposal, budget float64) (*domain.ExecutionResult, error) {
	e, ok := r.executors[p.Action]
	if !ok {
		return nil, fmt.Errorf("no executor registered for action kind %q", p.Action)
	}
	return e.Execute(ctx, p, budget)
}
