package domain

// Proposal is a marketing action suggested by the external proposal source.
// Budget is clamped by the core before execution; Extra carries
// kind-specific fields the matching router understands.
type Proposal struct {
	Action    ActionKind        `json:"action"`
	Content   string            `json:"content"`
	Budget    float64           `json:"budget"` // SOL
	Rationale string            `json:"rationale"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// ExecutionResult is what an action router reports back to the core.
type ExecutionResult struct {
	Success     bool
	ExternalRef string // e.g. a post identifier
	PaymentRef  string // e.g. a transaction signature
	FailReason  string
}
