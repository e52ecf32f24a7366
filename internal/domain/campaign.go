package domain

// Campaign status values.
const (
	StatusExecuted       = "executed"
	StatusFailed         = "failed"
	StatusPendingMetrics = "pending_metrics"
	StatusSkipped        = "skipped" // duplicate proposal, never executed
)

// Metrics is a flat engagement-counter mapping for a campaign.
// Keys are source-defined (impressions, likes, retweets, replies, ...).
type Metrics map[string]float64

// Get returns the named counter, or 0 when absent.
func (m Metrics) Get(key string) float64 {
	if m == nil {
		return 0
	}
	return m[key]
}

// MetricsSnapshot is one point of a campaign's engagement history.
type MetricsSnapshot struct {
	TimestampMs int64   `json:"timestampMs"`
	Metrics     Metrics `json:"metrics"`
}

// Campaign represents one attempted promotional action and its outcome.
// ID, Content and Cost are immutable after creation; metrics fields are
// mutated only by the metrics-refresh path.
type Campaign struct {
	ID                 string            `json:"id"` // deterministic hash, see idhash
	Action             ActionKind        `json:"action"`
	Content            string            `json:"content"`
	Cost               float64           `json:"cost"` // SOL, >= 0
	Rationale          string            `json:"rationale"`
	CreatedAtMs        int64             `json:"createdAtMs"`
	ContentFingerprint string            `json:"contentFingerprint"` // hash of normalized content
	Status             string            `json:"status"`             // executed | failed | pending_metrics
	ExternalRef        string            `json:"externalRef,omitempty"`
	Metrics            Metrics           `json:"metrics,omitempty"`
	MetricsHistory     []MetricsSnapshot `json:"metricsHistory,omitempty"` // capped at 10 entries
	LastMetricsCheckMs int64             `json:"lastMetricsCheckMs,omitempty"`
}
