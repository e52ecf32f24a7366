// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Cycle metrics
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram
	StepErrors    *prometheus.CounterVec

	// Campaign metrics
	CampaignsLogged   *prometheus.CounterVec
	DuplicatesSkipped prometheus.Counter
	MetricsRefreshed  prometheus.Counter

	// Treasury metrics
	BalanceSOL     prometheus.Gauge
	AllocatedSOL   prometheus.Gauge
	SpendTotalSOL  *prometheus.CounterVec
	IncomeTotalSOL prometheus.Counter

	// Reward metrics
	RewardsDiscovered *prometheus.CounterVec
	RewardsPaid       *prometheus.CounterVec
	RewardsFailed     *prometheus.CounterVec
	RewardPayoutSOL   *prometheus.CounterVec

	// Alert metrics
	AlertsActive prometheus.Gauge

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "promo_agent"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "cycles_total",
			Help:      "Total number of agent cycles run",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full agent cycle",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		StepErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "step_errors_total",
			Help:      "Total number of cycle step errors by step",
		}, []string{"step"}),

		CampaignsLogged: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaigns",
			Name:      "logged_total",
			Help:      "Total number of campaigns logged by action and status",
		}, []string{"action", "status"}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaigns",
			Name:      "duplicates_skipped_total",
			Help:      "Total number of proposals skipped as duplicates",
		}),
		MetricsRefreshed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaigns",
			Name:      "metrics_refreshed_total",
			Help:      "Total number of campaign metrics refreshes",
		}),

		BalanceSOL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "treasury",
			Name:      "balance_sol",
			Help:      "Current treasury balance in SOL",
		}),
		AllocatedSOL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "treasury",
			Name:      "allocated_sol",
			Help:      "SOL currently reserved for in-flight actions",
		}),
		SpendTotalSOL: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "treasury",
			Name:      "spend_sol_total",
			Help:      "Total SOL spent by reason",
		}, []string{"reason"}),
		IncomeTotalSOL: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "treasury",
			Name:      "income_sol_total",
			Help:      "Total SOL income observed",
		}),

		RewardsDiscovered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "discovered_total",
			Help:      "Total reward candidates discovered by producer",
		}, []string{"producer"}),
		RewardsPaid: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "paid_total",
			Help:      "Total rewards paid by producer",
		}, []string{"producer"}),
		RewardsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "failed_total",
			Help:      "Total rewards failed by producer",
		}, []string{"producer"}),
		RewardPayoutSOL: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "payout_sol_total",
			Help:      "Total SOL paid out as rewards by producer",
		}, []string{"producer"}),

		AlertsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "active",
			Help:      "Current number of undismissed alerts",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_duration_seconds",
			Help:      "Latency of Solana RPC calls by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics *Metrics

// Init initializes the global metrics instance.
func Init(namespace string) {
	DefaultMetrics = NewMetrics(namespace)
}

// RecordCycle observes one completed agent cycle.
func RecordCycle(durationSeconds float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.CyclesTotal.Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
}

// RecordStepError counts a failed cycle step.
func RecordStepError(step string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.StepErrors.WithLabelValues(step).Inc()
}

// RecordCampaign counts a logged campaign outcome.
func RecordCampaign(action, status string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.CampaignsLogged.WithLabelValues(action, status).Inc()
}

// RecordDuplicateSkipped counts a proposal rejected by dedup.
func RecordDuplicateSkipped() {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.DuplicatesSkipped.Inc()
}

// RecordMetricsRefresh counts one campaign metrics refresh.
func RecordMetricsRefresh() {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.MetricsRefreshed.Inc()
}

// UpdateTreasury snapshots the treasury gauges.
func UpdateTreasury(balance, allocated float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.BalanceSOL.Set(balance)
	DefaultMetrics.AllocatedSOL.Set(allocated)
}

// RecordSpend counts an outgoing treasury debit.
func RecordSpend(reason string, amount float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.SpendTotalSOL.WithLabelValues(reason).Add(amount)
}

// RecordIncome counts observed income.
func RecordIncome(amount float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.IncomeTotalSOL.Add(amount)
}

// RecordRewardDiscovered counts a new reward candidate.
func RecordRewardDiscovered(producer string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.RewardsDiscovered.WithLabelValues(producer).Inc()
}

// RecordRewardPaid counts a successful payout.
func RecordRewardPaid(producer string, amount float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.RewardsPaid.WithLabelValues(producer).Inc()
	DefaultMetrics.RewardPayoutSOL.WithLabelValues(producer).Add(amount)
}

// RecordRewardFailed counts a terminally failed reward.
func RecordRewardFailed(producer string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.RewardsFailed.WithLabelValues(producer).Inc()
}

// UpdateActiveAlerts snapshots the active alert gauge.
func UpdateActiveAlerts(n int) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.AlertsActive.Set(float64(n))
}

// RecordRPCLatency records the latency of a Solana RPC call.
func RecordRPCLatency(method string, seconds float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
