// Package metrics exposes Prometheus instrumentation for the alerting
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the pipeline's Prometheus collectors. Construct one per
// process with New and share it.
type Metrics struct {
	ObservationsProcessed *prometheus.CounterVec
	ObservationsDegraded  prometheus.Counter
	TicksFailed           prometheus.Counter
	AlertsEmitted         *prometheus.CounterVec
	SummariesEmitted      prometheus.Counter
	BroadcastFailures     prometheus.Counter
	SubscribersConnected  *prometheus.GaugeVec
	PersistFailures       prometheus.Counter
	VerificationCalls     *prometheus.CounterVec
}

// New registers the pipeline collectors on the given registerer and
// returns them. Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ObservationsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_observations_processed_total",
			Help: "Observations processed, by camera.",
		}, []string{"camera"}),
		ObservationsDegraded: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_observations_degraded_total",
			Help: "Observations degraded due to malformed payloads.",
		}),
		TicksFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_ticks_failed_total",
			Help: "Camera ticks skipped due to contained failures.",
		}),
		AlertsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_alerts_emitted_total",
			Help: "Alerts emitted, by severity and kind.",
		}, []string{"severity", "kind"}),
		SummariesEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_window_summaries_total",
			Help: "Summary alerts emitted at window close.",
		}),
		BroadcastFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_broadcast_failures_total",
			Help: "Subscriber sends that failed and evicted the subscriber.",
		}),
		SubscribersConnected: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentinel_subscribers_connected",
			Help: "Currently connected subscribers, by channel.",
		}, []string{"channel"}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_persist_failures_total",
			Help: "Best-effort persistence writes that failed.",
		}),
		VerificationCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_verification_calls_total",
			Help: "Verification service calls, by outcome.",
		}, []string{"outcome"}),
	}
}

// NewForTesting returns Metrics backed by a private registry.
func NewForTesting() *Metrics {
	return New(prometheus.NewRegistry())
}
