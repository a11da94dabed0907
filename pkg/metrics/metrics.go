// Package metrics exposes the dispatcher's Prometheus instruments. All
// instruments live in the default registry and are served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchOutcomes counts every dispatch attempt by terminal outcome:
	// sent, failed, duplicate, disabled, invalid, misconfigured.
	DispatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthconnect",
			Subsystem: "sms",
			Name:      "dispatch_outcomes_total",
			Help:      "Dispatch attempts by terminal outcome",
		},
		[]string{"outcome"},
	)

	// ProviderRequestDuration observes the latency of gateway calls,
	// including transport failures.
	ProviderRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "healthconnect",
			Subsystem: "sms",
			Name:      "provider_request_duration_seconds",
			Help:      "SMS gateway request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// SweepRuns counts daily sweep executions by result: completed, skipped
	// (gate already claimed), disabled.
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthconnect",
			Subsystem: "sms",
			Name:      "sweep_runs_total",
			Help:      "Follow-up sweep runs by result",
		},
		[]string{"result"},
	)
)

const (
	OutcomeSent          = "sent"
	OutcomeFailed        = "failed"
	OutcomeDuplicate     = "duplicate"
	OutcomeDisabled      = "disabled"
	OutcomeInvalid       = "invalid"
	OutcomeMisconfigured = "misconfigured"
)
