package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_runs_total",
			Help: "Total number of evaluation runs",
		},
		[]string{"outcome"}, // outcome: success, failed
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripwire_run_duration_seconds",
			Help:    "Wall time of an evaluation run",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripwire_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		},
	)

	// Evaluation metrics
	FiringsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_firings_total",
			Help: "Total number of triggers that fired",
		},
		[]string{"rule", "severity"},
	)

	RuleErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripwire_rule_errors_total",
			Help: "Total number of categories whose rules failed to evaluate",
		},
	)

	// Delivery metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_notifications_total",
			Help: "Total number of notification attempts",
		},
		[]string{"notifier", "status"}, // status: sent, failed
	)

	// State metrics
	StateConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripwire_state_conflicts_total",
			Help: "Total number of state writes rejected for a stale version",
		},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripwire_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
