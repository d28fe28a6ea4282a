// Package radiusmetrics defines the Prometheus metrics for the RADIUS
// failover client. All metrics use the "radiusfailover_" prefix.
package radiusmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "radiusfailover"

var (
	// AuthAttempts counts authentication attempts by outcome.
	// outcome is "ok" or one of the §7 error codes.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total authentication attempts, by outcome.",
	}, []string{"outcome"})

	// AuthDuration tracks authentication call latency.
	AuthDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_duration_seconds",
		Help:      "Authentication call duration in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// ProbesTotal counts health-check probes by host and result.
	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probes_total",
		Help:      "Total health-check probes, by host and result (alive/dead).",
	}, []string{"host", "result"})

	// FailoversTotal counts active-host transitions, by trigger.
	FailoversTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "failovers_total",
		Help:      "Total active-host transitions, by trigger (initial/explicit/background/auth_timeout).",
	}, []string{"trigger"})

	// ActiveHostIndex is the pool index of the current active host, or -1 if none.
	ActiveHostIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_host_index",
		Help:      "Pool index (0 = primary) of the current active host, or -1 if none.",
	})
)
