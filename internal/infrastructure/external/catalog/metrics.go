package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts catalog requests.
	// Labels: endpoint (course, practice), result (ok, not_found, rate_limited, unavailable, timeout, invalid, rejected, error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learntrack",
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Total number of remote catalog requests by result",
		},
		[]string{"endpoint", "result"},
	)

	// RequestDuration tracks how long catalog requests take.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "learntrack",
			Subsystem: "catalog",
			Name:      "request_duration_seconds",
			Help:      "Duration of remote catalog requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// CircuitState is the breaker state (0=closed, 1=open, 2=half-open).
	CircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "learntrack",
			Subsystem: "catalog",
			Name:      "circuit_state",
			Help:      "Current catalog circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
	)
)
