// Package metrics declares the Prometheus collectors for identification,
// prediction and knowledge base health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sieve"

var (
	// IdentifyTotal counts identification requests.
	// Labels: capability (classify, trace), status (ok, invalid)
	IdentifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "identify_total",
		Help:      "Total identification requests",
	}, []string{"capability", "status"})

	// IdentifyDuration measures elimination latency.
	IdentifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "identify_duration_seconds",
		Help:      "Elimination latency in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	// EliminationsPerStep tracks how many classes one observation removes.
	EliminationsPerStep = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "eliminations_per_step",
		Help:      "Classes eliminated by a single observation",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	// CandidatesRemaining tracks result set sizes.
	CandidatesRemaining = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "candidates_remaining",
		Help:      "Classes surviving an identification",
		Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50},
	})

	// PredictionsTotal counts predictor calls.
	// Labels: provider, outcome (ok, invalid, unavailable)
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "predict",
		Name:      "requests_total",
		Help:      "Total predictor calls by outcome",
	}, []string{"provider", "outcome"})

	// PredictDuration measures predictor round trips.
	// Labels: provider
	PredictDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "predict",
		Name:      "duration_seconds",
		Help:      "Predictor latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	// MissingPairs is the gap count of the last completeness check.
	MissingPairs = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "kb",
		Name:      "missing_pairs",
		Help:      "Unconfigured class/property pairs at the last completeness check",
	})

	// Mutations counts knowledge base writes.
	// Labels: op, status (ok, rejected)
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kb",
		Name:      "mutations_total",
		Help:      "Knowledge base writes by operation",
	}, []string{"op", "status"})

	// HTTPRequests counts API requests.
	// Labels: route, code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests by route pattern and status code",
	}, []string{"route", "code"})
)
