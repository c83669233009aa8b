// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TranscriptsParsedTotal counts transcript halves by direction and outcome (ok, error, fallback)
	TranscriptsParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disclose_transcripts_parsed_total",
			Help: "Total number of transcript directions parsed",
		},
		[]string{"direction", "outcome"},
	)

	// RangesTotal counts disclosed ranges by direction and kind
	RangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disclose_ranges_total",
			Help: "Total number of disclosed ranges",
		},
		[]string{"direction", "kind"},
	)

	// ContractViolationsTotal counts malformed parse trees
	ContractViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disclose_contract_violations_total",
			Help: "Total number of grammar contract violations",
		},
		[]string{"direction"},
	)

	// FallbackTotal counts received transcripts located without the grammar
	FallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disclose_fallback_total",
			Help: "Total number of received transcripts handled by the fallback locator",
		},
	)

	// PlanBuildSeconds measures plan construction latency
	PlanBuildSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "disclose_plan_build_seconds",
			Help:    "Latency of building a disclosure plan in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs to ~0.3s
		},
	)
)

// Outcome labels for TranscriptsParsedTotal.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)
