package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	intentDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmlens_intent_decisions_total",
			Help: "Intent routing decisions by intent and decision source (keyword, backend name, default).",
		},
		[]string{"intent", "source"},
	)
	completionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmlens_completion_requests_total",
			Help: "Completion backend calls by backend, purpose and outcome.",
		},
		[]string{"backend", "purpose", "outcome"},
	)
	sqlGenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmlens_sql_generations_total",
			Help: "SQL synthesis results by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)
	sqlRepairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmlens_sql_repairs_total",
			Help: "Repair loop outcomes: normalize short-circuit, model repair, rejected, unavailable.",
		},
		[]string{"outcome"},
	)
	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmlens_query_executions_total",
			Help: "CRM query executions by outcome.",
		},
		[]string{"outcome"},
	)
	queryDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crmlens_query_duration_ms",
			Help:    "CRM query execution latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2000, 5000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		intentDecisionsTotal,
		completionRequestsTotal,
		sqlGenerationsTotal,
		sqlRepairsTotal,
		queryExecutionsTotal,
		queryDurationMs,
	)
}

func ObserveIntentDecision(intent, source string) {
	intentDecisionsTotal.WithLabelValues(intent, source).Inc()
}

func ObserveCompletion(backend, purpose, outcome string) {
	completionRequestsTotal.WithLabelValues(backend, purpose, outcome).Inc()
}

func ObserveGeneration(backend, outcome string) {
	sqlGenerationsTotal.WithLabelValues(backend, outcome).Inc()
}

func ObserveRepair(outcome string) {
	sqlRepairsTotal.WithLabelValues(outcome).Inc()
}

func ObserveQueryExecution(outcome string, elapsed time.Duration) {
	queryExecutionsTotal.WithLabelValues(outcome).Inc()
	queryDurationMs.Observe(float64(elapsed.Milliseconds()))
}
