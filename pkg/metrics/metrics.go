// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal tracks completed conversational turns by outcome.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Total conversational turns processed",
		},
		[]string{"outcome"},
	)

	// TurnDuration tracks end-to-end turn duration.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_turn_duration_seconds",
			Help:    "End-to-end turn duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
	)

	// ModelCallsTotal tracks model invocations by provider and status.
	ModelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "Total LLM calls",
		},
		[]string{"provider", "status"},
	)

	// ModelTokensTotal tracks LLM tokens processed.
	ModelTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// ToolExecutionsTotal tracks tool executions by tool and status.
	ToolExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_executions_total",
			Help: "Total tool executions",
		},
		[]string{"tool", "status"},
	)

	// HandoffsTotal tracks handler-to-coordinator handoffs.
	HandoffsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_handoffs_total",
			Help: "Total handler handoffs",
		},
		[]string{"handler"},
	)

	// LoopIterations tracks tool-invocation loop lengths.
	LoopIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_loop_iterations",
			Help:    "Iterations per tool-invocation loop run",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
		[]string{"handler"},
	)

	// DraftOpsTotal tracks draft store operations by variant.
	DraftOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draft_operations_total",
			Help: "Total draft store operations",
		},
		[]string{"variant", "op"},
	)

	// DraftConflictsTotal tracks rejected cross-variant draft creations.
	DraftConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "draft_conflicts_total",
			Help: "Total draft creations rejected by the one-draft rule",
		},
	)

	// ThreadsTotal tracks total threads created.
	ThreadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threads_total",
			Help: "Total threads created",
		},
	)

	// MessagesTotal tracks total messages published.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages published",
		},
		[]string{"role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordModelCall records metrics for one LLM call.
func RecordModelCall(provider, model, status string, tokensIn, tokensOut int) {
	ModelCallsTotal.WithLabelValues(provider, status).Inc()
	if tokensIn > 0 {
		ModelTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	}
	if tokensOut > 0 {
		ModelTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
	}
}

// RecordTurn records one completed turn.
func RecordTurn(outcome string, seconds float64) {
	TurnsTotal.WithLabelValues(outcome).Inc()
	TurnDuration.Observe(seconds)
}
