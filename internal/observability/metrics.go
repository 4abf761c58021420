package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// agentCallsTotal tracks agent invocations by agent name
	agentCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_agent_calls_total",
			Help: "Total number of agent invocations",
		},
		[]string{"agent"},
	)

	// toolCallsTotal tracks tool invocations by tool name
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_tool_calls_total",
			Help: "Total number of tool invocations",
		},
		[]string{"tool"},
	)

	// errorsTotal tracks recorded pipeline errors
	errorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_errors_total",
			Help: "Total number of recorded pipeline errors",
		},
	)

	// agentLatency tracks per-agent call latency in seconds
	agentLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_agent_latency_seconds",
			Help:    "Agent call latency in seconds",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"agent"},
	)
)
