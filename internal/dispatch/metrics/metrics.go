package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for tool dispatch.
type Metrics struct {
	// Tool calls by tool and outcome
	ToolCalls *prometheus.CounterVec

	// Eligibility verdicts by program and status
	Verdicts *prometheus.CounterVec

	// End-to-end tool call latency
	CallLatency *prometheus.HistogramVec
}

// New registers the dispatch metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plaingov_tool_calls_total",
			Help: "Total tool calls by tool and outcome",
		}, []string{"tool", "outcome"}), // outcome: "ok", "retrieval_failed", "invalid", "not_found", "internal"

		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plaingov_eligibility_verdicts_total",
			Help: "Total eligibility verdicts by program and status",
		}, []string{"program", "status"}),

		CallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plaingov_tool_call_duration_seconds",
			Help:    "Duration of tool calls including retrieval",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"tool"}),
	}
}

// IncrementToolCall records a finished tool call.
func (m *Metrics) IncrementToolCall(tool, outcome string) {
	if m != nil {
		m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	}
}

// IncrementVerdict records an eligibility verdict.
func (m *Metrics) IncrementVerdict(program, status string) {
	if m != nil {
		m.Verdicts.WithLabelValues(program, status).Inc()
	}
}

// ObserveCallLatency records how long a tool call took.
func (m *Metrics) ObserveCallLatency(tool string, d time.Duration) {
	if m != nil {
		m.CallLatency.WithLabelValues(tool).Observe(d.Seconds())
	}
}
