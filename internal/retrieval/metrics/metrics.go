package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for document retrieval.
type Metrics struct {
	// Fetch latency by outcome kind
	FetchLatency *prometheus.HistogramVec

	// Retrieval outcomes by kind
	Outcomes *prometheus.CounterVec

	// Attempts beyond the first
	Retries prometheus.Counter
}

// New registers the retrieval metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plaingov_retrieval_duration_seconds",
			Help:    "Duration of official source retrievals including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"kind"}), // kind: "success", "http", "network", "timeout", "extract"

		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plaingov_retrieval_outcomes_total",
			Help: "Total retrieval outcomes by kind",
		}, []string{"kind"}),

		Retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "plaingov_retrieval_retries_total",
			Help: "Total retried fetch attempts",
		}),
	}
}

// ObserveRetrieval records one finished retrieval.
func (m *Metrics) ObserveRetrieval(kind string, d time.Duration) {
	if m != nil {
		m.FetchLatency.WithLabelValues(kind).Observe(d.Seconds())
		m.Outcomes.WithLabelValues(kind).Inc()
	}
}

// IncrementRetries records a retried attempt.
func (m *Metrics) IncrementRetries() {
	if m != nil {
		m.Retries.Inc()
	}
}
