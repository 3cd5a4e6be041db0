package peach

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK        = "ok"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
)

// Metrics provides Prometheus metrics for dispatched requests.
// A nil *Metrics records nothing.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	supersededTotal  prometheus.Counter
}

// NewMetrics registers the request metrics on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	return &Metrics{
		requestsTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "peach_requests_total",
				Help: "Total number of dispatched requests by outcome",
			},
			[]string{"method", "outcome"},
		),
		requestDuration: promauto.With(registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "peach_request_duration_seconds",
				Help:    "Duration of dispatched requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		requestsInFlight: promauto.With(registerer).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "peach_requests_in_flight",
				Help: "Number of requests currently in flight",
			},
			[]string{"method"},
		),
		supersededTotal: promauto.With(registerer).NewCounter(
			prometheus.CounterOpts{
				Name: "peach_superseded_total",
				Help: "Total number of requests cancelled by a newer request with the same key",
			},
		),
	}
}

// begin marks a request in flight and returns the function recording its end.
func (m *Metrics) begin(method string) func(outcome string, d time.Duration) {
	if m == nil {
		return func(string, time.Duration) {}
	}
	m.requestsInFlight.WithLabelValues(method).Inc()
	return func(outcome string, d time.Duration) {
		m.requestsInFlight.WithLabelValues(method).Dec()
		m.requestsTotal.WithLabelValues(method, outcome).Inc()
		m.requestDuration.WithLabelValues(method).Observe(d.Seconds())
	}
}

func (m *Metrics) superseded() {
	if m == nil {
		return
	}
	m.supersededTotal.Inc()
}
