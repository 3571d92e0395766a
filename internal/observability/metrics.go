package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	ErrorsTotal          *prometheus.CounterVec
	TransfersTotal       prometheus.Counter
	NotificationsCreated prometheus.Counter
	DegradedLookupsTotal prometheus.Counter
}

// NewMetrics creates and registers all collectors on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "patra_http_requests_total",
			Help: "HTTP requests processed, by path, method and status code",
		}, []string{"path", "method", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "patra_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "patra_errors_total",
			Help: "Application errors surfaced to callers, by error code",
		}, []string{"path", "method", "code"}),
		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "patra_transfers_total",
			Help: "Accepted correspondence transfers",
		}),
		NotificationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "patra_notifications_created_total",
			Help: "Notification rows fanned out to recipients",
		}),
		DegradedLookupsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "patra_degraded_lookups_total",
			Help: "Organizational-unit lookups served from the degraded snapshot",
		}),
	}
}

// RecordRequest observes one finished HTTP request.
func (m *Metrics) RecordRequest(path, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(path, method, status).Inc()
	m.RequestDuration.WithLabelValues(path, method).Observe(seconds)
}

// RecordError counts an error response by domain code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(path, method, code).Inc()
}
