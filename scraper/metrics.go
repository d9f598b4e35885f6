package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry             *prometheus.Registry
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      prometheus.Histogram
	OrdersExtractedTotal prometheus.Counter
	OrdersFailedTotal    prometheus.Counter
	ErrorsTotal          *prometheus.CounterVec
	FieldDefaultsTotal   *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total page fetches issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "Page fetch latency, rendering included.",
			Buckets: prometheus.DefBuckets,
		},
	)
	extracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_orders_extracted_total",
			Help: "Total number of order records assembled.",
		},
	)
	failed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_orders_failed_total",
			Help: "Total number of order pages skipped after an error.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)
	fieldDefaults := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_field_defaults_total",
			Help: "Fields that fell back to a sentinel value, by field.",
		},
		[]string{"field"},
	)

	registry.MustRegister(requests, requestDuration, extracted, failed, errorsTotal, fieldDefaults)

	return &Metrics{
		Registry:             registry,
		RequestsTotal:        requests,
		RequestDuration:      requestDuration,
		OrdersExtractedTotal: extracted,
		OrdersFailedTotal:    failed,
		ErrorsTotal:          errorsTotal,
		FieldDefaultsTotal:   fieldDefaults,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records a page fetch duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncExtracted increments the extracted orders counter.
func (m *Metrics) IncExtracted() {
	if m == nil {
		return
	}
	m.OrdersExtractedTotal.Inc()
}

// IncFailed increments the failed orders counter.
func (m *Metrics) IncFailed() {
	if m == nil {
		return
	}
	m.OrdersFailedTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncFieldDefault counts one field resolved to its sentinel.
func (m *Metrics) IncFieldDefault(field string) {
	if m == nil {
		return
	}
	m.FieldDefaultsTotal.WithLabelValues(field).Inc()
}
