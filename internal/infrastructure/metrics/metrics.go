package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the application collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storeOpsTotal   *prometheus.CounterVec
	storeOpDuration *prometheus.HistogramVec
	upsertsTotal    *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		storeOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamaster_store_operations_total",
				Help: "Total number of storage backend operations",
			},
			[]string{"backend", "op", "result"},
		),
		storeOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "teamaster_store_operation_duration_seconds",
				Help:    "Storage backend operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "op"},
		),
		upsertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamaster_tea_upserts_total",
				Help: "Total number of tea upserts by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.Registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.storeOpsTotal,
		m.storeOpDuration,
		m.upsertsTotal,
	)

	return m
}

// ObserveHTTPRequest records one served request
func (m *Metrics) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveStoreOperation records one storage backend call
func (m *Metrics) ObserveStoreOperation(backend, op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOpsTotal.WithLabelValues(backend, op, result).Inc()
	m.storeOpDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
}

// ObserveUpsert records an upsert outcome: created, updated or a failure kind
func (m *Metrics) ObserveUpsert(outcome string) {
	if m == nil {
		return
	}
	m.upsertsTotal.WithLabelValues(outcome).Inc()
}
