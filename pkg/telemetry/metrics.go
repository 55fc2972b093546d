// Package telemetry provides Prometheus metrics and OpenTelemetry
// trace bootstrap for the promptguard service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	scansTotal      *prometheus.CounterVec
	scanDuration    *prometheus.HistogramVec
	redactionsTotal *prometheus.CounterVec
	vaultDrainSize  prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptguard_scans_total",
				Help: "Total number of scan operations by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),

		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "promptguard_scan_duration_seconds",
				Help:    "Scan latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		redactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptguard_redactions_total",
				Help: "Total number of redactions applied by entity category",
			},
			[]string{"category"},
		),

		vaultDrainSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "promptguard_vault_drain_entries",
				Help:    "Number of vault entries returned per drained response",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptguard_http_requests_total",
				Help: "Total number of HTTP requests by path, method and status",
			},
			[]string{"path", "method", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "promptguard_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.scansTotal,
		m.scanDuration,
		m.redactionsTotal,
		m.vaultDrainSize,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)

	return m
}

// RecordScan records one scan operation.
func (m *Metrics) RecordScan(endpoint, outcome string, duration time.Duration) {
	m.scansTotal.WithLabelValues(endpoint, outcome).Inc()
	m.scanDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordRedactions adds per-category redaction counts from one scan.
func (m *Metrics) RecordRedactions(findings map[string]int) {
	for category, n := range findings {
		m.redactionsTotal.WithLabelValues(category).Add(float64(n))
	}
}

// RecordVaultDrain records the size of a drained vault snapshot.
func (m *Metrics) RecordVaultDrain(entries int) {
	m.vaultDrainSize.Observe(float64(entries))
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(path, method string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// Handler returns the scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
