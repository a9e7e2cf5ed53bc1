// Package metrics provides Prometheus metrics for bulk user runs.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	apiRetriesTotal    *prometheus.CounterVec
	outcomesTotal      *prometheus.CounterVec
	identifiersTotal   prometheus.Gauge
}

var globalMetrics *Metrics

// NewMetrics creates and registers Prometheus metrics.
// Registration with promauto happens once per process.
func NewMetrics() *Metrics {
	if globalMetrics != nil {
		return globalMetrics
	}

	globalMetrics = &Metrics{
		apiRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frontegg_bulk_api_requests_total",
				Help: "Total number of Frontegg API requests",
			},
			[]string{"method", "status"},
		),
		apiRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "frontegg_bulk_api_request_duration_seconds",
				Help:    "Frontegg API request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		apiRetriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frontegg_bulk_api_retries_total",
				Help: "Total number of retried API calls",
			},
			[]string{"reason"},
		),
		outcomesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frontegg_bulk_outcomes_total",
				Help: "Total number of per-identifier outcomes",
			},
			[]string{"action", "status"},
		),
		identifiersTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "frontegg_bulk_identifiers_total",
				Help: "Number of identifiers in the current run",
			},
		),
	}

	return globalMetrics
}

// RecordAPIRequest records one completed API exchange.
// Status 0 marks a request that never produced an HTTP response.
func (m *Metrics) RecordAPIRequest(method string, statusCode int, duration time.Duration) {
	m.apiRequestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	m.apiRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRetry records a retried call by reason (rate_limited or network).
func (m *Metrics) RecordRetry(reason string) {
	m.apiRetriesTotal.WithLabelValues(reason).Inc()
}

// RecordOutcome records the final status of one identifier.
func (m *Metrics) RecordOutcome(action, status string) {
	m.outcomesTotal.WithLabelValues(action, status).Inc()
}

// SetIdentifiersTotal sets the size of the configured identifier list.
func (m *Metrics) SetIdentifiersTotal(n int) {
	m.identifiersTotal.Set(float64(n))
}

// MetricsServer provides a separate HTTP server for Prometheus metrics.
// Useful for watching long rate-limited runs; disabled by default.
type MetricsServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewMetricsServer creates a new metrics server.
func NewMetricsServer(port int, path string, logger *zap.Logger) *MetricsServer {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler()).Methods(http.MethodGet)

	return &MetricsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		},
		logger: logger,
	}
}

// Start starts the metrics server.
func (ms *MetricsServer) Start() error {
	ms.logger.Info("starting metrics server", zap.String("addr", ms.server.Addr))
	return ms.server.ListenAndServe()
}

// Shutdown gracefully shuts down the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}
