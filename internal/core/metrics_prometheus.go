package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "heritagecore"

// PrometheusMetricsRecorder exports operation counters and latency
// histograms on its own registry.
type PrometheusMetricsRecorder struct {
	registry *prometheus.Registry
	total    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers the service collectors, plus the Go
// runtime and process collectors, on a fresh registry.
func NewPrometheusMetricsRecorder() (*PrometheusMetricsRecorder, error) {
	registry := prometheus.NewRegistry()
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "operations_total",
		Help:      "Service operations by name and result.",
	}, []string{"operation", "result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "operation_duration_seconds",
		Help:      "Service operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	for _, c := range []prometheus.Collector{
		total,
		latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return &PrometheusMetricsRecorder{registry: registry, total: total, latency: latency}, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	r.total.WithLabelValues(operation, result).Inc()
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// Registry exposes the registry for tests and additional collectors.
func (r *PrometheusMetricsRecorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusMetricsRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
