// Package metrics exposes Prometheus counters for ingestion, resolution and
// invocation. A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Collector holds the process metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	resolutionsTotal   *prometheus.CounterVec
	resolveDuration    prometheus.Histogram
	ingestionsTotal    *prometheus.CounterVec
	toolsRegistered    prometheus.Gauge
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec

	log *zap.Logger
}

// NewCollector creates a collector whose metrics are prefixed by namespace.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		invocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total number of API operation invocations",
			},
			[]string{"tool", "status"},
		),
		invocationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "API operation invocation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		resolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intent_resolutions_total",
				Help:      "Total number of query resolutions by outcome",
			},
			[]string{"outcome"},
		),
		resolveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "intent_resolution_duration_seconds",
				Help:      "Query resolution duration in seconds",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		ingestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestions_total",
				Help:      "Total number of API document ingestions",
			},
			[]string{"status"},
		),
		toolsRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tools_registered",
				Help:      "Number of tools currently registered",
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		log: logger.Named("metrics"),
	}
}

// RecordInvocation records one invocation. status is the HTTP status code,
// or 0 when no response was received.
func (c *Collector) RecordInvocation(tool string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.invocationsTotal.WithLabelValues(tool, label).Inc()
	c.invocationDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordResolution records a resolution outcome, "ok" or a failure kind.
func (c *Collector) RecordResolution(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.resolutionsTotal.WithLabelValues(outcome).Inc()
	c.resolveDuration.Observe(duration.Seconds())
}

// RecordIngestion records an ingestion and the resulting tool count.
func (c *Collector) RecordIngestion(err error, tools int) {
	if c == nil {
		return
	}
	if err != nil {
		c.ingestionsTotal.WithLabelValues("error").Inc()
		return
	}
	c.ingestionsTotal.WithLabelValues("ok").Inc()
	c.toolsRegistered.Set(float64(tools))
}

// RecordHTTPRequest records one request served by the HTTP surface.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(c.log),
	})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// NewFromConfig returns nil when metrics are disabled.
func NewFromConfig(cfg config.MetricsConfig) *Collector {
	if !cfg.Enabled {
		return nil
	}
	return NewCollector(cfg.Namespace)
}

// Module provides the *Collector, nil when disabled.
var Module = fx.Module("metrics",
	fx.Provide(func(cfg *config.Config) *Collector {
		return NewFromConfig(cfg.Metrics)
	}),
)
