// Package metrics exposes Prometheus collectors for estimates, schema
// mismatches and model loading.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	Estimates        *prometheus.CounterVec
	EstimateDuration prometheus.Histogram
	SchemaMismatch   *prometheus.CounterVec
	ModelLoads       *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

// New registers all collectors in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estimator",
			Name:      "estimates_total",
			Help:      "Price estimates by outcome.",
		}, []string{"outcome"}),
		EstimateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "estimator",
			Name:      "estimate_duration_seconds",
			Help:      "Time spent producing an estimate, model call included.",
			Buckets:   prometheus.DefBuckets,
		}),
		SchemaMismatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estimator",
			Name:      "schema_mismatch_columns_total",
			Help:      "Columns zero-filled (missing) or dropped (extra) while aligning features with the model schema.",
		}, []string{"kind"}),
		ModelLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estimator",
			Name:      "model_loads_total",
			Help:      "Model provider load attempts by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estimator",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.Estimates,
		m.EstimateDuration,
		m.SchemaMismatch,
		m.ModelLoads,
		m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEstimate records one estimate attempt.
func (m *Metrics) ObserveEstimate(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Estimates.WithLabelValues(outcome).Inc()
	m.EstimateDuration.Observe(took.Seconds())
}

// ObserveSchemaMismatch counts zero-filled and dropped columns.
func (m *Metrics) ObserveSchemaMismatch(missing, extra int) {
	if m == nil {
		return
	}
	if missing > 0 {
		m.SchemaMismatch.WithLabelValues("missing").Add(float64(missing))
	}
	if extra > 0 {
		m.SchemaMismatch.WithLabelValues("extra").Add(float64(extra))
	}
}

// ObserveModelLoad records one provider load attempt.
func (m *Metrics) ObserveModelLoad(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ModelLoads.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.ModelLoads.WithLabelValues(OutcomeSuccess).Inc()
}

// Middleware counts requests by matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
