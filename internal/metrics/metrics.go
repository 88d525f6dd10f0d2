// Package metrics exposes export and HTTP metrics in the Prometheus format.
//
// Metrics implements mindmap2pdf.Observer, so an Exporter created with
// WithObserver(m) records every finished job. Middleware records the HTTP
// requests of the export service, and Handler serves the /metrics endpoint.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
)

// Namespace prefixes every metric name.
const Namespace = "mindmap2pdf"

// Export results used as label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var _ mindmap2pdf.Observer = (*Metrics)(nil)

// StatsFunc reports the current pool usage.
type StatsFunc func() mindmap2pdf.PoolStats

// Metrics owns a registry with export, pool and HTTP collectors.
type Metrics struct {
	registry *prometheus.Registry

	exports  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	stages   *prometheus.HistogramVec
	failures *prometheus.CounterVec
	canvas   *prometheus.HistogramVec

	requests *prometheus.CounterVec
	latency  *prometheus.SummaryVec
}

// New creates the collectors on a fresh registry. When stats is non-nil the
// pool size and usage are exported as gauges read at scrape time.
func New(stats StatsFunc) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		exports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "exports_total",
			Help:      "Finished export jobs by strategy and result.",
		}, []string{"strategy", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "export_duration_seconds",
			Help:      "Wall time of export jobs.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"strategy", "result"}),
		stages: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 3, 10),
		}, []string{"stage"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "export_failures_total",
			Help:      "Failed export jobs by failing stage.",
		}, []string{"stage"}),
		canvas: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "canvas_side_pixels",
			Help:      "Canvas sides of successful exports.",
			Buckets:   []float64{500, 1000, 2000, 4000, 8000, 16000},
		}, []string{"side"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		latency: factory.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
		}, []string{"method", "route", "status_code"}),
	}

	if stats != nil {
		poolGauge(factory, "pool_size", "Maximum number of browsers.", func() float64 {
			return float64(stats().Size)
		})
		poolGauge(factory, "pool_browsers", "Running browsers.", func() float64 {
			return float64(stats().Live)
		})
		poolGauge(factory, "pool_in_use", "Browsers serving a job.", func() float64 {
			return float64(stats().InUse)
		})
	}
	return m
}

func poolGauge(factory promauto.Factory, name, help string, fn func() float64) {
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      name,
		Help:      help,
	}, fn)
}

// ObserveExport records one finished job.
func (m *Metrics) ObserveExport(r mindmap2pdf.Report) {
	strategy := string(r.Strategy)
	if strategy == "" {
		strategy = "unknown"
	}
	result := ResultSuccess
	if r.Err != nil {
		result = ResultFailure
		stage := string(r.Stage)
		if stage == "" {
			stage = "unknown"
		}
		m.failures.WithLabelValues(stage).Inc()
	}

	m.exports.WithLabelValues(strategy, result).Inc()
	m.duration.WithLabelValues(strategy, result).Observe(r.Duration.Seconds())
	for stage, d := range r.Stages {
		m.stages.WithLabelValues(string(stage)).Observe(d.Seconds())
	}
	if r.Err == nil && r.Canvas.Width > 0 {
		m.canvas.WithLabelValues("width").Observe(float64(r.Canvas.Width))
		m.canvas.WithLabelValues("height").Observe(float64(r.Canvas.Height))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records the count and latency of requests by chi route pattern.
// Unmatched requests are grouped under "unmatched" to bound label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		m.latency.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(r.Method, route, code).Inc()
	})
}
