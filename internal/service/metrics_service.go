package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. All methods are safe
// on a nil receiver so callers never have to guard instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	renderDuration  prometheus.Observer
	renders         prometheus.Counter
	exports         prometheus.Counter
	exportsBlocked  prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	notifyFailures  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	renderDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "letter_render_duration_seconds",
		Help:    "Duration of letter raster renders",
		Buckets: prometheus.DefBuckets,
	})

	renders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "letter_renders_total",
		Help: "Total letter previews rendered",
	})

	exports := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "letter_exports_total",
		Help: "Total PDF exports delivered",
	})

	exportsBlocked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "letter_exports_blocked_total",
		Help: "Total PDF exports refused by the approval gate",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	notifyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_failures_total",
		Help: "Total staff notifications that could not be enqueued",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, renderDuration, renders, exports, exportsBlocked, cacheHits, cacheMisses, notifyFailures, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		renderDuration:  renderDuration,
		renders:         renders,
		exports:         exports,
		exportsBlocked:  exportsBlocked,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		notifyFailures:  notifyFailures,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveRender records one preview render and its duration.
func (m *MetricsService) ObserveRender(duration time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(duration.Seconds())
	m.renders.Inc()
}

// IncExport counts a delivered PDF export.
func (m *MetricsService) IncExport() {
	if m == nil {
		return
	}
	m.exports.Inc()
}

// IncExportBlocked counts an export refused by the approval gate.
func (m *MetricsService) IncExportBlocked() {
	if m == nil {
		return
	}
	m.exportsBlocked.Inc()
}

// IncNotifyFailure counts a staff notification that could not be enqueued.
func (m *MetricsService) IncNotifyFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
