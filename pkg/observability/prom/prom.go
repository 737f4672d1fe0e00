// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/observability"
)

// Hooks records batch, cache and HTTP events as Prometheus metrics.
type Hooks struct {
	BatchesStarted  prometheus.Counter
	BatchesRendered *prometheus.CounterVec
	BatchDuration   prometheus.Histogram
	StructuresDrawn prometheus.Counter
	EarlyStops      prometheus.Counter
	BatchesAborted  *prometheus.CounterVec
	CacheEvents     *prometheus.CounterVec
	CacheBytes      prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	HTTPInFlight    prometheus.Gauge
}

// NewHooks registers the metrics with reg.
func NewHooks(reg prometheus.Registerer) *Hooks {
	f := promauto.With(reg)
	return &Hooks{
		BatchesStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "molgrid_batches_started_total",
			Help: "Batches opened by the record accumulator",
		}),
		BatchesRendered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "molgrid_batches_rendered_total",
			Help: "Batches handed to the renderer, by result",
		}, []string{"result"}),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "molgrid_batch_render_seconds",
			Help:    "Time spent rendering one batch",
			Buckets: prometheus.DefBuckets,
		}),
		StructuresDrawn: f.NewCounter(prometheus.CounterOpts{
			Name: "molgrid_structures_rendered_total",
			Help: "Structures in successfully rendered batches",
		}),
		EarlyStops: f.NewCounter(prometheus.CounterOpts{
			Name: "molgrid_early_stops_total",
			Help: "Batches that reached their maximum size before the input ended",
		}),
		BatchesAborted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "molgrid_batches_aborted_total",
			Help: "Batches discarded before rendering, by error code",
		}, []string{"code"}),
		CacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "molgrid_cache_events_total",
			Help: "Cache lookups and writes",
		}, []string{"key_type", "event"}),
		CacheBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "molgrid_cache_written_bytes_total",
			Help: "Bytes written to the cache",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "molgrid_http_requests_total",
			Help: "HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "molgrid_http_request_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "molgrid_http_in_flight",
			Help: "HTTP requests currently being served",
		}),
	}
}

// Register installs h as the global batch, cache and HTTP hooks.
func (h *Hooks) Register() { observability.Register(h) }

func (h *Hooks) OnBatchStart(context.Context, string) { h.BatchesStarted.Inc() }

func (h *Hooks) OnBatchComplete(_ context.Context, _ string, count int, d time.Duration, err error) {
	h.BatchDuration.Observe(d.Seconds())
	if err != nil {
		h.BatchesRendered.WithLabelValues("error").Inc()
		return
	}
	h.BatchesRendered.WithLabelValues("ok").Inc()
	h.StructuresDrawn.Add(float64(count))
}

func (h *Hooks) OnEarlyStop(context.Context, string, int) { h.EarlyStops.Inc() }

func (h *Hooks) OnAbort(_ context.Context, _ string, _ int, err error) {
	code := string(errors.GetCode(err))
	if code == "" {
		code = "unknown"
	}
	h.BatchesAborted.WithLabelValues(code).Inc()
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.CacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.CacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.CacheEvents.WithLabelValues(keyType, "set").Inc()
	h.CacheBytes.Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string) { h.HTTPInFlight.Inc() }

func (h *Hooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.HTTPInFlight.Dec()
	h.HTTPRequests.WithLabelValues(method, path, statusClass(status)).Inc()
	h.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	}
	return "2xx"
}

var (
	_ observability.BatchHooks = (*Hooks)(nil)
	_ observability.CacheHooks = (*Hooks)(nil)
	_ observability.HTTPHooks  = (*Hooks)(nil)
)
