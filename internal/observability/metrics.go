// Package observability exposes the Prometheus instruments used across the service.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream weather feed calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_cache_results_total",
			Help: "Weather cache lookups by outcome.",
		},
		[]string{"kind", "outcome"},
	)

	cacheOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_duration_seconds",
			Help:    "Duration of cache store operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "result"},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_fallbacks_total",
			Help: "Synthesized fallback payloads served after upstream failure.",
		},
		[]string{"kind"},
	)

	invalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Cache invalidation events processed.",
		},
		[]string{"kind", "result"},
	)

	invalidationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_invalidation_duration_seconds",
			Help:    "Time spent handling one invalidation event.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"kind"},
	)

	prefetchTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prefetch_tasks_total",
			Help: "Prefetch tasks settled by outcome.",
		},
		[]string{"outcome"},
	)

	prefetchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prefetch_queue_depth",
			Help: "Tasks currently queued in the prefetch scheduler.",
		},
	)

	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layer_transitions_total",
			Help: "Resolution crossfade transitions by disposition.",
		},
		[]string{"disposition"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
}

func IncCacheHit(kind string) {
	cacheResults.WithLabelValues(kind, "hit").Inc()
}

func IncCacheMiss(kind string) {
	cacheResults.WithLabelValues(kind, "miss").Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpDurationSeconds.WithLabelValues(op, result).Observe(durationSeconds)
}

func IncFallback(kind string) {
	fallbacksTotal.WithLabelValues(kind).Inc()
}

func ObserveInvalidation(kind string, dur time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	invalidationsTotal.WithLabelValues(kind, result).Inc()
	invalidationDurationSeconds.WithLabelValues(kind).Observe(dur.Seconds())
}

func IncPrefetchTask(outcome string) {
	prefetchTasksTotal.WithLabelValues(outcome).Inc()
}

func SetPrefetchQueueDepth(n int) {
	prefetchQueueDepth.Set(float64(n))
}

func IncTransition(disposition string) {
	transitionsTotal.WithLabelValues(disposition).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
