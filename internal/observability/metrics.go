package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postsmanager_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// UpstreamRequestLatency records remote API latency by operation and status class.
	UpstreamRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postsmanager_upstream_request_latency_seconds",
		Help:    "Remote posts API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	// UpstreamErrors counts failed remote API calls by operation.
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postsmanager_upstream_errors_total",
		Help: "Total number of failed remote posts API calls",
	}, []string{"operation"})

	// CacheLookups counts cached-read lookups by scope and result (hit/miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postsmanager_cache_lookups_total",
		Help: "Cached read lookups by scope and result",
	}, []string{"scope", "result"})

	// CacheInvalidations counts invalidated keys by scope.
	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postsmanager_cache_invalidations_total",
		Help: "Cached read keys invalidated by mutations",
	}, []string{"scope"})

	// StaleResultsDiscarded counts fetch results dropped because a newer request superseded them.
	StaleResultsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postsmanager_stale_results_discarded_total",
		Help: "Fetch results discarded by last-issued-wins resolution",
	}, []string{"mode"})

	// ActiveSessions is the gauge of live page sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postsmanager_active_sessions",
		Help: "Number of live page sessions",
	})
)

// UpstreamMetrics records latency of remote API calls.
type UpstreamMetrics struct{}

// NewUpstreamMetrics returns a new UpstreamMetrics instance.
func NewUpstreamMetrics() *UpstreamMetrics {
	return &UpstreamMetrics{}
}

// ObserveCall records the latency of one upstream call.
func (*UpstreamMetrics) ObserveCall(operation string, status int, start time.Time) {
	UpstreamRequestLatency.WithLabelValues(operation, statusClass(status)).Observe(time.Since(start).Seconds())
	if status == 0 || status >= 500 {
		UpstreamErrors.WithLabelValues(operation).Inc()
	}
}

// TrackCall returns a function that records call latency when called (e.g. defer).
func (m *UpstreamMetrics) TrackCall(operation string) func(status int) {
	start := time.Now()
	return func(status int) {
		m.ObserveCall(operation, status, start)
	}
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
