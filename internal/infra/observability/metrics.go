package observability

import (
	"time"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the storefront BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	hapticEvents    *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_upstream_errors_total",
				Help: "Total errors from the upstream store API.",
			},
			[]string{"endpoint"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_optimistic_mutations_total",
				Help: "Optimistic mutations by collection and outcome.",
			},
			[]string{"collection", "outcome"},
		),
		hapticEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_haptic_events_total",
				Help: "Haptic feedback events emitted to the app.",
			},
			[]string{"style"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_sessions_active",
				Help: "Sessions currently held in memory.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrUpstreamError increments the upstream error counter.
func (m *Metrics) IncrUpstreamError(endpoint string) {
	m.upstreamErrors.WithLabelValues(endpoint).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrMutation records how an optimistic mutation resolved.
func (m *Metrics) IncrMutation(collection, outcome string) {
	m.mutations.WithLabelValues(collection, outcome).Inc()
}

// IncrHaptic counts an emitted feedback event.
func (m *Metrics) IncrHaptic(style string) {
	m.hapticEvents.WithLabelValues(style).Inc()
}

// SetActiveSessions updates the in-memory session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// GetSyncSnapshot returns a snapshot of optimistic-sync metrics suitable for
// the GET /v1/metrics/sync endpoint.
func (m *Metrics) GetSyncSnapshot() *domain.SyncMetrics {
	collections := []string{"cart", "cart_combos", "wishlist"}

	var committed, rolledBack, stale float64
	for _, c := range collections {
		committed += getCounterValue(m.mutations, c, "committed") +
			getCounterValue(m.mutations, c, "committed_stale")
		rolledBack += getCounterValue(m.mutations, c, "rolled_back")
		stale += getCounterValue(m.mutations, c, "stale_failure")
	}

	total := committed + rolledBack + stale
	rollbackRate := float64(0)
	if total > 0 {
		rollbackRate = rolledBack / total
	}

	cacheHits := getCounterValue(m.cacheHits, "catalog") + getCounterValue(m.cacheHits, "order")
	cacheMisses := getCounterValue(m.cacheMisses, "catalog") + getCounterValue(m.cacheMisses, "order")
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.SyncMetrics{
		MutationsTotal: int64(total),
		Committed:      int64(committed),
		RolledBack:     int64(rolledBack),
		StaleFailures:  int64(stale),
		RollbackRate:   rollbackRate,
		CacheHitRate:   cacheHitRate,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
