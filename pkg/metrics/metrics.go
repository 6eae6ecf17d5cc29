package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates Prometheus instrumentation for the sync core.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	snapshotWrites   prometheus.Histogram
	snapshotFailures prometheus.Counter
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	syncFallbacks    prometheus.Counter
	pendingOps       prometheus.Gauge
	busNotifications prometheus.Counter
	observerPanics   prometheus.Counter
}

// New registers the core collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	snapshotWrites := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapshot_write_seconds",
		Help:    "Latency of persistent cache snapshot writes",
		Buckets: prometheus.DefBuckets,
	})

	snapshotFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_failures_total",
		Help: "Total failed snapshot writes or restores",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total snapshot restores that found a payload",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total snapshot restores that found nothing usable",
	})

	syncFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_fallbacks_total",
		Help: "Total reads or writes served from the local cache because the remote was unavailable",
	})

	pendingOps := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sync_pending_ops",
		Help: "Locally applied writes awaiting remote reconciliation",
	})

	busNotifications := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bus_notifications_total",
		Help: "Total subscription bus fan-outs",
	})

	observerPanics := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bus_observer_panics_total",
		Help: "Total observer callbacks recovered from panic",
	})

	registry.MustRegister(
		snapshotWrites, snapshotFailures,
		cacheHits, cacheMisses,
		syncFallbacks, pendingOps,
		busNotifications, observerPanics,
	)

	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		snapshotWrites:   snapshotWrites,
		snapshotFailures: snapshotFailures,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		syncFallbacks:    syncFallbacks,
		pendingOps:       pendingOps,
		busNotifications: busNotifications,
		observerPanics:   observerPanics,
	}
}

// Handler exposes the registry for embedding hosts that scrape metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return m.handler
}

// ObserveSnapshotWrite records snapshot persistence latency.
func (m *Metrics) ObserveSnapshotWrite(d time.Duration) {
	if m == nil {
		return
	}
	m.snapshotWrites.Observe(d.Seconds())
}

// RecordSnapshotFailure counts a failed backup or restore.
func (m *Metrics) RecordSnapshotFailure() {
	if m == nil {
		return
	}
	m.snapshotFailures.Inc()
}

// RecordCacheRestore counts a restore by outcome.
func (m *Metrics) RecordCacheRestore(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

// RecordSyncFallback counts an operation served locally.
func (m *Metrics) RecordSyncFallback() {
	if m == nil {
		return
	}
	m.syncFallbacks.Inc()
}

// SetPendingOps tracks the reconciliation backlog size.
func (m *Metrics) SetPendingOps(n int) {
	if m == nil {
		return
	}
	m.pendingOps.Set(float64(n))
}

// RecordNotification counts a bus fan-out.
func (m *Metrics) RecordNotification() {
	if m == nil {
		return
	}
	m.busNotifications.Inc()
}

// RecordObserverPanic counts a recovered observer panic.
func (m *Metrics) RecordObserverPanic() {
	if m == nil {
		return
	}
	m.observerPanics.Inc()
}
