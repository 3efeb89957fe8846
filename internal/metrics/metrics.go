// Package metrics exposes Prometheus collectors for ledger loads and the
// HTTP service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	fetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerview",
			Subsystem: "fetch",
			Name:      "failures_total",
			Help:      "Upstream fetches that failed and were replaced by an empty default.",
		},
		[]string{"kind"},
	)

	entriesFetched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledgerview",
			Subsystem: "fetch",
			Name:      "entries_total",
			Help:      "Journal entries fetched from the source.",
		},
	)

	staleDiscards = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledgerview",
			Subsystem: "ledger",
			Name:      "stale_discards_total",
			Help:      "Ledger loads dropped because a newer request superseded them.",
		},
	)

	loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledgerview",
			Subsystem: "ledger",
			Name:      "load_duration_seconds",
			Help:      "Duration of full ledger loads.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"scope"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerview",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledgerview",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		fetchFailures,
		entriesFetched,
		staleDiscards,
		loadDuration,
		httpRequests,
		httpDuration,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordFetchFailure counts a failed upstream call. kind is one of
// "entries", "opening_balance" or "accounts".
func RecordFetchFailure(kind string) {
	fetchFailures.WithLabelValues(kind).Inc()
}

// RecordEntriesFetched counts fetched entries.
func RecordEntriesFetched(n int) {
	entriesFetched.Add(float64(n))
}

// RecordStaleDiscard counts a superseded ledger load.
func RecordStaleDiscard() {
	staleDiscards.Inc()
}

// ObserveLoad records how long a ledger load took.
func ObserveLoad(scope string, d time.Duration) {
	loadDuration.WithLabelValues(scope).Observe(d.Seconds())
}

// ObserveHTTP records one served request. route should be the route
// pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
