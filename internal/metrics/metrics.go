package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreQueryDuration measures how long document-store calls take.
// The 'operation' label is "<verb>_<collection>", e.g. "list_cars".
var StoreQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "store_query_duration_seconds",
		Help:    "Duration of document store queries in seconds",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
	},
	[]string{"operation"},
)

// SearchSyncFailures counts index writes that failed after the store write
// had already committed. op is upsert, remove, configure or reindex.
var SearchSyncFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "search_sync_failures_total",
		Help: "Search index sync attempts that failed",
	},
	[]string{"op"},
)

// CacheRequests counts read-cache lookups by result (hit, miss, error).
var CacheRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Read cache lookups by result",
	},
	[]string{"result"},
)

// SearchFallbacks counts searches answered in-process instead of by the
// hosted index. reason is "disabled" or "error".
var SearchFallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "search_fallback_total",
		Help: "Searches served by the in-process fallback",
	},
	[]string{"reason"},
)

// ObserveStore records the elapsed time since start for operation.
func ObserveStore(operation string, start time.Time) {
	StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
