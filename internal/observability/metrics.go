package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the tracker.
type Metrics struct {
	CollectionsTotal prometheus.Counter
	LocationUpdates  *prometheus.CounterVec // labels: outcome={success,fetch_error,parse_error,store_error}
	DaysMerged       prometheus.Counter
	DaysRejected     prometheus.Counter
	RecordsExpired   prometheus.Counter
	FetchRetries     prometheus.Counter

	CollectionDuration   prometheus.Histogram
	CollectorRunning     prometheus.Gauge
	LastSuccessTimestamp prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all tracker metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CollectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bom_tracker",
			Name:      "collections_total",
			Help:      "Total collection runs started.",
		}),
		LocationUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bom_tracker",
			Name:      "location_updates_total",
			Help:      "Per-location update attempts by outcome.",
		}, []string{"outcome"}),
		DaysMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bom_tracker",
			Name:      "days_merged_total",
			Help:      "Total forecast days merged into location records.",
		}),
		DaysRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bom_tracker",
			Name:      "days_rejected_total",
			Help:      "Total forecast days rejected as stale or malformed.",
		}),
		RecordsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bom_tracker",
			Name:      "records_expired_total",
			Help:      "Total forecast dates pruned past the retention window.",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bom_tracker",
			Name:      "fetch_retries_total",
			Help:      "Total product fetch attempts that were retried.",
		}),
		CollectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bom_tracker",
			Name:      "collection_duration_seconds",
			Help:      "Duration of a complete collection run across all locations.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		CollectorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bom_tracker",
			Name:      "collector_running",
			Help:      "1 while a collection run is in progress, 0 otherwise.",
		}),
		LastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bom_tracker",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fully successful collection run.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bom_tracker",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bom_tracker",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bom_tracker",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.CollectionsTotal,
		m.LocationUpdates,
		m.DaysMerged,
		m.DaysRejected,
		m.RecordsExpired,
		m.FetchRetries,
		m.CollectionDuration,
		m.CollectorRunning,
		m.LastSuccessTimestamp,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CollectionsTotal:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bom_tracker", Name: "collections_total"}),
		LocationUpdates:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bom_tracker", Name: "location_updates_total"}, []string{"outcome"}),
		DaysMerged:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bom_tracker", Name: "days_merged_total"}),
		DaysRejected:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bom_tracker", Name: "days_rejected_total"}),
		RecordsExpired:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bom_tracker", Name: "records_expired_total"}),
		FetchRetries:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bom_tracker", Name: "fetch_retries_total"}),
		CollectionDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bom_tracker", Name: "collection_duration_seconds"}),
		CollectorRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bom_tracker", Name: "collector_running"}),
		LastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bom_tracker", Name: "last_success_timestamp_seconds"}),
		GeocodeRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bom_tracker", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bom_tracker", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bom_tracker", Name: "geocode_api_duration_seconds"}),
	}
}
