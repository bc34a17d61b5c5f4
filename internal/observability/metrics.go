package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// snapshot engine.
type Metrics struct {
	// Feed fetch metrics.
	FeedFetches       *prometheus.CounterVec   // labels: source, outcome={success,error}
	FeedFetchDuration *prometheus.HistogramVec // labels: source
	PayloadCache      *prometheus.CounterVec   // labels: source, result={hit,miss}

	// Normalization and filtering metrics.
	FeedRecords *prometheus.CounterVec // labels: source, bucket={fetched,malformed,invalid_coordinates,duplicates,outside_window,located,in_aoi}

	// Snapshot metrics.
	SnapshotsBuilt   *prometheus.CounterVec // labels: outcome={success,error}
	SnapshotDuration prometheus.Histogram
	SnapshotEvents   prometheus.Histogram
	EngineReady      prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,not_found,error}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeDuration prometheus.Histogram

	// Event publishing metrics.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_intel",
			Name:      "feed_fetch_total",
			Help:      "Feed downloads by source and outcome.",
		}, []string{"source", "outcome"}),
		FeedFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "disaster_intel",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Feed download duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		PayloadCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_intel",
			Name:      "feed_payload_cache_total",
			Help:      "Feed payload cache lookups by source and result.",
		}, []string{"source", "result"}),
		FeedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_intel",
			Name:      "feed_records_total",
			Help:      "Normalized feed records by source and counting bucket.",
		}, []string{"source", "bucket"}),
		SnapshotsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_intel",
			Name:      "snapshots_built_total",
			Help:      "Snapshot builds by outcome.",
		}, []string{"outcome"}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_intel",
			Name:      "snapshot_build_duration_seconds",
			Help:      "Duration of a complete fetch-filter-aggregate cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SnapshotEvents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_intel",
			Name:      "snapshot_events",
			Help:      "Events inside the area of interest per snapshot.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		EngineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disaster_intel",
			Name:      "engine_ready",
			Help:      "1 once the engine has completed its warm-up fetch, 0 before.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_intel",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_intel",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_intel",
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_intel",
			Name:      "events_published_total",
			Help:      "Total in-AOI events written to the event topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_intel",
			Name:      "publish_errors_total",
			Help:      "Total event publishing failures.",
		}),
	}

	prometheus.MustRegister(
		m.FeedFetches,
		m.FeedFetchDuration,
		m.PayloadCache,
		m.FeedRecords,
		m.SnapshotsBuilt,
		m.SnapshotDuration,
		m.SnapshotEvents,
		m.EngineReady,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
		m.EventsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with no registration to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FeedFetches:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "disaster_intel", Name: "feed_fetch_total"}, []string{"source", "outcome"}),
		FeedFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "disaster_intel", Name: "feed_fetch_duration_seconds"}, []string{"source"}),
		PayloadCache:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "disaster_intel", Name: "feed_payload_cache_total"}, []string{"source", "result"}),
		FeedRecords:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "disaster_intel", Name: "feed_records_total"}, []string{"source", "bucket"}),
		SnapshotsBuilt:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "disaster_intel", Name: "snapshots_built_total"}, []string{"outcome"}),
		SnapshotDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "disaster_intel", Name: "snapshot_build_duration_seconds"}),
		SnapshotEvents:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "disaster_intel", Name: "snapshot_events"}),
		EngineReady:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "disaster_intel", Name: "engine_ready"}),
		GeocodeRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "disaster_intel", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "disaster_intel", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "disaster_intel", Name: "geocode_api_duration_seconds"}),
		EventsPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "disaster_intel", Name: "events_published_total"}),
		PublishErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "disaster_intel", Name: "publish_errors_total"}),
	}
}

// RecordSourceCounts pushes one source's per-cycle counts onto the record
// counters. Prometheus values are cumulative across snapshots; the per-cycle
// numbers live in the snapshot itself.
func (m *Metrics) RecordSourceCounts(source domain.Source, c domain.SourceCounts) {
	s := string(source)
	m.FeedRecords.WithLabelValues(s, "fetched").Add(float64(c.Fetched))
	m.FeedRecords.WithLabelValues(s, "malformed").Add(float64(c.Malformed))
	m.FeedRecords.WithLabelValues(s, "invalid_coordinates").Add(float64(c.InvalidCoords))
	m.FeedRecords.WithLabelValues(s, "duplicates").Add(float64(c.Duplicates))
	m.FeedRecords.WithLabelValues(s, "outside_window").Add(float64(c.OutsideWindow))
	m.FeedRecords.WithLabelValues(s, "located").Add(float64(c.Located))
	m.FeedRecords.WithLabelValues(s, "in_aoi").Add(float64(c.InAOI))
}
