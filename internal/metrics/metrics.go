package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Build information metric
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "carbontracker_build_info",
		Help: "Build information of the carbontracker service",
	}, []string{"version", "commit", "date"})

	// World Bank API client metrics
	SourceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carbontracker_worldbank_requests_total",
		Help: "Total number of World Bank API requests",
	}, []string{"operation", "status"})

	SourceRequestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carbontracker_worldbank_request_errors_total",
		Help: "Total number of failed World Bank API requests",
	}, []string{"operation"})

	// Emissions table builder metrics
	TableBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carbontracker_table_builds_total",
		Help: "Total number of emissions table builds",
	}, []string{"status"})

	TableBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "carbontracker_table_build_duration_seconds",
		Help: "Time spent fetching and normalizing the emissions table",
	})

	TableRowsCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "carbontracker_table_rows_count",
		Help: "Number of rows in the most recently built emissions table",
	})

	TableCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carbontracker_table_cache_hits_total",
		Help: "Total number of emissions table cache hits",
	})

	TableCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carbontracker_table_cache_misses_total",
		Help: "Total number of emissions table cache misses",
	})
)
