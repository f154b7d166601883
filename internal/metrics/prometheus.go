package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the standings ingestion service

var (
	// API Call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_standings_api_calls_total",
			Help: "Total number of MLB Stats API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mlb_standings_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mlb_standings_cache_hits_total",
			Help: "Total number of fetch cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mlb_standings_cache_misses_total",
			Help: "Total number of fetch cache misses",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mlb_standings_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Timeline metrics
	DaysFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_standings_days_fetched_total",
			Help: "Total number of days fetched from the provider",
		},
		[]string{"phase"},
	)

	TimelineDays = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mlb_standings_timeline_days",
			Help: "Number of days in the season timeline",
		},
		[]string{"year"},
	)

	RepairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_standings_repairs_total",
			Help: "Total number of data repairs applied by the reconciler",
		},
		[]string{"kind"},
	)

	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_standings_validations_total",
			Help: "Total number of validation passes by outcome",
		},
		[]string{"result"},
	)

	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_standings_runs_total",
			Help: "Total number of ingestion runs",
		},
		[]string{"mode", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mlb_standings_run_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_standings_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mlb_standings_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mlb_standings_last_successful_run_timestamp",
			Help: "Timestamp of last run that persisted a validated timeline",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordDayFetched records a provider fetch made while building the timeline
func RecordDayFetched(phase string) {
	DaysFetchedTotal.WithLabelValues(phase).Inc()
}

// RecordTimelineDays sets the timeline size for a season
func RecordTimelineDays(year string, days int) {
	TimelineDays.WithLabelValues(year).Set(float64(days))
}

// RecordRepair records a reconciler repair
func RecordRepair(kind string) {
	RepairsTotal.WithLabelValues(kind).Inc()
}

// RecordValidation records a validation outcome
func RecordValidation(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	ValidationsTotal.WithLabelValues(result).Inc()
}

// RecordRun records an ingestion run
func RecordRun(mode, status string, duration float64) {
	RunsTotal.WithLabelValues(mode, status).Inc()
	RunDuration.WithLabelValues(mode).Observe(duration)

	if status == "success" {
		LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
