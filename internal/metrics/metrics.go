// Package metrics provides Prometheus metrics for the forecast pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ignite/beehiiv-forecast/internal/forecast"
)

const namespace = "beehiiv_forecast"

var (
	// APIRequests counts Beehiiv API calls by endpoint and HTTP status.
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of Beehiiv API requests",
		},
		[]string{"endpoint", "status"},
	)

	// APIRequestDuration measures Beehiiv API latency including retries.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Duration of Beehiiv API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// RecordsFetched counts records pulled from Beehiiv by kind.
	RecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Total number of records fetched from Beehiiv",
		},
		[]string{"kind"}, // publication, post, subscriber
	)

	// PipelineRuns counts forecast runs by result.
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of forecast runs",
		},
		[]string{"result"},
	)

	// PipelineDuration measures a full fetch and compute cycle.
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a full forecast run in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	CurrentSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_subscribers",
			Help:      "Active subscribers at the last run",
		},
	)

	ProjectedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projected_subscribers",
			Help:      "Subscribers projected at the deadline at the last run",
		},
	)

	DailyGrowth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_growth",
			Help:      "Average subscribers added per day over the growth window",
		},
	)

	// LastSuccess is the unix time of the last successful run.
	LastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful forecast run",
		},
	)
)

// RecordAPIRequest records a single Beehiiv API call.
func RecordAPIRequest(endpoint, status string, duration time.Duration) {
	APIRequests.WithLabelValues(endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordFetched adds n records of kind.
func RecordFetched(kind string, n int) {
	RecordsFetched.WithLabelValues(kind).Add(float64(n))
}

// RecordRun records a pipeline run outcome.
func RecordRun(result string, duration time.Duration) {
	PipelineRuns.WithLabelValues(result).Inc()
	PipelineDuration.Observe(duration.Seconds())
}

// ObserveSnapshot publishes the headline numbers of a snapshot as gauges.
func ObserveSnapshot(s *forecast.Snapshot) {
	if s == nil {
		return
	}
	CurrentSubscribers.Set(float64(s.CurrentMetrics.Subscribers))
	ProjectedSubscribers.Set(s.Projections.ProjectedSubscribers)
	DailyGrowth.Set(s.CurrentMetrics.DailyGrowth)
	LastSuccess.Set(float64(s.GeneratedAt.Unix()))
}
