package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightd_fetches_total",
			Help: "Page fetches by outcome (ok, error)",
		},
		[]string{"outcome"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insightd_fetch_duration_seconds",
			Help:    "Duration of single page fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightd_searches_total",
			Help: "Search API calls by outcome (ok, error)",
		},
		[]string{"outcome"},
	)

	TransformFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightd_transform_failures_total",
			Help: "Links skipped because a transform stage failed",
		},
		[]string{"stage"},
	)

	InsightActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightd_insight_actions_total",
			Help: "Upsert decisions per link (create, refresh, skip, duplicate)",
		},
		[]string{"action"},
	)

	ClassificationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insightd_classification_fallbacks_total",
			Help: "Classifications that resolved to the default category",
		},
	)

	KeywordRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightd_keyword_runs_total",
			Help: "Keyword collect runs by status (success, error)",
		},
		[]string{"status"},
	)

	CollectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insightd_collect_duration_seconds",
			Help:    "Duration of a single keyword collect run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	StructuredUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightd_structured_upserts_total",
			Help: "Structured info rows written per category",
		},
		[]string{"category"},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightd_job_runs_total",
			Help: "Scheduled job runs by job name and outcome",
		},
		[]string{"job", "outcome"},
	)
)

// Outcome maps an error to the ok/error label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveFetch records a single page fetch.
func ObserveFetch(start time.Time, err error) {
	FetchesTotal.WithLabelValues(Outcome(err)).Inc()
	FetchDuration.Observe(time.Since(start).Seconds())
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
