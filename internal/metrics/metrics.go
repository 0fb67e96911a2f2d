// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GradeSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grade_submissions_total",
			Help: "Total number of grade submissions",
		},
		[]string{"team", "group"},
	)

	GradingMinutes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grading_minutes",
			Help:    "Distribution of per-paper grading time in minutes",
			Buckets: prometheus.LinearBuckets(0, 5, 12),
		},
		[]string{"team"},
	)

	RosterImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_imports_total",
			Help: "Total number of roster rows imported",
		},
		[]string{"outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
