// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	MatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_runs_total",
			Help: "Total number of lender matching runs",
		},
		[]string{"outcome"},
	)

	MatchLendersEvaluated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_lenders_evaluated",
			Help:    "Lender population size per matching run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	MatchResultsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_results_returned",
			Help:    "Number of lenders surviving elimination per run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	MatchTopScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_top_score",
			Help:    "Best match score per run",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)
