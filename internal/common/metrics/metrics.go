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

	CreditScoresCalculated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_scores_calculated_total",
			Help: "Credit scores calculated, by rating and entry point",
		},
		[]string{"rating", "source"},
	)

	CreditScoreValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credit_score_value",
			Help:    "Distribution of final credit scores",
			Buckets: []float64{350, 400, 450, 500, 550, 580, 620, 670, 710, 750, 800, 850},
		},
	)

	ProfileCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_profile_cache_total",
			Help: "Farmer profile cache lookups by result",
		},
		[]string{"result"},
	)
)

// Score sources.
const (
	SourceWorker = "worker"
	SourceAPI    = "api"
)

// ObserveScore records one calculated score.
func ObserveScore(source, rating string, score int) {
	CreditScoresCalculated.WithLabelValues(rating, source).Inc()
	CreditScoreValue.Observe(float64(score))
}
