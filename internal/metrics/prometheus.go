package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsSubmitted counts jobs accepted through the submit endpoint.
	JobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiopress_jobs_submitted_total",
			Help: "Total number of accepted conversion jobs",
		},
	)

	// JobsCompleted counts jobs that reached a terminal state, by outcome.
	JobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopress_jobs_completed_total",
			Help: "Total number of jobs that reached a terminal state",
		},
		[]string{"outcome"},
	)

	// PipelineDuration tracks wall-clock time of full pipeline runs in seconds.
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audiopress_pipeline_duration_seconds",
			Help:    "Duration of conversion pipeline runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 500ms to ~17min
		},
	)

	// PipelinesActive tracks the number of pipelines currently running.
	PipelinesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audiopress_pipelines_active",
			Help: "Number of currently running conversion pipelines",
		},
	)
)
