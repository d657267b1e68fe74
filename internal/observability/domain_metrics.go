package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_questions_total",
			Help: "Total number of natural-language questions received.",
		},
	)
	generationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_generation_failures_total",
			Help: "Total number of failed or rejected SQL generation attempts.",
		},
	)
	validationRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_validation_rejections_total",
			Help: "Total number of generated queries rejected by the validator.",
		},
		[]string{"reason"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_question_duration_seconds",
			Help:    "End-to-end latency of one question, generation included.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
	tablesIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_tables_ingested_total",
			Help: "Total number of tables created or replaced by ingestion.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		generationFailuresTotal,
		validationRejectionsTotal,
		queryDurationSeconds,
		tablesIngestedTotal,
	)
}

func IncrementQuestions() {
	questionsTotal.Inc()
}

func IncrementGenerationFailures() {
	generationFailuresTotal.Inc()
}

func IncrementValidationRejections(reason string) {
	validationRejectionsTotal.WithLabelValues(reason).Inc()
}

func ObserveQueryDuration(duration time.Duration) {
	queryDurationSeconds.Observe(duration.Seconds())
}

func IncrementTablesIngested() {
	tablesIngestedTotal.Inc()
}
