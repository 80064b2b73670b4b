package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route pattern
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trivia_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// RequestInProgress counts HTTP requests currently being processed
	RequestInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trivia_http_requests_in_progress",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method"},
	)

	// ParticipationsStarted counts participations created by play requests
	ParticipationsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_participations_started_total",
			Help: "Total number of participations started",
		},
	)

	// ParticipationsFinished counts participations that answered every question
	ParticipationsFinished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_participations_finished_total",
			Help: "Total number of participations finished",
		},
	)

	// AnswersRecorded counts persisted answers by outcome ("correct" or "incorrect")
	AnswersRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_answers_recorded_total",
			Help: "Total number of answers recorded",
		},
		[]string{"result"},
	)

	// AnswersRejected counts answer attempts refused by the core, by error kind
	AnswersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_answers_rejected_total",
			Help: "Total number of answer submissions rejected",
		},
		[]string{"kind"},
	)

	// DatabaseOperationDuration measures database operation duration
	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trivia_db_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// CacheHits counts question cache hits by backend
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	// CacheMisses counts question cache misses by backend
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// RankingSubscribers tracks live ranking subscriptions
	RankingSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trivia_ranking_subscribers",
			Help: "Number of active ranking subscriptions",
		},
	)
)

// RecordDBOperation records the duration of a database operation
func RecordDBOperation(operation string, table string, startTime time.Time) {
	duration := time.Since(startTime).Seconds()
	DatabaseOperationDuration.WithLabelValues(operation, table).Observe(duration)
}
