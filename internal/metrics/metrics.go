package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	attemptsStarted prometheus.Counter
	attemptsGraded  *prometheus.CounterVec
	activityEvents  *prometheus.CounterVec
	answersSaved    prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
)

// Register initialises the collectors on the default registry. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		attemptsStarted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attempts_started_total",
			Help: "Exam attempts created.",
		})
		attemptsGraded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attempts_graded_total",
			Help: "Exam attempts graded, by trigger (student or expiry).",
		}, []string{"trigger"})
		activityEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_activity_events_total",
			Help: "Activity log entries recorded, by type.",
		}, []string{"type"})
		answersSaved = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "answers_saved_total",
			Help: "Answer auto-saves accepted.",
		})
		httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "status"})
		httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(attemptsStarted, attemptsGraded, activityEvents, answersSaved, httpRequests, httpLatency)
	})
}

// AttemptsStarted counts created attempts.
func AttemptsStarted() prometheus.Counter {
	Register()
	return attemptsStarted
}

// AttemptsGraded counts graded attempts by trigger.
func AttemptsGraded() *prometheus.CounterVec {
	Register()
	return attemptsGraded
}

// ActivityEvents counts activity log entries by type.
func ActivityEvents() *prometheus.CounterVec {
	Register()
	return activityEvents
}

// AnswersSaved counts accepted answer saves.
func AnswersSaved() prometheus.Counter {
	Register()
	return answersSaved
}

// HTTPRequests counts served requests.
func HTTPRequests() *prometheus.CounterVec {
	Register()
	return httpRequests
}

// HTTPLatency observes request latency.
func HTTPLatency() *prometheus.HistogramVec {
	Register()
	return httpLatency
}

// Handler serves the scrape endpoint.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
