// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coursemarket"

var (
	// EnrollmentEvents counts enrollment transitions by event:
	// enrolled, dropped, completed.
	EnrollmentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollments_total",
		Help:      "Enrollment lifecycle events.",
	}, []string{"event"})

	LessonCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lesson_completions_total",
		Help:      "Lessons marked completed by students.",
	})

	QuizAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quiz_attempts_total",
		Help:      "Submitted quiz attempts by result.",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func QuizResult(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}
