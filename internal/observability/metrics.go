// Package observability holds the Prometheus metrics of the workout session
// lifecycle and the HTTP API.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ironlog"

var (
	sessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "started_total",
		Help:      "Workouts started from a template.",
	})
	sessionsEnded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "ended_total",
		Help:      "Workouts that left in_progress, by outcome.",
	}, []string{"outcome"})
	setsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "sets_completed_total",
		Help:      "Sets completed, including sets marked skipped.",
	})
	setsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "sets_skipped_total",
		Help:      "Pending sets closed as skipped.",
	})
	workoutVolume = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "finished_volume_kg",
		Help:      "Total volume of finished workouts.",
		Buckets:   []float64{500, 1000, 2500, 5000, 7500, 10000, 15000, 20000},
	})
	runsLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "runs",
		Name:      "logged_total",
		Help:      "Runs logged.",
	})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(sessionsStarted, sessionsEnded, setsCompleted, setsSkipped,
		workoutVolume, runsLogged, httpDuration)
}

// Session outcomes.
const (
	OutcomeFinished  = "finished"
	OutcomeCancelled = "cancelled"
)

// RecordSessionStarted counts a workout started from a template.
func RecordSessionStarted() { sessionsStarted.Inc() }

// RecordSessionFinished counts a finished workout and observes its volume.
func RecordSessionFinished(volume float64) {
	sessionsEnded.WithLabelValues(OutcomeFinished).Inc()
	workoutVolume.Observe(volume)
}

// RecordSessionCancelled counts a cancelled workout.
func RecordSessionCancelled() { sessionsEnded.WithLabelValues(OutcomeCancelled).Inc() }

// RecordSetCompleted counts one set completed by the lifter.
func RecordSetCompleted() { setsCompleted.Inc() }

// RecordSetsSkipped counts n skipped sets. They also count as completed.
func RecordSetsSkipped(n int) {
	if n <= 0 {
		return
	}
	setsSkipped.Add(float64(n))
	setsCompleted.Add(float64(n))
}

// RecordRunLogged counts a logged run.
func RecordRunLogged() { runsLogged.Inc() }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware observes request latency labelled by the chi route pattern, so
// ids in paths do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := NewStatusWriter(w)
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(sw.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// StatusWriter wraps a ResponseWriter to capture the status code. It is
// shared by the metrics and request logging middleware.
type StatusWriter struct {
	http.ResponseWriter
	status int
}

// NewStatusWriter wraps w with a default status of 200.
func NewStatusWriter(w http.ResponseWriter) *StatusWriter {
	return &StatusWriter{ResponseWriter: w, status: http.StatusOK}
}

// Status returns the code passed to WriteHeader, or 200.
func (w *StatusWriter) Status() int { return w.status }

func (w *StatusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps MCP event streams working through the wrapper.
func (w *StatusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
