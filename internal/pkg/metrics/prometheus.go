package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Pipeline metrics
	eventsEvaluatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "events_evaluated_total",
			Help:      "Total number of events run through the evaluators",
		},
		[]string{"entity_kind"},
	)

	evaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of one entity evaluation cycle in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	alertsRaisedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "alerts_raised_total",
			Help:      "Total number of alerts emitted by the aggregator",
		},
		[]string{"threat_type", "blast_radius"},
	)

	// Safety gate metrics
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Total number of safety gate decisions by verdict",
		},
		[]string{"verdict", "action_kind"},
	)

	gateCheckFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "gate",
			Name:      "check_failures_total",
			Help:      "Total number of safety gate check failures by check name",
		},
		[]string{"check"},
	)

	// Circuit breaker metrics
	breakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "triage",
			Subsystem: "breaker",
			Name:      "tripped",
			Help:      "Whether the circuit breaker is tripped (1) or closed (0)",
		},
	)

	breakerTripsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "breaker",
			Name:      "trips_total",
			Help:      "Total number of circuit breaker trips",
		},
		[]string{"reason"},
	)

	// Executor metrics
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "executor",
			Name:      "executions_total",
			Help:      "Total number of action executions by kind and result",
		},
		[]string{"kind", "result"},
	)

	executionRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "executor",
			Name:      "retries_total",
			Help:      "Total number of enforcement call retries",
		},
	)

	reversalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "executor",
			Name:      "reversals_total",
			Help:      "Total number of action reversals by trigger",
		},
		[]string{"kind", "trigger"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordEventEvaluated records one event passed through the evaluators
func RecordEventEvaluated(entityKind string) {
	eventsEvaluatedTotal.WithLabelValues(entityKind).Inc()
}

// RecordEvaluationDuration records the duration of one evaluation cycle
func RecordEvaluationDuration(duration time.Duration) {
	evaluationDuration.Observe(duration.Seconds())
}

// RecordAlertRaised records an alert emitted by the aggregator
func RecordAlertRaised(threatType, blastRadius string) {
	alertsRaisedTotal.WithLabelValues(threatType, blastRadius).Inc()
}

// RecordDecision records a safety gate decision
func RecordDecision(verdict, actionKind string) {
	decisionsTotal.WithLabelValues(verdict, actionKind).Inc()
}

// RecordGateCheckFailure records a failing gate check by name
func RecordGateCheckFailure(check string) {
	gateCheckFailuresTotal.WithLabelValues(check).Inc()
}

// SetBreakerTripped sets the breaker state gauge
func SetBreakerTripped(tripped bool) {
	if tripped {
		breakerState.Set(1)
	} else {
		breakerState.Set(0)
	}
}

// RecordBreakerTrip records a breaker trip with its reason
func RecordBreakerTrip(reason string) {
	breakerTripsTotal.WithLabelValues(reason).Inc()
}

// RecordExecution records an action execution attempt result
func RecordExecution(kind, result string) {
	executionsTotal.WithLabelValues(kind, result).Inc()
}

// RecordExecutionRetry records one enforcement retry
func RecordExecutionRetry() {
	executionRetriesTotal.Inc()
}

// RecordReversal records a reversal with its trigger (manual, expiry)
func RecordReversal(kind, trigger string) {
	reversalsTotal.WithLabelValues(kind, trigger).Inc()
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
