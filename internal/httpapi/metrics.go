package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors for the status surface. Route labels are chi patterns so that
// /status/listeners/{name} stays one series however many listeners exist.
var (
	statusRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "evhandler",
			Subsystem: "status_api",
			Name:      "requests_total",
			Help:      "Status API requests by route, method and response code",
		},
		[]string{"route", "method", "code"},
	)

	statusRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "evhandler",
			Subsystem: "status_api",
			Name:      "request_duration_seconds",
			Help:      "Time spent answering status API requests",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"route"},
	)

	statusInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "evhandler",
			Subsystem: "status_api",
			Name:      "inflight_requests",
			Help:      "Status API requests being served",
		},
	)

	notReadyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "evhandler",
			Subsystem: "status_api",
			Name:      "not_ready_total",
			Help:      "Readiness checks answered while the handler was stopped",
		},
	)
)

func init() {
	prometheus.MustRegister(statusRequestsTotal, statusRequestDuration, statusInflight, notReadyTotal)
}

// statusRecorder keeps the code written by the route handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware counts and times status API requests. The route label is
// read after next has run because chi fills in the pattern while routing.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		statusInflight.Inc()
		defer statusInflight.Dec()

		sr := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)

		route := routeLabel(r)
		statusRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(sr.code)).Inc()
		statusRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel is the matched chi pattern, or "unmatched" for requests that no
// route took.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
