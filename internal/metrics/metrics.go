package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campusnav_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusnav_auth_attempts_total",
			Help: "Total credential verifications and registrations by outcome",
		},
		[]string{"event", "outcome"},
	)
	accountLocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campusnav_account_locks_total",
			Help: "Total accounts locked after repeated failed logins",
		},
	)
)

// Middleware records request duration labelled by the matched chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		httpRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// RecordAuthAttempt counts an auth event ("login", "register") by outcome
// ("success", "invalid_credentials", "account_locked", ...).
func RecordAuthAttempt(event, outcome string) {
	authAttempts.WithLabelValues(event, outcome).Inc()
}

func RecordAccountLock() {
	accountLocks.Inc()
}
