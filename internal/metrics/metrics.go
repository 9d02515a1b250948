// Package metrics provides Prometheus metrics for the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtra_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xtra_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Authentication metrics
	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtra_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"}, // "success", "failure"
	)

	signupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtra_signups_total",
			Help: "Total number of signup attempts",
		},
		[]string{"status"}, // "success", "conflict", "error"
	)

	// OAuth flow metrics
	oauthFlowsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xtra_oauth_flows_started_total",
			Help: "Total number of authorization URLs issued",
		},
	)

	oauthExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtra_oauth_exchanges_total",
			Help: "Total number of token exchanges against the provider",
		},
		[]string{"grant_type", "status"}, // grant_type: "authorization_code", "refresh_token"
	)
)

// RecordLogin records a login attempt.
func RecordLogin(status string) {
	loginAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordSignup records a signup attempt.
func RecordSignup(status string) {
	signupsTotal.WithLabelValues(status).Inc()
}

// RecordFlowStarted records an authorization URL being issued.
func RecordFlowStarted() {
	oauthFlowsStartedTotal.Inc()
}

// RecordExchange records a token exchange against the provider.
func RecordExchange(grantType, status string) {
	oauthExchangesTotal.WithLabelValues(grantType, status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes the path for metrics to avoid high cardinality.
func normalizePath(path string) string {
	knownPaths := []string{
		"/healthz",
		"/readyz",
		"/metrics",
		"/auth/canva/url",
		"/auth/canva/refresh",
		"/oauth/redirect",
		"/auth/signup",
		"/auth/login",
		"/auth/me",
	}

	for _, known := range knownPaths {
		if path == known {
			return path
		}
	}

	return "/other"
}
