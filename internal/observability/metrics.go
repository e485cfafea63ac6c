// Package observability exposes Prometheus metrics for the HTTP server and
// the abuse-control layer.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the application's Prometheus metrics. A nil *Metrics is
// valid and records nothing, so components can be built without metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     *prometheus.CounterVec
	loginFailures   *prometheus.CounterVec
	maintenanceRuns *prometheus.CounterVec
}

// NewMetrics initializes a private registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clubgate_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clubgate_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	rateLimited := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clubgate_ratelimit_denied_total",
		Help: "Requests denied by the rate limiter, by policy.",
	}, []string{"policy"})
	loginFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clubgate_login_failures_total",
		Help: "Failed login attempts by reason.",
	}, []string{"reason"})
	maintenance := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clubgate_maintenance_runs_total",
		Help: "Maintenance task runs by task and result.",
	}, []string{"task", "result"})

	registry.MustRegister(requests, duration, rateLimited, loginFailures, maintenance)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		rateLimited:     rateLimited,
		loginFailures:   loginFailures,
		maintenanceRuns: maintenance,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and duration per route pattern. It must
// sit outside the middleware that resolves handler errors so it sees the
// final status.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			m.requestsTotal.WithLabelValues(route, strconv.Itoa(c.Response().Status)).Inc()
			m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RateLimitDenied counts one denial under policy.
func (m *Metrics) RateLimitDenied(policy string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(policy).Inc()
}

// LoginFailed counts one failed login.
func (m *Metrics) LoginFailed(reason string) {
	if m == nil {
		return
	}
	m.loginFailures.WithLabelValues(reason).Inc()
}

// MaintenanceRun counts one run of a maintenance task.
func (m *Metrics) MaintenanceRun(task string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.maintenanceRuns.WithLabelValues(task, result).Inc()
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}
