// Package metrics exposes the gateway's Prometheus metrics.
//
// Each Metrics value owns its registry so servers created in tests do not collide on the default registerer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
)

const namespace = "eudr_gateway"

// attempt outcomes
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
}

// New creates the gateway metrics. primaryHealthy is sampled on every scrape (nil skips the gauge).
func New(primaryHealthy func() bool) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests handled by the gateway",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests handled by the gateway",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_attempts_total",
				Help:      "Requests sent to each backend by outcome (ok, fallback, error)",
			},
			[]string{"backend", "outcome"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_attempt_duration_seconds",
				Help:      "Duration of requests sent to each backend",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
	}

	if primaryHealthy != nil {
		factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "primary_healthy",
				Help:      "1 when the primary backend is considered healthy",
			},
			func() float64 {
				if primaryHealthy() {
					return 1
				}
				return 0
			},
		)
	}

	return m
}

// ObserveAttempt records one backend attempt (registered as the apirouter observer)
func (m *Metrics) ObserveAttempt(a apirouter.Attempt) {
	outcome := OutcomeOK
	switch {
	case a.FellBack:
		outcome = OutcomeFallback
	case a.Err != nil:
		outcome = OutcomeError
	}
	m.attempts.WithLabelValues(string(a.Backend), outcome).Inc()
	m.attemptDuration.WithLabelValues(string(a.Backend)).Observe(a.Duration.Seconds())
}

// Middleware counts requests by chi route pattern, so ids in paths do not create new series.
// Must be installed at the top of the chi router.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry (used in tests)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
