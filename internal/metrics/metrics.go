// Package metrics exposes Prometheus counters for HTTP traffic and the
// eco-points program.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered on its own registry
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	wasteKg        *prometheus.CounterVec
	wasteLogs      *prometheus.CounterVec
	pointsAwarded  *prometheus.CounterVec
	redemptions    *prometheus.CounterVec
	badgesAwarded  prometheus.Counter
	ledgerFailures *prometheus.CounterVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		wasteKg: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recycle_waste_kilograms_total",
				Help: "Kilograms of waste logged",
			},
			[]string{"waste_type"},
		),
		wasteLogs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recycle_waste_logs_total",
				Help: "Number of accepted waste logs",
			},
			[]string{"waste_type"},
		),
		pointsAwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recycle_points_awarded_total",
				Help: "Eco-points credited to users",
			},
			[]string{"source"},
		),
		redemptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recycle_redemptions_total",
				Help: "Reward redemption attempts",
			},
			[]string{"outcome"},
		),
		badgesAwarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "recycle_badges_awarded_total",
				Help: "Badges awarded to users",
			},
		),
		ledgerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recycle_ledger_write_failures_total",
				Help: "Audit entries that could not be written after retries",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.wasteKg,
		m.wasteLogs,
		m.pointsAwarded,
		m.redemptions,
		m.badgesAwarded,
		m.ledgerFailures,
	)
	return m
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations labelled by the chi route
// pattern, so path parameters do not multiply series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// The wrapper keeps Hijacker and Flusher so websocket upgrades pass through
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// WasteLogged counts an accepted waste log
func (m *Metrics) WasteLogged(wasteType string, weightKg float64, _ int64) {
	m.wasteLogs.WithLabelValues(wasteType).Inc()
	m.wasteKg.WithLabelValues(wasteType).Add(weightKg)
}

// PointsAwarded counts credited points by source
func (m *Metrics) PointsAwarded(source string, points int64) {
	if points <= 0 {
		return
	}
	m.pointsAwarded.WithLabelValues(source).Add(float64(points))
}

// Redemption counts a redemption attempt by outcome
func (m *Metrics) Redemption(outcome string) {
	m.redemptions.WithLabelValues(outcome).Inc()
}

// BadgesAwarded counts newly earned badges
func (m *Metrics) BadgesAwarded(n int) {
	if n <= 0 {
		return
	}
	m.badgesAwarded.Add(float64(n))
}

// LedgerFailure counts an audit entry that was dropped
func (m *Metrics) LedgerFailure(kind string) {
	m.ledgerFailures.WithLabelValues(kind).Inc()
}
