package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics for the ledger service.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	allocationsTotal  *prometheus.CounterVec
	postingsTotal     *prometheus.CounterVec
	integrityFindings prometheus.Gauge
}

// NewMetrics initialises the registry with HTTP and ledger metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voyager_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voyager_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voyager_sequence_allocations_total",
		Help: "Voucher numbers issued per sequence type key.",
	}, []string{"type_key"})
	postings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voyager_journal_postings_total",
		Help: "Journal posting attempts by outcome.",
	}, []string{"outcome"})
	findings := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "voyager_ledger_integrity_findings",
		Help: "Findings reported by the last ledger integrity scan.",
	})
	registry.MustRegister(requests, duration, allocations, postings, findings)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		allocationsTotal:  allocations,
		postingsTotal:     postings,
		integrityFindings: findings,
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

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RecordAllocation counts one issued voucher number.
func (m *Metrics) RecordAllocation(typeKey string) {
	if m == nil {
		return
	}
	m.allocationsTotal.WithLabelValues(typeKey).Inc()
}

// RecordPosting counts one posting attempt by outcome.
func (m *Metrics) RecordPosting(outcome string) {
	if m == nil {
		return
	}
	m.postingsTotal.WithLabelValues(outcome).Inc()
}

// SetIntegrityFindings publishes the finding count of the latest scan.
func (m *Metrics) SetIntegrityFindings(n int) {
	if m == nil {
		return
	}
	m.integrityFindings.Set(float64(n))
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
