// Package metrics defines the Prometheus metric collectors used by the
// retrieval services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	TermsetCandidates    *prometheus.HistogramVec
	TermsetsFrequent     *prometheus.HistogramVec
	IndexDocuments       prometheus.Gauge
	IndexTerms           prometheus.Gauge
	AnalyticsEventsTotal *prometheus.CounterVec
}

// New creates all collectors and registers them with reg. A nil reg means
// the process-wide default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retrieval_queries_total",
				Help: "Total retrieval queries by model, mode and outcome (ok, zero_result, rejected, error).",
			},
			[]string{"model", "mode", "outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "retrieval_latency_seconds",
				Help:    "Model search latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
			},
			[]string{"model", "cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "retrieval_results_count",
				Help:    "Number of ranked documents returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 1000},
			},
			[]string{"model"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		TermsetCandidates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termset_candidates",
				Help:    "Candidate termsets generated per mining level.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"level"},
		),
		TermsetsFrequent: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termsets_frequent",
				Help:    "Termsets kept per mining level.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"level"},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_documents",
				Help: "Documents in the loaded index snapshot.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_terms",
				Help: "Distinct terms in the loaded index snapshot.",
			},
		),
		AnalyticsEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_events_total",
				Help: "Analytics events by direction (published, consumed, dropped).",
			},
			[]string{"direction"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.TermsetCandidates,
		m.TermsetsFrequent,
		m.IndexDocuments,
		m.IndexTerms,
		m.AnalyticsEventsTotal,
	)

	return m
}

// ObserveLevel records one termset mining level.
func (m *Metrics) ObserveLevel(level, candidates, frequent int) {
	l := strconv.Itoa(level)
	m.TermsetCandidates.WithLabelValues(l).Observe(float64(candidates))
	m.TermsetsFrequent.WithLabelValues(l).Observe(float64(frequent))
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
