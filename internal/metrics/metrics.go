// Package metrics exposes the engine's Prometheus metrics on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/internal/scoring"
)

// Collector records search, indexing and position lookup metrics.
// It implements scoring.LookupObserver.
type Collector struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	searchRequests   *prometheus.CounterVec
	searchDuration   *prometheus.HistogramVec
	searchResults    *prometheus.HistogramVec
	positionLookups  *prometheus.CounterVec
	documentsIndexed *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewCollector creates a collector with all metrics registered.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		logger:   logger,

		searchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "position_search_requests_total",
				Help: "Total number of search requests",
			},
			[]string{"index", "status"},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "position_search_duration_seconds",
				Help:    "Search duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
			},
			[]string{"index"},
		),
		searchResults: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "position_search_results_count",
				Help:    "Number of matching documents per search",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"index"},
		),
		positionLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "position_lookups_total",
				Help: "Total number of term position lookups by outcome",
			},
			[]string{"outcome"},
		),
		documentsIndexed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "position_documents_indexed_total",
				Help: "Total number of documents indexed",
			},
			[]string{"index"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "position_doc_cache_hits_total",
				Help: "Total number of matching-document cache hits",
			},
			[]string{"index"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "position_doc_cache_misses_total",
				Help: "Total number of matching-document cache misses",
			},
			[]string{"index"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "position_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "position_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"route", "method"},
		),
	}

	c.registry.MustRegister(
		c.searchRequests,
		c.searchDuration,
		c.searchResults,
		c.positionLookups,
		c.documentsIndexed,
		c.cacheHits,
		c.cacheMisses,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

// ObserveLookup counts a position lookup outcome.
func (c *Collector) ObserveLookup(kind scoring.LookupKind) {
	c.positionLookups.WithLabelValues(kind.Label()).Inc()
}

// RecordSearch records a finished search.
func (c *Collector) RecordSearch(indexName, status string, duration time.Duration, total int) {
	c.searchRequests.WithLabelValues(indexName, status).Inc()
	c.searchDuration.WithLabelValues(indexName).Observe(duration.Seconds())
	if status == StatusOK {
		c.searchResults.WithLabelValues(indexName).Observe(float64(total))
	}
}

// RecordDocumentsIndexed adds count to the indexed documents of indexName.
func (c *Collector) RecordDocumentsIndexed(indexName string, count int) {
	c.documentsIndexed.WithLabelValues(indexName).Add(float64(count))
}

// RecordCacheLookup records a matching-document cache hit or miss.
func (c *Collector) RecordCacheLookup(indexName string, hit bool) {
	if hit {
		c.cacheHits.WithLabelValues(indexName).Inc()
		return
	}
	c.cacheMisses.WithLabelValues(indexName).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (c *Collector) RecordHTTPRequest(route, method, statusCode string, duration time.Duration) {
	c.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	c.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// Handler returns the HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorLog:          zap.NewStdLog(c.logger),
	})
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Search outcome labels
const (
	StatusOK    = "ok"
	StatusError = "error"
)
