package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing, so tests and the CLI can
// skip metrics entirely.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Query metrics
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	BusRequests   *prometheus.CounterVec

	// Graph metrics
	GraphBuilds        *prometheus.CounterVec
	GraphBuildDuration prometheus.Histogram
	GraphNodes         prometheus.Gauge
	GraphEdges         prometheus.Gauge
	GraphClusters      prometheus.Gauge

	// Provider metrics
	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	AnalysisBatches  *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace.
// Each collector owns its registry so repeated construction in tests never
// collides with the global default registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of research queries by search mode and fallback state",
			},
			[]string{"search_mode", "fallback"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Research query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"search_mode"},
		),
		BusRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_bus_requests_total",
				Help:      "Total number of queries dispatched through the query bus",
			},
			[]string{"query", "status"},
		),
		GraphBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_builds_total",
				Help:      "Total number of graph rebuilds",
			},
			[]string{"status"},
		),
		GraphBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_build_duration_seconds",
				Help:      "Graph rebuild duration in seconds, including concept extraction",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
		),
		GraphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Number of nodes in the current graph snapshot",
			},
		),
		GraphEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_edges",
				Help:      "Number of edges in the current graph snapshot",
			},
		),
		GraphClusters: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_clusters",
				Help:      "Number of clusters in the current graph snapshot",
			},
		),
		ProviderCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_calls_total",
				Help:      "Total number of external provider calls",
			},
			[]string{"provider", "operation", "status"},
		),
		ProviderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_call_duration_seconds",
				Help:      "External provider call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "operation"},
		),
		AnalysisBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_batches_total",
				Help:      "Concept extraction batches by the extractor that served them",
			},
			[]string{"source"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by cache name and result",
			},
			[]string{"cache", "result"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Queries,
		c.QueryDuration,
		c.BusRequests,
		c.GraphBuilds,
		c.GraphBuildDuration,
		c.GraphNodes,
		c.GraphEdges,
		c.GraphClusters,
		c.ProviderCalls,
		c.ProviderDuration,
		c.AnalysisBatches,
		c.CacheLookups,
	)

	return c
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordQuery records one research query
func (c *Collector) RecordQuery(searchMode string, fallback bool, duration time.Duration) {
	if c == nil {
		return
	}
	c.Queries.WithLabelValues(searchMode, boolLabel(fallback)).Inc()
	c.QueryDuration.WithLabelValues(searchMode).Observe(duration.Seconds())
}

// RecordBusRequest records one query bus dispatch
func (c *Collector) RecordBusRequest(query string, err error) {
	if c == nil {
		return
	}
	c.BusRequests.WithLabelValues(query, statusLabel(err)).Inc()
}

// RecordGraphBuild records a rebuild and, on success, the snapshot size
func (c *Collector) RecordGraphBuild(err error, duration time.Duration, nodes, edges, clusters int) {
	if c == nil {
		return
	}
	c.GraphBuilds.WithLabelValues(statusLabel(err)).Inc()
	c.GraphBuildDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	c.GraphNodes.Set(float64(nodes))
	c.GraphEdges.Set(float64(edges))
	c.GraphClusters.Set(float64(clusters))
}

// RecordProviderCall records one external provider call
func (c *Collector) RecordProviderCall(provider, operation string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	c.ProviderCalls.WithLabelValues(provider, operation, statusLabel(err)).Inc()
	c.ProviderDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordAnalysisBatch records which extractor served a batch
func (c *Collector) RecordAnalysisBatch(source string) {
	if c == nil {
		return
	}
	c.AnalysisBatches.WithLabelValues(source).Inc()
}

// RecordCacheLookup records a cache hit or miss
func (c *Collector) RecordCacheLookup(cache string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(cache, result).Inc()
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler exposes the registry for scraping
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
