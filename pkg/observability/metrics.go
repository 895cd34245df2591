// Package observability holds the Prometheus metrics collector for the
// navigation service.
package observability

import (
	"net/http"
	"sync"

	"wayfinder-backend/domain/navigation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global collector instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application. It
// implements navigation.MetricsSink so the router can report outcomes
// without knowing about Prometheus.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Routing metrics
	RouteOutcomes  *prometheus.CounterVec
	RouteFallbacks *prometheus.CounterVec
	RouteDuration  *prometheus.HistogramVec
	RepeatRate     prometheus.Histogram
	NoveltyRate    prometheus.Histogram
	TagEntropy     prometheus.Histogram

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates the metrics collector with the given namespace.
// A singleton avoids duplicate registration when tests build multiple
// containers.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	routeOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_outcomes_total",
			Help:      "Routing decisions by workspace, requested mode and outcome",
		},
		[]string{"scope", "mode", "outcome"},
	)

	routeFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_fallbacks_total",
			Help:      "Routing decisions where the first policy did not win",
		},
		[]string{"scope", "mode"},
	)

	routeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_duration_seconds",
			Help:      "End-to-end routing call duration in seconds",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"scope", "mode"},
	)

	repeatRate := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_repeat_rate",
			Help:      "Fraction of candidates discarded per routing call",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	noveltyRate := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_novelty_rate",
			Help:      "Fraction of candidates surviving the filters per routing call",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	tagEntropy := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_tag_entropy_bits",
			Help:      "Shannon entropy of the recent-tag window after each routing call",
			Buckets:   prometheus.LinearBuckets(0, 0.5, 12),
		},
	)

	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
	)

	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		routeOutcomes,
		routeFallbacks,
		routeDuration,
		repeatRate,
		noveltyRate,
		tagEntropy,
		cacheHits,
		cacheMisses,
	)

	globalCollector = &Collector{
		registry:       registry,
		HTTPRequests:   httpRequests,
		HTTPDuration:   httpDuration,
		RouteOutcomes:  routeOutcomes,
		RouteFallbacks: routeFallbacks,
		RouteDuration:  routeDuration,
		RepeatRate:     repeatRate,
		NoveltyRate:    noveltyRate,
		TagEntropy:     tagEntropy,
		CacheHits:      cacheHits,
		CacheMisses:    cacheMisses,
	}

	return globalCollector
}

// ResetForTesting resets the global collector for testing purposes
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// ObserveRoute implements navigation.MetricsSink.
func (c *Collector) ObserveRoute(scope string, mode navigation.ProviderKind, reason navigation.NoRouteReason, metrics navigation.RouteMetrics) {
	outcome := "routed"
	if reason != navigation.ReasonNone {
		outcome = string(reason)
	}
	modeLabel := string(mode)
	if modeLabel == "" {
		modeLabel = "default"
	}

	c.RouteOutcomes.WithLabelValues(scope, modeLabel, outcome).Inc()
	c.RouteDuration.WithLabelValues(scope, modeLabel).Observe(float64(metrics.ElapsedMS) / 1000)
	if metrics.FallbackUsed {
		c.RouteFallbacks.WithLabelValues(scope, modeLabel).Inc()
	}
	c.RepeatRate.Observe(metrics.RepeatRate)
	c.NoveltyRate.Observe(metrics.NoveltyRate)
	c.TagEntropy.Observe(metrics.TagEntropy)
}

// ObserveCache records a cache lookup outcome.
func (c *Collector) ObserveCache(hit bool) {
	if hit {
		c.CacheHits.Inc()
	} else {
		c.CacheMisses.Inc()
	}
}

// Handler returns the HTTP handler serving this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
