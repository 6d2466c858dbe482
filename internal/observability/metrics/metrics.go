package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes recorded by the line-item resolver.
const (
	OutcomeFound       = "found"
	OutcomeNotFound    = "not_found"
	OutcomeAmbiguous   = "ambiguous"
	OutcomeUnavailable = "unavailable"
	OutcomeCleared     = "cleared"
	OutcomeStale       = "stale"
)

// Config supplies constant labels for every collector.
type Config struct {
	ServiceName string
	Environment string
}

func (c Config) constLabels() prometheus.Labels {
	service := strings.TrimSpace(c.ServiceName)
	if service == "" {
		service = "medbill"
	}
	env := strings.TrimSpace(c.Environment)
	if env == "" {
		env = "unknown"
	}
	return prometheus.Labels{"service": service, "env": env}
}

// Pricing captures resolver and catalog cache signals.
type Pricing struct {
	resolutions    *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	resolveLatency prometheus.Observer
	documentLines  prometheus.Observer
}

// NewPricing registers pricing collectors on registerer.
func NewPricing(registerer prometheus.Registerer, cfg Config) *Pricing {
	labels := cfg.constLabels()
	m := &Pricing{}

	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "medbill_line_resolutions_total",
		Help:        "Material number resolutions by outcome.",
		ConstLabels: labels,
	}, []string{"outcome"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "medbill_catalog_cache_lookups_total",
		Help:        "Catalog cache lookups by result.",
		ConstLabels: labels,
	}, []string{"result"})
	resolveLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "medbill_line_resolution_duration_seconds",
		Help:        "Latency of a single catalog resolution.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		ConstLabels: labels,
	})
	documentLines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "medbill_document_lines",
		Help:        "Line items per priced document.",
		Buckets:     []float64{1, 2, 5, 10, 20, 50, 100, 250},
		ConstLabels: labels,
	})

	m.resolutions = register(registerer, resolutions).(*prometheus.CounterVec)
	m.cacheLookups = register(registerer, cacheLookups).(*prometheus.CounterVec)
	m.resolveLatency = register(registerer, resolveLatency).(prometheus.Histogram)
	m.documentLines = register(registerer, documentLines).(prometheus.Histogram)
	return m
}

// RecordResolution counts one resolution outcome and its latency.
func (m *Pricing) RecordResolution(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
	m.resolveLatency.Observe(elapsed.Seconds())
}

// RecordCacheLookup counts a cache hit or miss.
func (m *Pricing) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordDocument observes the size of a priced document.
func (m *Pricing) RecordDocument(lines int) {
	if m == nil {
		return
	}
	m.documentLines.Observe(float64(lines))
}

// HTTP captures request counts and latency per route.
type HTTP struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTP registers HTTP collectors on registerer.
func NewHTTP(registerer prometheus.Registerer, cfg Config) *HTTP {
	labels := cfg.constLabels()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "medbill_http_requests_total",
		Help:        "HTTP requests by route and status class.",
		ConstLabels: labels,
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "medbill_http_request_duration_seconds",
		Help:        "HTTP request latency by route.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: labels,
	}, []string{"method", "route"})

	return &HTTP{
		requests: register(registerer, requests).(*prometheus.CounterVec),
		latency:  register(registerer, latency).(*prometheus.HistogramVec),
	}
}

// GinMiddleware records request metrics for every matched route.
func GinMiddleware(m *HTTP) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status()/100) + "xx"
		m.requests.WithLabelValues(c.Request.Method, route, status).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// register returns the already registered collector when one with the same
// descriptor exists, so repeated construction in tests does not panic.
func register(registerer prometheus.Registerer, collector prometheus.Collector) prometheus.Collector {
	if registerer == nil {
		return collector
	}
	if err := registerer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector
		}
	}
	return collector
}
