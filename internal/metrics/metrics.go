// Package metrics exposes Prometheus metrics for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all service metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Catalog metrics
	CatalogMutations *prometheus.CounterVec
	ImagesStored     *prometheus.CounterVec
	ImageFailures    *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	Namespace string
}

// DefaultConfig returns the default metrics configuration
func DefaultConfig() *Config {
	return &Config{Namespace: "eckshelf"}
}

// New creates and registers all metrics
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests being served",
		},
	)

	m.CatalogMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "catalog_mutations_total",
			Help:      "SKU and cargo changes by entity and operation",
		},
		[]string{"entity", "operation"},
	)
	m.ImagesStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "images_stored_total",
			Help:      "Images written to blob storage by kind",
		},
		[]string{"kind"},
	)
	m.ImageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "image_failures_total",
			Help:      "Thumbnails and composites that could not be generated",
		},
		[]string{"kind"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.CatalogMutations,
		m.ImagesStored,
		m.ImageFailures,
	)
	return m
}

// Image kinds
const (
	KindOriginal  = "original"
	KindTexture   = "texture"
	KindThumbnail = "thumbnail"
	KindComposite = "composite"
)

// RecordHTTPRequest records one completed request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMutation counts a create/update/delete on an entity
func (m *Metrics) RecordMutation(entity, operation string) {
	m.CatalogMutations.WithLabelValues(entity, operation).Inc()
}

// RecordImageStored counts a stored image of the given kind
func (m *Metrics) RecordImageStored(kind string) {
	m.ImagesStored.WithLabelValues(kind).Inc()
}

// RecordImageFailure counts a derived image that could not be produced
func (m *Metrics) RecordImageFailure(kind string) {
	m.ImageFailures.WithLabelValues(kind).Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
