// Package metrics exposes Prometheus collectors for the engine caches,
// extraction failures, synthesized manifests and redirect probing.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup results
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Metrics holds Prometheus counters and histograms for the engine.
type Metrics struct {
	registry           *prometheus.Registry
	gatherer           prometheus.Gatherer
	cacheLookups       *prometheus.CounterVec
	extractionFailures *prometheus.CounterVec
	manifestsTotal     *prometheus.CounterVec
	redirectHops       prometheus.Histogram
}

// New creates metrics registered on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := NewWithRegisterer(registry)
	m.registry = registry
	m.gatherer = registry
	return m
}

// NewWithRegisterer creates metrics registered on reg. If reg is also a
// Gatherer, Handler serves it.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ytplayer_cache_lookups_total",
		Help: "Cache lookups by cache name and result",
	}, []string{"cache", "result"})
	extractionFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ytplayer_extraction_failures_total",
		Help: "Failed artifact extractions from player code",
	}, []string{"artifact"})
	manifestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ytplayer_manifests_generated_total",
		Help: "Manifests synthesized by delivery type",
	}, []string{"delivery"})
	redirectHops := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ytplayer_redirect_hops",
		Help:    "text/plain redirects followed per initialization probe",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})

	if reg != nil {
		reg.MustRegister(cacheLookups, extractionFailures, manifestsTotal, redirectHops)
	}

	m := &Metrics{
		cacheLookups:       cacheLookups,
		extractionFailures: extractionFailures,
		manifestsTotal:     manifestsTotal,
		redirectHops:       redirectHops,
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// CacheLookup records a hit or miss on the named cache.
func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// ExtractionFailed increments the failure counter for an artifact.
func (m *Metrics) ExtractionFailed(artifact string) {
	if m == nil {
		return
	}
	m.extractionFailures.WithLabelValues(artifact).Inc()
}

// ManifestGenerated increments the manifest counter for a delivery type.
func (m *Metrics) ManifestGenerated(delivery string) {
	if m == nil {
		return
	}
	m.manifestsTotal.WithLabelValues(delivery).Inc()
}

// ObserveRedirects records how many redirects a probe followed.
func (m *Metrics) ObserveRedirects(hops int) {
	if m == nil {
		return
	}
	m.redirectHops.Observe(float64(hops))
}

// Handler returns an http.Handler that serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
