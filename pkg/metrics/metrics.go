// Package metrics exposes Prometheus instrumentation for link detection.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Detect outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeNoIndex = "no_index"
	OutcomeCached  = "cached"
)

// Metrics holds the service collectors on a private registry. A nil or
// no-op *Metrics accepts every call and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	detectRequests  *prometheus.CounterVec
	linksEmitted    prometheus.Counter
	extractDuration prometheus.Histogram
	indexedLaws     prometheus.Gauge
	indexReloads    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// New creates the collectors under namespace and registers them, together
// with the Go runtime and process collectors, on a new registry.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		detectRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detect_requests_total",
			Help:      "Link detection requests by outcome.",
		}, []string{"outcome"}),
		linksEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_emitted_total",
			Help:      "Links returned by detection.",
		}),
		extractDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extract_duration_seconds",
			Help:      "Time spent extracting links from one text.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		indexedLaws: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_laws",
			Help:      "Distinct laws in the active alias index.",
		}),
		indexReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Alias index builds by result.",
		}, []string{"result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.detectRequests,
		m.linksEmitted,
		m.extractDuration,
		m.indexedLaws,
		m.indexReloads,
		m.cacheLookups,
	)
	return m
}

// NewNop returns metrics that record nothing.
func NewNop() *Metrics {
	return &Metrics{}
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// ObserveDetect records one detection request.
func (m *Metrics) ObserveDetect(outcome string, links int, took time.Duration) {
	if !m.enabled() {
		return
	}
	m.detectRequests.WithLabelValues(outcome).Inc()
	if outcome == OutcomeNoIndex {
		return
	}
	m.linksEmitted.Add(float64(links))
	if outcome == OutcomeOK {
		m.extractDuration.Observe(took.Seconds())
	}
}

// IndexBuilt records an index build attempt and, on success, its size.
func (m *Metrics) IndexBuilt(ok bool, laws int) {
	if !m.enabled() {
		return
	}
	if !ok {
		m.indexReloads.WithLabelValues("error").Inc()
		return
	}
	m.indexReloads.WithLabelValues("ok").Inc()
	m.indexedLaws.Set(float64(laws))
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if !m.enabled() {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format. No-op
// metrics serve an empty exposition.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, nil for no-op metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if !m.enabled() {
		return nil
	}
	return m.registry
}
