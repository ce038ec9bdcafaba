// Package metrics provides the Prometheus-backed metrics collector for the
// scoring service. Metric names arrive in dotted form from the scoring
// pipeline and are converted to Prometheus naming on first use; collectors
// are created lazily and cached per name.
package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pte_scoring"

// Custom registry to avoid the default Go runtime collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// GetRegistry returns the Prometheus registry all collectors register on.
// The HTTP server exposes it at /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Collector implements the scoring pipeline's Metrics interface on
// Prometheus. Vectors are keyed by converted metric name; the label set of
// a metric is fixed by its first observation.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewCollector creates a collector registered on the package registry.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(customRegistry)
}

// NewCollectorWithRegistry creates a collector on an explicit registry,
// which tests use to avoid duplicate registration across cases.
func NewCollectorWithRegistry(reg prometheus.Registerer) *Collector {
	return &Collector{
		registry:   reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

// IncrementCounter adds value to the named counter.
func (c *Collector) IncrementCounter(name string, tags map[string]string, value float64) {
	labels := labelKeys(tags)
	c.mu.Lock()
	vec, ok := c.counters[name]
	if !ok {
		vec = promauto.With(c.registry).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      promName(name),
			Help:      "Counter " + name,
		}, labels)
		c.counters[name] = vec
	}
	c.mu.Unlock()
	vec.With(prometheus.Labels(tags)).Add(value)
}

// RecordHistogram observes value on the named histogram.
func (c *Collector) RecordHistogram(name string, tags map[string]string, value float64) {
	labels := labelKeys(tags)
	c.mu.Lock()
	vec, ok := c.histograms[name]
	if !ok {
		vec = promauto.With(c.registry).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      promName(name),
			Help:      "Histogram " + name,
			Buckets:   prometheus.DefBuckets,
		}, labels)
		c.histograms[name] = vec
	}
	c.mu.Unlock()
	vec.With(prometheus.Labels(tags)).Observe(value)
}

// SetGauge sets the named gauge to value.
func (c *Collector) SetGauge(name string, tags map[string]string, value float64) {
	labels := labelKeys(tags)
	c.mu.Lock()
	vec, ok := c.gauges[name]
	if !ok {
		vec = promauto.With(c.registry).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      promName(name),
			Help:      "Gauge " + name,
		}, labels)
		c.gauges[name] = vec
	}
	c.mu.Unlock()
	vec.With(prometheus.Labels(tags)).Set(value)
}

// promName converts a dotted metric name to Prometheus form.
func promName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

func labelKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
