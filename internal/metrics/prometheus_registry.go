package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRegistry implements Registry on top of
// prometheus/client_golang. One HistogramVec and one CounterVec is
// created lazily per (baseName, sorted tag key set) combination and
// registered with the supplied prometheus.Registerer.
//
// client_golang vectors don't expose per-series observation counts,
// so this adapter keeps its own count alongside each histogram
// series; that count is what backs Registry.Count and
// Registry.RemoveTimer's "never observed" check.
type PrometheusRegistry struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	counts     map[string]int64
}

// NewPrometheusRegistry creates a Registry backed by reg. Pass
// prometheus.DefaultRegisterer to export through the default
// /metrics handler, or a fresh prometheus.NewRegistry() for isolated
// tests.
func NewPrometheusRegistry(reg prometheus.Registerer) *PrometheusRegistry {
	return &PrometheusRegistry{
		registerer: reg,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		counts:     make(map[string]int64),
	}
}

func sortedKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelValues(keys []string, tags map[string]string) []string {
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = tags[k]
	}
	return values
}

func vecKey(baseName string, keys []string) string {
	return baseName + "|" + strings.Join(keys, ",")
}

func seriesKey(baseName string, keys []string, values []string) string {
	return baseName + "|" + strings.Join(keys, ",") + "|" + strings.Join(values, ",")
}

func (r *PrometheusRegistry) histogramVec(baseName string, keys []string) *prometheus.HistogramVec {
	key := vecKey(baseName, keys)
	if vec, ok := r.histograms[key]; ok {
		return vec
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: sanitizeMetricName(baseName),
		Help: baseName + " timer",
	}, keys)
	_ = r.registerer.Register(vec)
	r.histograms[key] = vec
	return vec
}

func (r *PrometheusRegistry) counterVec(baseName string, keys []string) *prometheus.CounterVec {
	key := vecKey(baseName, keys)
	if vec, ok := r.counters[key]; ok {
		return vec
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: sanitizeMetricName(baseName),
		Help: baseName + " meter",
	}, keys)
	_ = r.registerer.Register(vec)
	r.counters[key] = vec
	return vec
}

// Timer implements Registry.
func (r *PrometheusRegistry) Timer(baseName string, tags map[string]string, nanos int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := sortedKeys(tags)
	vec := r.histogramVec(baseName, keys)
	values := labelValues(keys, tags)
	vec.WithLabelValues(values...).Observe(float64(nanos) / 1e6) // milliseconds

	r.counts[seriesKey(baseName, keys, values)]++
}

// Mark implements Registry.
func (r *PrometheusRegistry) Mark(baseName string, tags map[string]string, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := sortedKeys(tags)
	vec := r.counterVec(baseName, keys)
	values := labelValues(keys, tags)
	vec.WithLabelValues(values...).Add(float64(count))
}

// Count implements Registry. Reading a timer's count materialises its
// series (at zero) if it does not already exist, mirroring the
// Dropwizard-style registries the spec is modelled on, where simply
// asking for a named timer creates it.
func (r *PrometheusRegistry) Count(baseName string, tags map[string]string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := sortedKeys(tags)
	r.histogramVec(baseName, keys) // materialise, ignore the handle
	values := labelValues(keys, tags)
	return r.counts[seriesKey(baseName, keys, values)]
}

// RemoveTimer implements Registry. It only deletes the series if it
// was never observed through Timer, keeping cardinality clean without
// discarding real data.
func (r *PrometheusRegistry) RemoveTimer(baseName string, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := sortedKeys(tags)
	key := vecKey(baseName, keys)
	vec, ok := r.histograms[key]
	if !ok {
		return
	}
	values := labelValues(keys, tags)
	sKey := seriesKey(baseName, keys, values)
	if r.counts[sKey] > 0 {
		return
	}
	vec.DeleteLabelValues(values...)
	delete(r.counts, sKey)
}

// sanitizeMetricName turns a dotted/spaced base name into a valid
// Prometheus metric name (ASCII letters, digits, underscores).
func sanitizeMetricName(baseName string) string {
	var b strings.Builder
	for _, r := range baseName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
