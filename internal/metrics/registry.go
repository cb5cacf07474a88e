// Package metrics defines the Metric Registry contract the request
// monitor consumes (spec: "external collaborator, referenced only by
// interface") and a concrete adapter backed by
// github.com/prometheus/client_golang/prometheus.
//
// Metric names are structured: a base name plus a set of tags. The
// canonical tags are request_name, layer, and http_code; the
// Prometheus adapter flattens them into label values on per-base-name
// vectors.
package metrics

// Registry records timers and meters keyed by a structured name.
type Registry interface {
	// Timer records a duration, in nanoseconds, for the metric
	// identified by (baseName, tags).
	Timer(baseName string, tags map[string]string, nanos int64)

	// Mark increments the rate meter identified by (baseName, tags) by
	// count.
	Mark(baseName string, tags map[string]string, count int64)

	// Count returns the number of observations recorded so far for the
	// timer identified by (baseName, tags), materialising an empty
	// series as a side effect if one does not already exist. Used by
	// the profiling decision (spec §4.D "profileThisRequest"), which
	// needs to read a per-name timer's prior count before deciding
	// whether this request is the Nth in its group.
	Count(baseName string, tags map[string]string) int64

	// RemoveTimer drops the timer identified by (baseName, tags) from
	// the registry, if it has never recorded an observation. Used to
	// keep cardinality clean when a timer was materialised
	// speculatively (spec §4.D.4) but the request it was created for
	// turned out not to be monitored.
	RemoveTimer(baseName string, tags map[string]string)
}
