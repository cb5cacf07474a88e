// Package reporter implements the ordered, pluggable reporter
// pipeline: a process-wide list of Reporters drained by a single
// bounded-queue worker so reporting never slows or fails the request
// that produced a trace.
package reporter

import "github.com/stagemonitor-go/requestmonitor/internal/trace"

// Reporter drains finished traces to an external destination.
type Reporter interface {
	// IsActive reports whether this reporter wants to see t at all.
	// Called before ReportRequestTrace for each trace, and also by
	// Pipeline.AnyActive for the profiling decision.
	IsActive(t *trace.RequestTrace) bool

	// ReportRequestTrace drains t. Errors are logged by the pipeline
	// and otherwise swallowed: a failing reporter never affects its
	// neighbours or the request that produced the trace.
	ReportRequestTrace(t *trace.RequestTrace) error
}
