package reqmonitor

import "github.com/stagemonitor-go/requestmonitor/internal/trace"

// MonitoredRequest is the contract the caller implements to adapt the
// engine to a specific workload: an HTTP invocation, a monitored
// method call, or a background task.
type MonitoredRequest interface {
	// InstanceName is used once to name the process instance if one
	// was not supplied through configuration. Returns ok=false when
	// the adapter has no opinion.
	InstanceName() (name string, ok bool)

	// CreateRequestTrace is called after admission checks pass, before
	// Execute runs.
	CreateRequestTrace() *trace.RequestTrace

	// Execute runs the actual workload.
	Execute() (result any, err error)

	// OnPostExecute is called after timing stops, before reporting,
	// so the adapter can populate post-hoc fields (e.g. HTTP status
	// code) on the frame's trace.
	OnPostExecute(f *Frame)

	// IsMonitorForwardedExecutions is the policy applied to nested
	// calls: true for adapters where the innermost dispatched handler
	// should be monitored (HTTP), false where the outermost call
	// should be (method calls).
	IsMonitorForwardedExecutions() bool
}
