package reqmonitor

import "github.com/stagemonitor-go/requestmonitor/internal/trace"

// Frame is the RequestInformation from spec §3: the engine-internal
// per-execution record pushed on monitorStart and popped on
// monitorStop. Parent/child form a singly-linked, acyclic ancestry
// chain local to one goroutine.
type Frame struct {
	startNanos    int64
	startCPUNanos int64
	overhead1     int64

	adapter MonitoredRequest
	trace   *trace.RequestTrace

	parent *Frame
	child  *Frame

	startupDone <-chan struct{}

	result any
	err    error

	monitored    bool
	firstRequest bool
	timerCreated bool
	timerName    string
}

// Trace returns the frame's trace, or nil if the frame was never
// admitted (spec: PASSTHROUGH state never creates one).
func (f *Frame) Trace() *trace.RequestTrace {
	return f.trace
}

// NewFrameForAdapterTest builds a Frame carrying tr and nothing else.
// Adapter packages (httpreq, methodcall) use it to unit test
// OnPostExecute without driving the whole engine.
func NewFrameForAdapterTest(tr *trace.RequestTrace) *Frame {
	return &Frame{trace: tr}
}

// Result returns the workload's result, valid only after Execute has
// run.
func (f *Frame) Result() any {
	return f.result
}

// IsForwarded reports whether this frame was pushed while another
// frame was already active on this goroutine (spec: parent != nil).
func (f *Frame) IsForwarded() bool {
	return f.parent != nil
}

// IsForwarding reports whether a nested frame is currently pushed under
// this frame on this goroutine (spec: child != nil). The link is set
// when the nested frame starts and cleared when it stops.
func (f *Frame) IsForwarding() bool {
	return f.child != nil
}
