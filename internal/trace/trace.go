// Package trace implements the RequestTrace model: an
// immutable-after-publish record of a single monitored execution's
// measurements and metadata.
package trace

import (
	"sync"
	"sync/atomic"

	"github.com/stagemonitor-go/requestmonitor/internal/profiler"
)

// RequestTrace is one per monitored execution. Once Freeze has been
// called (by the reporter pipeline, immediately before the trace is
// handed to reporters) further mutation through the setters below is a
// silent no-op: callers are not expected to retain a reference past
// submission, but defending against it here keeps concurrent reporter
// iteration safe.
type RequestTrace struct {
	mu sync.Mutex

	id   string
	name Name

	nameResolved bool
	nameValue    string

	executionTimeMs float64
	cpuTimeMs       float64
	dbTimeMs        float64
	dbExecutionCount int64

	isError bool
	failure error

	callStack *profiler.CallStackElement

	// HTTP domain extension.
	URL             string
	Method          string
	StatusCode      int
	BytesWritten    int64
	ClientIP        string
	Username        string
	Headers         map[string]string
	Parameters      map[string]string
	SessionID       string
	ConnectionID    string
	WidgetVisible   bool

	frozen atomic.Bool
}

// New creates a RequestTrace. id is opaque and assumed unique; name may
// be Eager or Deferred.
func New(id string, name Name) *RequestTrace {
	return &RequestTrace{id: id, name: name}
}

// ID returns the trace's opaque identity.
func (t *RequestTrace) ID() string {
	return t.id
}

// Name resolves and memoizes the trace's name on first invocation. A
// trace whose Name was never set (IsZero) resolves to the empty
// string, which callers treat as "do not monitor".
func (t *RequestTrace) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.nameResolved {
		return t.nameValue
	}
	t.nameResolved = true
	switch {
	case t.name.isEager:
		t.nameValue = t.name.eager
	case t.name.resolve != nil:
		t.nameValue = t.name.resolve()
	}
	return t.nameValue
}

// ForceResolveName resolves the name immediately, for adapters that
// need eager resolution ahead of the normal lazy point.
func (t *RequestTrace) ForceResolveName() string {
	return t.Name()
}

func (t *RequestTrace) setLocked(f func()) {
	if t.frozen.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	f()
}

// SetExecutionTime records wall-clock execution time in milliseconds.
func (t *RequestTrace) SetExecutionTime(ms float64) {
	t.setLocked(func() { t.executionTimeMs = ms })
}

// ExecutionTime returns wall-clock execution time in milliseconds.
func (t *RequestTrace) ExecutionTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.executionTimeMs
}

// SetCPUTime records CPU execution time in milliseconds.
func (t *RequestTrace) SetCPUTime(ms float64) {
	t.setLocked(func() { t.cpuTimeMs = ms })
}

// CPUTime returns CPU execution time in milliseconds.
func (t *RequestTrace) CPUTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cpuTimeMs
}

// SetDBExecutionTime records cumulative database execution time in
// milliseconds and the number of database operations performed.
func (t *RequestTrace) SetDBExecutionTime(ms float64, count int64) {
	t.setLocked(func() {
		t.dbTimeMs = ms
		t.dbExecutionCount = count
	})
}

// DBExecutionTime returns cumulative database execution time in
// milliseconds.
func (t *RequestTrace) DBExecutionTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dbTimeMs
}

// DBExecutionCount returns the number of database operations
// performed during the monitored execution.
func (t *RequestTrace) DBExecutionCount() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dbExecutionCount
}

// SetError marks the trace as failed and optionally attaches the
// captured failure.
func (t *RequestTrace) SetError(err error) {
	t.setLocked(func() {
		t.isError = true
		t.failure = err
	})
}

// IsError reports whether the trace was marked as failed.
func (t *RequestTrace) IsError() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isError
}

// Failure returns the captured failure, if any.
func (t *RequestTrace) Failure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failure
}

// SetCallStack attaches the profiled root CallStackElement.
func (t *RequestTrace) SetCallStack(root *profiler.CallStackElement) {
	t.setLocked(func() { t.callStack = root })
}

// CallStack returns the profiled root, or nil if the request was not
// profiled.
func (t *RequestTrace) CallStack() *profiler.CallStackElement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.callStack
}

// Freeze marks the trace as published. Called once by the reporter
// pipeline immediately before dispatch.
func (t *RequestTrace) Freeze() {
	t.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (t *RequestTrace) Frozen() bool {
	return t.frozen.Load()
}
