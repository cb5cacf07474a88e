// Package methodcall adapts an arbitrary Go function to the
// request-monitor core, for instrumenting method calls and background
// tasks that have nothing to do with HTTP.
package methodcall

import (
	"github.com/stagemonitor-go/requestmonitor/internal/reqmonitor"
	"github.com/stagemonitor-go/requestmonitor/internal/trace"
)

// Engine is the subset of *reqmonitor.Monitor Call needs.
type Engine interface {
	Monitor(adapter reqmonitor.MonitoredRequest) (any, error)
}

// Call monitors a single invocation of fn under the given trace name,
// returning whatever fn returns. Nested Call invocations on the same
// goroutine (a monitored method calling another monitored method)
// collapse to the outermost: method-call adapters monitor the
// outermost execution in a forwarding chain, so only the first Call
// entered on a goroutine is ever admitted.
func Call(engine Engine, name string, fn func() (any, error)) (any, error) {
	return engine.Monitor(&methodAdapter{name: name, fn: fn})
}

type methodAdapter struct {
	name string
	fn   func() (any, error)
}

func (a *methodAdapter) InstanceName() (string, bool) { return "", false }

func (a *methodAdapter) CreateRequestTrace() *trace.RequestTrace {
	return trace.New(a.name, trace.Eager(a.name))
}

func (a *methodAdapter) Execute() (any, error) { return a.fn() }

func (a *methodAdapter) OnPostExecute(f *reqmonitor.Frame) {}

// IsMonitorForwardedExecutions reports false: method-call dispatch
// monitors the outermost call in a forwarding chain, not the nested
// ones it triggers.
func (a *methodAdapter) IsMonitorForwardedExecutions() bool { return false }
