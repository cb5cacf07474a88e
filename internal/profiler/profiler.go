package profiler

import (
	"time"

	"github.com/stagemonitor-go/requestmonitor/internal/goroutinelocal"
)

// Logger is the subset of *zap.SugaredLogger the profiler needs. Kept
// narrow so this package never imports zap directly.
type Logger interface {
	Errorw(msg string, keysAndValues ...interface{})
}

// Profiler builds a hierarchical call-time tree for one goroutine at a
// time. A Profiler instance is shared process-wide; the "current
// parent" pointer is per-goroutine, held in a goroutinelocal.Register.
type Profiler struct {
	logger  Logger
	current goroutinelocal.Register[*CallStackElement]
	timeNow func() int64
}

// New creates a Profiler. logger may be nil, in which case profiling
// failures are swallowed silently.
func New(logger Logger) *Profiler {
	return &Profiler{
		logger:  logger,
		timeNow: func() int64 { return time.Now().UnixNano() },
	}
}

// ActivateProfiling creates a root node for the calling goroutine and
// installs it as the current parent, returning it so the caller can
// attach it to a RequestTrace.
func (p *Profiler) ActivateProfiling(rootSignature string) (root *CallStackElement) {
	defer p.recoverAndLog("ActivateProfiling")
	root = NewCallStackElement(rootSignature)
	p.current.Set(root)
	return root
}

// Enter records entry into an instrumented sub-call on the calling
// goroutine. It returns an exit function that must be called once,
// on the way out of the call, to record elapsed time and pop the
// frame. If profiling was never activated on this goroutine, Enter
// returns a no-op exit function.
func (p *Profiler) Enter(signature string) (exit func()) {
	defer p.recoverAndLog("Enter")

	parent, ok := p.current.Get()
	if !ok || parent == nil {
		return func() {}
	}

	node := NewCallStackElement(signature)
	parent.addChild(node)
	p.current.Set(node)

	t0 := p.timeNow()
	return func() {
		defer p.recoverAndLog("Enter.exit")
		elapsed := p.timeNow() - t0
		node.TotalNanos = elapsed
		var childrenTotal int64
		for _, c := range node.Children {
			childrenTotal += c.TotalNanos
		}
		node.SelfNanos = elapsed - childrenTotal
		p.current.Set(node.parent)
	}
}

// Stop closes the active root for the calling goroutine, if any, and
// returns it.
func (p *Profiler) Stop() *CallStackElement {
	defer p.recoverAndLog("Stop")
	root, ok := p.current.Get()
	if !ok {
		return nil
	}
	for root != nil && root.parent != nil {
		root = root.parent
	}
	return root
}

// ClearMethodCallParent resets the per-goroutine current-parent
// pointer. Idempotent and safe to call on exceptional unwinds.
func (p *Profiler) ClearMethodCallParent() {
	defer p.recoverAndLog("ClearMethodCallParent")
	p.current.Clear()
}

func (p *Profiler) recoverAndLog(where string) {
	if r := recover(); r != nil && p.logger != nil {
		p.logger.Errorw("profiler: recovered from panic", "where", where, "panic", r)
	}
}
