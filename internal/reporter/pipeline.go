package reporter

import (
	"sync"
	"sync/atomic"

	"github.com/stagemonitor-go/requestmonitor/internal/trace"
)

// Logger is the subset of *zap.SugaredLogger the pipeline needs.
type Logger interface {
	Warnw(msg string, keysAndValues ...interface{})
}

// Pipeline is a process-wide, ordered set of Reporters drained by a
// single worker goroutine reading a bounded channel. Registration
// uses a copy-on-write discipline (Design Notes): Register swaps in a
// new slice with the new reporter prepended, so the read path never
// takes a lock.
type Pipeline struct {
	reporters atomic.Pointer[[]Reporter]

	queue  chan *trace.RequestTrace
	logger Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewPipeline creates a Pipeline with a bounded submission queue of
// capacity queueCapacity and starts its single worker goroutine.
func NewPipeline(queueCapacity int, logger Logger) *Pipeline {
	if queueCapacity <= 0 {
		queueCapacity = 1
	}
	p := &Pipeline{
		queue:  make(chan *trace.RequestTrace, queueCapacity),
		logger: logger,
		done:   make(chan struct{}),
	}
	empty := []Reporter{}
	p.reporters.Store(&empty)
	go p.run()
	return p
}

// Register prepends r to the reporter list, so it is inspected before
// reporters added earlier (Design Notes: "preserve prepend
// semantics"). Registering the same reporter twice keeps both
// entries: this is list semantics, not set semantics, and each
// registration receives every trace.
func (p *Pipeline) Register(r Reporter) {
	for {
		old := p.reporters.Load()
		next := make([]Reporter, 0, len(*old)+1)
		next = append(next, r)
		next = append(next, (*old)...)
		if p.reporters.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Submit hands t to the single-worker queue for asynchronous
// dispatch. If the queue is full (or the pipeline has been closed),
// Submit logs a rejection and drops the trace; it never blocks the
// caller.
func (p *Pipeline) Submit(t *trace.RequestTrace) {
	t.Freeze()
	defer func() {
		// A send on the queue after Close panics; treat it as a rejection.
		if recover() != nil && p.logger != nil {
			p.logger.Warnw("reporter pipeline: closed, dropping trace", "traceID", t.ID())
		}
	}()
	select {
	case p.queue <- t:
	default:
		if p.logger != nil {
			p.logger.Warnw("reporter pipeline: queue full, dropping trace", "traceID", t.ID())
		}
	}
}

func (p *Pipeline) run() {
	defer close(p.done)
	for t := range p.queue {
		p.dispatch(t)
	}
}

// AnyActive reports whether at least one registered reporter would
// consider t active. Used by the profiling decision (spec §4.D
// "profileThisRequest"): skip expensive call-stack collection when
// nobody would consume it.
func (p *Pipeline) AnyActive(t *trace.RequestTrace) bool {
	reporters := *p.reporters.Load()
	for _, r := range reporters {
		if r.IsActive(t) {
			return true
		}
	}
	return false
}

func (p *Pipeline) dispatch(t *trace.RequestTrace) {
	reporters := *p.reporters.Load()
	for _, r := range reporters {
		if !r.IsActive(t) {
			continue
		}
		if err := r.ReportRequestTrace(t); err != nil && p.logger != nil {
			p.logger.Warnw("reporter failed", "error", err)
		}
	}
}

// Close stops accepting new submissions and waits for the worker to
// drain everything already queued, then returns. Close is idempotent:
// calling it more than once is a no-op after the first call.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	<-p.done
}
