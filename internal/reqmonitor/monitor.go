// Package reqmonitor implements the Request Monitor core engine: the
// per-execution lifecycle described in spec §4.D, including nested/
// forwarded-request detection, timing, metric emission, warm-up, and
// asynchronous dispatch to the reporter pipeline.
package reqmonitor

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stagemonitor-go/requestmonitor/internal/config"
	"github.com/stagemonitor-go/requestmonitor/internal/cputime"
	"github.com/stagemonitor-go/requestmonitor/internal/goroutinelocal"
	"github.com/stagemonitor-go/requestmonitor/internal/metrics"
	"github.com/stagemonitor-go/requestmonitor/internal/profiler"
	"github.com/stagemonitor-go/requestmonitor/internal/reporter"
	"github.com/stagemonitor-go/requestmonitor/internal/session"
	"github.com/stagemonitor-go/requestmonitor/internal/trace"
)

const (
	metricResponseTimeServer = "response_time_server"
	metricResponseTimeCPU    = "response_time_cpu"
	metricErrorRateServer    = "error_rate_server"
	metricJDBCQueryRate      = "jdbc_query_rate"
	layerAll                 = "All"
	layerJDBC                = "jdbc"
	requestNameAll           = "All"
)

// Logger is the subset of *zap.SugaredLogger the engine needs.
type Logger interface {
	Errorw(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}

// StartupFunc performs one-time, asynchronous agent start-up work
// (e.g. warming reporter connections). Errors are logged and
// otherwise swallowed.
type StartupFunc func() error

// Monitor is the Request Monitor core engine. Unlike the source's
// static/singleton engine, Monitor is an explicit value: tests
// instantiate independent engines rather than sharing process-wide
// state (Design Notes).
type Monitor struct {
	settings settings
	registry metrics.Registry
	pipeline *reporter.Pipeline
	profiler *profiler.Profiler
	logger   Logger

	current goroutinelocal.Register[*Frame]

	bootstrap session.Bootstrap

	warmup *warmup

	requestCounter atomic.Int64

	startupFn   StartupFunc
	startupOnce sync.Once
	startupDone chan struct{}
	startupErr  error

	beforeMu        sync.Mutex
	beforeCallbacks callbackList
	afterMu         sync.Mutex
	afterCallbacks  callbackList

	nowNanos func() int64
}

// Option customises a Monitor at construction.
type Option func(*Monitor)

// WithStartupFunc registers one-time async start-up work triggered by
// the first monitored request (spec §4.D.9).
func WithStartupFunc(fn StartupFunc) Option {
	return func(m *Monitor) { m.startupFn = fn }
}

// New constructs a Monitor. cfg, registry, pipeline, and logger are
// the engine's external collaborators (spec §1 "Out of scope").
func New(cfg config.Configuration, registry metrics.Registry, pipeline *reporter.Pipeline, logger Logger, opts ...Option) *Monitor {
	s := settings{cfg: cfg}
	m := &Monitor{
		settings:    s,
		registry:    registry,
		pipeline:    pipeline,
		profiler:    profiler.New(loggerAdapter{logger}),
		logger:      logger,
		warmup:      newWarmup(s.warmupRequests(), s.warmupDuration(), time.Now()),
		startupDone: make(chan struct{}),
		nowNanos:    func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.startupFn == nil {
		close(m.startupDone)
	}
	return m
}

// loggerAdapter narrows reqmonitor.Logger to profiler.Logger.
type loggerAdapter struct{ l Logger }

func (a loggerAdapter) Errorw(msg string, keysAndValues ...interface{}) {
	if a.l != nil {
		a.l.Errorw(msg, keysAndValues...)
	}
}

// callbackList is a copy-on-write list of frame callbacks, mirroring
// the reporter pipeline's registration discipline.
type callbackList struct {
	fns []func(*Frame)
}

func (c *callbackList) add(fn func(*Frame)) {
	next := make([]func(*Frame), 0, len(c.fns)+1)
	next = append(next, fn)
	next = append(next, c.fns...)
	c.fns = next
}

func (c *callbackList) run(f *Frame, logger Logger) {
	for _, fn := range c.fns {
		safeRun(fn, f, logger)
	}
}

func safeRun(fn func(*Frame), f *Frame, logger Logger) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Warnw("request monitor: callback panicked", "panic", r)
		}
	}()
	fn(f)
}

// AddOnBeforeRequestCallback registers fn to run at the end of
// monitorStart, after admission and trace creation, with failures
// swallowed and logged.
func (m *Monitor) AddOnBeforeRequestCallback(fn func(*Frame)) {
	m.beforeMu.Lock()
	defer m.beforeMu.Unlock()
	m.beforeCallbacks.add(fn)
}

// AddOnAfterRequestCallback registers fn to run at the end of
// monitorStop, with failures swallowed and logged.
func (m *Monitor) AddOnAfterRequestCallback(fn func(*Frame)) {
	m.afterMu.Lock()
	defer m.afterMu.Unlock()
	m.afterCallbacks.add(fn)
}

// GetCurrentRequest returns the trace for the currently active
// monitored request on the calling goroutine, or nil if there is
// none, or if the active frame was never admitted.
func (m *Monitor) GetCurrentRequest() *trace.RequestTrace {
	f, ok := m.current.Get()
	if !ok || f == nil {
		return nil
	}
	return f.trace
}

// Monitor is the single synchronous entry point (spec §6
// "monitor(adapter)"). The only error that escapes Monitor is one
// raised by adapter.Execute itself (spec §7 propagation rule).
func (m *Monitor) Monitor(adapter MonitoredRequest) (any, error) {
	f := m.monitorStart(adapter)
	defer m.monitorStop(f)

	result, err := adapter.Execute()
	f.result = result
	f.err = err
	if err != nil && f.trace != nil {
		f.trace.SetError(err)
	}
	return result, err
}

func (m *Monitor) monitorStart(adapter MonitoredRequest) *Frame {
	t0 := m.nowNanos()

	f := &Frame{
		adapter:       adapter,
		startNanos:    t0,
		startCPUNanos: cputime.Now(),
	}

	if parent, ok := m.current.Get(); ok && parent != nil {
		f.parent = parent
		parent.child = f
	}
	m.current.Set(f)

	if !m.settings.active() {
		return f
	}

	sess := m.bootstrap.EnsureSession(m.settings.applicationName(), localHostName(), m.settings.instanceName())
	if sess.InstanceName == "" {
		m.bootstrap.UpgradeInstanceName(adapter)
	}

	reqNum := m.requestCounter.Add(1)
	f.firstRequest = reqNum == 1

	warmedUp := m.warmup.isWarmedUp(time.Now())
	monitored := monitorThisRequest(m.settings.collectRequestStats(), warmedUp, f.IsForwarded(), f.IsForwarding(), adapter)
	f.monitored = monitored
	if !monitored {
		f.overhead1 = m.nowNanos() - t0
		return f
	}

	m.startupOnce.Do(func() {
		if m.startupFn == nil {
			return
		}
		go func() {
			defer close(m.startupDone)
			m.startupErr = m.startupFn()
			if m.startupErr != nil && m.logger != nil {
				m.logger.Warnw("request monitor: startup failed", "error", m.startupErr)
			}
		}()
	})
	f.startupDone = m.startupDone

	tr := adapter.CreateRequestTrace()
	f.trace = tr

	if tr != nil {
		// Resolving the name here (rather than leaving it fully lazy)
		// is the engine itself forcing eager resolution for the
		// purpose of the profiling decision below, which needs a
		// per-request-name grouping key before Execute runs; it does
		// not change the value the name would otherwise have resolved
		// to, only when it first memoizes.
		name := tr.Name()
		f.timerName = name
		priorCount := m.registry.Count(metricResponseTimeServer, map[string]string{"request_name": name, "layer": layerAll})
		f.timerCreated = true
		if profileThisRequest(m.settings.profilerActive(), m.settings.callStackEveryXRequests(), priorCount, m.pipeline.AnyActive(tr)) {
			root := m.profiler.ActivateProfiling("total")
			tr.SetCallStack(root)
		}
	}

	m.beforeMu.Lock()
	before := m.beforeCallbacks
	m.beforeMu.Unlock()
	before.run(f, m.logger)

	f.overhead1 = m.nowNanos() - t0
	return f
}

func (m *Monitor) monitorStop(f *Frame) {
	t1 := m.nowNanos()

	if f.parent != nil {
		m.current.Set(f.parent)
		f.parent.child = nil
	} else {
		m.current.Clear()
	}

	if f.monitored && f.trace != nil && f.trace.Name() != "" {
		if f.startupDone != nil {
			<-f.startupDone
		}

		executionTimeNanos := m.nowNanos() - f.startNanos
		cpuTimeNanos := int64(0)
		if cputime.Supported {
			cpuTimeNanos = cputime.Now() - f.startCPUNanos
		}

		tr := f.trace
		tr.SetExecutionTime(float64(executionTimeNanos) / 1e6)
		if m.settings.collectCPUTime() {
			tr.SetCPUTime(float64(cpuTimeNanos) / 1e6)
		}

		f.adapter.OnPostExecute(f)

		if root := tr.CallStack(); root != nil {
			stopped := m.profiler.Stop()
			if stopped != nil {
				stopped.Signature = tr.Name()
				// The root's own TotalNanos is never written by
				// Enter's exit closure (that only times non-root
				// children), so it must be seeded with the request's
				// wall-clock total before pruning can use it as the
				// "root.total * percent/100" threshold basis.
				stopped.TotalNanos = executionTimeNanos
				if pct := m.settings.minExecutionTimePercent(); pct > 0 {
					threshold := int64(float64(stopped.TotalNanos) * pct / 100)
					stopped.RemoveCallsFasterThan(threshold)
				}
			}
		}

		m.pipeline.Submit(tr)
		m.emitMetrics(tr, executionTimeNanos, cpuTimeNanos)
	} else if f.timerCreated {
		m.registry.RemoveTimer(metricResponseTimeServer, map[string]string{"request_name": f.timerName, "layer": layerAll})
	}

	if f.trace != nil {
		m.profiler.ClearMethodCallParent()
	}

	if !f.firstRequest {
		m.trackOverhead(f.overhead1, m.nowNanos()-t1)
	}

	m.afterMu.Lock()
	after := m.afterCallbacks
	m.afterMu.Unlock()
	after.run(f, m.logger)
}

func (m *Monitor) emitMetrics(tr *trace.RequestTrace, executionTimeNanos, cpuTimeNanos int64) {
	name := tr.Name()

	m.registry.Timer(metricResponseTimeServer, map[string]string{"request_name": name, "layer": layerAll}, executionTimeNanos)
	m.registry.Timer(metricResponseTimeServer, map[string]string{"request_name": requestNameAll, "layer": layerAll}, executionTimeNanos)

	if m.settings.collectCPUTime() {
		m.registry.Timer(metricResponseTimeCPU, map[string]string{"request_name": name, "layer": layerAll}, cpuTimeNanos)
		m.registry.Timer(metricResponseTimeCPU, map[string]string{"request_name": requestNameAll, "layer": layerAll}, cpuTimeNanos)
	}

	if tr.IsError() {
		m.registry.Mark(metricErrorRateServer, map[string]string{"request_name": name, "layer": layerAll}, 1)
		m.registry.Mark(metricErrorRateServer, map[string]string{"request_name": requestNameAll, "layer": layerAll}, 1)
	}

	if count := tr.DBExecutionCount(); count > 0 {
		dbTimeNanos := int64(tr.DBExecutionTime() * 1e6)
		m.registry.Timer(metricResponseTimeServer, map[string]string{"request_name": requestNameAll, "layer": layerJDBC}, dbTimeNanos)
		if m.settings.collectDBTimePerRequest() {
			m.registry.Timer(metricResponseTimeServer, map[string]string{"request_name": name, "layer": layerJDBC}, dbTimeNanos)
		}
		m.registry.Mark(metricJDBCQueryRate, map[string]string{"request_name": name}, count)
	}
}

// Close performs a graceful shutdown: it clears this goroutine's
// current-request register and requests the reporter pipeline drain
// then stop. In-flight workloads on other goroutines complete
// naturally.
func (m *Monitor) Close() {
	m.current.Clear()
	m.pipeline.Close()
}

func localHostName() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
