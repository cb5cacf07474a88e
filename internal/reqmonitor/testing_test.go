package reqmonitor

import (
	"sort"
	"time"

	"github.com/stagemonitor-go/requestmonitor/internal/trace"
)

// fakeConfig is a map-backed config.Configuration for tests.
type fakeConfig struct {
	bools     map[string]bool
	ints      map[string]int
	floats    map[string]float64
	strings   map[string]string
	durations map[string]time.Duration
}

func newFakeConfig() *fakeConfig {
	return &fakeConfig{
		bools:     map[string]bool{},
		ints:      map[string]int{},
		floats:    map[string]float64{},
		strings:   map[string]string{},
		durations: map[string]time.Duration{},
	}
}

func (c *fakeConfig) Bool(key string, def bool) bool {
	if v, ok := c.bools[key]; ok {
		return v
	}
	return def
}

func (c *fakeConfig) Int(key string, def int) int {
	if v, ok := c.ints[key]; ok {
		return v
	}
	return def
}

func (c *fakeConfig) Float64(key string, def float64) float64 {
	if v, ok := c.floats[key]; ok {
		return v
	}
	return def
}

func (c *fakeConfig) String(key string, def string) string {
	if v, ok := c.strings[key]; ok {
		return v
	}
	return def
}

func (c *fakeConfig) Duration(key string, def time.Duration) time.Duration {
	if v, ok := c.durations[key]; ok {
		return v
	}
	return def
}

func (c *fakeConfig) StringSlice(key string) []string { return nil }

// fakeRegistry is an in-memory metrics.Registry for tests.
type fakeRegistry struct {
	timers map[string]int
	marks  map[string]int64
	counts map[string]int64
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		timers: map[string]int{},
		marks:  map[string]int64{},
		counts: map[string]int64{},
	}
}

func seriesKey(baseName string, tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := baseName
	for _, k := range keys {
		key += "|" + k + "=" + tags[k]
	}
	return key
}

func (r *fakeRegistry) Timer(baseName string, tags map[string]string, nanos int64) {
	k := seriesKey(baseName, tags)
	r.timers[k]++
	r.counts[k]++
}

func (r *fakeRegistry) Mark(baseName string, tags map[string]string, count int64) {
	r.marks[seriesKey(baseName, tags)] += count
}

func (r *fakeRegistry) Count(baseName string, tags map[string]string) int64 {
	k := seriesKey(baseName, tags)
	if _, ok := r.counts[k]; !ok {
		r.counts[k] = 0
	}
	return r.counts[k]
}

func (r *fakeRegistry) RemoveTimer(baseName string, tags map[string]string) {
	k := seriesKey(baseName, tags)
	if r.counts[k] == 0 {
		delete(r.counts, k)
		delete(r.timers, k)
	}
}

// fakeLogger discards everything; tests that care about log content
// assert on other observable effects.
type fakeLogger struct{}

func (fakeLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (fakeLogger) Warnw(msg string, keysAndValues ...interface{})  {}

// fakeAdapter is a configurable MonitoredRequest for tests.
type fakeAdapter struct {
	name             string
	forwarded        bool
	instanceName     string
	instanceNameOK   bool
	executeFn        func() (any, error)
	postExecuteCalls int
	traceCreated     *trace.RequestTrace
}

func newFakeAdapter(name string) *fakeAdapter {
	return &fakeAdapter{
		name:      name,
		executeFn: func() (any, error) { return "ok", nil },
	}
}

func (a *fakeAdapter) InstanceName() (string, bool) { return a.instanceName, a.instanceNameOK }

func (a *fakeAdapter) CreateRequestTrace() *trace.RequestTrace {
	t := trace.New(a.name+"-id", trace.Eager(a.name))
	a.traceCreated = t
	return t
}

func (a *fakeAdapter) Execute() (any, error) { return a.executeFn() }

func (a *fakeAdapter) OnPostExecute(f *Frame) { a.postExecuteCalls++ }

func (a *fakeAdapter) IsMonitorForwardedExecutions() bool { return a.forwarded }

// fakeReporter is a configurable reporter.Reporter for tests.
type fakeReporter struct {
	active   bool
	reported []*trace.RequestTrace
}

func (r *fakeReporter) IsActive(t *trace.RequestTrace) bool { return r.active }

func (r *fakeReporter) ReportRequestTrace(t *trace.RequestTrace) error {
	r.reported = append(r.reported, t)
	return nil
}
