package reqmonitor

import (
	"time"

	"github.com/stagemonitor-go/requestmonitor/internal/config"
)

// settings is a thin, named view over config.Configuration for the
// keys spec §6 lists as consumed by the core engine. Reading through
// named methods (instead of scattering string keys through monitor.go)
// keeps the config-key surface in one place.
type settings struct {
	cfg config.Configuration
}

func (s settings) active() bool                  { return s.cfg.Bool("stagemonitor.active", true) }
func (s settings) internalMonitoring() bool       { return s.cfg.Bool("stagemonitor.internal.monitoring", false) }
func (s settings) applicationName() string        { return s.cfg.String("application.name", "") }
func (s settings) instanceName() string           { return s.cfg.String("instance.name", "") }
func (s settings) warmupRequests() int64          { return int64(s.cfg.Int("requestmonitor.warmupRequests", 0)) }
func (s settings) warmupDuration() time.Duration  { return s.cfg.Duration("requestmonitor.warmupSeconds", 0) }
func (s settings) collectRequestStats() bool      { return s.cfg.Bool("requestmonitor.collectRequestStats", true) }
func (s settings) collectCPUTime() bool           { return s.cfg.Bool("requestmonitor.collectCpuTime", true) }
func (s settings) collectDBTimePerRequest() bool  { return s.cfg.Bool("requestmonitor.collectDbTimePerRequest", true) }
func (s settings) profilerActive() bool           { return s.cfg.Bool("requestmonitor.profiler.active", false) }
func (s settings) callStackEveryXRequests() int   { return s.cfg.Int("requestmonitor.profiler.callStackEveryXRequestsToGroup", 1) }
func (s settings) minExecutionTimePercent() float64 {
	return s.cfg.Float64("requestmonitor.profiler.minExecutionTimePercent", 0)
}
