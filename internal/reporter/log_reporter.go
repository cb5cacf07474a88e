package reporter

import (
	"github.com/stagemonitor-go/requestmonitor/internal/trace"
)

// InfoLogger is the subset of *zap.SugaredLogger LogReporter needs.
type InfoLogger interface {
	Infow(msg string, keysAndValues ...interface{})
}

// LogReporter is always active and writes a structured representation
// of every trace to a logger. It is the fallback sink: every
// deployment gets at least one reporter that can never be
// misconfigured into silence.
type LogReporter struct {
	logger InfoLogger
}

// NewLogReporter creates a LogReporter writing to logger.
func NewLogReporter(logger InfoLogger) *LogReporter {
	return &LogReporter{logger: logger}
}

// IsActive implements Reporter; LogReporter is always active.
func (r *LogReporter) IsActive(t *trace.RequestTrace) bool {
	return true
}

// ReportRequestTrace implements Reporter.
func (r *LogReporter) ReportRequestTrace(t *trace.RequestTrace) error {
	r.logger.Infow("request trace",
		"id", t.ID(),
		"name", t.Name(),
		"executionTimeMs", t.ExecutionTime(),
		"cpuTimeMs", t.CPUTime(),
		"dbTimeMs", t.DBExecutionTime(),
		"dbExecutionCount", t.DBExecutionCount(),
		"isError", t.IsError(),
		"url", t.URL,
		"method", t.Method,
		"statusCode", t.StatusCode,
	)
	return nil
}
