package reporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stagemonitor-go/requestmonitor/internal/trace"
)

type capturingLogger struct {
	lastMsg  string
	lastKVs  []interface{}
	callCount int
}

func (l *capturingLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.lastMsg = msg
	l.lastKVs = keysAndValues
	l.callCount++
}

func TestLogReporterAlwaysActive(t *testing.T) {
	r := NewLogReporter(&capturingLogger{})
	assert.True(t, r.IsActive(trace.New("id", trace.Eager("any"))))
}

func TestLogReporterWritesOneLine(t *testing.T) {
	logger := &capturingLogger{}
	r := NewLogReporter(logger)

	tr := trace.New("id-1", trace.Eager("checkout"))
	tr.SetExecutionTime(12.3)

	err := r.ReportRequestTrace(tr)

	assert.NoError(t, err)
	assert.Equal(t, 1, logger.callCount)
	assert.Equal(t, "request trace", logger.lastMsg)
}
