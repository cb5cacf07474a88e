package reqmonitor

import (
	"testing"

	"github.com/stagemonitor-go/requestmonitor/internal/reporter"
)

func TestTrackOverheadNoOpWhenInternalMonitoringDisabled(t *testing.T) {
	reg := newFakeRegistry()
	pipeline := reporter.NewPipeline(4, fakeLogger{})
	defer pipeline.Close()
	m := New(newFakeConfig(), reg, pipeline, fakeLogger{})

	m.trackOverhead(100, 200)

	if _, ok := reg.counts[seriesKey(overheadMetricName, nil)]; ok {
		t.Fatalf("expected no overhead observation when internal monitoring is disabled")
	}
}

func TestTrackOverheadRecordsSumWhenEnabled(t *testing.T) {
	cfg := newFakeConfig()
	cfg.bools["stagemonitor.internal.monitoring"] = true
	reg := newFakeRegistry()
	pipeline := reporter.NewPipeline(4, fakeLogger{})
	defer pipeline.Close()
	m := New(cfg, reg, pipeline, fakeLogger{})

	m.trackOverhead(100, 200)

	key := seriesKey(overheadMetricName, nil)
	if reg.counts[key] != 1 {
		t.Fatalf("expected exactly one overhead observation, got %d", reg.counts[key])
	}
}
