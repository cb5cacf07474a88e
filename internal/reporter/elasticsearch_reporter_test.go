package reporter

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagemonitor-go/requestmonitor/internal/trace"
)

type fakeSettings struct {
	url          string
	onlyNames    []string
	maxPerMinute int64
}

func (s *fakeSettings) ElasticsearchURL() string                 { return s.url }
func (s *fakeSettings) OnlyReportRequestsWithName() []string      { return s.onlyNames }
func (s *fakeSettings) OnlyReportNRequestsPerMinute() int64       { return s.maxPerMinute }

func newTestServer(indexed *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		indexed.Add(1)
		_, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
}

func TestElasticsearchReporterReportMePassesFilter(t *testing.T) {
	var indexed atomic.Int64
	srv := newTestServer(&indexed)
	defer srv.Close()

	settings := &fakeSettings{url: srv.URL, onlyNames: []string{"Report Me"}, maxPerMinute: Unlimited}
	r := NewElasticsearchReporter(settings, "requests", nil)

	tr := trace.New("id-1", trace.Eager("Report Me"))
	require.True(t, r.IsActive(tr))

	err := r.ReportRequestTrace(tr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), indexed.Load())
}

func TestElasticsearchReporterNameFilterRejects(t *testing.T) {
	var indexed atomic.Int64
	srv := newTestServer(&indexed)
	defer srv.Close()

	settings := &fakeSettings{url: srv.URL, onlyNames: []string{"Report Me"}, maxPerMinute: Unlimited}
	r := NewElasticsearchReporter(settings, "requests", nil)

	tr := trace.New("id-2", trace.Eager("Regular Foo"))
	require.True(t, r.IsActive(tr), "reporter stays active even though this trace is filtered")

	err := r.ReportRequestTrace(tr)
	require.NoError(t, err)
	assert.Equal(t, int64(0), indexed.Load())
}

func TestElasticsearchReporterRateZeroDisables(t *testing.T) {
	var indexed atomic.Int64
	srv := newTestServer(&indexed)
	defer srv.Close()

	settings := &fakeSettings{url: srv.URL, onlyNames: []string{"Report Me"}, maxPerMinute: 0}
	r := NewElasticsearchReporter(settings, "requests", nil)

	tr := trace.New("id-3", trace.Eager("Report Me"))
	assert.False(t, r.IsActive(tr))
}

func TestElasticsearchReporterRateOneSecondSubmissionSuppressed(t *testing.T) {
	var indexed atomic.Int64
	srv := newTestServer(&indexed)
	defer srv.Close()

	settings := &fakeSettings{url: srv.URL, maxPerMinute: 1}
	r := NewElasticsearchReporter(settings, "requests", nil)

	tr1 := trace.New("id-4", trace.Eager("Report Me"))
	require.NoError(t, r.ReportRequestTrace(tr1))

	// go-metrics' Meter ticks its EWMA every ~5s; wait past one tick
	// before the second submission so Rate1() reflects the first mark.
	time.Sleep(5100 * time.Millisecond)

	tr2 := trace.New("id-5", trace.Eager("Report Me"))
	require.NoError(t, r.ReportRequestTrace(tr2))

	assert.Equal(t, int64(1), indexed.Load())
}

func TestElasticsearchReporterURLGate(t *testing.T) {
	settings := &fakeSettings{url: "", maxPerMinute: Unlimited}
	r := NewElasticsearchReporter(settings, "requests", nil)

	assert.False(t, r.IsActive(trace.New("id-6", trace.Eager("anything"))))
}
