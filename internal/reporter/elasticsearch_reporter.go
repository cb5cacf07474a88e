package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	gometrics "github.com/rcrowley/go-metrics"

	"github.com/stagemonitor-go/requestmonitor/internal/trace"
)

// Unlimited disables the per-minute rate cap on the Elasticsearch
// reporter: every admitted trace is reported regardless of rate.
const Unlimited = math.MaxInt64

// ElasticsearchSettings supplies the Elasticsearch reporter's live,
// reloadable admission configuration (spec §6: elasticsearch.url,
// requestmonitor.elasticsearch.onlyReportNRequestsPerMinute,
// requestmonitor.elasticsearch.onlyReportRequestsWithName).
type ElasticsearchSettings interface {
	ElasticsearchURL() string
	OnlyReportRequestsWithName() []string
	OnlyReportNRequestsPerMinute() int64
}

// ElasticsearchReporter applies a three-rule admission chain (URL
// gate, name filter, rate limit) before POSTing the trace as a JSON
// document to a date-stamped index.
type ElasticsearchReporter struct {
	settings ElasticsearchSettings
	indexPrefix string
	httpClient  *http.Client
	logger      Logger

	// meter backs the per-minute rate limit. go-metrics' Meter ticks
	// its EWMA every 5 seconds, which is exactly the "update
	// granularity of approximately 5 seconds" the admission rule's
	// rate check tolerates.
	meter gometrics.Meter

	timeNow func() time.Time
}

// NewElasticsearchReporter creates an ElasticsearchReporter indexing
// into "<indexPrefix>-<yyyy.MM.dd UTC>".
func NewElasticsearchReporter(settings ElasticsearchSettings, indexPrefix string, logger Logger) *ElasticsearchReporter {
	return &ElasticsearchReporter{
		settings:    settings,
		indexPrefix: indexPrefix,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		logger:      logger,
		meter:       gometrics.NewMeter(),
		timeNow:     time.Now,
	}
}

// IsActive implements Reporter: rule 1 (URL gate) and the "limit == 0"
// half of rule 3. The name filter (rule 2) does not affect IsActive —
// a name mismatch skips one trace but leaves the reporter active for
// others.
func (r *ElasticsearchReporter) IsActive(t *trace.RequestTrace) bool {
	if r.settings.ElasticsearchURL() == "" {
		return false
	}
	if r.settings.OnlyReportNRequestsPerMinute() == 0 {
		return false
	}
	return true
}

// ReportRequestTrace implements Reporter.
func (r *ElasticsearchReporter) ReportRequestTrace(t *trace.RequestTrace) error {
	if names := r.settings.OnlyReportRequestsWithName(); len(names) > 0 && !contains(names, t.Name()) {
		return nil
	}

	r.meter.Mark(1)

	limit := r.settings.OnlyReportNRequestsPerMinute()
	// Rate1 is the one-minute moving average in events per second.
	if limit != Unlimited && r.meter.Rate1()*60 > float64(limit) {
		return nil
	}

	return r.index(t)
}

func (r *ElasticsearchReporter) index(t *trace.RequestTrace) error {
	doc, err := json.Marshal(documentOf(t))
	if err != nil {
		return fmt.Errorf("marshal trace document: %w", err)
	}

	url := fmt.Sprintf("%s/%s-%s/requests", r.settings.ElasticsearchURL(), r.indexPrefix, r.timeNow().UTC().Format("2006.01.02"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(doc))
	if err != nil {
		return fmt.Errorf("build elasticsearch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to elasticsearch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("elasticsearch responded with status %d", resp.StatusCode)
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

type traceDocument struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ExecutionTimeMs  float64 `json:"executionTimeMs"`
	CPUTimeMs        float64 `json:"cpuTimeMs"`
	DBTimeMs         float64 `json:"dbTimeMs"`
	DBExecutionCount int64   `json:"dbExecutionCount"`
	IsError          bool    `json:"isError"`
	URL              string  `json:"url,omitempty"`
	Method           string  `json:"method,omitempty"`
	StatusCode       int     `json:"statusCode,omitempty"`
	BytesWritten     int64   `json:"bytesWritten,omitempty"`
	ClientIP         string  `json:"clientIp,omitempty"`
	Username         string  `json:"username,omitempty"`
	SessionID        string  `json:"sessionId,omitempty"`
	ConnectionID     string  `json:"connectionId,omitempty"`
}

func documentOf(t *trace.RequestTrace) traceDocument {
	return traceDocument{
		ID:               t.ID(),
		Name:             t.Name(),
		ExecutionTimeMs:  t.ExecutionTime(),
		CPUTimeMs:        t.CPUTime(),
		DBTimeMs:         t.DBExecutionTime(),
		DBExecutionCount: t.DBExecutionCount(),
		IsError:          t.IsError(),
		URL:              t.URL,
		Method:           t.Method,
		StatusCode:       t.StatusCode,
		BytesWritten:     t.BytesWritten,
		ClientIP:         t.ClientIP,
		Username:         t.Username,
		SessionID:        t.SessionID,
		ConnectionID:     t.ConnectionID,
	}
}
