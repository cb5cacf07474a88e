// Package httpreq adapts net/http handlers to the request-monitor
// core: Middleware wraps an http.Handler so that every inbound request
// becomes one MonitoredRequest. URL, method, client IP, headers and
// query parameters are set when the trace is created; status code and
// bytes written are set in OnPostExecute.
package httpreq

import (
	"net/http"

	"github.com/stagemonitor-go/requestmonitor/internal/reqmonitor"
	"github.com/stagemonitor-go/requestmonitor/internal/trace"
)

// Engine is the subset of *reqmonitor.Monitor Middleware needs.
type Engine interface {
	Monitor(adapter reqmonitor.MonitoredRequest) (any, error)
}

// NameFunc derives the trace name for an inbound request, e.g.
// "GET /orders/{id}". Deferred: only invoked for a request the engine
// admits, when the engine first reads the trace name.
type NameFunc func(r *http.Request) string

// Middleware wraps next so every request it serves is monitored. The
// HTTP adapter reports IsMonitorForwardedExecutions() == true, so a
// request dispatched from inside another monitored request on the same
// goroutine is admitted. The outer request is admitted and reported as
// well: the engine applies the forwarding policy once, when each frame
// starts, so an outer frame is not dropped because a nested one follows.
func Middleware(engine Engine, nameFn NameFunc, next http.Handler) http.Handler {
	if nameFn == nil {
		nameFn = defaultName
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		adapter := &requestAdapter{
			request: r,
			writer:  rec,
			next:    next,
			nameFn:  nameFn,
		}
		engine.Monitor(adapter)
	})
}

// requestAdapter implements reqmonitor.MonitoredRequest for one
// inbound HTTP request.
type requestAdapter struct {
	request *http.Request
	writer  *statusRecorder
	next    http.Handler
	nameFn  NameFunc
}

func (a *requestAdapter) InstanceName() (string, bool) {
	host := a.request.Host
	return host, host != ""
}

func (a *requestAdapter) CreateRequestTrace() *trace.RequestTrace {
	r := a.request
	id := r.Header.Get("X-Request-Id")
	if id == "" {
		id = r.Method + " " + r.URL.Path
	}
	t := trace.New(id, trace.Deferred(func() string { return a.nameFn(r) }))
	t.URL = r.URL.String()
	t.Method = r.Method
	t.ClientIP = clientIP(r)
	t.Headers = flattenHeaders(r.Header)
	t.Parameters = flattenValues(r.URL.Query())
	if cookie, err := r.Cookie("JSESSIONID"); err == nil {
		t.SessionID = cookie.Value
	}
	return t
}

func (a *requestAdapter) Execute() (any, error) {
	a.next.ServeHTTP(a.writer, a.request)
	return nil, nil
}

func (a *requestAdapter) OnPostExecute(f *reqmonitor.Frame) {
	tr := f.Trace()
	if tr == nil {
		return
	}
	tr.StatusCode = a.writer.status
	tr.BytesWritten = a.writer.bytesWritten
	if a.writer.status >= http.StatusInternalServerError {
		tr.SetError(nil)
	}
}

// IsMonitorForwardedExecutions reports true: a nested HTTP dispatch is
// monitored (the outer dispatch is monitored too; see Middleware).
func (a *requestAdapter) IsMonitorForwardedExecutions() bool { return true }

func defaultName(r *http.Request) string {
	return r.Method + " " + r.URL.Path
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func flattenValues(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// statusRecorder captures the status code and byte count an
// http.Handler writes, since net/http exposes neither after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status       int
	bytesWritten int64
	wroteHeader  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytesWritten += int64(n)
	return n, err
}
