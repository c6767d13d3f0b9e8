package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTraceMiddlewarePreservesIncomingTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := TraceIDFromContext(r.Context()); got != "trace-1" {
			t.Fatalf("TraceIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", nil)
	req.Header.Set(traceHeader, "trace-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(traceHeader); got != "trace-1" {
		t.Fatalf("trace header = %q", got)
	}
}

func TestTraceMiddlewareGeneratesTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceIDFromContext(r.Context()) == "" {
			t.Fatal("expected generated trace id")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/crm/schema", nil))

	if rr.Header().Get(traceHeader) == "" {
		t.Fatal("expected X-Trace-ID header")
	}
}

func TestTraceIDContextHelpers(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc123")
	if got := TraceIDFromContext(ctx); got != "abc123" {
		t.Fatalf("TraceIDFromContext() = %q", got)
	}
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Fatalf("TraceIDFromContext(empty) = %q", got)
	}
}

func TestLoggingMiddlewareRecordsStatusAndPath(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/crm/query", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["path"] != "/v1/crm/query" {
		t.Fatalf("path = %v", entry["path"])
	}
	if entry["status"] != float64(http.StatusUnprocessableEntity) {
		t.Fatalf("status = %v", entry["status"])
	}
}

func TestMetricsMiddlewareDoesNotPanic(t *testing.T) {
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/news", nil))
}

func TestMetricsRouteCollapsesPreviewPaths(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/v1/crm/tables/account/preview", "/v1/crm/tables/{table}/preview"},
		{"/v1/crm/tables", "/v1/crm/tables"},
		{"/v1/ask", "/v1/ask"},
	}
	for _, tc := range cases {
		if got := metricsRoute(tc.path); got != tc.want {
			t.Fatalf("metricsRoute(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestStatusRecorderDefaultsTo200OnWrite(t *testing.T) {
	rr := httptest.NewRecorder()
	recorder := &statusRecorder{ResponseWriter: rr, status: http.StatusOK}
	if _, err := recorder.Write([]byte("body")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if recorder.status != http.StatusOK {
		t.Fatalf("status = %d", recorder.status)
	}
}
