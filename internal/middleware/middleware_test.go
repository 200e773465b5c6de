package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"pixel-basket/internal/metrics"
)

func TestResponseWriterWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	if rw.statusCode != http.StatusOK || rw.wroteHeader {
		t.Fatalf("fresh writer: status %d, wroteHeader %v", rw.statusCode, rw.wroteHeader)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected the first status 404 to stick, got %d", rw.statusCode)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("underlying writer got %d", w.Code)
	}
}

func TestResponseWriterWrite(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	rw.Write([]byte("hello "))
	rw.Write([]byte("world"))

	if rw.bytesWritten != 11 {
		t.Errorf("Expected 11 bytes, got %d", rw.bytesWritten)
	}
	if !rw.wroteHeader {
		t.Error("Write should mark the header written")
	}
	if w.Body.String() != "hello world" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := map[string]string{
		"plain":               "plain",
		"line\nbreak":         "line break",
		"carriage\rreturn":    "carriage return",
		"nul\x00byte":         "nulbyte",
		"\x1b[31mred\x1b[0m":  "[31mred[0m",
		"tab\tkept":           "tab\tkept",
		"bell\x07":            "bell",
		"/api/items?dir=/m/a": "/api/items?dir=/m/a",
	}
	for in, want := range tests {
		if got := sanitizeLogField(in); got != want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShouldSkip(t *testing.T) {
	cfg := DefaultLoggingConfig()
	if !shouldSkip("/metrics", cfg) {
		t.Error("/metrics should be skipped")
	}
	if shouldSkip("/healthz", cfg) {
		t.Error("health checks are logged by default")
	}
	cfg.LogHealthChecks = false
	if !shouldSkip("/healthz", cfg) || !shouldSkip("/livez", cfg) {
		t.Error("health checks should be skipped when disabled")
	}
	if shouldSkip("/api/items", cfg) {
		t.Error("API requests should be logged")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.5:41234", "10.0.0.5"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1:80", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/items?dir=/m", http.NoBody)
	r.RemoteAddr = "192.0.2.1:5555"
	r.Header.Set("User-Agent", "curl/8.0 (linux)")

	rw := newResponseWriter(httptest.NewRecorder())
	rw.WriteHeader(http.StatusTeapot)
	rw.Write([]byte("{}"))

	line := formatRequest(r, rw, 1500*time.Millisecond)
	fields := strings.SplitN(line, " ", 11)
	if len(fields) != 11 {
		t.Fatalf("got %d fields in %q", len(fields), line)
	}
	want := []string{"192.0.2.1", "GET", "/api/items", "dir=/m", "418", "2", "1500", "-", `"curl/8.0 (linux)"`}
	if got := fields[2:]; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("fields = %q, want %q", got, want)
	}
}

func TestFormatRequestJobID(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/tasks/rerun", http.NoBody)
	rw := newResponseWriter(httptest.NewRecorder())
	rw.Header().Set(JobIDHeader, "5f0c")
	rw.WriteHeader(http.StatusAccepted)

	fields := strings.Fields(formatRequest(r, rw, 0))
	if got := fields[len(fields)-2]; got != "5f0c" {
		t.Errorf("job field = %q in %q", got, fields)
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/baskets", http.NoBody))

	if w.Code != http.StatusCreated || w.Body.String() != "ok" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/":                          "/",
		"/api/items":                 "/api/items",
		"/api/items/12":              "/api/items/12",
		"/api/items/12/thumbnail":    "/api/items/12/{path}",
		"/api/items/12/thumbnail/xy": "/api/items/12/{path}",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/widgets/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
	r.HandleFunc("/metrics", func(http.ResponseWriter, *http.Request) {})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/widgets/{id}", "204")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/widgets/"+id, http.NoBody))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("counter grew by %v, want 3", got)
	}
	skipped := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200")
	if testutil.ToFloat64(skipped) != 0 {
		t.Error("/metrics should not be recorded")
	}
	if testutil.ToFloat64(metrics.HTTPRequestsInFlight) != 0 {
		t.Error("in-flight gauge should return to zero")
	}
}

func BenchmarkLoggingMiddleware(b *testing.B) {
	handler := Logger(LoggingConfig{SkipPaths: []string{"/api"}})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/items", http.NoBody)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
