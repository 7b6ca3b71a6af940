package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONCarriesComponent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := New(Config{Format: "json", Output: &buf}).WithComponent(ComponentStorage)
	log.Info("opened", FieldBackend, "memory")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec[FieldBackend] != "memory" || rec["msg"] != "opened" {
		t.Errorf("record = %v", rec)
	}
	if log.Component() != ComponentStorage {
		t.Errorf("component = %q", log.Component())
	}
}

func TestWithComponentReplacesTag(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := New(Config{Format: "json", Output: &buf}).
		With(FieldUserID, "u1").
		WithComponent(ComponentStorage).
		WithComponent(ComponentEvents)
	log.Info("published")

	line := buf.String()
	if n := strings.Count(line, `"`+FieldComponent+`"`); n != 1 {
		t.Fatalf("component appears %d times in %s", n, line)
	}
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if rec[FieldComponent] != ComponentEvents || rec[FieldUserID] != "u1" {
		t.Errorf("record = %v", rec)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	t.Parallel()
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext returned nil")
	}
	l := Discard()
	if got := FromContext(WithContext(context.Background(), l)); got != l {
		t.Error("FromContext did not return the stored logger")
	}
}

func TestMiddlewareLogsRequest(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	base := New(Config{Format: "text", Output: &buf})

	var fromCtx *Logger
	h := middleware.RequestID(Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/budgets", nil))

	out := buf.String()
	for _, want := range []string{"request rejected", "path=/api/budgets", "status_code=404", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
	if fromCtx == nil || fromCtx.Component() != ComponentHTTP {
		t.Errorf("request logger = %+v", fromCtx)
	}
}
