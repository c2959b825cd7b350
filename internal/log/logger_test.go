package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Output: &buf, Component: ComponentFinance}), &buf
}

func TestParseLevel(t *testing.T) {
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

func TestLoggerAddsComponent(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	logger.Info("snapshot refreshed", FieldPeriod, "2024-01")
	logger.WithComponent(ComponentStorage).Warn("write failed")
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=finance") || !strings.Contains(out, "period=2024-01") {
		t.Fatalf("missing fields in %q", out)
	}
	if !strings.Contains(out, "component=storage") {
		t.Fatalf("missing storage component in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line printed at info level")
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithPeriod("2024-02").
		WithRecord("exp_1", 1500).
		WithCategory("metas").
		WithError(errors.New("boom")).
		WithError(nil).
		WithComponent(ComponentHTTP)

	if f[FieldPeriod] != "2024-02" || f[FieldAmountCents] != int64(1500) || f[FieldError] != "boom" {
		t.Fatalf("unexpected fields %v", f)
	}
	if got := len(f.ToSlice()); got != (len(f)-1)*2 {
		t.Fatalf("ToSlice should drop component, got %d values for %d fields", got, len(f))
	}
}

func TestStructuredLoggerHTTPEndLevels(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	sl := NewStructuredLogger(logger)
	r := httptest.NewRequest("GET", "/api/summary?month=2024-01", nil)

	sl.LogHTTPEnd(context.Background(), r, 200, 3, "127.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, 404, 1, "127.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, 500, 1, "127.0.0.1")

	out := buf.String()
	for _, want := range []string{"level=INFO", "level=WARN", "level=ERROR", "status_code=404", "query=\"month=2024-01\""} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestRequestLoggerStoresLogger(t *testing.T) {
	base, buf := newBufferLogger(slog.LevelInfo)
	mw := RequestLogger(base, func(*http.Request) string { return "req-1" })

	var got *Logger
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		got.InfoContext(r.Context(), "inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("expected http logger, got %+v", got)
	}
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("request id missing: %s", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected fallback logger")
	}
}
