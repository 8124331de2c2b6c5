package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewHandler(t *testing.T) {
	for _, format := range []string{"text", "json", "tint", ""} {
		if _, err := NewHandler(format, slog.LevelInfo, &bytes.Buffer{}, false); err != nil {
			t.Errorf("NewHandler(%q): %v", format, err)
		}
	}
	if _, err := NewHandler("xml", slog.LevelInfo, nil, false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func newJSONLogger(t *testing.T, buf *bytes.Buffer) *Logger {
	t.Helper()
	l, err := New(Config{Level: slog.LevelDebug, Format: "json", Output: buf, Component: ComponentHTTP})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)
	l.WithComponent(ComponentReport).Info("built", FieldProject, "해운대 1차")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0][FieldComponent] != ComponentReport || lines[0][FieldProject] != "해운대 1차" {
		t.Fatalf("log = %v", lines)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(t, &buf))
	ctx := context.Background()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/report?project=x", nil)

	sl.LogHTTPEnd(ctx, r, "req-1", 502, 12, "10.0.0.1")
	sl.LogReportBuilt(ctx, "해운대 1차", "2024-03", 42, true)
	sl.LogPairAppended(ctx, "A-01", "OP-01", "pj_pair!A7:B7")
	sl.LogError(ctx, "fetch failed", errors.New("boom"), ComponentSheets, OpRead, nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 4 {
		t.Fatalf("lines = %d", len(lines))
	}
	if lines[0]["level"] != "ERROR" || lines[0][FieldStatusCode] != float64(502) || lines[0][FieldRequestID] != "req-1" {
		t.Errorf("http end = %v", lines[0])
	}
	if lines[1][FieldRecords] != float64(42) || lines[1][FieldComponent] != ComponentReport {
		t.Errorf("report = %v", lines[1])
	}
	if lines[2][FieldRowRef] != "pj_pair!A7:B7" {
		t.Errorf("pair = %v", lines[2])
	}
	if lines[3][FieldError] != "boom" || lines[3][FieldComponent] != ComponentSheets {
		t.Errorf("error = %v", lines[3])
	}
}

func TestFromContext(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("component = %q", l.Component())
	}

	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)
	var got *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "abc" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := decodeLines(t, &buf)
	if got == nil || len(lines) != 1 || lines[0][FieldRequestID] != "abc" {
		t.Fatalf("lines = %v", lines)
	}
}
