package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func newBufferLogger(t *testing.T, level string, opts ...Option) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts = append(opts, withWriter(&buf))
	logger, err := New(&Config{Level: level, Format: "json", Output: "buffer"}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line is not valid JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// TestNew 测试 Logger 创建
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "valid config", config: &Config{Level: "info", Format: "console", Output: "stdout"}},
		{name: "nil config", config: nil},
		{name: "invalid level", config: &Config{Level: "verbose"}, wantErr: true},
		{name: "invalid format", config: &Config{Level: "info", Format: "xml"}, wantErr: true},
		{name: "buffer without writer", config: &Config{Output: "buffer"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("New() returned nil logger on success")
			}
		})
	}
}

// TestLoggerLevels 测试级别过滤与大写级别输出
func TestLoggerLevels(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.Debug("dropped")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := decodeLines(t, buf)
	if len(entries) != 3 {
		t.Fatalf("got %d lines, want 3", len(entries))
	}
	for i, want := range []string{"INFO", "WARN", "ERROR"} {
		if entries[i]["level"] != want {
			t.Errorf("line %d level = %v, want %s", i, entries[i]["level"], want)
		}
	}
}

func TestSetLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, "error")
	child := logger.With(String("k", "v"))

	logger.Info("before")
	if err := logger.SetLevel(DebugLevel); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	// 子 Logger 共享 handler，级别同步生效
	child.Debug("after")

	entries := decodeLines(t, buf)
	if len(entries) != 1 || entries[0]["msg"] != "after" {
		t.Fatalf("entries = %v, want only the debug line", entries)
	}
}

func TestNamespaceAndFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "debug", WithNamespace("routemetrics"))

	logger.WithNamespace("feature", "redis").
		With(String("store", "redis")).
		Info("loaded", Int("attempt", 2), Error(errors.New("boom")), Error(nil))

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("got %d lines, want 1", len(entries))
	}
	e := entries[0]
	if e[NamespaceKey] != "routemetrics.feature.redis" {
		t.Errorf("namespace = %v", e[NamespaceKey])
	}
	if e["store"] != "redis" || e["attempt"] != float64(2) || e["err_msg"] != "boom" {
		t.Errorf("unexpected fields: %v", e)
	}
	if _, ok := e[""]; ok {
		t.Error("nil error should not produce an empty key")
	}
}

func TestContextExtraction(t *testing.T) {
	logger, buf := newBufferLogger(t, "info", WithStandardContext(), WithTraceContext())

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = WithRequestID(ctx, "req-1")

	logger.InfoContext(ctx, "handled")

	e := decodeLines(t, buf)[0]
	if e["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", e["request_id"])
	}
	if e["trace_id"] != traceID.String() || e["span_id"] != spanID.String() {
		t.Errorf("trace fields = %v / %v", e["trace_id"], e["span_id"])
	}
	if RequestIDFrom(ctx) != "req-1" {
		t.Errorf("RequestIDFrom() = %q", RequestIDFrom(ctx))
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"DEBUG":   DebugLevel,
		"info":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("nope"); err == nil {
		t.Error("ParseLevel(nope) should fail")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.With(String("a", "b")).WithNamespace("x").Info("ignored")
	if err := logger.SetLevel(DebugLevel); err != nil {
		t.Errorf("Discard().SetLevel() error = %v", err)
	}
}
