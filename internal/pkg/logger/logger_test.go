package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func newBufferLogger(level, format string) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&Config{Level: level, Format: format, Output: &buf}), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.NotNil(t, cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.name))
		})
	}
}

func TestNew_Formats(t *testing.T) {
	jsonLogger, jsonBuf := newBufferLogger("info", "JSON")
	jsonLogger.Info("wallet credited", "wallet_id", "w-1")

	entry := decodeLine(t, jsonBuf)
	assert.Equal(t, "wallet credited", entry["msg"])
	assert.Equal(t, "w-1", entry["wallet_id"])

	textLogger, textBuf := newBufferLogger("info", "text")
	textLogger.Info("wallet credited", "wallet_id", "w-1")

	assert.Contains(t, textBuf.String(), "msg=\"wallet credited\"")
	assert.Contains(t, textBuf.String(), "wallet_id=w-1")
}

func TestNew_NilConfigAndOutput(t *testing.T) {
	require.NotNil(t, New(nil))
	require.NotNil(t, New(&Config{Level: "info", Format: "json"}))
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("warn", "json")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestContextHandler_CorrelationData(t *testing.T) {
	logger, buf := newBufferLogger("info", "json")

	ctx := WithAllIDs(context.Background(), "corr-123", "req-456", "user-789")
	logger.InfoContext(ctx, "deduction processed")

	entry := decodeLine(t, buf)
	assert.Equal(t, "corr-123", entry["correlation_id"])
	assert.Equal(t, "req-456", entry["request_id"])
	assert.Equal(t, "user-789", entry["user_id"])
	assert.NotContains(t, entry, "trace_id")
}

func TestContextHandler_TraceIDsFromSpan(t *testing.T) {
	logger, buf := newBufferLogger("info", "json")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	// Значения из span имеют приоритет над ручными
	ctx = WithTraceID(ctx, "manual-trace")

	logger.InfoContext(ctx, "with span")

	entry := decodeLine(t, buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestContextHandler_TraceIDsFromValues(t *testing.T) {
	logger, buf := newBufferLogger("info", "json")

	ctx := WithSpanID(WithTraceID(context.Background(), "trace-abc"), "span-def")
	logger.InfoContext(ctx, "without span")

	entry := decodeLine(t, buf)
	assert.Equal(t, "trace-abc", entry["trace_id"])
	assert.Equal(t, "span-def", entry["span_id"])
}

func TestContextGetters_Empty(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetCorrelationID(ctx))
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}

func TestWithAllIDs_PartialValues(t *testing.T) {
	ctx := WithAllIDs(context.Background(), "", "req-2", "")

	assert.Empty(t, GetCorrelationID(ctx))
	assert.Equal(t, "req-2", GetRequestID(ctx))
	assert.Empty(t, GetUserID(ctx))
}

func TestSetupAndFromContext(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	Setup(&Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithRequestID(WithCorrelationID(context.Background(), "corr-1"), "req-1")
	FromContext(ctx).Info("scheduler tick")

	output := buf.String()
	assert.Contains(t, output, "scheduler tick")
	assert.Equal(t, 1, strings.Count(output, "corr-1"), "correlation id must not be duplicated")
	assert.Contains(t, output, "req-1")
	require.NotNil(t, L())
}

func TestContextHandler_WithAttrsAndGroup(t *testing.T) {
	logger, buf := newBufferLogger("info", "json")

	logger.With("service", "walletledger").WithGroup("request").Info("handled", "method", "GET")

	entry := decodeLine(t, buf)
	assert.Equal(t, "walletledger", entry["service"])
	group, ok := entry["request"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "GET", group["method"])
}

func TestContextHandler_Enabled(t *testing.T) {
	handler := &ContextHandler{
		handler: slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}

	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelWarn))
}
