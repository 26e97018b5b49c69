package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLogSettings(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantLevel  slog.Level
		wantFormat string
	}{
		{name: "defaults", wantLevel: slog.LevelInfo, wantFormat: "json"},
		{name: "prefixed level", env: map[string]string{"THV_CONTENT_SYNC_LOG_LEVEL": "debug"}, wantLevel: slog.LevelDebug, wantFormat: "json"},
		{name: "unprefixed level", env: map[string]string{"LOG_LEVEL": "warn"}, wantLevel: slog.LevelWarn, wantFormat: "json"},
		{name: "invalid level", env: map[string]string{"THV_CONTENT_SYNC_LOG_LEVEL": "loud"}, wantLevel: slog.LevelInfo, wantFormat: "json"},
		{name: "text format", env: map[string]string{"THV_CONTENT_SYNC_LOG_FORMAT": "TEXT"}, wantLevel: slog.LevelInfo, wantFormat: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("THV_CONTENT_SYNC_LOG_LEVEL", "")
			t.Setenv("THV_CONTENT_SYNC_LOG_FORMAT", "")
			t.Setenv("LOG_LEVEL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			level, format := logSettings()
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestTraceHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(&traceHandler{Handler: newBaseHandler(&buf, slog.LevelInfo, "json")}).With("repository", "base")

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "sync")
	defer span.End()

	logger.InfoContext(ctx, "Sync started")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "base", record["repository"])
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])

	buf.Reset()
	logger.Info("No span")
	var plain map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &plain))
	assert.NotContains(t, plain, "trace_id")
}
