// Package main is the entry point for the ToolHive content sync server.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-content-sync/cmd/thv-content-sync/app"
	"github.com/stacklok/toolhive-content-sync/internal/config"
)

// logSettings reads THV_CONTENT_SYNC_LOG_LEVEL and THV_CONTENT_SYNC_LOG_FORMAT.
// LOG_LEVEL without prefix is honoured when the prefixed variable is unset.
func logSettings() (slog.Level, string) {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("log_format", "json")

	levelStr := v.GetString("log_level")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	level := slog.LevelInfo
	if levelStr != "" {
		if err := level.UnmarshalText([]byte(levelStr)); err != nil {
			slog.Warn("Invalid log level, using INFO", "value", levelStr)
			level = slog.LevelInfo
		}
	}
	return level, strings.ToLower(v.GetString("log_format"))
}

func newBaseHandler(w io.Writer, level slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// traceHandler adds the trace_id and span_id of the active OpenTelemetry
// span to every record, so sync logs line up with the run's trace.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

func main() {
	level, format := logSettings()
	app.LogLevel.Set(level)

	// stderr keeps stdout free for sync --format json and version --format json
	handler := &traceHandler{Handler: newBaseHandler(os.Stderr, app.LogLevel, format)}
	slog.SetDefault(slog.New(handler))

	// Exporter errors from the OpenTelemetry SDK are reported through logr
	otel.SetLogger(logr.FromSlogHandler(handler))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
