package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetricsMeterName is the name used for the sync metrics meter
const SyncMetricsMeterName = "github.com/stacklok/toolhive-content-sync/sync"

// Package change kinds recorded by RecordPackages
const (
	ChangeAdded     = "added"
	ChangeRemoved   = "removed"
	ChangeUnchanged = "unchanged"
	ChangeFailed    = "failed"
)

// SyncMetrics holds the OpenTelemetry instruments for sync runs.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	syncDuration   metric.Float64Histogram
	packages       metric.Int64Counter
	fetchFailures  metric.Int64Counter
	runsInProgress metric.Int64UpDownCounter
}

// NewSyncMetrics creates the sync instruments. A nil provider yields nil metrics.
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"thv_content_sync_duration_seconds",
		metric.WithDescription("Duration of repository sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900),
	)
	if err != nil {
		return nil, err
	}

	packages, err := meter.Int64Counter(
		"thv_content_sync_packages_total",
		metric.WithDescription("Packages processed by sync runs, by change kind"),
		metric.WithUnit("{package}"),
	)
	if err != nil {
		return nil, err
	}

	fetchFailures, err := meter.Int64Counter(
		"thv_content_sync_fetch_failures_total",
		metric.WithDescription("Package content fetches that failed after all retries"),
		metric.WithUnit("{package}"),
	)
	if err != nil {
		return nil, err
	}

	runsInProgress, err := meter.Int64UpDownCounter(
		"thv_content_sync_runs_in_progress",
		metric.WithDescription("Sync runs currently executing"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration:   syncDuration,
		packages:       packages,
		fetchFailures:  fetchFailures,
		runsInProgress: runsInProgress,
	}, nil
}

// RecordSyncDuration records the duration and terminal status of a run
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, repository string, duration time.Duration, status string) {
	if m == nil {
		return
	}
	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("repository", repository),
		attribute.String("status", status),
	))
}

// RecordPackages adds count packages of the given change kind
func (m *SyncMetrics) RecordPackages(ctx context.Context, repository, change string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.packages.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("repository", repository),
		attribute.String("change", change),
	))
}

// RecordFetchFailure counts a package whose content could not be fetched
func (m *SyncMetrics) RecordFetchFailure(ctx context.Context, repository, provider string) {
	if m == nil {
		return
	}
	m.fetchFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("repository", repository),
		attribute.String("provider", provider),
	))
}

// RunStarted increments the in-progress gauge; call the returned func when the run ends
func (m *SyncMetrics) RunStarted(ctx context.Context, repository string) func() {
	if m == nil {
		return func() {}
	}
	attrs := metric.WithAttributes(attribute.String("repository", repository))
	m.runsInProgress.Add(ctx, 1, attrs)
	return func() {
		m.runsInProgress.Add(context.WithoutCancel(ctx), -1, attrs)
	}
}
