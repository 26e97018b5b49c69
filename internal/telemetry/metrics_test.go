package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestSyncMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	m, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordSyncDuration(ctx, "repo", time.Second, "Succeeded")
		m.RecordPackages(ctx, "repo", ChangeAdded, 3)
		m.RecordFetchFailure(ctx, "repo", "mirror")
		m.RunStarted(ctx, "repo")()
	})
}

func TestSyncMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewSyncMetrics(provider)
	require.NoError(t, err)
	require.NotNil(t, m)

	ctx := context.Background()
	done := m.RunStarted(ctx, "base")
	m.RecordPackages(ctx, "base", ChangeAdded, 2)
	m.RecordPackages(ctx, "base", ChangeRemoved, 0)
	m.RecordFetchFailure(ctx, "base", "mirror")
	m.RecordSyncDuration(ctx, "base", 1500*time.Millisecond, "PartiallyFailed")
	done()

	metrics := collect(t, reader)

	packages, ok := metrics["thv_content_sync_packages_total"]
	require.True(t, ok)
	sum, ok := packages.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	failures, ok := metrics["thv_content_sync_fetch_failures_total"]
	require.True(t, ok)
	failureSum, ok := failures.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), failureSum.DataPoints[0].Value)

	duration, ok := metrics["thv_content_sync_duration_seconds"]
	require.True(t, ok)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 0.001)

	inProgress, ok := metrics["thv_content_sync_runs_in_progress"]
	require.True(t, ok)
	gauge, ok := inProgress.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(0), gauge.DataPoints[0].Value)
}
