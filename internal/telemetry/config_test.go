package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())
	assert.Equal(t, DefaultSampling, (&TracingConfig{}).GetSampling())
	assert.Equal(t, 0.5, (&TracingConfig{Sampling: 0.5}).GetSampling())
	assert.Equal(t, DefaultMetricsInterval, (&MetricsConfig{}).GetInterval())
	assert.Equal(t, DefaultMetricsInterval, (&MetricsConfig{Interval: "soon"}).GetInterval())
	assert.Equal(t, 15*time.Second, (&MetricsConfig{Interval: "15s"}).GetInterval())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "nil", cfg: nil},
		{name: "disabled ignores invalid sampling", cfg: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: 4}}},
		{name: "valid", cfg: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 0.2}}},
		{name: "sampling too high", cfg: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}}, wantErr: true},
		{name: "sampling negative", cfg: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: -0.1}}, wantErr: true},
		{name: "endpoint with scheme", cfg: &Config{Enabled: true, Endpoint: "https://collector:4318"}, wantErr: true},
		{name: "bad metrics interval", cfg: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Interval: "-1s"}}, wantErr: true},
		{name: "empty resource attribute", cfg: &Config{Enabled: true, ResourceAttributes: map[string]string{"": "x"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNew_DisabledUsesNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for _, cfg := range []*Config{nil, {Enabled: false}, {Enabled: true}} {
		tel, err := New(ctx, cfg)
		require.NoError(t, err)

		assert.IsType(t, tracenoop.TracerProvider{}, tel.TracerProvider())
		assert.IsType(t, metricnoop.MeterProvider{}, tel.MeterProvider())
		assert.NoError(t, tel.Shutdown(ctx))
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telemetry configuration")
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	res, err := NewResource(context.Background(), &Config{
		ServiceVersion:     "v1.2.3",
		ResourceAttributes: map[string]string{"deployment.environment": "staging"},
	})
	require.NoError(t, err)

	attrs := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, DefaultServiceName, attrs["service.name"])
	assert.Equal(t, "v1.2.3", attrs["service.version"])
	assert.Equal(t, "staging", attrs["deployment.environment"])
}
