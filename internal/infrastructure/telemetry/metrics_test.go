package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartedu/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:     false,
		ServiceName: "saas-admin-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:4317",
		ExportInterval:    time.Hour,
		ServiceName:       "saas-admin-test",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, mp.IsEnabled())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_ = mp.Shutdown(cancelled)
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	meter := noop.NewMeterProvider().Meter("test")

	t.Run("counter", func(t *testing.T) {
		c, err := telemetry.NewCounter(meter, "test.counter", "test counter", "{item}")
		require.NoError(t, err)
		assert.NotPanics(t, func() { c.Inc(ctx, telemetry.AttrEventType.String("tenant.created")) })
	})

	t.Run("up down counter", func(t *testing.T) {
		c, err := telemetry.NewUpDownCounter(meter, "test.updown", "test up/down counter", "{item}")
		require.NoError(t, err)
		assert.NotPanics(t, func() {
			c.Add(ctx, 1)
			c.Add(ctx, -1, telemetry.AttrStatus.String("ACTIVE"))
		})
	})
}
