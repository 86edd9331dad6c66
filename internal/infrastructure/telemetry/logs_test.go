package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:     false,
		ServiceName: "saas-admin-test",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, provider.IsEnabled())
	assert.NoError(t, provider.Shutdown(ctx))

	core := provider.ZapCore(zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewLoggerProvider_Enabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:4317",
		ServiceName:       "saas-admin-test",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, provider.IsEnabled())

	core := provider.ZapCore(zapcore.WarnLevel)
	assert.IsType(t, &levelFilterCore{}, core)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_ = provider.Shutdown(cancelled)
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	tests := []struct {
		level   zapcore.Level
		enabled bool
	}{
		{zapcore.DebugLevel, false},
		{zapcore.InfoLevel, false},
		{zapcore.WarnLevel, true},
		{zapcore.ErrorLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.enabled, core.Enabled(tt.level))
		})
	}

	logger := zap.New(core).With(zap.String("tenant_id", "t-1"))
	logger.Info("dropped")
	logger.Warn("kept")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "t-1", entry.ContextMap()["tenant_id"])
}
