package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedTenant struct {
	ID        uint   `gorm:"primaryKey"`
	Subdomain string `gorm:"size:100"`
	CreatedAt time.Time
}

func setupTracedDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedTenant{}))
	return db
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)

	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "postgresql", cfg.DBName)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := setupTracedDB(t)

	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())
	require.NoError(t, plugin.Register(db))

	assert.Nil(t, db.Callback().Create().Get("telemetry:after_create"))
}

func TestDBTracingPlugin_Spans(t *testing.T) {
	db := setupTracedDB(t)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBName = "sqlite"
	cfg.ExcludeMetrics = true
	cfg.TracerProvider = tp
	require.NoError(t, db.Use(NewDBTracingPlugin(cfg, zap.NewNop())))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "tenant.create")
	require.NoError(t, db.WithContext(ctx).Create(&tracedTenant{Subdomain: "polana"}).Error)
	parent.End()

	var dbSpan sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() {
			dbSpan = s
		}
	}
	require.NotNil(t, dbSpan, "expected a db span under the service span")

	attrs := make(map[string]string)
	for _, a := range dbSpan.Attributes() {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "traced_tenants", attrs["db.sql.table"])
	assert.NotContains(t, attrs, "db.slow_query")
}

func TestDBTracingPlugin_SlowQuery(t *testing.T) {
	db := setupTracedDB(t)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.ExcludeMetrics = true
	cfg.SlowQueryThresh = time.Nanosecond
	cfg.TracerProvider = tp
	require.NoError(t, NewDBTracingPlugin(cfg, zap.New(core)).Register(db))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "tenant.list")
	var rows []tracedTenant
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	slow := false
	for _, s := range sr.Ended() {
		for _, a := range s.Attributes() {
			if a.Key == "db.slow_query" && a.Value.AsBool() {
				slow = true
			}
		}
	}
	assert.True(t, slow)
	assert.Equal(t, 1, logs.FilterMessage("Slow query").Len())
}
