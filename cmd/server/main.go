// Command server runs the tenant administration worker: the outbox relay,
// the billing sweep and the ops HTTP probes.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	appevent "github.com/smartedu/backend/internal/application/event"
	apptenant "github.com/smartedu/backend/internal/application/tenant"
	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/tenant"
	"github.com/smartedu/backend/internal/infrastructure/cache"
	"github.com/smartedu/backend/internal/infrastructure/config"
	"github.com/smartedu/backend/internal/infrastructure/event"
	"github.com/smartedu/backend/internal/infrastructure/logger"
	"github.com/smartedu/backend/internal/infrastructure/migration"
	"github.com/smartedu/backend/internal/infrastructure/persistence"
	"github.com/smartedu/backend/internal/infrastructure/scheduler"
	"github.com/smartedu/backend/internal/infrastructure/telemetry"
	"github.com/smartedu/backend/internal/interfaces/http/handler"
	"github.com/smartedu/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Worker stopped with error: %v\n", err)
		os.Exit(1)
	}
}

// app holds everything the worker starts and must stop
type app struct {
	cfg *config.Config
	log *zap.Logger

	tracer *telemetry.TracerProvider
	meter  *telemetry.MeterProvider
	logs   *telemetry.LoggerProvider

	db    *persistence.Database
	redis *redis.Client

	bus       *event.InMemoryEventBus
	processor *event.OutboxProcessor
	billing   *scheduler.BillingScheduler
	server    *router.Server

	tenants       *apptenant.TenantService
	subscriptions *apptenant.SubscriptionService
	outbox        *appevent.OutboxService
}

func run(ctx context.Context, cfg *config.Config) error {
	a := &app{cfg: cfg}
	defer a.close()

	if err := a.initLogging(ctx); err != nil {
		return err
	}
	a.log.Info("Starting tenant worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("delivery", cfg.Event.Delivery),
	)

	if err := a.initTelemetry(ctx); err != nil {
		return err
	}
	if err := a.initDatabase(); err != nil {
		return err
	}
	if err := a.initRedis(ctx); err != nil {
		return err
	}
	if err := a.initEvents(); err != nil {
		return err
	}
	a.initScheduler()
	if err := a.initHTTP(); err != nil {
		return err
	}

	return a.serve(ctx)
}

// initLogging builds the zap logger, teed into the OpenTelemetry log bridge
// when log export is on
func (a *app) initLogging(ctx context.Context) error {
	logCfg := &logger.Config{
		Level:  a.cfg.Log.Level,
		Format: a.cfg.Log.Format,
		Output: a.cfg.Log.Output,
	}
	bootstrap, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	tc := a.cfg.Telemetry
	a.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, bootstrap)
	if err != nil {
		return fmt.Errorf("initialize log export: %w", err)
	}
	if !a.logs.IsEnabled() {
		a.log = bootstrap
		return nil
	}

	a.log, err = logger.New(logCfg, a.logs.ZapCore(logger.ParseLevel(a.cfg.Log.Level)))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	_ = bootstrap.Sync()
	return nil
}

func (a *app) initTelemetry(ctx context.Context) error {
	tc := a.cfg.Telemetry

	var err error
	a.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, a.log)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}

	a.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, a.log)
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}
	return nil
}

func (a *app) initDatabase() error {
	if a.cfg.Database.AutoMigrate {
		if err := a.migrate(); err != nil {
			return err
		}
	}

	gormLog := logger.NewGormLogger(a.log, logger.MapGormLogLevel(a.cfg.Log.Level),
		logger.WithSlowThreshold(a.cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithCustomLogger(&a.cfg.Database, gormLog)
	if err != nil {
		return err
	}
	a.db = db
	a.log.Info("Database connected", zap.String("database", a.cfg.Database.DBName))

	tc := a.cfg.Telemetry
	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         tc.Enabled && tc.DBTraceEnabled,
		LogFullSQL:      tc.DBLogFullSQL,
		SlowQueryThresh: tc.DBSlowQueryThresh,
		DBName:          a.cfg.Database.DBName,
	}, a.log)
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("register database tracing: %w", err)
	}
	return nil
}

// migrate applies pending migrations on a dedicated connection; the
// migrator closes it when done
func (a *app) migrate() error {
	sqlDB, err := sql.Open("postgres", a.cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	path := a.cfg.Database.MigrationsPath
	if path == "" {
		path = "migrations"
	}
	m, err := migration.New(sqlDB, path, a.log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func (a *app) initRedis(ctx context.Context) error {
	if !a.cfg.Redis.Enabled {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, a.cfg.Redis)
	if err != nil {
		return err
	}
	a.redis = client
	a.log.Info("Redis connected", zap.String("addr", a.cfg.Redis.Addr()))
	return nil
}

// initEvents wires the bus, its subscribers, the publisher for the configured
// delivery mode and the application services
func (a *app) initEvents() error {
	ec := a.cfg.Event

	tenantRepo := persistence.NewGormTenantRepository(a.db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(a.db.DB)
	outboxRepo := event.NewGormOutboxRepository(a.db.DB)

	serializer := event.NewEventSerializer()
	event.RegisterTenantEvents(serializer)

	a.bus = event.NewInMemoryEventBus(a.log)

	var client redis.UniversalClient
	if a.redis != nil {
		client = a.redis
	}
	store, err := cache.NewIdempotencyStoreFactory(ec, client, cache.WithLogger(a.log)).CreateStore()
	if err != nil {
		return err
	}
	idempotent := func(h shared.EventHandler, name string) shared.EventHandler {
		return event.NewIdempotentHandler(h, store, a.log, event.WithConsumerName(name))
	}

	a.bus.Subscribe(idempotent(event.NewAuditLogHandler(a.log), "audit"))

	metrics, err := telemetry.NewTenantMetrics(a.meter.Meter(telemetry.MeterName))
	if err != nil {
		return fmt.Errorf("create tenant metrics: %w", err)
	}
	a.bus.Subscribe(idempotent(metrics, "metrics"))

	if ec.RelayEnabled {
		if client == nil {
			return errors.New("event relay needs redis.enabled")
		}
		relay := event.NewRedisEventRelay(client, serializer, ec.RelayChannel, nil, a.log)
		a.bus.Subscribe(idempotent(relay, "redis-relay"))
	}

	var publisher shared.EventPublisher
	switch ec.Delivery {
	case config.DeliveryOutbox:
		publisher = event.NewOutboxEventPublisher(a.db.DB, serializer, event.WithMaxRetries(ec.MaxRetries))
		a.processor = event.NewOutboxProcessor(outboxRepo, a.bus, serializer, event.OutboxProcessorConfig{
			BatchSize:        ec.BatchSize,
			PollInterval:     ec.PollInterval,
			CleanupEnabled:   ec.CleanupEnabled,
			CleanupInterval:  ec.CleanupInterval,
			CleanupRetention: ec.CleanupRetention,
		}, a.log)
	default:
		// outbox rows are the history in outbox mode; direct delivery records it here
		a.bus.Subscribe(event.NewEventRecorder(event.NewGormEventStore(a.db.DB, serializer)))
		publisher = a.bus
	}

	domainService := tenant.NewTenantDomainService(tenantRepo)
	a.tenants = apptenant.NewTenantService(tenantRepo, domainService, publisher, a.log.Named("tenant"))
	a.subscriptions = apptenant.NewSubscriptionService(subscriptionRepo, tenantRepo, publisher, a.log.Named("subscription"))
	a.outbox = appevent.NewOutboxService(outboxRepo, a.log.Named("outbox"))
	return nil
}

func (a *app) initScheduler() {
	bc := a.cfg.Billing
	sc := scheduler.DefaultBillingSchedulerConfig()
	sc.Enabled = bc.SweepEnabled
	if bc.SweepInterval > 0 {
		sc.SweepInterval = bc.SweepInterval
	}
	a.billing = scheduler.NewBillingScheduler(a.subscriptions, a.outbox, a.log, sc)
}

func (a *app) initHTTP() error {
	opts := []handler.HealthOption{}
	if a.redis != nil {
		opts = append(opts, handler.WithCheck("redis", handler.PingFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})))
	}
	// a nil *OutboxProcessor must not reach the Runner interface
	if a.processor != nil {
		opts = append(opts, handler.WithOutbox(a.outbox, a.processor))
	} else {
		opts = append(opts, handler.WithOutbox(a.outbox, nil))
	}
	health := handler.NewHealthHandler(a.db, a.log, opts...)

	mode := "debug"
	if a.cfg.App.Env == "production" {
		mode = "release"
	}
	engine, err := router.NewEngine(router.Options{
		ServiceName:    a.cfg.Telemetry.ServiceName,
		TracingEnabled: a.tracer.IsEnabled(),
		TrustedProxies: a.cfg.HTTP.TrustedProxies,
		Mode:           mode,
	}, a.log, health)
	if err != nil {
		return fmt.Errorf("build ops router: %w", err)
	}
	a.server = router.NewServer(a.cfg.HTTP, engine, a.log)
	return nil
}

// serve starts the background loops and blocks until ctx is cancelled or
// the ops server fails, then stops everything in reverse order
func (a *app) serve(ctx context.Context) error {
	if err := a.bus.Start(ctx); err != nil {
		return err
	}
	if a.processor != nil {
		if err := a.processor.Start(ctx); err != nil {
			return err
		}
	}
	if err := a.billing.Start(ctx); err != nil {
		return err
	}
	serverErr := a.server.Start()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutdown signal received")
	case err, ok := <-serverErr:
		if ok && err != nil {
			a.log.Error("Ops server failed", zap.Error(err))
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("ops server: %w", err))
	}
	if err := a.billing.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("billing scheduler: %w", err))
	}
	if a.processor != nil {
		if err := a.processor.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("outbox processor: %w", err))
		}
	}
	if err := a.bus.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}
	if len(errs) > 0 {
		a.log.Error("Graceful shutdown incomplete", zap.Error(errors.Join(errs...)))
	} else {
		a.log.Info("Worker stopped")
	}
	return runErr
}

// close releases connections and flushes telemetry. It is safe on a
// partially initialized app.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("Error closing database", zap.Error(err))
		}
	}
	if a.meter != nil {
		_ = a.meter.Shutdown(ctx)
	}
	if a.tracer != nil {
		_ = a.tracer.Shutdown(ctx)
	}
	if a.logs != nil {
		_ = a.logs.Shutdown(ctx)
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
