//go:build integration

package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
	"github.com/smartedu/backend/internal/domain/tenant"
	"github.com/smartedu/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPostgres starts a disposable PostgreSQL container and applies the
// migrations under the repository's migrations directory
func setupPostgres(t *testing.T) (*gorm.DB, *migration.Migrator) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("saas_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	migrator, err := migration.New(sqlDB, findMigrationsPath(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	return db, migrator
}

func findMigrationsPath(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok)

	dir := filepath.Dir(filename)
	for range 5 {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatal("migrations directory not found")
	return ""
}

func TestPostgres_TenantRepository(t *testing.T) {
	db, _ := setupPostgres(t)
	repo := NewGormTenantRepository(db)
	ctx := context.Background()

	tn := newRepoTestTenant(t, "Escola Samora Machel", "samora", "admin@samora.co.mz")
	tn.EnableFeature("library")
	tn.EnableFeature("attendance")
	require.NoError(t, repo.Save(ctx, tn))

	t.Run("round trips address and features", func(t *testing.T) {
		found, err := repo.FindBySubdomain(ctx, "SAMORA")
		require.NoError(t, err)
		assert.True(t, found.Address.Equals(tn.Address))
		assert.Equal(t, []string{"attendance", "library"}, found.Features())
	})

	t.Run("duplicate subdomain maps to the uniqueness rule", func(t *testing.T) {
		dup := newRepoTestTenant(t, "Outra Escola", "samora", "outra@escola.co.mz")

		err := repo.Save(ctx, dup)

		var violation *shared.BusinessRuleViolation
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, tenant.RuleUniqueSubdomain, violation.Rule)
		assert.True(t, dup.IsNew())
	})

	t.Run("duplicate email maps to the uniqueness rule", func(t *testing.T) {
		dup := newRepoTestTenant(t, "Outra Escola", "outra", "admin@samora.co.mz")

		err := repo.Save(ctx, dup)

		var violation *shared.BusinessRuleViolation
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, tenant.RuleUniqueEmail, violation.Rule)
	})

	t.Run("stale writer gets a concurrency conflict", func(t *testing.T) {
		first, err := repo.FindByID(ctx, tn.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, tn.ID)
		require.NoError(t, err)

		require.NoError(t, first.Activate())
		require.NoError(t, repo.Save(ctx, first))

		second.EnableFeature("transport")
		err = repo.Save(ctx, second)

		var conflict *shared.ConcurrencyError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, first.GetVersion(), conflict.ActualVersion)
	})

	t.Run("delete cascades to features", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, tn.ID))

		var count int64
		require.NoError(t, db.Table("tenant_features").Where("tenant_id = ?", tn.ID).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestPostgres_SubscriptionRepository(t *testing.T) {
	db, _ := setupPostgres(t)
	repo := NewGormSubscriptionRepository(db)
	ctx := context.Background()

	tenantID := valueobject.NewTenantID()
	active := newRepoTestSubscription(t, tenantID, tenant.PlanStandard, calendarDate(2025, 2, 10))
	require.NoError(t, repo.Save(ctx, active))

	t.Run("second active subscription is rejected by the partial index", func(t *testing.T) {
		second := newRepoTestSubscription(t, tenantID, tenant.PlanBasic, calendarDate(2025, 3, 1))

		err := repo.Save(ctx, second)

		var violation *shared.BusinessRuleViolation
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, tenant.RuleSingleActiveSubscription, violation.Rule)
	})

	t.Run("date columns come back as calendar days", func(t *testing.T) {
		found, err := repo.FindByID(ctx, active.ID)
		require.NoError(t, err)
		assert.True(t, found.StartDate.Equal(calendarDate(2025, 2, 10)))
		require.NotNil(t, found.NextBillingDate)
		assert.True(t, found.NextBillingDate.Equal(calendarDate(2025, 3, 10)))
		assert.Equal(t, "99.99", found.Price.String())
	})

	t.Run("cancelling before the start date is stored", func(t *testing.T) {
		start := calendarDate(2025, 6, 1)
		sub := newRepoTestSubscription(t, valueobject.NewTenantID(), tenant.PlanBasic, start,
			tenant.WithClock(func() time.Time { return calendarDate(2025, 5, 1) }))
		require.NoError(t, repo.Save(ctx, sub))

		require.NoError(t, sub.Cancel())
		require.NoError(t, repo.Save(ctx, sub))

		found, err := repo.FindByID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, tenant.SubscriptionStatusCancelled, found.Status)
		assert.True(t, found.EndDate.Before(found.StartDate))
	})

	t.Run("billing sweep query", func(t *testing.T) {
		due, err := repo.FindByNextBillingDate(ctx, calendarDate(2025, 3, 10))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, active.ID, due[0].ID)
	})
}

func TestPostgres_MigrationsRoundTrip(t *testing.T) {
	db, migrator := setupPostgres(t)

	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(3), version)

	require.NoError(t, migrator.Down())
	assert.False(t, db.Migrator().HasTable("tenants"))

	require.NoError(t, migrator.Up())
	assert.True(t, db.Migrator().HasTable("tenants"))
	assert.True(t, db.Migrator().HasTable("outbox_events"))
}
