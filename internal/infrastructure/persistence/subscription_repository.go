package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
	"github.com/smartedu/backend/internal/domain/tenant"
	"github.com/smartedu/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSubscriptionRepository implements SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

const constraintActiveSubscription = "uq_subscriptions_active_tenant"

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByID finds a subscription by its ID
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, wrapDBError("find subscription", err)
	}
	return model.ToDomain()
}

// FindActiveByTenantID finds the active subscription of a tenant.
// If storage somehow holds more than one, the most recent start wins.
func (r *GormSubscriptionRepository) FindActiveByTenantID(ctx context.Context, tenantID valueobject.TenantID) (*tenant.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID.UUID(), tenant.SubscriptionStatusActive).
		Order("start_date DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, wrapDBError("find active subscription", err)
	}
	return model.ToDomain()
}

// FindByTenantID finds all subscriptions of a tenant, newest first
func (r *GormSubscriptionRepository) FindByTenantID(ctx context.Context, tenantID valueobject.TenantID) ([]*tenant.Subscription, error) {
	return r.findMany(ctx, "created_at DESC", "tenant_id = ?", tenantID.UUID())
}

// FindByStatus finds subscriptions by status
func (r *GormSubscriptionRepository) FindByStatus(ctx context.Context, status tenant.SubscriptionStatus) ([]*tenant.Subscription, error) {
	return r.findMany(ctx, "created_at ASC", "status = ?", status)
}

// FindExpiringBefore finds active subscriptions whose end date is before date
func (r *GormSubscriptionRepository) FindExpiringBefore(ctx context.Context, date time.Time) ([]*tenant.Subscription, error) {
	return r.findMany(ctx, "end_date ASC",
		"status = ? AND end_date < ?", tenant.SubscriptionStatusActive, tenant.DateOf(date))
}

// FindByNextBillingDate finds active auto-renewing subscriptions billed on or before date
func (r *GormSubscriptionRepository) FindByNextBillingDate(ctx context.Context, date time.Time) ([]*tenant.Subscription, error) {
	return r.findMany(ctx, "next_billing_date ASC",
		"status = ? AND auto_renew = ? AND next_billing_date IS NOT NULL AND next_billing_date <= ?",
		tenant.SubscriptionStatusActive, true, tenant.DateOf(date))
}

func (r *GormSubscriptionRepository) findMany(ctx context.Context, order, query string, args ...any) ([]*tenant.Subscription, error) {
	var subscriptionModels []models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where(query, args...).
		Order(order).
		Find(&subscriptionModels).Error; err != nil {
		return nil, wrapDBError("find subscriptions", err)
	}

	subscriptions := make([]*tenant.Subscription, 0, len(subscriptionModels))
	for i := range subscriptionModels {
		s, err := subscriptionModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, s)
	}
	return subscriptions, nil
}

// CountActive counts active subscriptions
func (r *GormSubscriptionRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("status = ?", tenant.SubscriptionStatusActive).
		Count(&count).Error; err != nil {
		return 0, wrapDBError("count active subscriptions", err)
	}
	return count, nil
}

// Save inserts a new subscription or applies a version-checked update
func (r *GormSubscriptionRepository) Save(ctx context.Context, s *tenant.Subscription) error {
	model := models.SubscriptionModelFromDomain(s)
	db := r.db.WithContext(ctx)

	if s.IsNew() {
		if err := db.Create(model).Error; err != nil {
			return translateSubscriptionWriteError(s, err)
		}
		s.MarkPersisted()
		return nil
	}

	expected := s.PersistedVersion()
	result := db.Model(&models.SubscriptionModel{}).
		Where("id = ? AND version = ?", model.ID, expected).
		Updates(map[string]any{
			"plan":              model.Plan,
			"status":            model.Status,
			"billing_period":    model.BillingPeriod,
			"start_date":        model.StartDate,
			"end_date":          model.EndDate,
			"next_billing_date": model.NextBillingDate,
			"trial_end_date":    model.TrialEndDate,
			"price":             model.Price,
			"user_limit":        model.UserLimit,
			"student_limit":     model.StudentLimit,
			"storage_limit":     model.StorageLimit,
			"auto_renew":        model.AutoRenew,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		return translateSubscriptionWriteError(s, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyError(tenant.AggregateTypeSubscription, model.ID.String(),
			expected, storedVersion(db, &models.SubscriptionModel{}, model.ID))
	}

	s.MarkPersisted()
	return nil
}

// translateSubscriptionWriteError turns the partial unique index on active
// subscriptions into the domain rule it backs
func translateSubscriptionWriteError(s *tenant.Subscription, err error) error {
	if constraint, ok := uniqueViolation(err); ok && constraint == constraintActiveSubscription {
		return shared.NewBusinessRuleViolation(tenant.RuleSingleActiveSubscription,
			"Tenant already has an active subscription", s.TenantID.String())
	}
	return wrapDBError("save subscription", err)
}

// Delete deletes a subscription
func (r *GormSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SubscriptionModel{}, "id = ?", id)
	if result.Error != nil {
		return wrapDBError("delete subscription", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
