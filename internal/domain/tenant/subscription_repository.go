package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
)

// SubscriptionRepository defines the interface for subscription persistence.
// Lookups return shared.ErrNotFound when nothing matches.
type SubscriptionRepository interface {
	// Save inserts or version-checked updates a subscription
	Save(ctx context.Context, subscription *Subscription) error

	// FindByID finds a subscription by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// FindActiveByTenantID finds the active subscription of a tenant
	FindActiveByTenantID(ctx context.Context, tenantID valueobject.TenantID) (*Subscription, error)

	// FindByTenantID finds all subscriptions of a tenant, newest first
	FindByTenantID(ctx context.Context, tenantID valueobject.TenantID) ([]*Subscription, error)

	// FindByStatus finds subscriptions by status
	FindByStatus(ctx context.Context, status SubscriptionStatus) ([]*Subscription, error)

	// FindExpiringBefore finds active subscriptions whose end date is before date
	FindExpiringBefore(ctx context.Context, date time.Time) ([]*Subscription, error)

	// FindByNextBillingDate finds auto-renewing subscriptions billed on or before date
	FindByNextBillingDate(ctx context.Context, date time.Time) ([]*Subscription, error)

	// Delete deletes a subscription
	Delete(ctx context.Context, id uuid.UUID) error

	// CountActive counts active subscriptions
	CountActive(ctx context.Context) (int64, error)
}
