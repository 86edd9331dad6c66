package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
	"github.com/smartedu/backend/internal/domain/tenant"
	"github.com/stretchr/testify/mock"
)

// MockTenantRepository is a mock implementation of tenant.TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id valueobject.TenantID) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByStatus(ctx context.Context, status tenant.TenantStatus) ([]*tenant.Tenant, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	args := m.Called(ctx, subdomain)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) ExistsByEmail(ctx context.Context, email valueobject.Email) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) Delete(ctx context.Context, id valueobject.TenantID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*tenant.Tenant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockSubscriptionRepository is a mock implementation of tenant.SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Save(ctx context.Context, s *tenant.Subscription) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindActiveByTenantID(ctx context.Context, tenantID valueobject.TenantID) (*tenant.Subscription, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByTenantID(ctx context.Context, tenantID valueobject.TenantID) ([]*tenant.Subscription, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tenant.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByStatus(ctx context.Context, status tenant.SubscriptionStatus) ([]*tenant.Subscription, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]*tenant.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindExpiringBefore(ctx context.Context, date time.Time) ([]*tenant.Subscription, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tenant.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByNextBillingDate(ctx context.Context, date time.Time) ([]*tenant.Subscription, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tenant.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// publishedTypes returns the event types of every Publish call, in order
func (m *MockEventPublisher) publishedTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]shared.DomainEvent) {
			types = append(types, e.EventType())
		}
	}
	return types
}
