package event

import "github.com/smartedu/backend/internal/domain/tenant"

// RegisterTenantEvents registers every tenant and subscription event with the
// serializer. The outbox processor cannot decode a topic missing from here.
func RegisterTenantEvents(serializer *EventSerializer) {
	// Tenant lifecycle
	serializer.Register(tenant.EventTypeTenantCreated, &tenant.TenantCreatedEvent{})
	serializer.Register(tenant.EventTypeTenantActivated, &tenant.TenantActivatedEvent{})
	serializer.Register(tenant.EventTypeTenantSuspended, &tenant.TenantSuspendedEvent{})
	serializer.Register(tenant.EventTypeTenantUpdated, &tenant.TenantUpdatedEvent{})
	serializer.Register(tenant.EventTypeTenantFeatureEnabled, &tenant.TenantFeatureEnabledEvent{})
	serializer.Register(tenant.EventTypeTenantFeatureDisabled, &tenant.TenantFeatureDisabledEvent{})
	serializer.Register(tenant.EventTypeTenantLimitsUpdated, &tenant.TenantLimitsUpdatedEvent{})
	serializer.Register(tenant.EventTypeTenantDeactivated, &tenant.TenantDeactivatedEvent{})
	serializer.Register(tenant.EventTypeTenantDeleted, &tenant.TenantDeletedEvent{})

	// Subscription billing
	serializer.Register(tenant.EventTypeSubscriptionCreated, &tenant.SubscriptionCreatedEvent{})
	serializer.Register(tenant.EventTypeSubscriptionUpgraded, &tenant.SubscriptionPlanChangedEvent{})
	serializer.Register(tenant.EventTypeSubscriptionDowngraded, &tenant.SubscriptionPlanChangedEvent{})
	serializer.Register(tenant.EventTypeSubscriptionCancelled, &tenant.SubscriptionStatusChangedEvent{})
	serializer.Register(tenant.EventTypeSubscriptionSuspended, &tenant.SubscriptionStatusChangedEvent{})
	serializer.Register(tenant.EventTypeSubscriptionReactivated, &tenant.SubscriptionStatusChangedEvent{})
	serializer.Register(tenant.EventTypeSubscriptionRenewed, &tenant.SubscriptionStatusChangedEvent{})
	serializer.Register(tenant.EventTypeSubscriptionExpired, &tenant.SubscriptionStatusChangedEvent{})
	serializer.Register(tenant.EventTypeSubscriptionAutoRenewChanged, &tenant.SubscriptionAutoRenewChangedEvent{})
}

// TenantEventTypes lists every topic RegisterTenantEvents registers
func TenantEventTypes() []string {
	return []string{
		tenant.EventTypeTenantCreated,
		tenant.EventTypeTenantActivated,
		tenant.EventTypeTenantSuspended,
		tenant.EventTypeTenantUpdated,
		tenant.EventTypeTenantFeatureEnabled,
		tenant.EventTypeTenantFeatureDisabled,
		tenant.EventTypeTenantLimitsUpdated,
		tenant.EventTypeTenantDeactivated,
		tenant.EventTypeTenantDeleted,
		tenant.EventTypeSubscriptionCreated,
		tenant.EventTypeSubscriptionUpgraded,
		tenant.EventTypeSubscriptionDowngraded,
		tenant.EventTypeSubscriptionCancelled,
		tenant.EventTypeSubscriptionSuspended,
		tenant.EventTypeSubscriptionReactivated,
		tenant.EventTypeSubscriptionRenewed,
		tenant.EventTypeSubscriptionExpired,
		tenant.EventTypeSubscriptionAutoRenewChanged,
	}
}
