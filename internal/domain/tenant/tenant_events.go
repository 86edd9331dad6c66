package tenant

import (
	"time"

	"github.com/smartedu/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeTenant = "Tenant"

// Event type constants. The values are the topics consumers subscribe to.
const (
	EventTypeTenantCreated         = "tenant.created"
	EventTypeTenantActivated       = "tenant.activated"
	EventTypeTenantSuspended       = "tenant.suspended"
	EventTypeTenantUpdated         = "tenant.updated"
	EventTypeTenantFeatureEnabled  = "tenant.feature.enabled"
	EventTypeTenantFeatureDisabled = "tenant.feature.disabled"
	EventTypeTenantLimitsUpdated   = "tenant.limits.updated"
	EventTypeTenantDeactivated     = "tenant.deactivated"
	EventTypeTenantDeleted         = "tenant.deleted"
)

func newTenantEvent(eventType string, t *Tenant) shared.BaseDomainEvent {
	return shared.NewBaseDomainEvent(eventType, AggregateTypeTenant, t.ID, t.ID)
}

// TenantCreatedEvent is published when a new tenant is created
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	Name         string `json:"name"`
	Subdomain    string `json:"subdomain"`
	PrimaryEmail string `json:"primary_email"`
}

// NewTenantCreatedEvent creates a new TenantCreatedEvent
func NewTenantCreatedEvent(t *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: newTenantEvent(EventTypeTenantCreated, t),
		Name:            t.Name,
		Subdomain:       t.Subdomain,
		PrimaryEmail:    t.PrimaryEmail.String(),
	}
}

// TenantActivatedEvent is published when a tenant is activated or reactivated
type TenantActivatedEvent struct {
	shared.BaseDomainEvent
	Name        string    `json:"name"`
	ActivatedAt time.Time `json:"activated_at"`
}

// NewTenantActivatedEvent creates a new TenantActivatedEvent
func NewTenantActivatedEvent(t *Tenant, activatedAt time.Time) *TenantActivatedEvent {
	return &TenantActivatedEvent{
		BaseDomainEvent: newTenantEvent(EventTypeTenantActivated, t),
		Name:            t.Name,
		ActivatedAt:     activatedAt,
	}
}

// TenantSuspendedEvent is published when a tenant is suspended
type TenantSuspendedEvent struct {
	shared.BaseDomainEvent
	Name        string    `json:"name"`
	Reason      string    `json:"reason"`
	SuspendedAt time.Time `json:"suspended_at"`
}

// NewTenantSuspendedEvent creates a new TenantSuspendedEvent
func NewTenantSuspendedEvent(t *Tenant) *TenantSuspendedEvent {
	e := &TenantSuspendedEvent{
		BaseDomainEvent: newTenantEvent(EventTypeTenantSuspended, t),
		Name:            t.Name,
		Reason:          t.SuspensionReason,
	}
	if t.SuspendedAt != nil {
		e.SuspendedAt = *t.SuspendedAt
	}
	return e
}

// TenantUpdatedEvent is published when tenant details change
type TenantUpdatedEvent struct {
	shared.BaseDomainEvent
	Name       string `json:"name"`
	UpdateType string `json:"update_type"`
}

// NewTenantUpdatedEvent creates a new TenantUpdatedEvent
func NewTenantUpdatedEvent(t *Tenant, updateType string) *TenantUpdatedEvent {
	return &TenantUpdatedEvent{
		BaseDomainEvent: newTenantEvent(EventTypeTenantUpdated, t),
		Name:            t.Name,
		UpdateType:      updateType,
	}
}

// TenantFeatureEnabledEvent is published when a feature is turned on
type TenantFeatureEnabledEvent struct {
	shared.BaseDomainEvent
	Name        string `json:"name"`
	FeatureCode string `json:"feature_code"`
}

// NewTenantFeatureEnabledEvent creates a new TenantFeatureEnabledEvent
func NewTenantFeatureEnabledEvent(t *Tenant, code string) *TenantFeatureEnabledEvent {
	return &TenantFeatureEnabledEvent{
		BaseDomainEvent: newTenantEvent(EventTypeTenantFeatureEnabled, t),
		Name:            t.Name,
		FeatureCode:     code,
	}
}

// TenantFeatureDisabledEvent is published when a feature is turned off
type TenantFeatureDisabledEvent struct {
	shared.BaseDomainEvent
	Name        string `json:"name"`
	FeatureCode string `json:"feature_code"`
}

// NewTenantFeatureDisabledEvent creates a new TenantFeatureDisabledEvent
func NewTenantFeatureDisabledEvent(t *Tenant, code string) *TenantFeatureDisabledEvent {
	return &TenantFeatureDisabledEvent{
		BaseDomainEvent: newTenantEvent(EventTypeTenantFeatureDisabled, t),
		Name:            t.Name,
		FeatureCode:     code,
	}
}

// TenantLimitsUpdatedEvent is published when user or student limits change.
// Nil limits mean unlimited.
type TenantLimitsUpdatedEvent struct {
	shared.BaseDomainEvent
	Name                string `json:"name"`
	MaxUsers            *int   `json:"max_users"`
	MaxStudents         *int   `json:"max_students"`
	PreviousMaxUsers    *int   `json:"previous_max_users"`
	PreviousMaxStudents *int   `json:"previous_max_students"`
}

// NewTenantLimitsUpdatedEvent creates a new TenantLimitsUpdatedEvent
func NewTenantLimitsUpdatedEvent(t *Tenant, previousUsers, previousStudents *int) *TenantLimitsUpdatedEvent {
	return &TenantLimitsUpdatedEvent{
		BaseDomainEvent:     newTenantEvent(EventTypeTenantLimitsUpdated, t),
		Name:                t.Name,
		MaxUsers:            copyInt(t.MaxUsers),
		MaxStudents:         copyInt(t.MaxStudents),
		PreviousMaxUsers:    copyInt(previousUsers),
		PreviousMaxStudents: copyInt(previousStudents),
	}
}

// TenantDeactivatedEvent describes a tenant taken out of service.
// No Tenant method records it; deleting an ACTIVE or SUSPENDED tenant
// publishes it ahead of TenantDeletedEvent.
type TenantDeactivatedEvent struct {
	shared.BaseDomainEvent
	Name          string    `json:"name"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

// NewTenantDeactivatedEvent creates a new TenantDeactivatedEvent
func NewTenantDeactivatedEvent(t *Tenant, deactivatedAt time.Time) *TenantDeactivatedEvent {
	return &TenantDeactivatedEvent{
		BaseDomainEvent: newTenantEvent(EventTypeTenantDeactivated, t),
		Name:            t.Name,
		DeactivatedAt:   deactivatedAt,
	}
}

// TenantDeletedEvent describes a tenant removed from the platform.
// No Tenant method records it; it is published once the tenant row is removed.
// Status is the status the tenant had when it was deleted.
type TenantDeletedEvent struct {
	shared.BaseDomainEvent
	Name      string       `json:"name"`
	Subdomain string       `json:"subdomain"`
	Status    TenantStatus `json:"status"`
	DeletedAt time.Time    `json:"deleted_at"`
}

// NewTenantDeletedEvent creates a new TenantDeletedEvent
func NewTenantDeletedEvent(t *Tenant, deletedAt time.Time) *TenantDeletedEvent {
	return &TenantDeletedEvent{
		BaseDomainEvent: newTenantEvent(EventTypeTenantDeleted, t),
		Name:            t.Name,
		Subdomain:       t.Subdomain,
		Status:          t.Status,
		DeletedAt:       deletedAt,
	}
}
