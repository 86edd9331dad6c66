package tenant

import (
	"time"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant
const AggregateTypeSubscription = "Subscription"

// Event type constants
const (
	EventTypeSubscriptionCreated          = "subscription.created"
	EventTypeSubscriptionUpgraded         = "subscription.upgraded"
	EventTypeSubscriptionDowngraded       = "subscription.downgraded"
	EventTypeSubscriptionCancelled        = "subscription.cancelled"
	EventTypeSubscriptionSuspended        = "subscription.suspended"
	EventTypeSubscriptionReactivated      = "subscription.reactivated"
	EventTypeSubscriptionRenewed          = "subscription.renewed"
	EventTypeSubscriptionExpired          = "subscription.expired"
	EventTypeSubscriptionAutoRenewChanged = "subscription.auto_renew.changed"
)

func newSubscriptionEvent(eventType string, s *Subscription) shared.BaseDomainEvent {
	return shared.NewBaseDomainEvent(eventType, AggregateTypeSubscription, s.ID, s.TenantID.UUID())
}

// SubscriptionCreatedEvent is published when a tenant subscribes to a plan
type SubscriptionCreatedEvent struct {
	shared.BaseDomainEvent
	Plan          SubscriptionPlan  `json:"plan"`
	BillingPeriod BillingPeriod     `json:"billing_period"`
	Price         valueobject.Money `json:"price"`
	StartDate     time.Time         `json:"start_date"`
	EndDate       time.Time         `json:"end_date"`
	TrialEndDate  *time.Time        `json:"trial_end_date,omitempty"`
}

// NewSubscriptionCreatedEvent creates a new SubscriptionCreatedEvent
func NewSubscriptionCreatedEvent(s *Subscription) *SubscriptionCreatedEvent {
	return &SubscriptionCreatedEvent{
		BaseDomainEvent: newSubscriptionEvent(EventTypeSubscriptionCreated, s),
		Plan:            s.Plan,
		BillingPeriod:   s.BillingPeriod,
		Price:           s.Price,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		TrialEndDate:    s.TrialEndDate,
	}
}

// SubscriptionPlanChangedEvent is published on upgrade and downgrade.
// The event type tells which of the two happened.
type SubscriptionPlanChangedEvent struct {
	shared.BaseDomainEvent
	OldPlan SubscriptionPlan  `json:"old_plan"`
	NewPlan SubscriptionPlan  `json:"new_plan"`
	Price   valueobject.Money `json:"price"`
}

// NewSubscriptionPlanChangedEvent creates a new SubscriptionPlanChangedEvent
func NewSubscriptionPlanChangedEvent(s *Subscription, eventType string, oldPlan SubscriptionPlan) *SubscriptionPlanChangedEvent {
	return &SubscriptionPlanChangedEvent{
		BaseDomainEvent: newSubscriptionEvent(eventType, s),
		OldPlan:         oldPlan,
		NewPlan:         s.Plan,
		Price:           s.Price,
	}
}

// SubscriptionStatusChangedEvent is published on cancel, suspend, reactivate,
// renew and expire
type SubscriptionStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus SubscriptionStatus `json:"old_status"`
	NewStatus SubscriptionStatus `json:"new_status"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
}

// NewSubscriptionStatusChangedEvent creates a new SubscriptionStatusChangedEvent
func NewSubscriptionStatusChangedEvent(s *Subscription, eventType string, oldStatus SubscriptionStatus) *SubscriptionStatusChangedEvent {
	return &SubscriptionStatusChangedEvent{
		BaseDomainEvent: newSubscriptionEvent(eventType, s),
		OldStatus:       oldStatus,
		NewStatus:       s.Status,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
	}
}

// SubscriptionAutoRenewChangedEvent is published when auto-renew is toggled
type SubscriptionAutoRenewChangedEvent struct {
	shared.BaseDomainEvent
	AutoRenew       bool       `json:"auto_renew"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
}

// NewSubscriptionAutoRenewChangedEvent creates a new SubscriptionAutoRenewChangedEvent
func NewSubscriptionAutoRenewChangedEvent(s *Subscription) *SubscriptionAutoRenewChangedEvent {
	return &SubscriptionAutoRenewChangedEvent{
		BaseDomainEvent: newSubscriptionEvent(EventTypeSubscriptionAutoRenewChanged, s),
		AutoRenew:       s.AutoRenew,
		NextBillingDate: s.NextBillingDate,
	}
}
