package tenant

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
)

// SubscriptionStatus represents the billing status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "TRIAL"
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusSuspended SubscriptionStatus = "SUSPENDED"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// IsValid returns true if the status is a known value
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusTrial, SubscriptionStatusActive, SubscriptionStatusSuspended,
		SubscriptionStatusExpired, SubscriptionStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s SubscriptionStatus) String() string {
	return string(s)
}

// TrialDays is the trial length granted to BASIC subscriptions
const TrialDays = 14

// Clock returns the current time
type Clock func() time.Time

// SystemClock reads the wall clock
func SystemClock() time.Time {
	return time.Now()
}

// SubscriptionOption configures a Subscription
type SubscriptionOption func(*Subscription)

// WithClock sets the clock used to determine "today"
func WithClock(clock Clock) SubscriptionOption {
	return func(s *Subscription) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAutoRenew sets whether a new subscription renews at the end of its term
func WithAutoRenew(autoRenew bool) SubscriptionOption {
	return func(s *Subscription) {
		s.AutoRenew = autoRenew
	}
}

// Subscription is a tenant's subscription to a plan.
//
// Dates are calendar dates held at UTC midnight. Limits are nil when
// unlimited. NextBillingDate is set only while AutoRenew is on.
type Subscription struct {
	shared.BaseAggregateRoot
	TenantID        valueobject.TenantID
	Plan            SubscriptionPlan
	Status          SubscriptionStatus
	BillingPeriod   BillingPeriod
	StartDate       time.Time
	EndDate         time.Time
	NextBillingDate *time.Time
	TrialEndDate    *time.Time
	Price           valueobject.Money
	UserLimit       *int
	StudentLimit    *int
	StorageLimit    *int
	AutoRenew       bool
	clock           Clock
}

// SubscriptionState is the full persisted state of a subscription
type SubscriptionState struct {
	ID              uuid.UUID
	TenantID        valueobject.TenantID
	Plan            SubscriptionPlan
	Status          SubscriptionStatus
	BillingPeriod   BillingPeriod
	StartDate       time.Time
	EndDate         time.Time
	NextBillingDate *time.Time
	TrialEndDate    *time.Time
	Price           valueobject.Money
	UserLimit       *int
	StudentLimit    *int
	StorageLimit    *int
	AutoRenew       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int
}

// NewSubscription creates an active, auto-renewing subscription starting on startDate
func NewSubscription(
	tenantID valueobject.TenantID,
	plan SubscriptionPlan,
	period BillingPeriod,
	startDate time.Time,
	opts ...SubscriptionOption,
) (*Subscription, error) {
	if tenantID.IsZero() {
		return nil, shared.NewInvalidArgumentError("Tenant id is required")
	}
	if !plan.IsValid() {
		return nil, shared.NewInvalidArgumentError("Invalid subscription plan: " + string(plan))
	}
	if !period.IsValid() {
		return nil, shared.NewInvalidArgumentError("Invalid billing period: " + string(period))
	}
	if startDate.IsZero() {
		return nil, shared.NewInvalidArgumentError("Start date is required")
	}

	s := &Subscription{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		Plan:              plan,
		Status:            SubscriptionStatusActive,
		BillingPeriod:     period,
		StartDate:         DateOf(startDate),
		AutoRenew:         true,
		clock:             SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.applyPlanLimits()
	s.Price = CalculatePrice(plan, period)
	s.calculateEndDate()
	s.calculateNextBillingDate()

	if plan == PlanBasic {
		trialEnd := s.StartDate.AddDate(0, 0, TrialDays)
		s.TrialEndDate = &trialEnd
	}

	s.AddDomainEvent(NewSubscriptionCreatedEvent(s))

	return s, nil
}

// ReconstructSubscription rebuilds a subscription from storage without recording events
func ReconstructSubscription(st SubscriptionState, opts ...SubscriptionOption) *Subscription {
	s := &Subscription{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        st.ID,
				CreatedAt: st.CreatedAt,
				UpdatedAt: st.UpdatedAt,
			},
		},
		TenantID:        st.TenantID,
		Plan:            st.Plan,
		Status:          st.Status,
		BillingPeriod:   st.BillingPeriod,
		StartDate:       st.StartDate,
		EndDate:         st.EndDate,
		NextBillingDate: st.NextBillingDate,
		TrialEndDate:    st.TrialEndDate,
		Price:           st.Price,
		UserLimit:       st.UserLimit,
		StudentLimit:    st.StudentLimit,
		StorageLimit:    st.StorageLimit,
		AutoRenew:       st.AutoRenew,
		clock:           SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.RestoreVersion(st.Version)
	return s
}

// Upgrade moves an active subscription to a higher plan and reprices it
func (s *Subscription) Upgrade(plan SubscriptionPlan) error {
	if plan.Ordinal() <= s.Plan.Ordinal() {
		return shared.NewBusinessRuleViolation("SubscriptionUpgrade",
			"Can only upgrade to a higher plan", plan)
	}
	if s.Status != SubscriptionStatusActive {
		return shared.NewBusinessRuleViolation("SubscriptionUpgrade",
			"Can only upgrade active subscriptions", s.Status)
	}

	s.changePlan(EventTypeSubscriptionUpgraded, plan)
	return nil
}

// Downgrade moves an active subscription to a lower plan and reprices it
func (s *Subscription) Downgrade(plan SubscriptionPlan) error {
	if !plan.IsValid() || plan.Ordinal() >= s.Plan.Ordinal() {
		return shared.NewBusinessRuleViolation("SubscriptionDowngrade",
			"Can only downgrade to a lower plan", plan)
	}
	if s.Status != SubscriptionStatusActive {
		return shared.NewBusinessRuleViolation("SubscriptionDowngrade",
			"Can only downgrade active subscriptions", s.Status)
	}

	s.changePlan(EventTypeSubscriptionDowngraded, plan)
	return nil
}

func (s *Subscription) changePlan(eventType string, plan SubscriptionPlan) {
	oldPlan := s.Plan
	s.Plan = plan
	s.applyPlanLimits()
	s.Price = CalculatePrice(s.Plan, s.BillingPeriod)
	s.touch()

	s.AddDomainEvent(NewSubscriptionPlanChangedEvent(s, eventType, oldPlan))
}

// Cancel ends the subscription today and turns auto-renew off
func (s *Subscription) Cancel() error {
	if s.Status == SubscriptionStatusCancelled {
		return shared.NewBusinessRuleViolation("SubscriptionCancellation",
			"Subscription is already cancelled", s.Status)
	}

	old := s.Status
	s.Status = SubscriptionStatusCancelled
	s.AutoRenew = false
	s.EndDate = s.today()
	s.calculateNextBillingDate()
	s.touch()

	s.AddDomainEvent(NewSubscriptionStatusChangedEvent(s, EventTypeSubscriptionCancelled, old))
	return nil
}

// Suspend pauses an active subscription
func (s *Subscription) Suspend() error {
	if s.Status != SubscriptionStatusActive {
		return shared.NewBusinessRuleViolation("SubscriptionSuspension",
			"Can only suspend active subscriptions", s.Status)
	}

	old := s.Status
	s.Status = SubscriptionStatusSuspended
	s.touch()

	s.AddDomainEvent(NewSubscriptionStatusChangedEvent(s, EventTypeSubscriptionSuspended, old))
	return nil
}

// Reactivate restarts a suspended or expired subscription from today
func (s *Subscription) Reactivate() error {
	if s.Status != SubscriptionStatusSuspended && s.Status != SubscriptionStatusExpired {
		return shared.NewBusinessRuleViolation("SubscriptionReactivation",
			"Can only reactivate suspended or expired subscriptions", s.Status)
	}

	old := s.Status
	s.restart(s.today())
	s.touch()

	s.AddDomainEvent(NewSubscriptionStatusChangedEvent(s, EventTypeSubscriptionReactivated, old))
	return nil
}

// Renew starts a new billing period from today
func (s *Subscription) Renew() error {
	return s.RenewOn(s.today())
}

// RenewOn starts a new billing period on day instead of today
func (s *Subscription) RenewOn(day time.Time) error {
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusExpired {
		return shared.NewBusinessRuleViolation("SubscriptionRenewal",
			"Can only renew active or expired subscriptions", s.Status)
	}

	old := s.Status
	s.restart(DateOf(day))
	s.touch()

	s.AddDomainEvent(NewSubscriptionStatusChangedEvent(s, EventTypeSubscriptionRenewed, old))
	return nil
}

// Expire marks an active subscription whose end date has passed as expired
func (s *Subscription) Expire(asOf time.Time) error {
	if s.Status != SubscriptionStatusActive {
		return shared.NewBusinessRuleViolation("SubscriptionExpiration",
			"Can only expire active subscriptions", s.Status)
	}
	if !s.IsExpired(asOf) {
		return shared.NewBusinessRuleViolation("SubscriptionExpiration",
			"Subscription has not reached its end date", s.EndDate.Format(time.DateOnly))
	}

	old := s.Status
	s.Status = SubscriptionStatusExpired
	s.NextBillingDate = nil
	s.touch()

	s.AddDomainEvent(NewSubscriptionStatusChangedEvent(s, EventTypeSubscriptionExpired, old))
	return nil
}

// SetAutoRenew turns auto-renew on or off and recomputes the next billing date
func (s *Subscription) SetAutoRenew(autoRenew bool) {
	s.AutoRenew = autoRenew
	s.calculateNextBillingDate()
	s.touch()

	s.AddDomainEvent(NewSubscriptionAutoRenewChangedEvent(s))
}

// IsExpired returns true if asOf falls after the end date
func (s *Subscription) IsExpired(asOf time.Time) bool {
	return DateOf(asOf).After(s.EndDate)
}

// IsInTrial returns true if asOf falls before the trial end date
func (s *Subscription) IsInTrial(asOf time.Time) bool {
	return s.TrialEndDate != nil && DateOf(asOf).Before(*s.TrialEndDate)
}

// IsActive returns true if the subscription is active
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

func (s *Subscription) restart(start time.Time) {
	s.Status = SubscriptionStatusActive
	s.StartDate = start
	s.calculateEndDate()
	s.calculateNextBillingDate()
}

func (s *Subscription) applyPlanLimits() {
	limits, ok := LimitsForPlan(s.Plan)
	if !ok {
		return
	}
	s.UserLimit = limits.Users
	s.StudentLimit = limits.Students
	s.StorageLimit = limits.StorageGB
}

func (s *Subscription) calculateEndDate() {
	s.EndDate = AddMonths(s.StartDate, s.BillingPeriod.Months())
}

func (s *Subscription) calculateNextBillingDate() {
	if !s.AutoRenew {
		s.NextBillingDate = nil
		return
	}
	next := s.EndDate
	s.NextBillingDate = &next
}

func (s *Subscription) today() time.Time {
	if s.clock == nil {
		return DateOf(time.Now())
	}
	return DateOf(s.clock())
}

func (s *Subscription) touch() {
	s.Touch()
	s.IncrementVersion()
}

// DateOf returns the calendar date of t at UTC midnight
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds calendar months to a date. The day is clamped to the last
// day of the target month, so Jan 31 plus one month is Feb 28 or 29.
func AddMonths(date time.Time, months int) time.Time {
	y, m, d := date.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
