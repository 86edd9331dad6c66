package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
	"github.com/smartedu/backend/internal/domain/tenant"
)

// SubscriptionModel is the persistence model for the Subscription aggregate root
type SubscriptionModel struct {
	AggregateModel
	TenantID        uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Plan            tenant.SubscriptionPlan   `gorm:"type:varchar(20);not null"`
	Status          tenant.SubscriptionStatus `gorm:"type:varchar(20);not null;index"`
	BillingPeriod   tenant.BillingPeriod      `gorm:"type:varchar(20);not null"`
	StartDate       time.Time                 `gorm:"type:date;not null"`
	EndDate         time.Time                 `gorm:"type:date;not null;index"`
	NextBillingDate *time.Time                `gorm:"type:date;index"`
	TrialEndDate    *time.Time                `gorm:"type:date"`
	Price           decimal.Decimal           `gorm:"type:decimal(12,2);not null"`
	UserLimit       *int
	StudentLimit    *int
	StorageLimit    *int
	AutoRenew       bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription.
// Dates come back as UTC midnight whatever the driver hands us.
func (m *SubscriptionModel) ToDomain() (*tenant.Subscription, error) {
	price, err := valueobject.NewMoney(m.Price)
	if err != nil {
		return nil, fmt.Errorf("subscription %s has an invalid stored price: %w", m.ID, err)
	}

	return tenant.ReconstructSubscription(tenant.SubscriptionState{
		ID:              m.ID,
		TenantID:        valueobject.TenantIDFrom(m.TenantID),
		Plan:            m.Plan,
		Status:          m.Status,
		BillingPeriod:   m.BillingPeriod,
		StartDate:       tenant.DateOf(m.StartDate),
		EndDate:         tenant.DateOf(m.EndDate),
		NextBillingDate: dateOrNil(m.NextBillingDate),
		TrialEndDate:    dateOrNil(m.TrialEndDate),
		Price:           price,
		UserLimit:       m.UserLimit,
		StudentLimit:    m.StudentLimit,
		StorageLimit:    m.StorageLimit,
		AutoRenew:       m.AutoRenew,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		Version:         m.Version,
	}), nil
}

// FromDomain populates the persistence model from a domain Subscription
func (m *SubscriptionModel) FromDomain(s *tenant.Subscription) {
	m.FromDomainAggregateRoot(&s.BaseAggregateRoot)
	m.TenantID = s.TenantID.UUID()
	m.Plan = s.Plan
	m.Status = s.Status
	m.BillingPeriod = s.BillingPeriod
	m.StartDate = s.StartDate
	m.EndDate = s.EndDate
	m.NextBillingDate = s.NextBillingDate
	m.TrialEndDate = s.TrialEndDate
	m.Price = s.Price.Amount()
	m.UserLimit = s.UserLimit
	m.StudentLimit = s.StudentLimit
	m.StorageLimit = s.StorageLimit
	m.AutoRenew = s.AutoRenew
}

// SubscriptionModelFromDomain creates a new persistence model from a domain Subscription
func SubscriptionModelFromDomain(s *tenant.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{}
	m.FromDomain(s)
	return m
}

func dateOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := tenant.DateOf(*t)
	return &d
}
