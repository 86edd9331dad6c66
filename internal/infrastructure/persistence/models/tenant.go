package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
	"github.com/smartedu/backend/internal/domain/tenant"
)

// TenantModel is the persistence model for the Tenant aggregate root.
// Enabled features live in tenant_features.
type TenantModel struct {
	AggregateModel
	Name               string              `gorm:"type:varchar(200);not null"`
	Subdomain          string              `gorm:"type:varchar(63);not null;uniqueIndex:uq_tenants_subdomain"`
	Status             tenant.TenantStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PrimaryEmail       string              `gorm:"type:varchar(255);not null;uniqueIndex:uq_tenants_primary_email"`
	PrimaryPhone       string              `gorm:"type:varchar(20);not null"`
	Address            valueobject.Address `gorm:"type:jsonb"`
	TaxID              string              `gorm:"column:tax_id;type:varchar(50)"`
	RegistrationNumber string              `gorm:"type:varchar(50)"`
	MaxUsers           *int
	MaxStudents        *int
	ActivatedAt        *time.Time
	SuspendedAt        *time.Time
	SuspensionReason   string               `gorm:"type:text"`
	Features           []TenantFeatureModel `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() (*tenant.Tenant, error) {
	email, err := valueobject.NewEmail(m.PrimaryEmail)
	if err != nil {
		return nil, fmt.Errorf("tenant %s has an invalid stored email: %w", m.ID, err)
	}
	phone, err := valueobject.NewPhone(m.PrimaryPhone)
	if err != nil {
		return nil, fmt.Errorf("tenant %s has an invalid stored phone: %w", m.ID, err)
	}

	features := make([]string, 0, len(m.Features))
	for _, f := range m.Features {
		features = append(features, f.FeatureCode)
	}

	return tenant.ReconstructTenant(tenant.TenantState{
		ID:                 valueobject.TenantIDFrom(m.ID),
		Name:               m.Name,
		Subdomain:          m.Subdomain,
		Status:             m.Status,
		PrimaryEmail:       email,
		PrimaryPhone:       phone,
		Address:            m.Address,
		TaxID:              m.TaxID,
		RegistrationNumber: m.RegistrationNumber,
		Features:           features,
		MaxUsers:           m.MaxUsers,
		MaxStudents:        m.MaxStudents,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		ActivatedAt:        m.ActivatedAt,
		SuspendedAt:        m.SuspendedAt,
		SuspensionReason:   m.SuspensionReason,
		Version:            m.Version,
	}), nil
}

// FromDomain populates the persistence model from a domain Tenant
func (m *TenantModel) FromDomain(t *tenant.Tenant) {
	m.FromDomainAggregateRoot(&t.BaseAggregateRoot)
	m.Name = t.Name
	m.Subdomain = t.Subdomain
	m.Status = t.Status
	m.PrimaryEmail = t.PrimaryEmail.String()
	m.PrimaryPhone = t.PrimaryPhone.String()
	m.Address = t.Address
	m.TaxID = t.TaxID
	m.RegistrationNumber = t.RegistrationNumber
	m.MaxUsers = t.MaxUsers
	m.MaxStudents = t.MaxStudents
	m.ActivatedAt = t.ActivatedAt
	m.SuspendedAt = t.SuspendedAt
	m.SuspensionReason = t.SuspensionReason

	codes := t.Features()
	m.Features = make([]TenantFeatureModel, 0, len(codes))
	for _, code := range codes {
		m.Features = append(m.Features, TenantFeatureModel{TenantID: t.ID, FeatureCode: code})
	}
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant
func TenantModelFromDomain(t *tenant.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// TenantFeatureModel is one enabled feature code of a tenant
type TenantFeatureModel struct {
	TenantID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	FeatureCode string    `gorm:"type:varchar(100);primaryKey"`
}

// TableName returns the table name for GORM
func (TenantFeatureModel) TableName() string {
	return "tenant_features"
}
