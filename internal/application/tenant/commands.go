package tenant

import "time"

// CreateTenantCommand contains input for onboarding a tenant
type CreateTenantCommand struct {
	Name               string `json:"name" validate:"required,min=2,max=100"`
	Subdomain          string `json:"subdomain" validate:"required,subdomain"`
	PrimaryEmail       string `json:"primary_email" validate:"required,email"`
	PrimaryPhone       string `json:"primary_phone" validate:"required"`
	Street             string `json:"street" validate:"required,max=255"`
	Neighborhood       string `json:"neighborhood,omitempty" validate:"max=100"`
	City               string `json:"city" validate:"required,max=100"`
	Province           string `json:"province,omitempty" validate:"max=100"`
	PostalCode         string `json:"postal_code,omitempty" validate:"max=20"`
	Country            string `json:"country" validate:"required,max=100"`
	TaxID              string `json:"tax_id,omitempty" validate:"max=50"`
	RegistrationNumber string `json:"registration_number,omitempty" validate:"max=50"`
}

// Validate checks the command fields
func (c CreateTenantCommand) Validate() error {
	return validateStruct(c)
}

// UpdateTenantCommand changes contact details and business registration.
// Nil fields keep their current value; an empty email or phone is ignored.
type UpdateTenantCommand struct {
	TenantID           string  `json:"tenant_id" validate:"required,uuid"`
	PrimaryEmail       *string `json:"primary_email,omitempty" validate:"omitempty,max=255"`
	PrimaryPhone       *string `json:"primary_phone,omitempty"`
	Street             *string `json:"street,omitempty" validate:"omitempty,max=255"`
	Neighborhood       *string `json:"neighborhood,omitempty" validate:"omitempty,max=100"`
	City               *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Province           *string `json:"province,omitempty" validate:"omitempty,max=100"`
	PostalCode         *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	Country            *string `json:"country,omitempty" validate:"omitempty,max=100"`
	TaxID              *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	RegistrationNumber *string `json:"registration_number,omitempty" validate:"omitempty,max=50"`
}

// Validate checks the command fields
func (c UpdateTenantCommand) Validate() error {
	return validateStruct(c)
}

func (c UpdateTenantCommand) hasAddressUpdate() bool {
	return c.Street != nil || c.Neighborhood != nil || c.City != nil ||
		c.Province != nil || c.PostalCode != nil || c.Country != nil
}

// ActivateTenantCommand activates a pending tenant
type ActivateTenantCommand struct {
	TenantID string `json:"tenant_id" validate:"required,uuid"`
}

// Validate checks the command fields
func (c ActivateTenantCommand) Validate() error {
	return validateStruct(c)
}

// SuspendTenantCommand suspends an active tenant
type SuspendTenantCommand struct {
	TenantID string `json:"tenant_id" validate:"required,uuid"`
	Reason   string `json:"reason" validate:"required,min=10,max=500"`
}

// Validate checks the command fields
func (c SuspendTenantCommand) Validate() error {
	return validateStruct(c)
}

// FeatureCommand enables or disables a feature for a tenant
type FeatureCommand struct {
	TenantID    string `json:"tenant_id" validate:"required,uuid"`
	FeatureCode string `json:"feature_code" validate:"required,max=50"`
}

// Validate checks the command fields
func (c FeatureCommand) Validate() error {
	return validateStruct(c)
}

// UpdateLimitsCommand replaces a tenant's limits. Nil means unlimited.
type UpdateLimitsCommand struct {
	TenantID    string `json:"tenant_id" validate:"required,uuid"`
	MaxUsers    *int   `json:"max_users" validate:"omitempty,min=1"`
	MaxStudents *int   `json:"max_students" validate:"omitempty,min=1"`
}

// Validate checks the command fields
func (c UpdateLimitsCommand) Validate() error {
	return validateStruct(c)
}

// CreateSubscriptionCommand subscribes a tenant to a plan.
// AutoRenew defaults to true when nil.
type CreateSubscriptionCommand struct {
	TenantID      string    `json:"tenant_id" validate:"required,uuid"`
	Plan          string    `json:"plan" validate:"required,oneof=BASIC STANDARD PROFESSIONAL ENTERPRISE CUSTOM"`
	BillingPeriod string    `json:"billing_period" validate:"required,oneof=MONTHLY QUARTERLY YEARLY"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	AutoRenew     *bool     `json:"auto_renew,omitempty"`
}

// Validate checks the command fields
func (c CreateSubscriptionCommand) Validate() error {
	return validateStruct(c)
}

// ChangePlanCommand upgrades or downgrades a subscription
type ChangePlanCommand struct {
	SubscriptionID string `json:"subscription_id" validate:"required,uuid"`
	Plan           string `json:"plan" validate:"required,oneof=BASIC STANDARD PROFESSIONAL ENTERPRISE CUSTOM"`
}

// Validate checks the command fields
func (c ChangePlanCommand) Validate() error {
	return validateStruct(c)
}
