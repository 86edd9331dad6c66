package tenant

import (
	"time"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/tenant"
)

// TenantDTO represents tenant data transfer object
type TenantDTO struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Subdomain          string     `json:"subdomain"`
	Status             string     `json:"status"`
	PrimaryEmail       string     `json:"primary_email"`
	PrimaryPhone       string     `json:"primary_phone"`
	Address            string     `json:"address,omitempty"`
	TaxID              string     `json:"tax_id,omitempty"`
	RegistrationNumber string     `json:"registration_number,omitempty"`
	Features           []string   `json:"features"`
	MaxUsers           *int       `json:"max_users"`
	MaxStudents        *int       `json:"max_students"`
	CreatedAt          time.Time  `json:"created_at"`
	ActivatedAt        *time.Time `json:"activated_at,omitempty"`
	SuspendedAt        *time.Time `json:"suspended_at,omitempty"`
	SuspensionReason   string     `json:"suspension_reason,omitempty"`
	Version            int        `json:"version"`
}

// SubscriptionDTO represents subscription data transfer object
type SubscriptionDTO struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	Plan            string     `json:"plan"`
	Status          string     `json:"status"`
	BillingPeriod   string     `json:"billing_period"`
	Price           string     `json:"price"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
	TrialEndDate    *time.Time `json:"trial_end_date,omitempty"`
	UserLimit       *int       `json:"user_limit"`
	StudentLimit    *int       `json:"student_limit"`
	StorageLimit    *int       `json:"storage_limit"`
	AutoRenew       bool       `json:"auto_renew"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Version         int        `json:"version"`
}

// TenantFilter represents filter for querying tenants
type TenantFilter struct {
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
	Keyword  string
	Status   string
}

// ToSharedFilter converts TenantFilter to shared.Filter
func (f TenantFilter) ToSharedFilter() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.SortBy,
		OrderDir: f.SortDir,
		Search:   f.Keyword,
		Filters:  make(map[string]interface{}),
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter.Normalize()
}

// TenantListResult is a page of tenants with the total match count
type TenantListResult = shared.Paginated[TenantDTO]

// RenewalSummary reports the outcome of a billing sweep
type RenewalSummary struct {
	AsOf    time.Time `json:"as_of"`
	Renewed int       `json:"renewed"`
	Expired int       `json:"expired"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`
}

// ToTenantDTO converts a domain tenant to its DTO
func ToTenantDTO(t *tenant.Tenant) *TenantDTO {
	return &TenantDTO{
		ID:                 t.ID.String(),
		Name:               t.Name,
		Subdomain:          t.Subdomain,
		Status:             string(t.Status),
		PrimaryEmail:       t.PrimaryEmail.String(),
		PrimaryPhone:       t.PrimaryPhone.String(),
		Address:            t.Address.FullAddress(),
		TaxID:              t.TaxID,
		RegistrationNumber: t.RegistrationNumber,
		Features:           t.Features(),
		MaxUsers:           t.MaxUsers,
		MaxStudents:        t.MaxStudents,
		CreatedAt:          t.CreatedAt,
		ActivatedAt:        t.ActivatedAt,
		SuspendedAt:        t.SuspendedAt,
		SuspensionReason:   t.SuspensionReason,
		Version:            t.GetVersion(),
	}
}

// ToSubscriptionDTO converts a domain subscription to its DTO
func ToSubscriptionDTO(s *tenant.Subscription) *SubscriptionDTO {
	return &SubscriptionDTO{
		ID:              s.ID.String(),
		TenantID:        s.TenantID.String(),
		Plan:            string(s.Plan),
		Status:          string(s.Status),
		BillingPeriod:   string(s.BillingPeriod),
		Price:           s.Price.String(),
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		NextBillingDate: s.NextBillingDate,
		TrialEndDate:    s.TrialEndDate,
		UserLimit:       s.UserLimit,
		StudentLimit:    s.StudentLimit,
		StorageLimit:    s.StorageLimit,
		AutoRenew:       s.AutoRenew,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		Version:         s.GetVersion(),
	}
}
