package tenant

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
)

// TenantStatus represents the lifecycle status of a tenant
type TenantStatus string

const (
	TenantStatusPending   TenantStatus = "PENDING"
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
	TenantStatusInactive  TenantStatus = "INACTIVE" // No business method leads here; set only from storage
	TenantStatusDeleted   TenantStatus = "DELETED"  // No business method leads here; set only from storage
)

// IsValid returns true if the status is a known value
func (s TenantStatus) IsValid() bool {
	switch s {
	case TenantStatusPending, TenantStatusActive, TenantStatusSuspended,
		TenantStatusInactive, TenantStatusDeleted:
		return true
	}
	return false
}

// String returns the string representation
func (s TenantStatus) String() string {
	return string(s)
}

// Default limits for a new tenant
const (
	DefaultMaxUsers    = 10
	DefaultMaxStudents = 100
)

// Update type carried by TenantUpdatedEvent
const UpdateTypeContactInfo = "CONTACT_INFO_UPDATED"

var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]{3,63}$`)

// Tenant is a school or organization using the platform.
// It is the aggregate root for tenant onboarding and lifecycle.
//
// MaxUsers and MaxStudents are nil when unlimited.
type Tenant struct {
	shared.BaseAggregateRoot
	Name               string
	Subdomain          string
	Status             TenantStatus
	PrimaryEmail       valueobject.Email
	PrimaryPhone       valueobject.Phone
	Address            valueobject.Address
	TaxID              string
	RegistrationNumber string
	MaxUsers           *int
	MaxStudents        *int
	ActivatedAt        *time.Time
	SuspendedAt        *time.Time
	SuspensionReason   string
	features           map[string]struct{}
}

// TenantState is the full persisted state of a tenant, used to rebuild the
// aggregate from storage
type TenantState struct {
	ID                 valueobject.TenantID
	Name               string
	Subdomain          string
	Status             TenantStatus
	PrimaryEmail       valueobject.Email
	PrimaryPhone       valueobject.Phone
	Address            valueobject.Address
	TaxID              string
	RegistrationNumber string
	Features           []string
	MaxUsers           *int
	MaxStudents        *int
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ActivatedAt        *time.Time
	SuspendedAt        *time.Time
	SuspensionReason   string
	Version            int
}

// NewTenant creates a pending tenant with default limits
func NewTenant(
	id valueobject.TenantID,
	name, subdomain string,
	email valueobject.Email,
	phone valueobject.Phone,
	address valueobject.Address,
) (*Tenant, error) {
	normalized, err := NormalizeSubdomain(subdomain)
	if err != nil {
		return nil, err
	}

	t := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithID(id.UUID()),
		Name:              name,
		Subdomain:         normalized,
		Status:            TenantStatusPending,
		PrimaryEmail:      email,
		PrimaryPhone:      phone,
		Address:           address,
		MaxUsers:          intPtr(DefaultMaxUsers),
		MaxStudents:       intPtr(DefaultMaxStudents),
		features:          make(map[string]struct{}),
	}

	t.AddDomainEvent(NewTenantCreatedEvent(t))

	return t, nil
}

// ReconstructTenant rebuilds a tenant from storage.
// State is restored as given and no events are recorded.
func ReconstructTenant(s TenantState) *Tenant {
	t := &Tenant{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        s.ID.UUID(),
				CreatedAt: s.CreatedAt,
				UpdatedAt: s.UpdatedAt,
			},
		},
		Name:               s.Name,
		Subdomain:          s.Subdomain,
		Status:             s.Status,
		PrimaryEmail:       s.PrimaryEmail,
		PrimaryPhone:       s.PrimaryPhone,
		Address:            s.Address,
		TaxID:              s.TaxID,
		RegistrationNumber: s.RegistrationNumber,
		MaxUsers:           s.MaxUsers,
		MaxStudents:        s.MaxStudents,
		ActivatedAt:        s.ActivatedAt,
		SuspendedAt:        s.SuspendedAt,
		SuspensionReason:   s.SuspensionReason,
		features:           make(map[string]struct{}, len(s.Features)),
	}
	for _, code := range s.Features {
		t.features[code] = struct{}{}
	}
	t.RestoreVersion(s.Version)
	return t
}

// NormalizeSubdomain lowercases and trims a subdomain and checks its format
func NormalizeSubdomain(subdomain string) (string, error) {
	if strings.TrimSpace(subdomain) == "" {
		return "", shared.NewInvalidArgumentError("Subdomain is required")
	}

	normalized := strings.ToLower(strings.TrimSpace(subdomain))
	if !subdomainPattern.MatchString(normalized) {
		return "", shared.NewInvalidArgumentError(
			"Subdomain must be 3-63 characters and contain only lowercase letters, numbers, and hyphens")
	}
	if strings.HasPrefix(normalized, "-") || strings.HasSuffix(normalized, "-") {
		return "", shared.NewInvalidArgumentError("Subdomain cannot start or end with a hyphen")
	}
	return normalized, nil
}

// TenantID returns the tenant identifier
func (t *Tenant) TenantID() valueobject.TenantID {
	return valueobject.TenantIDFrom(t.ID)
}

// Activate moves a pending tenant to active
func (t *Tenant) Activate() error {
	if t.Status != TenantStatusPending {
		return shared.NewBusinessRuleViolation("TenantActivation",
			"Tenant can only be activated from PENDING status", t.Status)
	}

	now := time.Now()
	t.Status = TenantStatusActive
	t.ActivatedAt = &now
	t.touch()

	t.AddDomainEvent(NewTenantActivatedEvent(t, now))

	return nil
}

// Suspend suspends an active tenant. A reason is required.
func (t *Tenant) Suspend(reason string) error {
	if t.Status != TenantStatusActive {
		return shared.NewBusinessRuleViolation("TenantSuspension",
			"Only active tenants can be suspended", t.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewInvalidArgumentError("Suspension reason is required")
	}

	now := time.Now()
	t.Status = TenantStatusSuspended
	t.SuspendedAt = &now
	t.SuspensionReason = reason
	t.touch()

	t.AddDomainEvent(NewTenantSuspendedEvent(t))

	return nil
}

// Reactivate returns a suspended tenant to active and clears the suspension
func (t *Tenant) Reactivate() error {
	if t.Status != TenantStatusSuspended {
		return shared.NewBusinessRuleViolation("TenantReactivation",
			"Only suspended tenants can be reactivated", t.Status)
	}

	t.Status = TenantStatusActive
	t.SuspendedAt = nil
	t.SuspensionReason = ""
	t.touch()

	t.AddDomainEvent(NewTenantActivatedEvent(t, time.Now()))

	return nil
}

// UpdateContactInfo replaces the primary email, phone and address
func (t *Tenant) UpdateContactInfo(email valueobject.Email, phone valueobject.Phone, address valueobject.Address) {
	t.PrimaryEmail = email
	t.PrimaryPhone = phone
	t.Address = address
	t.touch()

	t.AddDomainEvent(NewTenantUpdatedEvent(t, UpdateTypeContactInfo))
}

// EnableFeature turns a feature on. Enabling an enabled feature is allowed.
func (t *Tenant) EnableFeature(code string) {
	if t.features == nil {
		t.features = make(map[string]struct{})
	}
	t.features[code] = struct{}{}
	t.touch()

	t.AddDomainEvent(NewTenantFeatureEnabledEvent(t, code))
}

// DisableFeature turns a feature off. Disabling an absent feature is allowed.
func (t *Tenant) DisableFeature(code string) {
	delete(t.features, code)
	t.touch()

	t.AddDomainEvent(NewTenantFeatureDisabledEvent(t, code))
}

// UpdateLimits replaces the user and student limits. Nil means unlimited.
func (t *Tenant) UpdateLimits(maxUsers, maxStudents *int) error {
	if maxUsers != nil && *maxUsers < 1 {
		return shared.NewInvalidArgumentError("Max users must be at least 1")
	}
	if maxStudents != nil && *maxStudents < 1 {
		return shared.NewInvalidArgumentError("Max students must be at least 1")
	}

	previousUsers, previousStudents := t.MaxUsers, t.MaxStudents
	t.MaxUsers = copyInt(maxUsers)
	t.MaxStudents = copyInt(maxStudents)
	t.touch()

	t.AddDomainEvent(NewTenantLimitsUpdatedEvent(t, previousUsers, previousStudents))

	return nil
}

// SetBusinessRegistration sets the tax id and registration number.
// It bumps the version but records no event.
func (t *Tenant) SetBusinessRegistration(taxID, registrationNumber string) {
	t.TaxID = taxID
	t.RegistrationNumber = registrationNumber
	t.touch()
}

// HasFeature returns true if the feature is enabled
func (t *Tenant) HasFeature(code string) bool {
	_, ok := t.features[code]
	return ok
}

// Features returns the enabled feature codes in sorted order
func (t *Tenant) Features() []string {
	codes := make([]string, 0, len(t.features))
	for code := range t.features {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IsActive returns true if the tenant is active
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// IsSuspended returns true if the tenant is suspended
func (t *Tenant) IsSuspended() bool {
	return t.Status == TenantStatusSuspended
}

func (t *Tenant) touch() {
	t.Touch()
	t.IncrementVersion()
}

func intPtr(v int) *int {
	return &v
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return intPtr(*v)
}
