package tenant

import (
	"context"
	"fmt"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
)

// Business rule names enforced across tenants
const (
	RuleUniqueSubdomain = "UniqueSubdomain"
	RuleUniqueEmail     = "UniqueEmail"

	// A tenant holds at most one ACTIVE subscription
	RuleSingleActiveSubscription = "SingleActiveSubscription"
)

// TenantDomainService holds tenant rules that need the repository, such as
// subdomain and email uniqueness.
//
// The existence checks and the insert are not atomic. Two concurrent
// creations can both pass the checks; the storage unique indexes then
// reject the second insert and the repository reports the same rule.
type TenantDomainService struct {
	repo TenantRepository
}

// NewTenantDomainService creates a new TenantDomainService
func NewTenantDomainService(repo TenantRepository) *TenantDomainService {
	return &TenantDomainService{repo: repo}
}

// ValidateUniqueSubdomain fails if a tenant already uses the subdomain.
// The check runs on the normalized form.
func (s *TenantDomainService) ValidateUniqueSubdomain(ctx context.Context, subdomain string) error {
	normalized, err := NormalizeSubdomain(subdomain)
	if err != nil {
		return err
	}

	exists, err := s.repo.ExistsBySubdomain(ctx, normalized)
	if err != nil {
		return fmt.Errorf("check subdomain uniqueness: %w", err)
	}
	if exists {
		return shared.NewBusinessRuleViolation(RuleUniqueSubdomain, "Subdomain already exists", normalized)
	}
	return nil
}

// ValidateUniqueEmail fails if a tenant already uses the email as primary email
func (s *TenantDomainService) ValidateUniqueEmail(ctx context.Context, email valueobject.Email) error {
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email uniqueness: %w", err)
	}
	if exists {
		return shared.NewBusinessRuleViolation(RuleUniqueEmail, "Email already registered", email.String())
	}
	return nil
}

// CreateTenant checks uniqueness, builds a new tenant and saves it.
// The returned tenant still holds its TenantCreated event.
func (s *TenantDomainService) CreateTenant(
	ctx context.Context,
	name, subdomain string,
	email valueobject.Email,
	phone valueobject.Phone,
	address valueobject.Address,
) (*Tenant, error) {
	if err := s.ValidateUniqueSubdomain(ctx, subdomain); err != nil {
		return nil, err
	}
	if err := s.ValidateUniqueEmail(ctx, email); err != nil {
		return nil, err
	}

	t, err := NewTenant(valueobject.NewTenantID(), name, subdomain, email, phone, address)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
