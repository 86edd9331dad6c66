package tenant

import (
	"context"
	"time"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
	"github.com/smartedu/backend/internal/domain/tenant"
	"github.com/smartedu/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TenantService handles tenant onboarding and lifecycle operations.
//
// Every mutating operation loads the tenant, applies the change, saves it and
// then publishes the buffered events.
type TenantService struct {
	tenantRepo    tenant.TenantRepository
	domainService *tenant.TenantDomainService
	publisher     shared.EventPublisher
	logger        *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenantRepo tenant.TenantRepository,
	domainService *tenant.TenantDomainService,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *TenantService {
	return &TenantService{
		tenantRepo:    tenantRepo,
		domainService: domainService,
		publisher:     publisher,
		logger:        logger,
	}
}

// CreateTenant onboards a new tenant in PENDING status
func (s *TenantService) CreateTenant(ctx context.Context, cmd CreateTenantCommand) (_ *TenantDTO, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tenant", "create_tenant",
		telemetry.SpanAttrSubdomain, cmd.Subdomain)
	defer func() { telemetry.End(span, err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("Creating tenant",
		zap.String("name", cmd.Name),
		zap.String("subdomain", cmd.Subdomain))

	email, err := valueobject.NewEmail(cmd.PrimaryEmail)
	if err != nil {
		return nil, err
	}
	phone, err := valueobject.NewPhone(cmd.PrimaryPhone)
	if err != nil {
		return nil, err
	}
	address, err := valueobject.NewAddress(cmd.City,
		valueobject.WithStreet(cmd.Street),
		valueobject.WithNeighborhood(cmd.Neighborhood),
		valueobject.WithProvince(cmd.Province),
		valueobject.WithPostalCode(cmd.PostalCode),
		valueobject.WithCountry(cmd.Country),
	)
	if err != nil {
		return nil, err
	}

	t, err := s.domainService.CreateTenant(ctx, cmd.Name, cmd.Subdomain, email, phone, address)
	if err != nil {
		return nil, err
	}

	if cmd.TaxID != "" || cmd.RegistrationNumber != "" {
		t.SetBusinessRegistration(cmd.TaxID, cmd.RegistrationNumber)
		if err := s.tenantRepo.Save(ctx, t); err != nil {
			s.logger.Error("Failed to save business registration",
				zap.String("tenant_id", t.ID.String()),
				zap.Error(err))
			return nil, err
		}
	}

	if err := publishPending(ctx, s.publisher, s.logger, t); err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, t.ID.String())
	s.logger.Info("Tenant created",
		zap.String("tenant_id", t.ID.String()),
		zap.String("subdomain", t.Subdomain))

	return ToTenantDTO(t), nil
}

// UpdateTenant changes contact details and business registration
func (s *TenantService) UpdateTenant(ctx context.Context, cmd UpdateTenantCommand) (*TenantDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	t, err := s.load(ctx, cmd.TenantID)
	if err != nil {
		return nil, err
	}

	needsContactUpdate := false
	email, phone, address := t.PrimaryEmail, t.PrimaryPhone, t.Address

	if cmd.PrimaryEmail != nil && *cmd.PrimaryEmail != "" {
		if email, err = valueobject.NewEmail(*cmd.PrimaryEmail); err != nil {
			return nil, err
		}
		needsContactUpdate = true
	}
	if cmd.PrimaryPhone != nil && *cmd.PrimaryPhone != "" {
		if phone, err = valueobject.NewPhone(*cmd.PrimaryPhone); err != nil {
			return nil, err
		}
		needsContactUpdate = true
	}
	if cmd.hasAddressUpdate() {
		if address, err = mergeAddress(t.Address, cmd); err != nil {
			return nil, err
		}
		needsContactUpdate = true
	}

	if !email.Equals(t.PrimaryEmail) {
		if err := s.domainService.ValidateUniqueEmail(ctx, email); err != nil {
			return nil, err
		}
	}

	if needsContactUpdate {
		t.UpdateContactInfo(email, phone, address)
	}

	if cmd.TaxID != nil || cmd.RegistrationNumber != nil {
		taxID, regNo := t.TaxID, t.RegistrationNumber
		if cmd.TaxID != nil {
			taxID = *cmd.TaxID
		}
		if cmd.RegistrationNumber != nil {
			regNo = *cmd.RegistrationNumber
		}
		t.SetBusinessRegistration(taxID, regNo)
	}

	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("Tenant updated", zap.String("tenant_id", cmd.TenantID))

	return ToTenantDTO(t), nil
}

// mergeAddress builds the new address, falling back to the current parts for
// fields the command leaves nil
func mergeAddress(current valueobject.Address, cmd UpdateTenantCommand) (valueobject.Address, error) {
	pick := func(v *string, fallback string) string {
		if v != nil {
			return *v
		}
		return fallback
	}

	return valueobject.NewAddress(pick(cmd.City, current.City()),
		valueobject.WithStreet(pick(cmd.Street, current.Street())),
		valueobject.WithNeighborhood(pick(cmd.Neighborhood, current.Neighborhood())),
		valueobject.WithProvince(pick(cmd.Province, current.Province())),
		valueobject.WithPostalCode(pick(cmd.PostalCode, current.PostalCode())),
		valueobject.WithCountry(pick(cmd.Country, current.Country())),
	)
}

// ActivateTenant activates a pending tenant
func (s *TenantService) ActivateTenant(ctx context.Context, cmd ActivateTenantCommand) (*TenantDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, cmd.TenantID, "Tenant activated", func(t *tenant.Tenant) error {
		return t.Activate()
	})
}

// SuspendTenant suspends an active tenant
func (s *TenantService) SuspendTenant(ctx context.Context, cmd SuspendTenantCommand) (*TenantDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("Suspending tenant",
		zap.String("tenant_id", cmd.TenantID),
		zap.String("reason", cmd.Reason))

	return s.mutate(ctx, cmd.TenantID, "Tenant suspended", func(t *tenant.Tenant) error {
		return t.Suspend(cmd.Reason)
	})
}

// ReactivateTenant returns a suspended tenant to active
func (s *TenantService) ReactivateTenant(ctx context.Context, tenantID string) (*TenantDTO, error) {
	return s.mutate(ctx, tenantID, "Tenant reactivated", func(t *tenant.Tenant) error {
		return t.Reactivate()
	})
}

// EnableFeature turns a feature on for a tenant
func (s *TenantService) EnableFeature(ctx context.Context, cmd FeatureCommand) (*TenantDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, cmd.TenantID, "Feature enabled", func(t *tenant.Tenant) error {
		t.EnableFeature(cmd.FeatureCode)
		return nil
	})
}

// DisableFeature turns a feature off for a tenant
func (s *TenantService) DisableFeature(ctx context.Context, cmd FeatureCommand) (*TenantDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, cmd.TenantID, "Feature disabled", func(t *tenant.Tenant) error {
		t.DisableFeature(cmd.FeatureCode)
		return nil
	})
}

// UpdateLimits replaces a tenant's user and student limits
func (s *TenantService) UpdateLimits(ctx context.Context, cmd UpdateLimitsCommand) (*TenantDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, cmd.TenantID, "Tenant limits updated", func(t *tenant.Tenant) error {
		return t.UpdateLimits(cmd.MaxUsers, cmd.MaxStudents)
	})
}

// GetTenantByID retrieves a tenant by ID
func (s *TenantService) GetTenantByID(ctx context.Context, tenantID string) (*TenantDTO, error) {
	t, err := s.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToTenantDTO(t), nil
}

// GetTenantBySubdomain retrieves a tenant by subdomain
func (s *TenantService) GetTenantBySubdomain(ctx context.Context, subdomain string) (*TenantDTO, error) {
	normalized, err := tenant.NormalizeSubdomain(subdomain)
	if err != nil {
		return nil, err
	}

	t, err := s.tenantRepo.FindBySubdomain(ctx, normalized)
	if err != nil {
		return nil, notFound(err, tenant.AggregateTypeTenant, normalized)
	}
	return ToTenantDTO(t), nil
}

// ListTenants retrieves a page of tenants and the total match count
func (s *TenantService) ListTenants(ctx context.Context, filter TenantFilter) (*TenantListResult, error) {
	sharedFilter := filter.ToSharedFilter()

	tenants, err := s.tenantRepo.FindAll(ctx, sharedFilter)
	if err != nil {
		s.logger.Error("Failed to list tenants", zap.Error(err))
		return nil, err
	}
	total, err := s.tenantRepo.Count(ctx, sharedFilter)
	if err != nil {
		s.logger.Error("Failed to count tenants", zap.Error(err))
		return nil, err
	}

	dtos := make([]TenantDTO, len(tenants))
	for i, t := range tenants {
		dtos[i] = *ToTenantDTO(t)
	}

	result := shared.NewPaginated(dtos, total, sharedFilter.Page, sharedFilter.PageSize)
	return &result, nil
}

// DeleteTenant removes a tenant and publishes tenant.deleted, preceded by
// tenant.deactivated when the tenant was still in service.
// Tenant has no delete transition; the event is built here after the row is gone.
func (s *TenantService) DeleteTenant(ctx context.Context, tenantID string) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tenant", "delete_tenant",
		telemetry.SpanAttrTenantID, tenantID)
	defer func() { telemetry.End(span, err) }()

	t, err := s.load(ctx, tenantID)
	if err != nil {
		return err
	}

	if err := s.tenantRepo.Delete(ctx, t.TenantID()); err != nil {
		s.logger.Error("Failed to delete tenant", zap.String("tenant_id", tenantID), zap.Error(err))
		return notFound(err, tenant.AggregateTypeTenant, tenantID)
	}

	now := time.Now()
	t.ClearDomainEvents()
	if t.IsActive() || t.IsSuspended() {
		t.AddDomainEvent(tenant.NewTenantDeactivatedEvent(t, now))
	}
	t.AddDomainEvent(tenant.NewTenantDeletedEvent(t, now))
	if err := publishPending(ctx, s.publisher, s.logger, t); err != nil {
		return err
	}

	s.logger.Info("Tenant deleted", zap.String("tenant_id", tenantID))
	return nil
}

func (s *TenantService) mutate(ctx context.Context, tenantID, message string, change func(*tenant.Tenant) error) (*TenantDTO, error) {
	t, err := s.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := change(t); err != nil {
		return nil, err
	}

	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info(message,
		zap.String("tenant_id", tenantID),
		zap.String("status", t.Status.String()),
		zap.Int("version", t.GetVersion()))

	return ToTenantDTO(t), nil
}

func (s *TenantService) load(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	id, err := valueobject.ParseTenantID(tenantID)
	if err != nil {
		return nil, err
	}

	t, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, tenant.AggregateTypeTenant, tenantID)
	}
	return t, nil
}

func (s *TenantService) save(ctx context.Context, t *tenant.Tenant) error {
	if err := s.tenantRepo.Save(ctx, t); err != nil {
		s.logger.Error("Failed to save tenant",
			zap.String("tenant_id", t.ID.String()),
			zap.Int("version", t.GetVersion()),
			zap.Error(err))
		return err
	}
	return publishPending(ctx, s.publisher, s.logger, t)
}
