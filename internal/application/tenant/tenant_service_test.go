package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
	"github.com/smartedu/backend/internal/domain/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type tenantServiceFixture struct {
	repo      *MockTenantRepository
	publisher *MockEventPublisher
	service   *TenantService
}

func newTenantServiceFixture() *tenantServiceFixture {
	repo := new(MockTenantRepository)
	publisher := new(MockEventPublisher)
	service := NewTenantService(repo, tenant.NewTenantDomainService(repo), publisher, zap.NewNop())
	return &tenantServiceFixture{repo: repo, publisher: publisher, service: service}
}

func storedTenant(t *testing.T, status tenant.TenantStatus) *tenant.Tenant {
	t.Helper()
	address, err := valueobject.NewAddress("Maputo",
		valueobject.WithStreet("Av. Julius Nyerere 123"),
		valueobject.WithNeighborhood("Polana"),
		valueobject.WithCountry("Moçambique"))
	require.NoError(t, err)

	users, students := 10, 100
	return tenant.ReconstructTenant(tenant.TenantState{
		ID:           valueobject.NewTenantID(),
		Name:         "Escola Secundária Josina Machel",
		Subdomain:    "josina",
		Status:       status,
		PrimaryEmail: valueobject.MustNewEmail("admin@josina.co.mz"),
		PrimaryPhone: valueobject.MustNewPhone("841234567"),
		Address:      address,
		MaxUsers:     &users,
		MaxStudents:  &students,
		CreatedAt:    time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		Version:      3,
	})
}

func validCreateTenantCommand() CreateTenantCommand {
	return CreateTenantCommand{
		Name:         "Escola Secundária Josina Machel",
		Subdomain:    "Josina",
		PrimaryEmail: "admin@josina.co.mz",
		PrimaryPhone: "841234567",
		Street:       "Av. Julius Nyerere 123",
		City:         "Maputo",
		Country:      "Moçambique",
	}
}

func strPtr(s string) *string { return &s }

func TestTenantService_CreateTenant(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and publishes a pending tenant", func(t *testing.T) {
		f := newTenantServiceFixture()
		f.repo.On("ExistsBySubdomain", mock.Anything, "josina").Return(false, nil)
		f.repo.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		f.repo.On("Save", mock.Anything, mock.AnythingOfType("*tenant.Tenant")).Return(nil).Once()
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		dto, err := f.service.CreateTenant(ctx, validCreateTenantCommand())

		require.NoError(t, err)
		assert.Equal(t, "josina", dto.Subdomain)
		assert.Equal(t, "PENDING", dto.Status)
		assert.Equal(t, "258841234567", dto.PrimaryPhone)
		assert.Equal(t, 1, dto.Version)
		assert.Equal(t, []string{tenant.EventTypeTenantCreated}, f.publisher.publishedTypes())
		f.repo.AssertExpectations(t)
	})

	t.Run("saves business registration in a second write", func(t *testing.T) {
		f := newTenantServiceFixture()
		f.repo.On("ExistsBySubdomain", mock.Anything, "josina").Return(false, nil)
		f.repo.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		f.repo.On("Save", mock.Anything, mock.AnythingOfType("*tenant.Tenant")).Return(nil).Twice()
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		cmd := validCreateTenantCommand()
		cmd.TaxID = "400123456"
		dto, err := f.service.CreateTenant(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, "400123456", dto.TaxID)
		assert.Equal(t, 2, dto.Version)
		f.repo.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("rejects invalid command before touching the repository", func(t *testing.T) {
		f := newTenantServiceFixture()
		cmd := validCreateTenantCommand()
		cmd.Subdomain = "-ab"
		cmd.PrimaryEmail = "not-an-email"

		_, err := f.service.CreateTenant(ctx, cmd)

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidationFailed))
		var verr *shared.ValidationError
		require.True(t, errors.As(err, &verr))
		fields := verr.FieldMessages()
		assert.Contains(t, fields, "subdomain")
		assert.Contains(t, fields, "primary_email")
		f.repo.AssertNotCalled(t, "ExistsBySubdomain", mock.Anything, mock.Anything)
	})

	t.Run("rejects taken subdomain", func(t *testing.T) {
		f := newTenantServiceFixture()
		f.repo.On("ExistsBySubdomain", mock.Anything, "josina").Return(true, nil)

		_, err := f.service.CreateTenant(ctx, validCreateTenantCommand())

		assert.True(t, errors.Is(err, shared.ErrBusinessRule))
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("keeps events buffered when publishing fails", func(t *testing.T) {
		f := newTenantServiceFixture()
		var saved *tenant.Tenant
		f.repo.On("ExistsBySubdomain", mock.Anything, "josina").Return(false, nil)
		f.repo.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		f.repo.On("Save", mock.Anything, mock.AnythingOfType("*tenant.Tenant")).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*tenant.Tenant) }).
			Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		_, err := f.service.CreateTenant(ctx, validCreateTenantCommand())

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrEventPublishing))
		require.NotNil(t, saved)
		assert.True(t, saved.HasDomainEvents())
	})
}

func TestTenantService_UpdateTenant(t *testing.T) {
	ctx := context.Background()

	t.Run("merges partial address with current values", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusActive)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
		f.repo.On("Save", mock.Anything, existing).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		dto, err := f.service.UpdateTenant(ctx, UpdateTenantCommand{
			TenantID: existing.ID.String(),
			City:     strPtr("Matola"),
		})

		require.NoError(t, err)
		assert.Equal(t, "Matola", existing.Address.City())
		assert.Equal(t, "Av. Julius Nyerere 123", existing.Address.Street())
		assert.Equal(t, "admin@josina.co.mz", dto.PrimaryEmail)
		assert.Equal(t, []string{tenant.EventTypeTenantUpdated}, f.publisher.publishedTypes())
		f.repo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
	})

	t.Run("ignores empty email and phone", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusActive)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
		f.repo.On("Save", mock.Anything, existing).Return(nil)

		_, err := f.service.UpdateTenant(ctx, UpdateTenantCommand{
			TenantID:     existing.ID.String(),
			PrimaryEmail: strPtr(""),
			PrimaryPhone: strPtr(""),
			TaxID:        strPtr("400123456"),
		})

		require.NoError(t, err)
		assert.Equal(t, "400123456", existing.TaxID)
		assert.Equal(t, "admin@josina.co.mz", existing.PrimaryEmail.String())
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("checks uniqueness of a changed email", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusActive)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
		f.repo.On("ExistsByEmail", mock.Anything, valueobject.MustNewEmail("info@josina.co.mz")).Return(true, nil)

		_, err := f.service.UpdateTenant(ctx, UpdateTenantCommand{
			TenantID:     existing.ID.String(),
			PrimaryEmail: strPtr("info@josina.co.mz"),
		})

		assert.True(t, errors.Is(err, shared.ErrBusinessRule))
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestTenantService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("activates a pending tenant", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusPending)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
		f.repo.On("Save", mock.Anything, existing).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		dto, err := f.service.ActivateTenant(ctx, ActivateTenantCommand{TenantID: existing.ID.String()})

		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", dto.Status)
		assert.NotNil(t, dto.ActivatedAt)
		assert.Equal(t, 4, dto.Version)
		assert.False(t, existing.HasDomainEvents())
		assert.Equal(t, []string{tenant.EventTypeTenantActivated}, f.publisher.publishedTypes())
	})

	t.Run("suspends an active tenant", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusActive)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
		f.repo.On("Save", mock.Anything, existing).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		dto, err := f.service.SuspendTenant(ctx, SuspendTenantCommand{
			TenantID: existing.ID.String(),
			Reason:   "Outstanding invoices for three months",
		})

		require.NoError(t, err)
		assert.Equal(t, "SUSPENDED", dto.Status)
		assert.Equal(t, "Outstanding invoices for three months", dto.SuspensionReason)
	})

	t.Run("rejects short suspension reason", func(t *testing.T) {
		f := newTenantServiceFixture()

		_, err := f.service.SuspendTenant(ctx, SuspendTenantCommand{
			TenantID: valueobject.NewTenantID().String(),
			Reason:   "late",
		})

		assert.True(t, errors.Is(err, shared.ErrValidationFailed))
		f.repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("returns rule violation without saving", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusPending)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)

		_, err := f.service.ReactivateTenant(ctx, existing.ID.String())

		var violation *shared.BusinessRuleViolation
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, "TenantReactivation", violation.Rule)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("maps missing tenant to not found", func(t *testing.T) {
		f := newTenantServiceFixture()
		id := valueobject.NewTenantID()
		f.repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.ActivateTenant(ctx, ActivateTenantCommand{TenantID: id.String()})

		var nf *shared.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, tenant.AggregateTypeTenant, nf.EntityType)
		assert.Equal(t, id.String(), nf.ID)
	})

	t.Run("does not publish after a concurrency conflict", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusPending)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
		f.repo.On("Save", mock.Anything, existing).
			Return(shared.NewConcurrencyError(tenant.AggregateTypeTenant, existing.ID.String(), 3, 4))

		_, err := f.service.ActivateTenant(ctx, ActivateTenantCommand{TenantID: existing.ID.String()})

		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestTenantService_FeaturesAndLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("enables and disables features", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusActive)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
		f.repo.On("Save", mock.Anything, existing).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		dto, err := f.service.EnableFeature(ctx, FeatureCommand{TenantID: existing.ID.String(), FeatureCode: "GRADEBOOK"})
		require.NoError(t, err)
		assert.Equal(t, []string{"GRADEBOOK"}, dto.Features)

		dto, err = f.service.DisableFeature(ctx, FeatureCommand{TenantID: existing.ID.String(), FeatureCode: "GRADEBOOK"})
		require.NoError(t, err)
		assert.Empty(t, dto.Features)

		assert.Equal(t, []string{
			tenant.EventTypeTenantFeatureEnabled,
			tenant.EventTypeTenantFeatureDisabled,
		}, f.publisher.publishedTypes())
	})

	t.Run("updates limits and allows unlimited", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusActive)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
		f.repo.On("Save", mock.Anything, existing).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		users := 50
		dto, err := f.service.UpdateLimits(ctx, UpdateLimitsCommand{
			TenantID: existing.ID.String(),
			MaxUsers: &users,
		})

		require.NoError(t, err)
		require.NotNil(t, dto.MaxUsers)
		assert.Equal(t, 50, *dto.MaxUsers)
		assert.Nil(t, dto.MaxStudents)
	})

	t.Run("rejects zero limit", func(t *testing.T) {
		f := newTenantServiceFixture()
		zero := 0

		_, err := f.service.UpdateLimits(ctx, UpdateLimitsCommand{
			TenantID: valueobject.NewTenantID().String(),
			MaxUsers: &zero,
		})

		assert.True(t, errors.Is(err, shared.ErrValidationFailed))
	})
}

func TestTenantService_Queries(t *testing.T) {
	ctx := context.Background()

	t.Run("finds by normalized subdomain", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusActive)
		f.repo.On("FindBySubdomain", mock.Anything, "josina").Return(existing, nil)

		dto, err := f.service.GetTenantBySubdomain(ctx, "  JOSINA ")

		require.NoError(t, err)
		assert.Equal(t, existing.ID.String(), dto.ID)
	})

	t.Run("lists a page of tenants", func(t *testing.T) {
		f := newTenantServiceFixture()
		tenants := []*tenant.Tenant{
			storedTenant(t, tenant.TenantStatusActive),
			storedTenant(t, tenant.TenantStatusActive),
		}
		filter := TenantFilter{Page: 2, PageSize: 2, Status: "ACTIVE"}
		expected := filter.ToSharedFilter()
		f.repo.On("FindAll", mock.Anything, expected).Return(tenants, nil)
		f.repo.On("Count", mock.Anything, expected).Return(int64(5), nil)

		result, err := f.service.ListTenants(ctx, filter)

		require.NoError(t, err)
		assert.Len(t, result.Items, 2)
		assert.Equal(t, int64(5), result.Total)
		assert.Equal(t, 2, result.Page)
		assert.Equal(t, 3, result.TotalPages)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		f := newTenantServiceFixture()

		_, err := f.service.GetTenantByID(ctx, "not-a-uuid")

		assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
	})
}

func TestTenantService_DeleteTenant(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes tenant deleted after removal", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusInactive)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
		f.repo.On("Delete", mock.Anything, existing.TenantID()).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, f.service.DeleteTenant(ctx, existing.ID.String()))

		assert.Equal(t, []string{tenant.EventTypeTenantDeleted}, f.publisher.publishedTypes())
	})

	t.Run("deactivates a tenant still in service before deleting it", func(t *testing.T) {
		for _, status := range []tenant.TenantStatus{tenant.TenantStatusActive, tenant.TenantStatusSuspended} {
			f := newTenantServiceFixture()
			existing := storedTenant(t, status)
			f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
			f.repo.On("Delete", mock.Anything, existing.TenantID()).Return(nil)
			f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

			require.NoError(t, f.service.DeleteTenant(ctx, existing.ID.String()))

			assert.Equal(t, []string{
				tenant.EventTypeTenantDeactivated,
				tenant.EventTypeTenantDeleted,
			}, f.publisher.publishedTypes(), status)
		}
	})

	t.Run("does not publish when delete fails", func(t *testing.T) {
		f := newTenantServiceFixture()
		existing := storedTenant(t, tenant.TenantStatusActive)
		f.repo.On("FindByID", mock.Anything, existing.TenantID()).Return(existing, nil)
		f.repo.On("Delete", mock.Anything, existing.TenantID()).Return(shared.ErrDatabase)

		err := f.service.DeleteTenant(ctx, existing.ID.String())

		assert.True(t, errors.Is(err, shared.ErrDatabase))
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}
