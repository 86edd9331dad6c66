package tenant

import (
	"context"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
)

// TenantRepository defines the interface for tenant persistence.
// Lookups return shared.ErrNotFound when nothing matches.
type TenantRepository interface {
	// Save inserts a new tenant or updates an existing one.
	// Updates are conditional on the persisted version and fail with
	// *shared.ConcurrencyError when another writer got there first.
	Save(ctx context.Context, tenant *Tenant) error

	// FindByID finds a tenant by its ID
	FindByID(ctx context.Context, id valueobject.TenantID) (*Tenant, error)

	// FindBySubdomain finds a tenant by its normalized subdomain
	FindBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)

	// FindByStatus finds tenants by status
	FindByStatus(ctx context.Context, status TenantStatus) ([]*Tenant, error)

	// ExistsBySubdomain checks if a tenant with the given subdomain exists
	ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error)

	// ExistsByEmail checks if a tenant with the given primary email exists
	ExistsByEmail(ctx context.Context, email valueobject.Email) (bool, error)

	// Delete deletes a tenant
	Delete(ctx context.Context, id valueobject.TenantID) error

	// FindAll finds tenants matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]*Tenant, error)

	// Count counts tenants matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
