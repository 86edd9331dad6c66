package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
	"github.com/smartedu/backend/internal/domain/tenant"
	"github.com/smartedu/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Unique index names from the tenants migration
const (
	constraintTenantSubdomain = "uq_tenants_subdomain"
	constraintTenantEmail     = "uq_tenants_primary_email"
)

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id valueobject.TenantID) (*tenant.Tenant, error) {
	return r.findOne(ctx, "id = ?", id.UUID())
}

// FindBySubdomain finds a tenant by its subdomain. The lookup is normalized
// the same way subdomains are stored.
func (r *GormTenantRepository) FindBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	normalized := strings.ToLower(strings.TrimSpace(subdomain))
	if normalized == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "subdomain = ?", normalized)
}

func (r *GormTenantRepository) findOne(ctx context.Context, query string, args ...any) (*tenant.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).
		Preload("Features").
		Where(query, args...).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, wrapDBError("find tenant", err)
	}
	return model.ToDomain()
}

// FindByStatus finds tenants by status, oldest first
func (r *GormTenantRepository) FindByStatus(ctx context.Context, status tenant.TenantStatus) ([]*tenant.Tenant, error) {
	var tenantModels []models.TenantModel
	if err := r.db.WithContext(ctx).
		Preload("Features").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&tenantModels).Error; err != nil {
		return nil, wrapDBError("find tenants by status", err)
	}
	return toDomainTenants(tenantModels)
}

// FindAll finds tenants matching the filter.
// Filters["status"] narrows by status; Search matches name, subdomain or email.
func (r *GormTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*tenant.Tenant, error) {
	filter = filter.Normalize()

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TenantModel{}), filter)

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, TenantSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	var tenantModels []models.TenantModel
	if err := query.
		Preload("Features").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&tenantModels).Error; err != nil {
		return nil, wrapDBError("list tenants", err)
	}
	return toDomainTenants(tenantModels)
}

// Count counts tenants matching the filter, ignoring paging
func (r *GormTenantRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TenantModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, wrapDBError("count tenants", err)
	}
	return count, nil
}

func (r *GormTenantRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		keyword := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR subdomain LIKE ? OR LOWER(primary_email) LIKE ?",
			keyword, keyword, keyword)
	}
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	return query
}

// ExistsBySubdomain checks if a tenant with the given subdomain exists
func (r *GormTenantRepository) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(subdomain))
	if normalized == "" {
		return false, nil
	}
	return r.exists(ctx, "subdomain = ?", normalized)
}

// ExistsByEmail checks if a tenant with the given primary email exists
func (r *GormTenantRepository) ExistsByEmail(ctx context.Context, email valueobject.Email) (bool, error) {
	if email.IsZero() {
		return false, nil
	}
	return r.exists(ctx, "primary_email = ?", email.String())
}

func (r *GormTenantRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TenantModel{}).
		Where(query, args...).
		Count(&count).Error; err != nil {
		return false, wrapDBError("check tenant exists", err)
	}
	return count > 0, nil
}

// Save inserts a new tenant or updates a stored one. Updates only apply when
// the stored version still equals the version the aggregate was loaded at;
// otherwise a *shared.ConcurrencyError is returned and nothing is written.
// The feature set is replaced in the same transaction.
func (r *GormTenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	model := models.TenantModelFromDomain(t)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.IsNew() {
			if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
				return err
			}
		} else {
			if err := r.updateWithLock(tx, model, t.PersistedVersion()); err != nil {
				return err
			}
			if err := tx.Where("tenant_id = ?", model.ID).Delete(&models.TenantFeatureModel{}).Error; err != nil {
				return err
			}
		}
		if len(model.Features) == 0 {
			return nil
		}
		return tx.Create(&model.Features).Error
	})
	if err != nil {
		return translateTenantWriteError(t, err)
	}

	t.MarkPersisted()
	return nil
}

func (r *GormTenantRepository) updateWithLock(tx *gorm.DB, model *models.TenantModel, expected int) error {
	result := tx.Model(&models.TenantModel{}).
		Where("id = ? AND version = ?", model.ID, expected).
		Updates(map[string]any{
			"name":                model.Name,
			"subdomain":           model.Subdomain,
			"status":              model.Status,
			"primary_email":       model.PrimaryEmail,
			"primary_phone":       model.PrimaryPhone,
			"address":             model.Address,
			"tax_id":              model.TaxID,
			"registration_number": model.RegistrationNumber,
			"max_users":           model.MaxUsers,
			"max_students":        model.MaxStudents,
			"activated_at":        model.ActivatedAt,
			"suspended_at":        model.SuspendedAt,
			"suspension_reason":   model.SuspensionReason,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyError(tenant.AggregateTypeTenant, model.ID.String(),
			expected, storedVersion(tx, &models.TenantModel{}, model.ID))
	}
	return nil
}

func translateTenantWriteError(t *tenant.Tenant, err error) error {
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case constraintTenantEmail:
			return shared.NewBusinessRuleViolation(tenant.RuleUniqueEmail,
				"Email already registered", t.PrimaryEmail.String())
		case constraintTenantSubdomain:
			return shared.NewBusinessRuleViolation(tenant.RuleUniqueSubdomain,
				"Subdomain already exists", t.Subdomain)
		default:
			return shared.NewDomainError(shared.CodeAlreadyExists, "Tenant already exists")
		}
	}
	return wrapDBError("save tenant", err)
}

// Delete removes a tenant together with its features
func (r *GormTenantRepository) Delete(ctx context.Context, id valueobject.TenantID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", id.UUID()).Delete(&models.TenantFeatureModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.TenantModel{}, "id = ?", id.UUID())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	return wrapDBError("delete tenant", err)
}

func toDomainTenants(tenantModels []models.TenantModel) ([]*tenant.Tenant, error) {
	tenants := make([]*tenant.Tenant, 0, len(tenantModels))
	for i := range tenantModels {
		t, err := tenantModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, nil
}
