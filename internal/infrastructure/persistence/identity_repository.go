package persistence

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentityRepository provides access to tenants, users and sessions. These
// tables sit outside the generic tenant-scoped engine: the tenant table IS
// the isolation boundary and user lookup by email is global by design.
type IdentityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository creates an identity repository
func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// WithTx rebinds the repository to a transaction handle
func (r *IdentityRepository) WithTx(tx *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: tx}
}

// CreateTenant inserts a new tenant
func (r *IdentityRepository) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	return translateError(r.db.WithContext(ctx).Create(tenant).Error)
}

// SetTenantAdmin back-fills the tenant's creator/admin id
func (r *IdentityRepository) SetTenantAdmin(ctx context.Context, tenantID, adminID uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ?", tenantID).
		Update("admin_id", adminID).Error)
}

// GetTenant fetches one tenant by id, (nil, nil) when absent
func (r *IdentityRepository) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &tenant, nil
}

// CreateUser inserts a new auth user. The per-email unique constraint is the
// real guard against concurrent sign-ups with the same address.
func (r *IdentityRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

// GetUserByEmail resolves a user by email, case-insensitively, across all
// tenants. Returns (nil, nil) when no account exists.
func (r *IdentityRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &user, nil
}

// GetUser fetches one user by id, (nil, nil) when absent
func (r *IdentityRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &user, nil
}

// UpdateUser persists changes to a user row
func (r *IdentityRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Save(user).Error)
}

// CreateSession inserts a new session
func (r *IdentityRepository) CreateSession(ctx context.Context, session *models.Session) error {
	return translateError(r.db.WithContext(ctx).Create(session).Error)
}

// GetSession fetches one session scoped to its tenant, (nil, nil) when absent
func (r *IdentityRepository) GetSession(ctx context.Context, tenantID, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&session).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &session, nil
}

// DeleteSession removes a session; signing out an absent session is a no-op
func (r *IdentityRepository) DeleteSession(ctx context.Context, tenantID, id uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Session{}).Error)
}
