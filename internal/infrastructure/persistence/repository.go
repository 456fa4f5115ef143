package persistence

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// findLimit caps prefix-match lookups regardless of how many rows match.
// The result feeds type-ahead suggestions, anything past the first few is noise.
const findLimit = 3

// Repository is the generic tenant-scoped CRUD engine over one logical table.
// Every statement it builds carries a tenant_id predicate; a cross-tenant id
// is indistinguishable from a missing one. Module repositories compose it
// with their own joined-query logic instead of subclassing it.
type Repository[M any] struct {
	db   *gorm.DB
	cols ColumnSet
}

// NewRepository creates a repository for model M with the module's column set
func NewRepository[M any](db *gorm.DB, cols ColumnSet) *Repository[M] {
	return &Repository[M]{db: db, cols: cols}
}

// WithTx rebinds the repository to an open transaction handle. Workflows that
// must commit atomically pass the same handle to every repository involved.
func (r *Repository[M]) WithTx(tx *gorm.DB) *Repository[M] {
	return &Repository[M]{db: tx, cols: r.cols}
}

// Columns returns the module's column set
func (r *Repository[M]) Columns() ColumnSet {
	return r.cols
}

// Session returns a tenant-scoped query builder for module-specific statements
func (r *Repository[M]) Session(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return tenant.Require(r.db.WithContext(ctx).Model(new(M)), tenantID)
}

// Add inserts one row. The row's tenant id must already be set by the caller;
// the repository never infers tenant identity.
func (r *Repository[M]) Add(ctx context.Context, row *M) error {
	return translateError(r.db.WithContext(ctx).Create(row).Error)
}

// AddMany inserts all rows in one statement. An empty slice is a no-op.
func (r *Repository[M]) AddMany(ctx context.Context, rows []M) ([]M, error) {
	if len(rows) == 0 {
		return []M{}, nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

// Update updates the row matching both id and tenant id and returns the
// refreshed record. A mismatched tenant updates nothing and returns (nil, nil)
// so cross-tenant attempts read exactly like not-found.
func (r *Repository[M]) Update(ctx context.Context, tenantID, id uuid.UUID, values map[string]any) (*M, error) {
	result := tenant.Require(r.db.WithContext(ctx).Model(new(M)), tenantID).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, tenantID, id)
}

// GetByID fetches one row by id within the tenant, (nil, nil) when absent
func (r *Repository[M]) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*M, error) {
	var row M
	err := tenant.Require(r.db.WithContext(ctx), tenantID).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &row, nil
}

// GetOneBy fetches one row by an arbitrary code-supplied column. When columns
// are given, the select list is restricted to them so callers can avoid
// loading sensitive fields.
func (r *Repository[M]) GetOneBy(ctx context.Context, tenantID uuid.UUID, column string, value any, columns ...string) (*M, error) {
	query := tenant.Require(r.db.WithContext(ctx).Model(new(M)), tenantID).
		Where(column+" = ?", value)
	if len(columns) > 0 {
		query = query.Select(columns)
	}
	var row M
	if err := query.First(&row).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &row, nil
}

// FindPrefix returns up to three rows whose column starts with key,
// case-insensitively. Used for autocomplete. The key is matched literally;
// LIKE metacharacters in it do not widen the match.
func (r *Repository[M]) FindPrefix(ctx context.Context, tenantID uuid.UUID, column, key string) ([]M, error) {
	rows := []M{}
	err := tenant.Require(r.db.WithContext(ctx).Model(new(M)), tenantID).
		Where("LOWER("+column+") LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(key))+"%").
		Limit(findLimit).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

// Delete removes the row matching both id and tenant id and returns it.
// Deleting an absent or foreign-tenant id returns (nil, nil).
func (r *Repository[M]) Delete(ctx context.Context, tenantID, id uuid.UUID) (*M, error) {
	row, err := r.GetByID(ctx, tenantID, id)
	if err != nil || row == nil {
		return nil, err
	}
	err = tenant.Require(r.db.WithContext(ctx), tenantID).
		Where("id = ?", id).
		Delete(new(M)).Error
	if err != nil {
		return nil, translateError(err)
	}
	return row, nil
}

// DeleteMany removes all listed ids belonging to the tenant and returns the
// removed rows. Ids that do not exist, or belong to another tenant, are
// silently skipped.
func (r *Repository[M]) DeleteMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]M, error) {
	if len(ids) == 0 {
		return []M{}, nil
	}
	rows := []M{}
	err := tenant.Require(r.db.WithContext(ctx), tenantID).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	if len(rows) == 0 {
		return rows, nil
	}
	err = tenant.Require(r.db.WithContext(ctx), tenantID).
		Where("id IN ?", ids).
		Delete(new(M)).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

// Count counts all rows belonging to the tenant
func (r *Repository[M]) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := tenant.Require(r.db.WithContext(ctx).Model(new(M)), tenantID).
		Count(&count).Error
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// GetAll returns every row belonging to the tenant
func (r *Repository[M]) GetAll(ctx context.Context, tenantID uuid.UUID) ([]M, error) {
	rows := []M{}
	err := tenant.Require(r.db.WithContext(ctx), tenantID).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

// GetPage runs the module's composed query for one descriptor and returns the
// page together with the total count ignoring pagination.
func (r *Repository[M]) GetPage(ctx context.Context, tenantID uuid.UUID, desc shared.QueryDescriptor) (shared.Page[M], error) {
	return QueryPage[M](ctx, r.db, r.cols, tenantID, desc)
}

// QueryPage composes and executes the count and data statements for one
// descriptor against a column set. The predicate scope is built once and
// applied to both statements so count and rows always agree. Joined module
// views call this directly with their own row type and column set.
func QueryPage[R any](ctx context.Context, db *gorm.DB, cols ColumnSet, tenantID uuid.UUID, desc shared.QueryDescriptor) (shared.Page[R], error) {
	page := shared.Page[R]{Rows: []R{}}
	predicates := cols.Predicates(desc)

	countQuery := db.WithContext(ctx).Table(cols.Table).
		Scopes(tenant.ScopeTable(cols.Table, tenantID), predicates)
	count, err := cols.Count(countQuery)
	if err != nil {
		return page, translateError(err)
	}
	page.Count = count

	dataQuery := db.WithContext(ctx).Table(cols.Table).
		Scopes(tenant.ScopeTable(cols.Table, tenantID), predicates,
			cols.Projection(desc), cols.Order(desc), cols.Window(desc))
	dataQuery = cols.group(dataQuery)
	if err := dataQuery.Find(&page.Rows).Error; err != nil {
		return shared.Page[R]{Rows: []R{}}, translateError(err)
	}
	return page, nil
}
