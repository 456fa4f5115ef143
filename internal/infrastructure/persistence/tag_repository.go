package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// tagColumns is the descriptor allow-list for the tags table
var tagColumns = ColumnSet{
	Table:      "tags",
	Searchable: []string{"tags.name", "tags.description"},
	Filterable: map[string]string{
		"name":      "tags.name",
		"deletable": "tags.deletable",
	},
	Sortable: map[string]string{
		"name":       "tags.name",
		"created_at": "tags.created_at",
		"updated_at": "tags.updated_at",
	},
	DefaultSort: "tags.name ASC",
	PageSize:    100,
}

// tagUsageColumns adds per-entity usage counts to the grid view. Counts are
// correlated subqueries so the main statement stays join-free.
var tagUsageColumns = func() ColumnSet {
	cols := tagColumns
	cols.Selects = []string{
		"tags.*",
		"(SELECT COUNT(*) FROM map_persons_tags mp WHERE mp.tag_id = tags.id) AS person_count",
		"(SELECT COUNT(*) FROM map_households_tags mh WHERE mh.tag_id = tags.id) AS household_count",
	}
	cols.Sortable = mergeColumns(tagColumns.Sortable, map[string]string{
		"person_count":    "person_count",
		"household_count": "household_count",
	})
	return cols
}()

// TagListRow is one row of the tags grid view with usage counts
type TagListRow struct {
	models.Tag
	PersonCount    int64 `json:"person_count"`
	HouseholdCount int64 `json:"household_count"`
}

// TagRepository provides tenant-scoped access to the shared tags table
type TagRepository struct {
	*Repository[models.Tag]
}

// NewTagRepository creates a tag repository
func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{Repository: NewRepository[models.Tag](db, tagColumns)}
}

// WithTx rebinds the repository to a transaction handle
func (r *TagRepository) WithTx(tx *gorm.DB) *TagRepository {
	return &TagRepository{Repository: r.Repository.WithTx(tx)}
}

// GetPageWithUsage runs the grid query including usage counts
func (r *TagRepository) GetPageWithUsage(ctx context.Context, tenantID uuid.UUID, desc shared.QueryDescriptor) (shared.Page[TagListRow], error) {
	return QueryPage[TagListRow](ctx, r.db, tagUsageColumns, tenantID, desc)
}

// GetByName resolves a tag by its per-tenant unique name, (nil, nil) when absent
func (r *TagRepository) GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Tag, error) {
	return r.GetOneBy(ctx, tenantID, "name", name)
}

// DeletableIDs filters the given ids down to tags flagged deletable.
// Non-deletable tags are dropped from the set, not rejected.
func (r *TagRepository) DeletableIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}
	deletable := []uuid.UUID{}
	err := r.Session(ctx, tenantID).
		Where("id IN ? AND deletable = ?", ids, true).
		Pluck("id", &deletable).Error
	if err != nil {
		return nil, translateError(err)
	}
	return deletable, nil
}
