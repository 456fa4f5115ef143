package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// householdColumns is the descriptor allow-list for the plain households table
var householdColumns = ColumnSet{
	Table:      "households",
	Searchable: []string{"households.name", "households.email", "households.city"},
	Filterable: map[string]string{
		"name":        "households.name",
		"email":       "households.email",
		"city":        "households.city",
		"state":       "households.state",
		"postal_code": "households.postal_code",
		"campaign_id": "households.campaign_id",
		"file_id":     "households.file_id",
	},
	Sortable: map[string]string{
		"name":       "households.name",
		"city":       "households.city",
		"created_at": "households.created_at",
		"updated_at": "households.updated_at",
	},
	DefaultSort: "households.name ASC",
	PageSize:    100,
}

// householdListColumns joins persons to count household members in the grid view
var householdListColumns = func() ColumnSet {
	cols := householdColumns
	cols.Joins = []string{
		"LEFT JOIN persons ON persons.household_id = households.id AND persons.tenant_id = households.tenant_id",
	}
	cols.Selects = []string{
		"households.*",
		"COUNT(persons.id) AS person_count",
	}
	cols.GroupBy = "households.id"
	cols.Sortable = mergeColumns(householdColumns.Sortable, map[string]string{
		"person_count": "COUNT(persons.id)",
	})
	return cols
}()

// householdTaggedColumns additionally joins the tag mapping for tag filters
var householdTaggedColumns = func() ColumnSet {
	cols := householdListColumns
	cols.Joins = append(append([]string{}, householdListColumns.Joins...),
		"INNER JOIN map_households_tags ON map_households_tags.household_id = households.id AND map_households_tags.tenant_id = households.tenant_id",
		"INNER JOIN tags ON tags.id = map_households_tags.tag_id",
	)
	cols.Filterable = mergeColumns(householdListColumns.Filterable, map[string]string{
		"tag": "tags.name",
	})
	// The tag join can duplicate person rows, so the member count must dedup.
	cols.Selects = []string{
		"households.*",
		"COUNT(DISTINCT persons.id) AS person_count",
	}
	return cols
}()

// householdMemberColumns joins the list membership mapping so a static list's
// members can be paged through the same grid view.
var householdMemberColumns = func() ColumnSet {
	cols := householdListColumns
	cols.Joins = append(append([]string{}, householdListColumns.Joins...),
		"INNER JOIN map_lists_households ON map_lists_households.household_id = households.id AND map_lists_households.tenant_id = households.tenant_id",
	)
	cols.Filterable = mergeColumns(householdListColumns.Filterable, map[string]string{
		"list_id": "map_lists_households.list_id",
	})
	// The membership join can duplicate person rows, so the count must dedup.
	cols.Selects = []string{
		"households.*",
		"COUNT(DISTINCT persons.id) AS person_count",
	}
	return cols
}()

// HouseholdListRow is one row of the joined households grid view
type HouseholdListRow struct {
	models.Household
	PersonCount int64 `json:"person_count"`
}

// HouseholdRepository provides tenant-scoped access to households plus the
// member-count view and the tag relation for households.
type HouseholdRepository struct {
	*Repository[models.Household]
	tags *TagRelation
}

// NewHouseholdRepository creates a household repository
func NewHouseholdRepository(db *gorm.DB) *HouseholdRepository {
	return &HouseholdRepository{
		Repository: NewRepository[models.Household](db, householdColumns),
		tags: NewTagRelation(db, TagRelationConfig{
			MappingTable: "map_households_tags",
			EntityColumn: "household_id",
		}),
	}
}

// WithTx rebinds the repository and its tag relation to a transaction handle
func (r *HouseholdRepository) WithTx(tx *gorm.DB) *HouseholdRepository {
	return &HouseholdRepository{
		Repository: r.Repository.WithTx(tx),
		tags:       r.tags.WithTx(tx),
	}
}

// Tags returns the tag relation manager for households
func (r *HouseholdRepository) Tags() *TagRelation {
	return r.tags
}

// GetPageWithCounts runs the joined grid query including member counts
func (r *HouseholdRepository) GetPageWithCounts(ctx context.Context, tenantID uuid.UUID, desc shared.QueryDescriptor) (shared.Page[HouseholdListRow], error) {
	cols := householdListColumns
	if _, ok := desc.FilterModel["tag"]; ok {
		cols = householdTaggedColumns
	}
	return QueryPage[HouseholdListRow](ctx, r.db, cols, tenantID, desc)
}

// GetMemberPage pages through the snapshotted members of one static list
func (r *HouseholdRepository) GetMemberPage(ctx context.Context, tenantID, listID uuid.UUID, desc shared.QueryDescriptor) (shared.Page[HouseholdListRow], error) {
	if desc.FilterModel == nil {
		desc.FilterModel = map[string]shared.FilterValue{}
	}
	desc.FilterModel["list_id"] = shared.FilterValue{Value: listID.String()}
	return QueryPage[HouseholdListRow](ctx, r.db, householdMemberColumns, tenantID, desc)
}

// IDsByFilter returns the ids of all households matching a descriptor's
// predicates, ignoring pagination. Used by list materialization.
func (r *HouseholdRepository) IDsByFilter(ctx context.Context, tenantID uuid.UUID, desc shared.QueryDescriptor) ([]uuid.UUID, error) {
	cols := householdColumns
	if _, ok := desc.FilterModel["tag"]; ok {
		cols = householdTaggedColumns
	}
	ids := []uuid.UUID{}
	query := r.db.WithContext(ctx).Table(cols.Table).
		Scopes(tenant.ScopeTable(cols.Table, tenantID), cols.Predicates(desc)).
		Distinct()
	if err := query.Pluck("households.id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// ClearFileID removes the import provenance link from all listed households
func (r *HouseholdRepository) ClearFileID(ctx context.Context, tenantID uuid.UUID, householdIDs []uuid.UUID) error {
	if len(householdIDs) == 0 {
		return nil
	}
	return translateError(r.Session(ctx, tenantID).
		Where("id IN ?", householdIDs).
		Update("file_id", nil).Error)
}

// IDsByFileID returns the ids of all households created by one import
func (r *HouseholdRepository) IDsByFileID(ctx context.Context, tenantID, fileID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.Session(ctx, tenantID).
		Where("file_id = ?", fileID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}
