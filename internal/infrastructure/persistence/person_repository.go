package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// personColumns is the descriptor allow-list for the plain persons table
var personColumns = ColumnSet{
	Table:      "persons",
	Searchable: []string{"persons.first_name", "persons.last_name", "persons.email", "persons.phone", "persons.city"},
	Filterable: map[string]string{
		"first_name":     "persons.first_name",
		"last_name":      "persons.last_name",
		"email":          "persons.email",
		"phone":          "persons.phone",
		"city":           "persons.city",
		"state":          "persons.state",
		"postal_code":    "persons.postal_code",
		"household_id":   "persons.household_id",
		"campaign_id":    "persons.campaign_id",
		"file_id":        "persons.file_id",
		"do_not_contact": "persons.do_not_contact",
	},
	Sortable: map[string]string{
		"first_name": "persons.first_name",
		"last_name":  "persons.last_name",
		"email":      "persons.email",
		"city":       "persons.city",
		"created_at": "persons.created_at",
		"updated_at": "persons.updated_at",
	},
	DefaultSort: "persons.last_name ASC, persons.first_name ASC",
	PageSize:    100,
}

// personListColumns extends personColumns with the household join used by the
// grid view. Count and data statements share the same join predicates.
var personListColumns = func() ColumnSet {
	cols := personColumns
	cols.Joins = []string{
		"LEFT JOIN households ON households.id = persons.household_id AND households.tenant_id = persons.tenant_id",
	}
	cols.Selects = []string{
		"persons.*",
		"households.name AS household_name",
		"households.address AS household_address",
		"households.city AS household_city",
	}
	cols.Searchable = append(append([]string{}, personColumns.Searchable...), "households.name")
	cols.Filterable = mergeColumns(personColumns.Filterable, map[string]string{
		"household_name": "households.name",
		"household_city": "households.city",
	})
	cols.Sortable = mergeColumns(personColumns.Sortable, map[string]string{
		"household_name": "households.name",
	})
	return cols
}()

// personTaggedColumns additionally joins the tag mapping so descriptors may
// filter on a tag name.
var personTaggedColumns = func() ColumnSet {
	cols := personListColumns
	cols.Joins = append(append([]string{}, personListColumns.Joins...),
		"INNER JOIN map_persons_tags ON map_persons_tags.person_id = persons.id AND map_persons_tags.tenant_id = persons.tenant_id",
		"INNER JOIN tags ON tags.id = map_persons_tags.tag_id",
	)
	cols.Filterable = mergeColumns(personListColumns.Filterable, map[string]string{
		"tag": "tags.name",
	})
	cols.GroupBy = "persons.id, households.name, households.address, households.city"
	return cols
}()

// personMemberColumns joins the list membership mapping so a static list's
// members can be paged through the same grid view.
var personMemberColumns = func() ColumnSet {
	cols := personListColumns
	cols.Joins = append(append([]string{}, personListColumns.Joins...),
		"INNER JOIN map_lists_persons ON map_lists_persons.person_id = persons.id AND map_lists_persons.tenant_id = persons.tenant_id",
	)
	cols.Filterable = mergeColumns(personListColumns.Filterable, map[string]string{
		"list_id": "map_lists_persons.list_id",
	})
	return cols
}()

// PersonListRow is one row of the joined persons grid view
type PersonListRow struct {
	models.Person
	HouseholdName    string `json:"household_name"`
	HouseholdAddress string `json:"household_address"`
	HouseholdCity    string `json:"household_city"`
}

// PersonRepository provides tenant-scoped access to persons plus the joined
// grid view and the tag relation for persons.
type PersonRepository struct {
	*Repository[models.Person]
	tags *TagRelation
}

// NewPersonRepository creates a person repository
func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{
		Repository: NewRepository[models.Person](db, personColumns),
		tags: NewTagRelation(db, TagRelationConfig{
			MappingTable: "map_persons_tags",
			EntityColumn: "person_id",
		}),
	}
}

// WithTx rebinds the repository and its tag relation to a transaction handle
func (r *PersonRepository) WithTx(tx *gorm.DB) *PersonRepository {
	return &PersonRepository{
		Repository: r.Repository.WithTx(tx),
		tags:       r.tags.WithTx(tx),
	}
}

// Tags returns the tag relation manager for persons
func (r *PersonRepository) Tags() *TagRelation {
	return r.tags
}

// GetPageWithHousehold runs the joined grid query. When the descriptor
// filters on "tag" the tag mapping join is added; otherwise the lighter
// household-only view serves the page.
func (r *PersonRepository) GetPageWithHousehold(ctx context.Context, tenantID uuid.UUID, desc shared.QueryDescriptor) (shared.Page[PersonListRow], error) {
	cols := personListColumns
	if _, ok := desc.FilterModel["tag"]; ok {
		cols = personTaggedColumns
	}
	return QueryPage[PersonListRow](ctx, r.db, cols, tenantID, desc)
}

// GetMemberPage pages through the snapshotted members of one static list
func (r *PersonRepository) GetMemberPage(ctx context.Context, tenantID, listID uuid.UUID, desc shared.QueryDescriptor) (shared.Page[PersonListRow], error) {
	if desc.FilterModel == nil {
		desc.FilterModel = map[string]shared.FilterValue{}
	}
	desc.FilterModel["list_id"] = shared.FilterValue{Value: listID.String()}
	return QueryPage[PersonListRow](ctx, r.db, personMemberColumns, tenantID, desc)
}

// IDsByFilter returns the ids of all persons matching a descriptor's
// predicates, ignoring pagination. Used by list materialization.
func (r *PersonRepository) IDsByFilter(ctx context.Context, tenantID uuid.UUID, desc shared.QueryDescriptor) ([]uuid.UUID, error) {
	cols := personColumns
	if _, ok := desc.FilterModel["tag"]; ok {
		cols = personTaggedColumns
	}
	ids := []uuid.UUID{}
	query := r.db.WithContext(ctx).Table(cols.Table).
		Scopes(tenant.ScopeTable(cols.Table, tenantID), cols.Predicates(desc)).
		Distinct()
	if err := query.Pluck("persons.id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// ClearFileID removes the import provenance link from all listed persons
func (r *PersonRepository) ClearFileID(ctx context.Context, tenantID uuid.UUID, personIDs []uuid.UUID) error {
	if len(personIDs) == 0 {
		return nil
	}
	return translateError(r.Session(ctx, tenantID).
		Where("id IN ?", personIDs).
		Update("file_id", nil).Error)
}

// IDsByFileID returns the ids of all persons created by one import
func (r *PersonRepository) IDsByFileID(ctx context.Context, tenantID, fileID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.Session(ctx, tenantID).
		Where("file_id = ?", fileID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// mergeColumns overlays extra column mappings on a base map
func mergeColumns(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
