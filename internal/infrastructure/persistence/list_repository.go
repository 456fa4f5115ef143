package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// listColumns is the descriptor allow-list for the lists table
var listColumns = ColumnSet{
	Table:      "lists",
	Searchable: []string{"lists.name", "lists.description"},
	Filterable: map[string]string{
		"name":       "lists.name",
		"object":     "lists.object",
		"is_dynamic": "lists.is_dynamic",
	},
	Sortable: map[string]string{
		"name":       "lists.name",
		"object":     "lists.object",
		"created_at": "lists.created_at",
		"updated_at": "lists.updated_at",
	},
	DefaultSort: "lists.name ASC",
	PageSize:    100,
}

// ListRepository provides tenant-scoped access to lists and their static
// membership mapping tables.
type ListRepository struct {
	*Repository[models.List]
}

// NewListRepository creates a list repository
func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{Repository: NewRepository[models.List](db, listColumns)}
}

// WithTx rebinds the repository to a transaction handle
func (r *ListRepository) WithTx(tx *gorm.DB) *ListRepository {
	return &ListRepository{Repository: r.Repository.WithTx(tx)}
}

// AddPersonMembers snapshots person membership rows for a static people list
func (r *ListRepository) AddPersonMembers(ctx context.Context, actor shared.Actor, listID uuid.UUID, personIDs []uuid.UUID) error {
	if len(personIDs) == 0 {
		return nil
	}
	rows := make([]models.ListPerson, len(personIDs))
	for i, personID := range personIDs {
		rows[i] = models.ListPerson{
			TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
			ListID:           listID,
			PersonID:         personID,
		}
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error)
}

// AddHouseholdMembers snapshots household membership rows for a static
// household list.
func (r *ListRepository) AddHouseholdMembers(ctx context.Context, actor shared.Actor, listID uuid.UUID, householdIDs []uuid.UUID) error {
	if len(householdIDs) == 0 {
		return nil
	}
	rows := make([]models.ListHousehold, len(householdIDs))
	for i, householdID := range householdIDs {
		rows[i] = models.ListHousehold{
			TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
			ListID:           listID,
			HouseholdID:      householdID,
		}
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error)
}

// PersonMemberIDs returns the snapshotted person ids of a static people list
func (r *ListRepository) PersonMemberIDs(ctx context.Context, tenantID, listID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.WithContext(ctx).Model(&models.ListPerson{}).
		Where("tenant_id = ? AND list_id = ?", tenantID, listID).
		Pluck("person_id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// HouseholdMemberIDs returns the snapshotted household ids of a static
// household list.
func (r *ListRepository) HouseholdMemberIDs(ctx context.Context, tenantID, listID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.WithContext(ctx).Model(&models.ListHousehold{}).
		Where("tenant_id = ? AND list_id = ?", tenantID, listID).
		Pluck("household_id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// RemoveMembers deletes explicit membership rows from a static list
func (r *ListRepository) RemoveMembers(ctx context.Context, tenantID, listID uuid.UUID, memberIDs []uuid.UUID) error {
	if len(memberIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND list_id = ? AND person_id IN ?", tenantID, listID, memberIDs).
		Delete(&models.ListPerson{}).Error
	if err != nil {
		return translateError(err)
	}
	return translateError(r.db.WithContext(ctx).
		Where("tenant_id = ? AND list_id = ? AND household_id IN ?", tenantID, listID, memberIDs).
		Delete(&models.ListHousehold{}).Error)
}

// DeleteMembershipsForList drops all membership rows owned by a list
func (r *ListRepository) DeleteMembershipsForList(ctx context.Context, tenantID, listID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND list_id = ?", tenantID, listID).
		Delete(&models.ListPerson{}).Error
	if err != nil {
		return translateError(err)
	}
	return translateError(r.db.WithContext(ctx).
		Where("tenant_id = ? AND list_id = ?", tenantID, listID).
		Delete(&models.ListHousehold{}).Error)
}

// DeleteMembershipsForPersons drops list membership rows referencing the
// given persons. Used by the import deletion cascade.
func (r *ListRepository) DeleteMembershipsForPersons(ctx context.Context, tenantID uuid.UUID, personIDs []uuid.UUID) error {
	if len(personIDs) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).
		Where("tenant_id = ? AND person_id IN ?", tenantID, personIDs).
		Delete(&models.ListPerson{}).Error)
}

// DeleteMembershipsForHouseholds drops list membership rows referencing the
// given households. Used by the import deletion cascade.
func (r *ListRepository) DeleteMembershipsForHouseholds(ctx context.Context, tenantID uuid.UUID, householdIDs []uuid.UUID) error {
	if len(householdIDs) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).
		Where("tenant_id = ? AND household_id IN ?", tenantID, householdIDs).
		Delete(&models.ListHousehold{}).Error)
}
