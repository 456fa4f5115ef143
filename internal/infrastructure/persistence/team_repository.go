package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// teamColumns is the descriptor allow-list for the teams table
var teamColumns = ColumnSet{
	Table:      "teams",
	Searchable: []string{"teams.name", "teams.description"},
	Filterable: map[string]string{
		"name":            "teams.name",
		"team_captain_id": "teams.team_captain_id",
	},
	Sortable: map[string]string{
		"name":       "teams.name",
		"created_at": "teams.created_at",
		"updated_at": "teams.updated_at",
	},
	DefaultSort: "teams.name ASC",
	PageSize:    100,
}

// teamListColumns joins the roster mapping to count members in the grid view
var teamListColumns = func() ColumnSet {
	cols := teamColumns
	cols.Joins = []string{
		"LEFT JOIN map_teams_persons ON map_teams_persons.team_id = teams.id AND map_teams_persons.tenant_id = teams.tenant_id",
	}
	cols.Selects = []string{
		"teams.*",
		"COUNT(map_teams_persons.id) AS member_count",
	}
	cols.GroupBy = "teams.id"
	return cols
}()

// TeamListRow is one row of the teams grid view
type TeamListRow struct {
	models.Team
	MemberCount int64 `json:"member_count"`
}

// TeamRepository provides tenant-scoped access to teams and their roster
// mapping table.
type TeamRepository struct {
	*Repository[models.Team]
}

// NewTeamRepository creates a team repository
func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{Repository: NewRepository[models.Team](db, teamColumns)}
}

// WithTx rebinds the repository to a transaction handle
func (r *TeamRepository) WithTx(tx *gorm.DB) *TeamRepository {
	return &TeamRepository{Repository: r.Repository.WithTx(tx)}
}

// GetPageWithCounts runs the joined grid query including member counts
func (r *TeamRepository) GetPageWithCounts(ctx context.Context, tenantID uuid.UUID, desc shared.QueryDescriptor) (shared.Page[TeamListRow], error) {
	return QueryPage[TeamListRow](ctx, r.db, teamListColumns, tenantID, desc)
}

// MemberIDs returns the current roster of a team
func (r *TeamRepository) MemberIDs(ctx context.Context, tenantID, teamID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.WithContext(ctx).Model(&models.TeamPerson{}).
		Where("tenant_id = ? AND team_id = ?", tenantID, teamID).
		Pluck("person_id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// AddMembers inserts roster rows for the given persons
func (r *TeamRepository) AddMembers(ctx context.Context, actor shared.Actor, teamID uuid.UUID, personIDs []uuid.UUID) error {
	if len(personIDs) == 0 {
		return nil
	}
	rows := make([]models.TeamPerson, len(personIDs))
	for i, personID := range personIDs {
		rows[i] = models.TeamPerson{
			TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
			TeamID:           teamID,
			PersonID:         personID,
		}
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error)
}

// RemoveMembers deletes roster rows for the given persons
func (r *TeamRepository) RemoveMembers(ctx context.Context, tenantID, teamID uuid.UUID, personIDs []uuid.UUID) error {
	if len(personIDs) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).
		Where("tenant_id = ? AND team_id = ? AND person_id IN ?", tenantID, teamID, personIDs).
		Delete(&models.TeamPerson{}).Error)
}

// DeleteRosterForPersons drops roster rows referencing the given persons
// across all teams. Used by cascading person deletes.
func (r *TeamRepository) DeleteRosterForPersons(ctx context.Context, tenantID uuid.UUID, personIDs []uuid.UUID) error {
	if len(personIDs) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).
		Where("tenant_id = ? AND person_id IN ?", tenantID, personIDs).
		Delete(&models.TeamPerson{}).Error)
}

// DeleteRosterForTeam drops all roster rows owned by a team
func (r *TeamRepository) DeleteRosterForTeam(ctx context.Context, tenantID, teamID uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).
		Where("tenant_id = ? AND team_id = ?", tenantID, teamID).
		Delete(&models.TeamPerson{}).Error)
}
