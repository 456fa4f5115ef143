package persistence

import (
	"context"

	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// taskColumns is the descriptor allow-list for the tasks table
var taskColumns = ColumnSet{
	Table:      "tasks",
	Searchable: []string{"tasks.title", "tasks.details"},
	Filterable: map[string]string{
		"title":       "tasks.title",
		"status":      "tasks.status",
		"person_id":   "tasks.person_id",
		"team_id":     "tasks.team_id",
		"assignee_id": "tasks.assignee_id",
	},
	Sortable: map[string]string{
		"title":      "tasks.title",
		"status":     "tasks.status",
		"due_at":     "tasks.due_at",
		"created_at": "tasks.created_at",
		"updated_at": "tasks.updated_at",
	},
	DefaultSort: "tasks.due_at ASC, tasks.created_at ASC",
	PageSize:    100,
}

// TaskRepository provides tenant-scoped access to tasks
type TaskRepository struct {
	*Repository[models.Task]
}

// NewTaskRepository creates a task repository
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{Repository: NewRepository[models.Task](db, taskColumns)}
}

// WithTx rebinds the repository to a transaction handle
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{Repository: r.Repository.WithTx(tx)}
}

// UnlinkPersons clears the person link from tasks referencing the given
// persons. Used by cascading person deletes; the tasks themselves survive.
func (r *TaskRepository) UnlinkPersons(ctx context.Context, tenantID uuid.UUID, personIDs []uuid.UUID) error {
	if len(personIDs) == 0 {
		return nil
	}
	return translateError(r.Session(ctx, tenantID).
		Where("person_id IN ?", personIDs).
		Update("person_id", nil).Error)
}

// UnlinkTeam clears the team link from tasks referencing the given team
func (r *TaskRepository) UnlinkTeam(ctx context.Context, tenantID, teamID uuid.UUID) error {
	return translateError(r.Session(ctx, tenantID).
		Where("team_id = ?", teamID).
		Update("team_id", nil).Error)
}
