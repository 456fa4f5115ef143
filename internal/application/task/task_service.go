package task

import (
	"context"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateTaskRequest is the input for creating a task
type CreateTaskRequest struct {
	Title      string     `json:"title" binding:"required,min=1,max=255"`
	Details    string     `json:"details"`
	DueAt      *time.Time `json:"due_at"`
	PersonID   *uuid.UUID `json:"person_id"`
	TeamID     *uuid.UUID `json:"team_id"`
	AssigneeID *uuid.UUID `json:"assignee_id"`
}

// UpdateTaskRequest is the partial-update input for a task
type UpdateTaskRequest struct {
	Title      *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Details    *string    `json:"details"`
	Status     *string    `json:"status" binding:"omitempty,oneof=open done cancelled"`
	DueAt      *time.Time `json:"due_at"`
	PersonID   *uuid.UUID `json:"person_id"`
	TeamID     *uuid.UUID `json:"team_id"`
	AssigneeID *uuid.UUID `json:"assignee_id"`
}

// TaskResponse is the wire representation of a task
type TaskResponse struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Details    string     `json:"details,omitempty"`
	Status     string     `json:"status"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
	TeamID     *uuid.UUID `json:"team_id,omitempty"`
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TaskService handles task operations
type TaskService struct {
	tasks  *persistence.TaskRepository
	logger *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(tasks *persistence.TaskRepository, logger *zap.Logger) *TaskService {
	return &TaskService{tasks: tasks, logger: logger}
}

// Create creates an open task
func (s *TaskService) Create(ctx context.Context, actor shared.Actor, req CreateTaskRequest) (*TaskResponse, error) {
	task := models.Task{
		TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
		Title:            strings.TrimSpace(req.Title),
		Details:          req.Details,
		Status:           models.TaskStatusOpen,
		DueAt:            req.DueAt,
		PersonID:         req.PersonID,
		TeamID:           req.TeamID,
		AssigneeID:       req.AssigneeID,
	}
	if err := s.tasks.Add(ctx, &task); err != nil {
		return nil, shared.WrapInternal(err, "Failed to create task")
	}
	return toTaskResponse(&task), nil
}

// Update applies a partial update
func (s *TaskService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateTaskRequest) (*TaskResponse, error) {
	values := map[string]any{}
	if req.Title != nil {
		values["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Details != nil {
		values["details"] = *req.Details
	}
	if req.Status != nil {
		values["status"] = *req.Status
	}
	if req.DueAt != nil {
		values["due_at"] = *req.DueAt
	}
	if req.PersonID != nil {
		values["person_id"] = *req.PersonID
	}
	if req.TeamID != nil {
		values["team_id"] = *req.TeamID
	}
	if req.AssigneeID != nil {
		values["assignee_id"] = *req.AssigneeID
	}
	if len(values) == 0 {
		return s.Get(ctx, actor, id)
	}
	values["updatedby_id"] = actor.ActorRef()

	task, err := s.tasks.Update(ctx, actor.TenantID, id, values)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to update task")
	}
	if task == nil {
		return nil, shared.NewNotFound("Task not found")
	}
	return toTaskResponse(task), nil
}

// Complete marks an open task done. Completing a closed task fails the
// precondition instead of silently rewriting history.
func (s *TaskService) Complete(ctx context.Context, actor shared.Actor, id uuid.UUID) (*TaskResponse, error) {
	return s.transition(ctx, actor, id, models.TaskStatusDone)
}

// Cancel marks an open task cancelled
func (s *TaskService) Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID) (*TaskResponse, error) {
	return s.transition(ctx, actor, id, models.TaskStatusCancelled)
}

func (s *TaskService) transition(ctx context.Context, actor shared.Actor, id uuid.UUID, status string) (*TaskResponse, error) {
	task, err := s.tasks.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load task")
	}
	if task == nil {
		return nil, shared.NewNotFound("Task not found")
	}
	if task.Status != models.TaskStatusOpen {
		return nil, shared.NewPreconditionFailed("Task is no longer open")
	}

	updated, err := s.tasks.Update(ctx, actor.TenantID, id, map[string]any{
		"status":       status,
		"updatedby_id": actor.ActorRef(),
	})
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to update task")
	}
	if updated == nil {
		return nil, shared.NewNotFound("Task not found")
	}
	return toTaskResponse(updated), nil
}

// Get fetches one task
func (s *TaskService) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*TaskResponse, error) {
	task, err := s.tasks.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load task")
	}
	if task == nil {
		return nil, shared.NewNotFound("Task not found")
	}
	return toTaskResponse(task), nil
}

// GetPage runs the tasks grid query for one descriptor
func (s *TaskService) GetPage(ctx context.Context, actor shared.Actor, desc shared.QueryDescriptor) (shared.Page[TaskResponse], error) {
	page, err := s.tasks.GetPage(ctx, actor.TenantID, desc)
	if err != nil {
		return shared.Page[TaskResponse]{Rows: []TaskResponse{}}, shared.WrapInternal(err, "Failed to query tasks")
	}
	rows := make([]TaskResponse, len(page.Rows))
	for i := range page.Rows {
		rows[i] = *toTaskResponse(&page.Rows[i])
	}
	return shared.Page[TaskResponse]{Rows: rows, Count: page.Count}, nil
}

// Delete removes a task
func (s *TaskService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	task, err := s.tasks.Delete(ctx, actor.TenantID, id)
	if err != nil {
		return shared.WrapInternal(err, "Failed to delete task")
	}
	if task == nil {
		return shared.NewNotFound("Task not found")
	}
	return nil
}

func toTaskResponse(task *models.Task) *TaskResponse {
	return &TaskResponse{
		ID:         task.ID,
		Title:      task.Title,
		Details:    task.Details,
		Status:     task.Status,
		DueAt:      task.DueAt,
		PersonID:   task.PersonID,
		TeamID:     task.TeamID,
		AssigneeID: task.AssigneeID,
		CreatedAt:  task.CreatedAt,
		UpdatedAt:  task.UpdatedAt,
	}
}
