package models

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses
const (
	TaskStatusOpen      = "open"
	TaskStatusDone      = "done"
	TaskStatusCancelled = "cancelled"
)

// Task is the GORM model for tasks, optionally linked to a person or a team
type Task struct {
	TenantOwnedModel
	Title      string     `gorm:"type:varchar(255);not null"`
	Details    string     `gorm:"type:text"`
	Status     string     `gorm:"type:varchar(20);not null;default:'open';index"`
	DueAt      *time.Time `gorm:"index"`
	PersonID   *uuid.UUID `gorm:"type:uuid;index"`
	TeamID     *uuid.UUID `gorm:"type:uuid;index"`
	AssigneeID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for the model
func (Task) TableName() string {
	return "tasks"
}
