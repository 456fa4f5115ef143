package models

import (
	"time"

	"github.com/google/uuid"
)

// Email triage statuses
const (
	EmailStatusOpen     = "open"
	EmailStatusAssigned = "assigned"
	EmailStatusResolved = "resolved"
)

// EmailMessage is the GORM model for inbound messages awaiting triage.
// Messages are matched to persons by sender address where possible.
type EmailMessage struct {
	TenantOwnedModel
	FromAddress string    `gorm:"type:varchar(255);not null;index"`
	Subject     string    `gorm:"type:varchar(500)"`
	Body        string    `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(20);not null;default:'open';index"`
	ReceivedAt  time.Time `gorm:"not null;index"`
	// PersonID is set when the sender matches a known contact.
	PersonID   *uuid.UUID `gorm:"type:uuid;index"`
	AssigneeID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for the model
func (EmailMessage) TableName() string {
	return "email_messages"
}
