package models

import "github.com/google/uuid"

// Team is the GORM model for volunteer teams. Every member, and the captain
// when set, must carry the reserved volunteer tag.
type Team struct {
	TenantOwnedModel
	Name          string     `gorm:"type:varchar(255);not null"`
	Description   string     `gorm:"type:varchar(255)"`
	TeamCaptainID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for the model
func (Team) TableName() string {
	return "teams"
}

// TeamPerson is the roster mapping row for teams
type TeamPerson struct {
	TenantOwnedModel
	TeamID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_map_teams_persons"`
	PersonID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_map_teams_persons;index"`
}

// TableName returns the table name for the model
func (TeamPerson) TableName() string {
	return "map_teams_persons"
}
