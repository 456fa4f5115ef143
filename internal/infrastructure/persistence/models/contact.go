package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is the GORM model for individual contacts
type Person struct {
	TenantOwnedModel
	FirstName   string     `gorm:"type:varchar(100);not null"`
	LastName    string     `gorm:"type:varchar(100)"`
	Email       string     `gorm:"type:varchar(255);index"`
	Phone       string     `gorm:"type:varchar(50)"`
	Address     string     `gorm:"type:varchar(255)"`
	City        string     `gorm:"type:varchar(100);index"`
	State       string     `gorm:"type:varchar(100)"`
	PostalCode  string     `gorm:"type:varchar(20)"`
	Notes       string     `gorm:"type:text"`
	HouseholdID *uuid.UUID `gorm:"type:uuid;index"`
	CampaignID  *uuid.UUID `gorm:"type:uuid"`
	// FileID is the provenance link to the data import that created this row
	FileID       *uuid.UUID `gorm:"type:uuid;index"`
	LastContact  *time.Time
	DoNotContact bool `gorm:"not null;default:false"`
}

// TableName returns the table name for the model
func (Person) TableName() string {
	return "persons"
}

// Household is the GORM model for household contacts
type Household struct {
	TenantOwnedModel
	Name       string     `gorm:"type:varchar(255);not null"`
	Email      string     `gorm:"type:varchar(255)"`
	Phone      string     `gorm:"type:varchar(50)"`
	Address    string     `gorm:"type:varchar(255)"`
	City       string     `gorm:"type:varchar(100);index"`
	State      string     `gorm:"type:varchar(100)"`
	PostalCode string     `gorm:"type:varchar(20)"`
	Notes      string     `gorm:"type:text"`
	CampaignID *uuid.UUID `gorm:"type:uuid"`
	FileID     *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for the model
func (Household) TableName() string {
	return "households"
}

// PersonTag is the tag mapping row for persons
type PersonTag struct {
	TenantOwnedModel
	PersonID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_map_persons_tags"`
	TagID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_map_persons_tags;index"`
}

// TableName returns the table name for the model
func (PersonTag) TableName() string {
	return "map_persons_tags"
}

// HouseholdTag is the tag mapping row for households
type HouseholdTag struct {
	TenantOwnedModel
	HouseholdID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_map_households_tags"`
	TagID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_map_households_tags;index"`
}

// TableName returns the table name for the model
func (HouseholdTag) TableName() string {
	return "map_households_tags"
}
