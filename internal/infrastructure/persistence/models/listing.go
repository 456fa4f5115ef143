package models

import "github.com/google/uuid"

// List object types
const (
	ListObjectPeople     = "people"
	ListObjectHouseholds = "households"
)

// List is the GORM model for contact lists. A static list owns membership
// rows in map_lists_persons; a dynamic list owns none and stores the query
// definition that is replayed at read time.
type List struct {
	TenantOwnedModel
	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:varchar(255)"`
	// Object is the target entity type: "people" or "households".
	Object    string `gorm:"type:varchar(20);not null"`
	IsDynamic bool   `gorm:"not null;default:false"`
	// Definition is the serialized query descriptor plus optional tag filter.
	Definition []byte `gorm:"type:jsonb"`
}

// TableName returns the table name for the model
func (List) TableName() string {
	return "lists"
}

// ListPerson is the membership mapping row for static people lists
type ListPerson struct {
	TenantOwnedModel
	ListID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_map_lists_persons"`
	PersonID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_map_lists_persons;index"`
}

// TableName returns the table name for the model
func (ListPerson) TableName() string {
	return "map_lists_persons"
}

// ListHousehold is the membership mapping row for static household lists
type ListHousehold struct {
	TenantOwnedModel
	ListID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_map_lists_households"`
	HouseholdID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_map_lists_households;index"`
}

// TableName returns the table name for the model
func (ListHousehold) TableName() string {
	return "map_lists_households"
}
