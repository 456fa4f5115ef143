package models

import "github.com/google/uuid"

// TagVolunteer is the reserved tag every team member must carry
const TagVolunteer = "volunteer"

// Tag is the GORM model for the shared tags table. Names are unique per
// tenant; tags are created lazily on first attach. Tenant and audit columns
// are declared inline so the per-tenant unique index can span tenant_id and
// name.
type Tag struct {
	BaseModel
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_tags_tenant_name"`
	CreatedByID *uuid.UUID `gorm:"type:uuid;column:createdby_id"`
	UpdatedByID *uuid.UUID `gorm:"type:uuid;column:updatedby_id"`
	Name        string     `gorm:"type:varchar(120);not null;uniqueIndex:uq_tags_tenant_name"`
	Description string     `gorm:"type:varchar(255)"`
	// Deletable guards reserved tags (e.g. volunteer, import provenance tags)
	// against bulk deletion.
	Deletable bool `gorm:"not null;default:true"`
}

// TableName returns the table name for the model
func (Tag) TableName() string {
	return "tags"
}

// NewTag creates a tag row owned by the given tenant
func NewTag(tenantID uuid.UUID, actorID *uuid.UUID, name string) Tag {
	return Tag{
		BaseModel:   NewBaseModel(),
		TenantID:    tenantID,
		CreatedByID: actorID,
		UpdatedByID: actorID,
		Name:        name,
		Deletable:   true,
	}
}
