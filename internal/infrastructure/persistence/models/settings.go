package models

import "github.com/google/uuid"

// Well-known setting keys
const (
	SettingCurrentCampaign = "current_campaign"
)

// Setting is the GORM model for per-tenant key/value settings. Keys are
// unique per tenant, so tenant and audit columns are declared inline to let
// the unique index span tenant_id and key.
type Setting struct {
	BaseModel
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_settings_tenant_key"`
	CreatedByID *uuid.UUID `gorm:"type:uuid;column:createdby_id"`
	UpdatedByID *uuid.UUID `gorm:"type:uuid;column:updatedby_id"`
	Key         string     `gorm:"type:varchar(120);not null;uniqueIndex:uq_settings_tenant_key"`
	Value       string     `gorm:"type:text"`
}

// TableName returns the table name for the model
func (Setting) TableName() string {
	return "settings"
}
