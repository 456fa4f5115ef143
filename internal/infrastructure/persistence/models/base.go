// Package models contains the GORM persistence models for all CRM tables.
package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// NewBaseModel creates a base model with a generated id and timestamps
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// TenantOwnedModel provides common persistence fields for tenant-scoped rows:
// the tenant partition key plus audit columns.
type TenantOwnedModel struct {
	BaseModel
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedByID *uuid.UUID `gorm:"type:uuid;column:createdby_id"`
	UpdatedByID *uuid.UUID `gorm:"type:uuid;column:updatedby_id"`
}

// NewTenantOwnedModel creates a tenant-owned model with audit columns set
func NewTenantOwnedModel(tenantID uuid.UUID, actorID *uuid.UUID) TenantOwnedModel {
	return TenantOwnedModel{
		BaseModel:   NewBaseModel(),
		TenantID:    tenantID,
		CreatedByID: actorID,
		UpdatedByID: actorID,
	}
}
