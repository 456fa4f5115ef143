package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the GORM model for the root isolation boundary. Tenants are
// created once during sign-up and never deleted in place.
type Tenant struct {
	BaseModel
	Name string `gorm:"type:varchar(255);not null"`
	// AdminID is back-filled with the creating user once sign-up completes.
	AdminID *uuid.UUID `gorm:"type:uuid"`
	Status  string     `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for the model
func (Tenant) TableName() string {
	return "tenants"
}

// User is the GORM model for authentication users. Emails are unique across
// all tenants: an email identifies exactly one account.
type User struct {
	BaseModel
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_users_email"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Verified     bool      `gorm:"not null;default:false"`
	// PersonID links the auth user to its CRM profile person.
	PersonID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for the model
func (User) TableName() string {
	return "users"
}

// Session is the GORM model for issued sessions. Signing out deletes the row.
type Session struct {
	BaseModel
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the model
func (Session) TableName() string {
	return "sessions"
}
