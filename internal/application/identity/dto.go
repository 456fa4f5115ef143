package identity

import (
	"time"

	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// SignUpRequest is the input for creating a tenant with its first user
type SignUpRequest struct {
	OrganizationName string `json:"organization_name" binding:"required,min=2,max=255"`
	FirstName        string `json:"first_name" binding:"required,min=1,max=100"`
	LastName         string `json:"last_name" binding:"max=100"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8,max=72"`
}

// SignInRequest is the input for authenticating an existing user
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the input for rotating a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse carries the issued tokens together with the signed-in identity
type AuthResponse struct {
	TenantID  uuid.UUID       `json:"tenant_id"`
	UserID    uuid.UUID       `json:"user_id"`
	SessionID uuid.UUID       `json:"session_id"`
	Email     string          `json:"email"`
	PersonID  *uuid.UUID      `json:"person_id,omitempty"`
	Tokens    *auth.TokenPair `json:"tokens"`
}

// MeResponse describes the authenticated user
type MeResponse struct {
	TenantID   uuid.UUID  `json:"tenant_id"`
	TenantName string     `json:"tenant_name"`
	UserID     uuid.UUID  `json:"user_id"`
	Email      string     `json:"email"`
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
