package identity

import (
	"context"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles sign-up, sign-in, sign-out and token refresh.
type AuthService struct {
	db        *persistence.Database
	identity  *persistence.IdentityRepository
	persons   *persistence.PersonRepository
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	db *persistence.Database,
	identity *persistence.IdentityRepository,
	persons *persistence.PersonRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		db:        db,
		identity:  identity,
		persons:   persons,
		jwt:       jwtService,
		blacklist: blacklist,
		logger:    logger,
	}
}

// SignUp creates a tenant, its admin user, the user's profile person and an
// initial session, all in one transaction. Either the whole identity exists
// afterwards or none of it does.
//
// The up-front email check gives a friendly error in the common case; the
// unique constraint on users.email is what actually guards against two
// concurrent sign-ups with the same address.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.identity.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to check email availability")
	}
	if existing != nil {
		return nil, shared.NewConflict("An account with this email already exists")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, shared.NewBadRequest("Password cannot be processed")
	}

	var (
		tenant  models.Tenant
		user    models.User
		session models.Session
		person  models.Person
	)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		identity := s.identity.WithTx(tx)
		persons := s.persons.WithTx(tx)

		tenant = models.Tenant{
			BaseModel: models.NewBaseModel(),
			Name:      strings.TrimSpace(req.OrganizationName),
			Status:    "active",
		}
		if err := identity.CreateTenant(ctx, &tenant); err != nil {
			return err
		}

		user = models.User{
			BaseModel:    models.NewBaseModel(),
			TenantID:     tenant.ID,
			Email:        email,
			PasswordHash: passwordHash,
		}
		if err := identity.CreateUser(ctx, &user); err != nil {
			return err
		}

		actorID := user.ID
		person = models.Person{
			TenantOwnedModel: models.NewTenantOwnedModel(tenant.ID, &actorID),
			FirstName:        strings.TrimSpace(req.FirstName),
			LastName:         strings.TrimSpace(req.LastName),
			Email:            email,
		}
		if err := persons.Add(ctx, &person); err != nil {
			return err
		}

		user.PersonID = &person.ID
		if err := identity.UpdateUser(ctx, &user); err != nil {
			return err
		}
		if err := identity.SetTenantAdmin(ctx, tenant.ID, user.ID); err != nil {
			return err
		}

		session = newSession(tenant.ID, user.ID, s.jwt.RefreshExpiration())
		return identity.CreateSession(ctx, &session)
	})
	if err != nil {
		if shared.IsCode(err, shared.CodeConflict) {
			return nil, shared.NewConflict("An account with this email already exists")
		}
		return nil, shared.WrapInternal(err, "Failed to complete sign-up")
	}

	s.logger.Info("tenant signed up",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("user_id", user.ID.String()),
	)

	return s.issueTokens(tenant.ID, &user, session.ID)
}

// SignIn authenticates a user by email and password and opens a new session
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	user, err := s.identity.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to look up account")
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		// One message for both cases so the endpoint cannot be used to
		// probe which emails have accounts.
		return nil, shared.NewUnauthorized("Invalid email or password")
	}

	session := newSession(user.TenantID, user.ID, s.jwt.RefreshExpiration())
	if err := s.identity.CreateSession(ctx, &session); err != nil {
		return nil, shared.WrapInternal(err, "Failed to open session")
	}

	return s.issueTokens(user.TenantID, user, session.ID)
}

// SignOut revokes the presented access token and closes its session.
// Signing out an already-closed session is a no-op.
func (s *AuthService) SignOut(ctx context.Context, claims *auth.Claims) error {
	if err := s.blacklist.Add(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Warn("failed to blacklist token on sign-out", zap.Error(err))
	}

	tenantID, err := claims.TenantUUID()
	if err != nil {
		return shared.NewUnauthorized("Invalid token claims")
	}
	sessionID, err := claims.SessionUUID()
	if err != nil {
		return shared.NewUnauthorized("Invalid token claims")
	}
	if err := s.identity.DeleteSession(ctx, tenantID, sessionID); err != nil {
		return shared.WrapInternal(err, "Failed to close session")
	}
	return nil
}

// Refresh validates a refresh token against its session and issues a fresh
// token pair. The old refresh token is revoked for its remaining lifetime.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, shared.NewUnauthorized("Invalid refresh token")
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to check token state")
	}
	if revoked {
		return nil, shared.NewUnauthorized("Refresh token has been revoked")
	}

	tenantID, err := claims.TenantUUID()
	if err != nil {
		return nil, shared.NewUnauthorized("Invalid token claims")
	}
	sessionID, err := claims.SessionUUID()
	if err != nil {
		return nil, shared.NewUnauthorized("Invalid token claims")
	}

	session, err := s.identity.GetSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to look up session")
	}
	if session == nil || session.ExpiresAt.Before(time.Now()) {
		return nil, shared.NewUnauthorized("Session has expired")
	}

	user, err := s.identity.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to look up account")
	}
	if user == nil {
		return nil, shared.NewUnauthorized("Account no longer exists")
	}

	if err := s.blacklist.Add(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Warn("failed to blacklist rotated refresh token", zap.Error(err))
	}

	return s.issueTokens(tenantID, user, sessionID)
}

// Me resolves the authenticated identity for profile display
func (s *AuthService) Me(ctx context.Context, actor shared.Actor) (*MeResponse, error) {
	user, err := s.identity.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to look up account")
	}
	if user == nil || user.TenantID != actor.TenantID {
		return nil, shared.NewNotFound("Account not found")
	}
	tenant, err := s.identity.GetTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to look up tenant")
	}
	if tenant == nil {
		return nil, shared.NewNotFound("Tenant not found")
	}
	return &MeResponse{
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
		UserID:     user.ID,
		Email:      user.Email,
		PersonID:   user.PersonID,
		CreatedAt:  user.CreatedAt,
	}, nil
}

// VerifySession checks that a session referenced by access token claims is
// still open. Used by the auth middleware.
func (s *AuthService) VerifySession(ctx context.Context, tenantID, sessionID uuid.UUID) (bool, error) {
	session, err := s.identity.GetSession(ctx, tenantID, sessionID)
	if err != nil {
		return false, err
	}
	return session != nil && session.ExpiresAt.After(time.Now()), nil
}

func (s *AuthService) issueTokens(tenantID uuid.UUID, user *models.User, sessionID uuid.UUID) (*AuthResponse, error) {
	tokens, err := s.jwt.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID:  tenantID,
		UserID:    user.ID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to issue tokens")
	}
	return &AuthResponse{
		TenantID:  tenantID,
		UserID:    user.ID,
		SessionID: sessionID,
		Email:     user.Email,
		PersonID:  user.PersonID,
		Tokens:    tokens,
	}, nil
}

func newSession(tenantID, userID uuid.UUID, ttl time.Duration) models.Session {
	return models.Session{
		BaseModel: models.NewBaseModel(),
		TenantID:  tenantID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
