package handler

import (
	"net/http"

	"github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler serves the authentication endpoints
type AuthHandler struct {
	BaseHandler
	service *identity.AuthService
	auth    gin.HandlerFunc
}

// NewAuthHandler creates a new AuthHandler. The auth middleware is passed in
// because sign-out and profile require a valid token while the rest of the
// group must stay open.
func NewAuthHandler(service *identity.AuthService, auth gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{service: service, auth: auth}
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/auth")
	group.POST("/signup", h.SignUp)
	group.POST("/signin", h.SignIn)
	group.POST("/refresh", h.Refresh)
	group.POST("/signout", h.auth, h.SignOut)
	group.GET("/me", h.auth, h.Me)
}

// SignUp creates a tenant with its first user
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req identity.SignUpRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// SignIn authenticates an existing user
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req identity.SignInRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Refresh rotates a token pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identity.RefreshRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SignOut revokes the presented token and closes its session
func (h *AuthHandler) SignOut(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized,
			dto.NewErrorResponseWithRequestID(shared.CodeUnauthorized, "Authentication required", middleware.GetRequestID(c)))
		return
	}
	if err := h.service.SignOut(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me returns the authenticated identity
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	resp, err := h.service.Me(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
