package handler

import (
	"github.com/crm/backend/internal/application/settings"
	"github.com/gin-gonic/gin"
)

// SettingHandler serves the tenant settings endpoints
type SettingHandler struct {
	BaseHandler
	service *settings.SettingService
}

// NewSettingHandler creates a new SettingHandler
func NewSettingHandler(service *settings.SettingService) *SettingHandler {
	return &SettingHandler{service: service}
}

// RegisterRoutes registers the settings routes
func (h *SettingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/settings")
	group.GET("", h.GetAll)
	group.GET("/:key", h.Get)
	group.PUT("/:key", h.Set)
	group.DELETE("/:key", h.Unset)
}

// GetAll returns every setting for the tenant
func (h *SettingHandler) GetAll(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	resp, err := h.service.GetAll(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns one setting
func (h *SettingHandler) Get(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	resp, err := h.service.Get(c.Request.Context(), actor, c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Set writes one setting
func (h *SettingHandler) Set(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req settings.SetSettingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Set(c.Request.Context(), actor, c.Param("key"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Unset removes one setting. Removing an absent key is a no-op.
func (h *SettingHandler) Unset(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	if err := h.service.Unset(c.Request.Context(), actor, c.Param("key")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
