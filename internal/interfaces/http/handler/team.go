package handler

import (
	"github.com/crm/backend/internal/application/team"
	"github.com/gin-gonic/gin"
)

// TeamHandler serves the team endpoints
type TeamHandler struct {
	BaseHandler
	service *team.TeamService
}

// NewTeamHandler creates a new TeamHandler
func NewTeamHandler(service *team.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

// RegisterRoutes registers the team routes
func (h *TeamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/teams")
	group.POST("", h.Create)
	group.POST("/query", h.Query)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.SyncRoster)
	group.DELETE("/:id", h.Delete)
}

// Create creates an empty team
func (h *TeamHandler) Create(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req team.CreateTeamRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Query pages through teams for one descriptor
func (h *TeamHandler) Query(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	desc, ok := h.bindDescriptor(c)
	if !ok {
		return
	}
	page, err := h.service.GetPage(c.Request.Context(), actor, desc)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Get fetches one team with its roster
func (h *TeamHandler) Get(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	resp, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SyncRoster replaces the team's fields and full roster in one call
func (h *TeamHandler) SyncRoster(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req team.SyncRosterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.SyncRoster(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a team and its roster
func (h *TeamHandler) Delete(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
