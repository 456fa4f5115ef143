package handler

import (
	"github.com/crm/backend/internal/application/listing"
	"github.com/gin-gonic/gin"
)

// ListHandler serves the list endpoints
type ListHandler struct {
	BaseHandler
	service *listing.ListService
}

// NewListHandler creates a new ListHandler
func NewListHandler(service *listing.ListService) *ListHandler {
	return &ListHandler{service: service}
}

// RegisterRoutes registers the list routes
func (h *ListHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/lists")
	group.POST("", h.Create)
	group.POST("/query", h.Query)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/members/persons", h.PersonMembers)
	group.POST("/:id/members/households", h.HouseholdMembers)
	group.POST("/:id/members", h.AddMembers)
	group.DELETE("/:id/members", h.RemoveMembers)
}

// Create creates a list. Static lists snapshot their membership from the
// provided definition; dynamic lists store it for replay.
func (h *ListHandler) Create(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req listing.CreateListRequest
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

// Query pages through lists for one descriptor
func (h *ListHandler) Query(c *gin.Context) {
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

// Get fetches one list with its member count
func (h *ListHandler) Get(c *gin.Context) {
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

// Update applies a partial update
func (h *ListHandler) Update(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req listing.UpdateListRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a list and its memberships
func (h *ListHandler) Delete(c *gin.Context) {
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

// PersonMembers pages through the persons a list resolves to
func (h *ListHandler) PersonMembers(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	desc, ok := h.bindDescriptor(c)
	if !ok {
		return
	}
	page, err := h.service.PersonMembers(c.Request.Context(), actor, id, desc)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// HouseholdMembers pages through the households a list resolves to
func (h *ListHandler) HouseholdMembers(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	desc, ok := h.bindDescriptor(c)
	if !ok {
		return
	}
	page, err := h.service.HouseholdMembers(c.Request.Context(), actor, id, desc)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// AddMembers adds entities to a static list
func (h *ListHandler) AddMembers(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req listing.MembersRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.service.AddMembers(c.Request.Context(), actor, id, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RemoveMembers removes entities from a static list
func (h *ListHandler) RemoveMembers(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req listing.MembersRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.service.RemoveMembers(c.Request.Context(), actor, id, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
