package handler

import (
	"github.com/crm/backend/internal/application/contact"
	"github.com/gin-gonic/gin"
)

// HouseholdHandler serves the household endpoints
type HouseholdHandler struct {
	BaseHandler
	service *contact.HouseholdService
}

// NewHouseholdHandler creates a new HouseholdHandler
func NewHouseholdHandler(service *contact.HouseholdService) *HouseholdHandler {
	return &HouseholdHandler{service: service}
}

// RegisterRoutes registers the household routes
func (h *HouseholdHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/households")
	group.POST("", h.Create)
	group.POST("/query", h.Query)
	group.GET("/autocomplete", h.Autocomplete)
	group.GET("/:id", h.Get)
	group.GET("/:id/members", h.Members)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/tags", h.AttachTag)
	group.DELETE("/:id/tags/:name", h.DetachTag)
}

// Create creates a household
func (h *HouseholdHandler) Create(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req contact.CreateHouseholdRequest
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

// Query pages through households for one descriptor
func (h *HouseholdHandler) Query(c *gin.Context) {
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

// Autocomplete returns household name suggestions for a prefix
func (h *HouseholdHandler) Autocomplete(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	entries, err := h.service.Autocomplete(c.Request.Context(), actor, c.Query("q"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// Get fetches one household
func (h *HouseholdHandler) Get(c *gin.Context) {
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

// Members lists the persons that belong to a household
func (h *HouseholdHandler) Members(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	members, err := h.service.Members(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, members)
}

// Update applies a partial update
func (h *HouseholdHandler) Update(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req contact.UpdateHouseholdRequest
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

// Delete removes a household; its members stay and lose the link
func (h *HouseholdHandler) Delete(c *gin.Context) {
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

// AttachTag links a household to a tag
func (h *HouseholdHandler) AttachTag(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req contact.TagRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tags, err := h.service.AttachTag(c.Request.Context(), actor, id, req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tags)
}

// DetachTag removes a tag from a household
func (h *HouseholdHandler) DetachTag(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	tags, err := h.service.DetachTag(c.Request.Context(), actor, id, c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tags)
}
