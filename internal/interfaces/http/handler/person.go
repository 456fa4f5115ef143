package handler

import (
	"github.com/crm/backend/internal/application/contact"
	"github.com/gin-gonic/gin"
)

// PersonHandler serves the person endpoints
type PersonHandler struct {
	BaseHandler
	service *contact.PersonService
}

// NewPersonHandler creates a new PersonHandler
func NewPersonHandler(service *contact.PersonService) *PersonHandler {
	return &PersonHandler{service: service}
}

// RegisterRoutes registers the person routes
func (h *PersonHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/persons")
	group.POST("", h.Create)
	group.POST("/query", h.Query)
	group.GET("/autocomplete", h.Autocomplete)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/tags", h.AttachTag)
	group.DELETE("/:id/tags/:name", h.DetachTag)
}

// Create creates a person
func (h *PersonHandler) Create(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req contact.CreatePersonRequest
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

// Query pages through persons for one descriptor
func (h *PersonHandler) Query(c *gin.Context) {
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

// Autocomplete returns name suggestions for a prefix
func (h *PersonHandler) Autocomplete(c *gin.Context) {
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

// Get fetches one person
func (h *PersonHandler) Get(c *gin.Context) {
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
func (h *PersonHandler) Update(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req contact.UpdatePersonRequest
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

// Delete removes a person and everything referencing it
func (h *PersonHandler) Delete(c *gin.Context) {
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

// AttachTag links a person to a tag
func (h *PersonHandler) AttachTag(c *gin.Context) {
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

// DetachTag removes a tag from a person
func (h *PersonHandler) DetachTag(c *gin.Context) {
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
