package handler

import (
	"github.com/crm/backend/internal/application/tagging"
	"github.com/gin-gonic/gin"
)

// TagHandler serves the tag endpoints
type TagHandler struct {
	BaseHandler
	service *tagging.TagService
}

// NewTagHandler creates a new TagHandler
func NewTagHandler(service *tagging.TagService) *TagHandler {
	return &TagHandler{service: service}
}

// RegisterRoutes registers the tag routes
func (h *TagHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/tags")
	group.POST("", h.Create)
	group.POST("/query", h.Query)
	group.POST("/delete", h.DeleteMany)
	group.GET("/names", h.Names)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
}

// Create creates a tag
func (h *TagHandler) Create(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req tagging.CreateTagRequest
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

// Query pages through tags with their usage counts
func (h *TagHandler) Query(c *gin.Context) {
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

// DeleteMany deletes a batch of tags, skipping protected ones
func (h *TagHandler) DeleteMany(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req tagging.DeleteTagsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.DeleteMany(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Names returns every tag name for pickers
func (h *TagHandler) Names(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	names, err := h.service.Names(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, names)
}

// Get fetches one tag with its usage count
func (h *TagHandler) Get(c *gin.Context) {
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

// Update changes a tag's description. Names are immutable.
func (h *TagHandler) Update(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req tagging.UpdateTagRequest
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
