package handler

import (
	"github.com/crm/backend/internal/application/bulk"
	"github.com/gin-gonic/gin"
)

// ImportHandler serves the data import endpoints
type ImportHandler struct {
	BaseHandler
	service *bulk.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(service *bulk.ImportService) *ImportHandler {
	return &ImportHandler{service: service}
}

// RegisterRoutes registers the import routes
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/imports")
	group.POST("", h.Register)
	group.POST("/query", h.Query)
	group.GET("/:id", h.Get)
	group.DELETE("/:id", h.Delete)
}

// Register records a completed import batch
func (h *ImportHandler) Register(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req bulk.RegisterImportRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Register(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Query pages through import records
func (h *ImportHandler) Query(c *gin.Context) {
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

// Get fetches one import record
func (h *ImportHandler) Get(c *gin.Context) {
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

// Delete removes an import record; the optional body opts into deleting the
// contacts the batch created.
func (h *ImportHandler) Delete(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req bulk.DeleteImportRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Delete(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
