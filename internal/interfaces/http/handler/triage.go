package handler

import (
	"github.com/crm/backend/internal/application/triage"
	"github.com/gin-gonic/gin"
)

// TriageHandler serves the inbound message triage endpoints
type TriageHandler struct {
	BaseHandler
	service *triage.TriageService
}

// NewTriageHandler creates a new TriageHandler
func NewTriageHandler(service *triage.TriageService) *TriageHandler {
	return &TriageHandler{service: service}
}

// RegisterRoutes registers the triage routes
func (h *TriageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/triage/messages")
	group.POST("", h.Ingest)
	group.POST("/query", h.Query)
	group.GET("/:id", h.Get)
	group.POST("/:id/assign", h.Assign)
	group.POST("/:id/resolve", h.Resolve)
	group.POST("/:id/person", h.LinkPerson)
}

// Ingest records an inbound message and matches it to a known person
func (h *TriageHandler) Ingest(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req triage.IngestMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Ingest(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Query pages through triage messages
func (h *TriageHandler) Query(c *gin.Context) {
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

// Get fetches one message
func (h *TriageHandler) Get(c *gin.Context) {
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

// Assign routes an unresolved message to a user
func (h *TriageHandler) Assign(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req triage.AssignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Assign(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Resolve closes a message
func (h *TriageHandler) Resolve(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	resp, err := h.service.Resolve(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// LinkPerson attaches a message to a person record
func (h *TriageHandler) LinkPerson(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req triage.LinkPersonRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.LinkPerson(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
