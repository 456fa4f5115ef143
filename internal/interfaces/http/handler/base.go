package handler

import (
	"errors"
	"net/http"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest,
		dto.NewErrorResponseWithRequestID(shared.CodeBadRequest, message, middleware.GetRequestID(c)))
}

// HandleError renders a business error with the status its code maps to.
// Internal errors are logged with their cause but rendered generically.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		domainErr = shared.NewInternal("An unexpected error occurred", err)
	}

	if domainErr.Code == shared.CodeInternal {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.JSON(dto.GetHTTPStatus(domainErr.Code),
		dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, middleware.GetRequestID(c)))
}

// requireActor extracts the authenticated actor or aborts with 401
func (h *BaseHandler) requireActor(c *gin.Context) (shared.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			dto.NewErrorResponseWithRequestID(shared.CodeUnauthorized, "Authentication required", middleware.GetRequestID(c)))
		return shared.Actor{}, false
	}
	return actor, true
}

// parseID parses the :id path parameter or renders 400
func (h *BaseHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the request body or renders 400. Validation failures list
// the offending fields; anything else (malformed JSON) gets a generic message.
func (h *BaseHandler) bindJSON(c *gin.Context, target any) bool {
	err := c.ShouldBindJSON(target)
	if err == nil {
		return true
	}
	if fields, ok := middleware.ValidationErrors(err); ok {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			shared.CodeBadRequest, "Request validation failed", middleware.GetRequestID(c), fields))
		return false
	}
	h.BadRequest(c, "Invalid request body")
	return false
}

// bindDescriptor binds a query descriptor from the request body. Grid reads
// are POSTs because the descriptor is too structured for query strings.
func (h *BaseHandler) bindDescriptor(c *gin.Context) (shared.QueryDescriptor, bool) {
	var desc shared.QueryDescriptor
	if c.Request.ContentLength == 0 {
		return desc, true
	}
	if err := c.ShouldBindJSON(&desc); err != nil {
		h.BadRequest(c, "Invalid query descriptor: "+err.Error())
		return desc, false
	}
	return desc, true
}
