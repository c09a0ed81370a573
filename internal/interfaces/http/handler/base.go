package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homereach/backend/internal/domain/shared"
	"github.com/homereach/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response with the given payload
func (h *BaseHandler) Success(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(message))
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, dto.NewErrorResponse(message))
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, dto.NewErrorResponse("Unauthorized"))
}

// InternalError sends a 500 response with a generic message. Internal
// details stay in the logs.
func (h *BaseHandler) InternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("An unexpected error occurred"))
}

// HandleError converts domain errors to HTTP responses. Anything that is not
// a recognized domain error becomes a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		h.BadRequest(c, shared.ErrInvalidInput.Error())
	case errors.Is(err, shared.ErrNotFound):
		h.NotFound(c, shared.ErrNotFound.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		h.Unauthorized(c)
	case errors.Is(err, shared.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.NewErrorResponse("Forbidden"))
	default:
		h.InternalError(c)
	}
}
