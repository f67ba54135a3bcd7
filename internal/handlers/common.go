package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assesshq/session-engine/internal/services"
	"github.com/assesshq/session-engine/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER =====

// BaseHandler provides logging and error mapping shared by all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error) {
	if err != nil {
		h.logger.LogError(err, message,
			"status_code", statusCode,
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
	}
	c.JSON(statusCode, ErrorResponse{Message: message})
}

// RespondWithServiceError maps a service error to its HTTP status. Admission
// denials keep their distinct user-facing reasons; internal errors never
// leak state.
func (h *BaseHandler) RespondWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLinkNotFound) || services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, services.ErrLinkCapacityReached):
		h.RespondWithError(c, http.StatusConflict, err.Error(), err)
	case services.IsAdmissionDenied(err):
		h.RespondWithError(c, http.StatusForbidden, err.Error(), err)
	case services.IsValidation(err) || errors.Is(err, services.ErrInvalidViolationType):
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, err.Error(), err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "internal server error", err)
	}
}
