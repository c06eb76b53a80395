// Package handlers provides HTTP handlers for the Converge server.
//
// This package implements the health checks, the admin API over the live
// route table and the default content handlers generated routes dispatch to.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"converge.io/converge/models"
	"converge.io/converge/server/internal/api/middleware"
)

// SuccessResponse represents a standardized success response with data.
type SuccessResponse struct {
	// Data contains the response payload.
	Data interface{} `json:"data,omitempty"`

	// Message is an optional success message.
	Message string `json:"message,omitempty"`
}

// respondError sends a standardized error response.
//
// Parameters:
//   - c: Gin context
//   - statusCode: HTTP status code
//   - errorCode: Error code string (e.g., "unauthorized")
//   - message: Human-readable error message
func respondError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.AbortWithStatusJSON(statusCode, models.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestID: middleware.GetRequestID(c),
	})
}

// respondSuccess sends a standardized success response with data.
func respondSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, SuccessResponse{
		Data: data,
	})
}

// mapErrorToResponse converts a models package error to an HTTP response.
//
// Domain errors are matched with errors.Is so wrapped errors map the same way.
// Messages stay generic; details go to the request log.
func mapErrorToResponse(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrModuleNotFound),
		errors.Is(err, models.ErrVersionNotFound),
		errors.Is(err, models.ErrClusterNotFound),
		errors.Is(err, models.ErrRouteNotFound):
		respondError(c, http.StatusNotFound, "not_found", "Resource not found")

	case errors.Is(err, models.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication failed")

	case errors.Is(err, models.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, "invalid_request", "Invalid request parameters")

	case errors.Is(err, models.ErrInvalidRegistry),
		errors.Is(err, models.ErrDuplicateDefault),
		errors.Is(err, models.ErrDuplicateID),
		errors.Is(err, models.ErrDanglingLink),
		errors.Is(err, models.ErrDuplicateRouteName):
		respondError(c, http.StatusUnprocessableEntity, "invalid_registry", "Registry failed validation")

	case errors.Is(err, models.ErrRateLimitExceeded):
		respondError(c, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded")

	default:
		// ErrRouteGeneration, ErrDatabaseError, ErrInternalError and unknown errors
		respondError(c, http.StatusInternalServerError, "internal_error", "An internal error occurred")
	}
}

// NotFound answers requests no route matched.
func NotFound(c *gin.Context) {
	respondError(c, http.StatusNotFound, "not_found", "Resource not found")
}
