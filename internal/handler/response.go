package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"locomotion/internal/repository"
	"locomotion/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request. Every field-level error matches
	// ErrInvalidInput.
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnknownAction):
		return http.StatusBadRequest

	// Authorization errors
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden

	// Conflict errors - the request names a real ride but its current
	// state does not allow the operation.
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, service.ErrNotRatable),
		errors.Is(err, service.ErrDriverInactive),
		errors.Is(err, service.ErrRideNotCompleted),
		errors.Is(err, service.ErrRideAlreadyPaid),
		errors.Is(err, service.ErrOrderPending):
		return http.StatusConflict

	// The start_trip code was wrong; the ride itself is fine.
	case errors.Is(err, service.ErrOtpMismatch):
		return http.StatusUnprocessableEntity

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
