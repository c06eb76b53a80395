package models

import "errors"

// Common error types used throughout the Converge route server.
// These errors provide semantic meaning and enable consistent error handling
// across the registry, route generation and API layers.

var (
	// ErrNotFound indicates the requested resource does not exist.
	// HTTP equivalent: 404 Not Found
	ErrNotFound = errors.New("resource not found")

	// ErrModuleNotFound indicates the bound module does not exist.
	// HTTP equivalent: 404 Not Found
	ErrModuleNotFound = errors.New("module not found")

	// ErrVersionNotFound indicates the bound version does not exist in its module.
	// HTTP equivalent: 404 Not Found
	ErrVersionNotFound = errors.New("version not found")

	// ErrClusterNotFound indicates the bound cluster does not exist in its scope.
	// HTTP equivalent: 404 Not Found
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrRouteNotFound indicates no route with the given name is registered.
	// HTTP equivalent: 404 Not Found
	ErrRouteNotFound = errors.New("route not found")

	// ErrUnauthorized indicates the request lacks a valid admin token.
	// HTTP equivalent: 401 Unauthorized
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidRequest indicates the request body or parameters are invalid.
	// HTTP equivalent: 400 Bad Request
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidRegistry indicates the module registry failed validation.
	// Route generation never starts on an invalid registry.
	ErrInvalidRegistry = errors.New("invalid registry")

	// ErrDuplicateDefault indicates more than one default entity in one scope.
	ErrDuplicateDefault = errors.New("more than one default entity in scope")

	// ErrDuplicateID indicates two entities with the same id in one scope.
	ErrDuplicateID = errors.New("duplicate identifier in scope")

	// ErrDanglingLink indicates a link whose target does not exist in its scope.
	ErrDanglingLink = errors.New("link target does not exist")

	// ErrDuplicateRouteName indicates two registrations would share a route name.
	// This happens when segment identifiers coincide across scopes
	// (e.g., a version and a module-level cluster both named "eu").
	ErrDuplicateRouteName = errors.New("duplicate route name")

	// ErrRouteGeneration indicates route generation failed and no table was produced.
	// HTTP equivalent: 500 Internal Server Error
	ErrRouteGeneration = errors.New("route generation failed")

	// ErrRateLimitExceeded indicates too many requests from this client.
	// HTTP equivalent: 429 Too Many Requests
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInternalError indicates an unexpected server-side error.
	// HTTP equivalent: 500 Internal Server Error
	ErrInternalError = errors.New("internal server error")

	// ErrDatabaseError indicates a registry database operation failed.
	// HTTP equivalent: 500 Internal Server Error
	ErrDatabaseError = errors.New("database error")
)

// ErrorResponse represents a standardized API error response.
// All API errors are returned in this format, by the server and as decoded by the SDK.
type ErrorResponse struct {
	// Error is the error code (e.g., "unauthorized", "not_found").
	Error string `json:"error"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// RequestID is the unique request ID for tracing.
	RequestID string `json:"request_id,omitempty"`
}
