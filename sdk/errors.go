package sdk

import (
	"errors"
	"fmt"
	"net/http"
)

// Common SDK errors that clients can check for specific error handling.
var (
	// ErrInvalidConfig indicates the client configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid client configuration")

	// ErrNoBaseURLs indicates no server URLs were provided.
	ErrNoBaseURLs = errors.New("no base URLs provided")

	// ErrAllInstancesFailed indicates every server instance is unreachable.
	ErrAllInstancesFailed = errors.New("all server instances failed")

	// ErrUnauthorized indicates the admin token was rejected.
	ErrUnauthorized = errors.New("unauthorized: invalid credentials")

	// ErrForbidden indicates the server has the admin API disabled.
	ErrForbidden = errors.New("admin API disabled")

	// ErrNotFound indicates the requested route does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited indicates the request was rate limited by the server.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrServerError indicates an internal server error occurred.
	ErrServerError = errors.New("internal server error")

	// ErrUnavailable indicates the server has no route table loaded yet.
	ErrUnavailable = errors.New("service unavailable")

	// ErrBadRequest indicates the request was malformed or invalid.
	ErrBadRequest = errors.New("bad request")

	// ErrInvalidRegistry indicates a reload was refused because the registry failed validation.
	ErrInvalidRegistry = errors.New("invalid registry")

	// ErrMissingAuth indicates required authentication credentials were not provided.
	ErrMissingAuth = errors.New("missing authentication credentials")
)

// APIError is an error response returned by the server.
// It unwraps to the sentinel matching its status code.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Code is the machine-readable error code (e.g., "not_found").
	Code string

	// Message is the human-readable message.
	Message string

	// RequestID identifies the request in server logs.
	RequestID string
}

// Error implements error.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("API error %d", e.StatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RequestID != "" {
		msg += " (request " + e.RequestID + ")"
	}
	return msg
}

// Unwrap returns the sentinel error for the status code, if any.
func (e *APIError) Unwrap() error {
	return statusError(e.StatusCode)
}

// statusError maps an HTTP status code to a sentinel error.
func statusError(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnprocessableEntity:
		return ErrInvalidRegistry
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	}
	if status >= 500 {
		return ErrServerError
	}
	return nil
}
