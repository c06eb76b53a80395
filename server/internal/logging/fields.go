// Package logging provides structured logging utilities for the Converge route server.
package logging

// Standard field names for consistent logging across the application.
const (
	// FieldModuleID is the identifier of a registry module.
	FieldModuleID = "module_id"

	// FieldVersionID is the route segment of a module version.
	FieldVersionID = "version_id"

	// FieldClusterID is the route segment of a cluster.
	FieldClusterID = "cluster_id"

	// FieldRouteName is the name of a generated route.
	FieldRouteName = "route_name"

	// FieldURI is the path template of a generated route.
	FieldURI = "uri"

	// FieldDomain is the host a route group is restricted to.
	FieldDomain = "domain"

	// FieldPattern is the constraint of a route's resource parameter.
	FieldPattern = "pattern"

	// FieldRequestID is a unique identifier for each HTTP request.
	FieldRequestID = "request_id"

	// FieldDuration is the duration of an operation in milliseconds.
	FieldDuration = "duration_ms"

	// FieldStatusCode is the HTTP status code of a response.
	FieldStatusCode = "status_code"

	// FieldMethod is the HTTP method of a request.
	FieldMethod = "method"

	// FieldPath is the URL path of an HTTP request.
	FieldPath = "path"

	// FieldHost is the Host header of an HTTP request.
	FieldHost = "host"

	// FieldRemoteAddr is the client's remote address.
	FieldRemoteAddr = "remote_addr"

	// FieldUserAgent is the client's user agent string.
	FieldUserAgent = "user_agent"

	// FieldError is the error message or description.
	FieldError = "error"

	// FieldComponent identifies the component generating the log.
	FieldComponent = "component"
)
