package models

import "net/http"

// Binding describes the request context a route resolves before its handler runs.
// ModuleID is always set. VersionID and ClusterID are empty when the route
// operates in the module's own (default) context for that axis.
type Binding struct {
	// ModuleID is the identifier of the bound module.
	ModuleID string `json:"module_id"`

	// VersionID is the bound version segment, if any.
	VersionID string `json:"version_id,omitempty"`

	// ClusterID is the bound cluster segment, if any.
	ClusterID string `json:"cluster_id,omitempty"`
}

// HasVersion reports whether the binding pins a version.
func (b Binding) HasVersion() bool {
	return b.VersionID != ""
}

// HasCluster reports whether the binding pins a cluster.
func (b Binding) HasCluster() bool {
	return b.ClusterID != ""
}

// ModuleArg renders the module stage argument in its textual form ("docs").
func (b Binding) ModuleArg() string {
	return b.ModuleID
}

// VersionArg renders the version stage argument in its textual form.
// Without a version the module id is repeated ("docs,docs").
func (b Binding) VersionArg() string {
	if b.HasVersion() {
		return b.ModuleID + "," + b.VersionID
	}
	return b.ModuleID + "," + b.ModuleID
}

// ClusterArg renders the cluster stage argument in its textual form.
// Without a cluster the module id is repeated ("docs,docs").
func (b Binding) ClusterArg() string {
	if b.HasCluster() {
		return b.ModuleID + "," + b.ClusterID
	}
	return b.ModuleID + "," + b.ModuleID
}

// RouteDefinition is one generated route as registered in the route table.
type RouteDefinition struct {
	// Method is the HTTP method (always GET for generated routes).
	Method string `json:"method"`

	// URI is the path template (e.g., "/docs/v1/{resource}").
	URI string `json:"uri"`

	// Name is the unique route name (e.g., "docs.v1.show").
	Name string `json:"name"`

	// Domain is the host the route is restricted to; empty for any host.
	Domain Domain `json:"domain,omitempty"`

	// Pattern is the constraint of the {resource} parameter, if the route has one.
	Pattern string `json:"pattern,omitempty"`

	// Binding is the context the route resolves.
	Binding Binding `json:"binding"`
}

// NewGetDefinition is a convenience constructor for GET route definitions.
func NewGetDefinition(uri, name string, domain Domain, pattern string, binding Binding) RouteDefinition {
	return RouteDefinition{
		Method:  http.MethodGet,
		URI:     uri,
		Name:    name,
		Domain:  domain,
		Pattern: pattern,
		Binding: binding,
	}
}

// RouteListResponse represents the response for listing the generated route table.
type RouteListResponse struct {
	// Routes is the route table in registration order.
	Routes []RouteDefinition `json:"routes"`

	// Total is the number of routes.
	Total int `json:"total"`
}

// ReloadResponse represents the response after regenerating the route table.
type ReloadResponse struct {
	// Routes is the number of routes in the new table.
	Routes int `json:"routes"`

	// Modules is the number of modules walked.
	Modules int `json:"modules"`
}
