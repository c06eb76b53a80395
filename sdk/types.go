package sdk

import "converge.io/converge/models"

// RouteFilter narrows a route listing. Empty fields match everything.
type RouteFilter struct {
	// Module keeps routes bound to this module id.
	Module string

	// Domain keeps routes restricted to this host.
	Domain string
}

// RouteInfo describes one route of the live table.
type RouteInfo struct {
	models.RouteDefinition

	// URL is the path built from the parameters passed to GetRoute, if any.
	URL string `json:"url,omitempty"`
}

// InstanceHealth is the readiness of one server instance.
type InstanceHealth struct {
	// BaseURL is the instance probed.
	BaseURL string

	// Ready reports whether the instance has a route table loaded.
	Ready bool

	// InstanceID is the server's instance UUID, when it answered.
	InstanceID string

	// Err is the reason the instance is not ready.
	Err error
}

// healthResponse is the envelope of /health/ready.
type healthResponse struct {
	Data struct {
		Status     string `json:"status"`
		InstanceID string `json:"instance_id"`
	} `json:"data"`
}
