package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// readinessTimeout bounds the readiness check.
const readinessTimeout = 2 * time.Second

// HealthHandler handles health check endpoints.
//
// This handler provides liveness and readiness checks for Kubernetes and
// load balancer health monitoring.
type HealthHandler struct {
	instanceID string
	ready      func(ctx context.Context) error
}

// NewHealthHandler creates a new health check handler.
//
// Parameters:
//   - instanceID: This server instance's UUID
//   - ready: Reports why the instance cannot serve traffic, nil when it can
func NewHealthHandler(instanceID string, ready func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{
		instanceID: instanceID,
		ready:      ready,
	}
}

// LivenessResponse represents the liveness probe response.
type LivenessResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
}

// ReadinessResponse represents the readiness probe response.
type ReadinessResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
}

// Liveness handles GET /health/live for Kubernetes liveness probes.
//
// This endpoint always returns 200 OK as long as the HTTP server is running.
func (h *HealthHandler) Liveness(c *gin.Context) {
	respondSuccess(c, http.StatusOK, LivenessResponse{
		Status:     "ok",
		InstanceID: h.instanceID,
	})
}

// Readiness handles GET /health/ready for Kubernetes readiness probes.
//
// Returns:
//   - 200 OK if a route table is loaded and the registry is reachable
//   - 503 Service Unavailable otherwise
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		if err := h.ready(ctx); err != nil {
			_ = c.Error(err)
			respondError(c, http.StatusServiceUnavailable, "unhealthy", "Service not ready")
			return
		}
	}

	respondSuccess(c, http.StatusOK, ReadinessResponse{
		Status:     "ready",
		InstanceID: h.instanceID,
	})
}
