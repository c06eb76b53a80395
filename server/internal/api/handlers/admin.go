package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"converge.io/converge/models"
	"converge.io/converge/server/internal/api/middleware"
	"converge.io/converge/server/internal/routetable"
)

// RouteSource is the live route table the admin API reports on.
type RouteSource interface {
	// Table returns the table currently serving requests, or nil before
	// the first successful generation.
	Table() *routetable.Table

	// Reload regenerates the table from the registry and swaps it in.
	Reload(ctx context.Context) (models.ReloadResponse, error)
}

// AdminHandler handles the route administration endpoints.
type AdminHandler struct {
	routes RouteSource
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(routes RouteSource) *AdminHandler {
	return &AdminHandler{routes: routes}
}

// RouteResponse describes one route and, when parameters were supplied, the
// URL they build.
type RouteResponse struct {
	models.RouteDefinition
	URL string `json:"url,omitempty"`
}

// ListRoutes handles GET /api/v1/routes.
//
// Optional query parameters filter the listing:
//   - module: only routes bound to this module
//   - domain: only routes restricted to this host
//
// Routes are listed in registration order, which is also match order.
func (h *AdminHandler) ListRoutes(c *gin.Context) {
	table := h.routes.Table()
	if table == nil {
		respondError(c, http.StatusServiceUnavailable, "service_unavailable", "Route table not loaded")
		return
	}

	moduleID := c.Query("module")
	domain := c.Query("domain")

	routes := make([]models.RouteDefinition, 0, table.Len())
	for _, def := range table.Routes() {
		if moduleID != "" && def.Binding.ModuleID != moduleID {
			continue
		}
		if domain != "" && !strings.EqualFold(def.Domain.String(), domain) {
			continue
		}
		routes = append(routes, def)
	}

	c.JSON(http.StatusOK, models.RouteListResponse{
		Routes: routes,
		Total:  len(routes),
	})
}

// GetRoute handles GET /api/v1/routes/:name.
//
// Every query parameter is used as a path parameter; when any is given the
// response includes the URL built from them.
func (h *AdminHandler) GetRoute(c *gin.Context) {
	table := h.routes.Table()
	if table == nil {
		respondError(c, http.StatusServiceUnavailable, "service_unavailable", "Route table not loaded")
		return
	}

	name := c.Param("name")
	route, ok := table.Lookup(name)
	if !ok {
		mapErrorToResponse(c, fmt.Errorf("%w: %s", models.ErrRouteNotFound, name))
		return
	}

	resp := RouteResponse{RouteDefinition: route.Definition()}
	query := c.Request.URL.Query()
	if len(query) > 0 {
		params := make(map[string]string, len(query))
		for key := range query {
			params[key] = query.Get(key)
		}
		url, err := route.URL(params)
		if err != nil {
			_ = c.Error(err)
			respondError(c, http.StatusBadRequest, "invalid_request", "Parameters do not satisfy the route")
			return
		}
		resp.URL = url
	}

	c.JSON(http.StatusOK, resp)
}

// Reload handles POST /api/v1/routes/reload.
//
// The registry is re-read and a new table generated. The live table is only
// replaced when generation succeeds; otherwise the old table keeps serving.
func (h *AdminHandler) Reload(c *gin.Context) {
	resp, err := h.routes.Reload(c.Request.Context())
	if err != nil {
		middleware.GetLogger(c).Error("route reload failed", zap.Error(err))
		mapErrorToResponse(c, err)
		return
	}

	middleware.GetLogger(c).Info("route table reloaded",
		zap.Int("routes", resp.Routes),
		zap.Int("modules", resp.Modules))
	c.JSON(http.StatusOK, resp)
}
