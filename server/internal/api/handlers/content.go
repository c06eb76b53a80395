package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"converge.io/converge/models"
	"converge.io/converge/server/internal/api/middleware"
	"converge.io/converge/server/internal/routetable"
	"converge.io/converge/server/internal/routing"
)

// ContentResponse describes the resolved context of a generated route.
// Content storage and search live outside this server; these handlers
// report what a content backend would be asked for.
type ContentResponse struct {
	Route     string         `json:"route"`
	Module    string         `json:"module"`
	Version   string         `json:"version,omitempty"`
	Cluster   string         `json:"cluster,omitempty"`
	Binding   models.Binding `json:"binding"`
	Resource  string         `json:"resource,omitempty"`
	Query     string         `json:"query,omitempty"`
	SearchURL string         `json:"search_url,omitempty"`
}

// ContentHandler serves the search, module landing and resource endpoints
// of generated routes.
type ContentHandler struct {
	table *routetable.Table
}

// NewContentHandler creates a content handler. The table is used for reverse
// routing and must be the table the handler is registered in.
func NewContentHandler(table *routetable.Table) *ContentHandler {
	return &ContentHandler{table: table}
}

// Handlers returns the handler set for a routing.TableRegistrar.
func (h *ContentHandler) Handlers() routing.Handlers {
	return routing.Handlers{
		Search: h.Search,
		Module: h.Module,
		Show:   h.Show,
	}
}

// Search handles GET {uri}/converge/search/endpoint?q=...
func (h *ContentHandler) Search(c *gin.Context) {
	resp := resolved(c)
	resp.Query = c.Query("q")
	c.JSON(http.StatusOK, resp)
}

// Module handles GET {uri}, the landing page of a module, version or cluster.
func (h *ContentHandler) Module(c *gin.Context) {
	resp := resolved(c)
	if url, err := h.table.URL(resp.Route+routing.SearchSuffix, nil); err == nil {
		resp.SearchURL = url
	}
	c.JSON(http.StatusOK, resp)
}

// Show handles GET {uri}/{resource}.
func (h *ContentHandler) Show(c *gin.Context) {
	resp := resolved(c)
	resp.Resource = c.Param(routing.ResourceParam)
	c.JSON(http.StatusOK, resp)
}

// resolved collects the context the binding stages attached.
func resolved(c *gin.Context) ContentResponse {
	resp := ContentResponse{
		Route:   c.GetString(routetable.RouteNameKey),
		Binding: middleware.GetBinding(c),
	}
	if m := middleware.GetModule(c); m != nil {
		resp.Module = m.ID
	}
	if v := middleware.GetVersion(c); v != nil {
		resp.Version = v.ID
	}
	if cl := middleware.GetCluster(c); cl != nil {
		resp.Cluster = cl.ID
	}
	return resp
}
