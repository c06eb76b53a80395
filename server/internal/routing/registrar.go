package routing

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"converge.io/converge/models"
	"converge.io/converge/pkg/urlgen"
	"converge.io/converge/server/internal/routetable"
)

// SearchPath is appended to a registration URI to form its search endpoint.
const SearchPath = "converge/search/endpoint"

// Route name suffixes of the endpoints emitted per registration.
const (
	SearchSuffix = ".search"
	ShowSuffix   = ".show"
)

// ResourceParam is the path parameter of the show endpoint.
const ResourceParam = "resource"

// Binder builds the context-binding stages of a route group.
// Each stage resolves one axis of the binding onto the request context.
type Binder interface {
	BindModule(b models.Binding) gin.HandlerFunc
	BindVersion(b models.Binding) gin.HandlerFunc
	BindCluster(b models.Binding) gin.HandlerFunc
}

// Handlers are the content handlers every registration is wired to.
type Handlers struct {
	Search gin.HandlerFunc
	Module gin.HandlerFunc
	Show   gin.HandlerFunc
}

// TableRegistrar registers route groups on a route table.
type TableRegistrar struct {
	table    *routetable.Table
	binder   Binder
	handlers Handlers
}

// NewTableRegistrar creates a registrar writing to table.
func NewTableRegistrar(table *routetable.Table, binder Binder, handlers Handlers) *TableRegistrar {
	return &TableRegistrar{
		table:    table,
		binder:   binder,
		handlers: handlers,
	}
}

// Register emits one domain-scoped group with the search, module and show
// endpoints of the registration. All three share the module, version and
// cluster binding stages, in that order.
func (r *TableRegistrar) Register(reg Registration) error {
	g := r.table.Group(reg.Domain,
		r.binder.BindModule(reg.Binding),
		r.binder.BindVersion(reg.Binding),
		r.binder.BindCluster(reg.Binding),
	)
	bind := routetable.Bind(reg.Binding)

	if _, err := g.GET(urlgen.Join(reg.URI, SearchPath), reg.Name+SearchSuffix, r.handlers.Search, bind); err != nil {
		return fmt.Errorf("search route: %w", err)
	}
	if _, err := g.GET(urlgen.Join(reg.URI), reg.Name, r.handlers.Module, bind); err != nil {
		return fmt.Errorf("module route: %w", err)
	}
	show := urlgen.Join(reg.URI, "{"+ResourceParam+"}")
	if _, err := g.GET(show, reg.Name+ShowSuffix, r.handlers.Show, bind, routetable.Where(ResourceParam, reg.Pattern)); err != nil {
		return fmt.Errorf("show route: %w", err)
	}

	return nil
}
