// Package routetable is the route-table engine generated routes are registered into.
//
// A Table is an ordered list of named routes. Routes are grouped by domain and
// share one middleware chain per group. Dispatch is first-match-wins in
// registration order, so more specific routes must be registered first:
//
//	table := routetable.New()
//	g := table.Group("docs.example.com", bindModule, bindVersion, bindCluster)
//	_, err := g.GET("/docs/{resource}", "docs.show", files.Show,
//	    routetable.Where("resource", pattern.Exclude("v1", "v2")))
//
// A Table is built by one goroutine and must not be modified once it serves
// requests; rebuilding means building a new Table and swapping it in.
package routetable

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"converge.io/converge/models"
	"converge.io/converge/pkg/pattern"
)

// RouteNameKey is the gin context key holding the matched route name.
const RouteNameKey = "route_name"

var (
	// ErrDuplicateName indicates a route name that is already registered.
	ErrDuplicateName = errors.New("route name already registered")

	// ErrInvalidTemplate indicates a malformed path template.
	ErrInvalidTemplate = errors.New("invalid path template")
)

// Table is an ordered, named route table.
type Table struct {
	routes []*Route
	names  map[string]*Route
}

// New creates an empty table.
func New() *Table {
	return &Table{names: make(map[string]*Route)}
}

// Group is a set of routes sharing a domain and a middleware chain.
type Group struct {
	table  *Table
	domain models.Domain
	stages []gin.HandlerFunc
}

// Group opens a route group. An empty domain registers the group globally.
// Stages run in order before each route's handler; a stage that aborts the
// gin context stops the chain.
func (t *Table) Group(domain models.Domain, stages ...gin.HandlerFunc) *Group {
	return &Group{table: t, domain: domain, stages: stages}
}

// GET registers a named GET route in the group.
func (g *Group) GET(path, name string, handler gin.HandlerFunc, opts ...Option) (*Route, error) {
	return g.table.add(http.MethodGet, g.domain, path, name, g.stages, handler, opts)
}

func (t *Table) add(method string, domain models.Domain, path, name string, stages []gin.HandlerFunc, handler gin.HandlerFunc, opts []Option) (*Route, error) {
	if name == "" {
		return nil, fmt.Errorf("route %s %s: empty name", method, path)
	}
	if _, exists := t.names[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	segments, err := parseTemplate(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	chain := make([]gin.HandlerFunc, 0, len(stages)+1)
	chain = append(chain, stages...)
	chain = append(chain, handler)

	r := &Route{
		method:      method,
		template:    "/" + strings.Join(splitPath(path), "/"),
		name:        name,
		domain:      domain,
		segments:    segments,
		constraints: make(map[string]*pattern.Matcher),
		chain:       chain,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	t.routes = append(t.routes, r)
	t.names[name] = r
	return r, nil
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Lookup returns the route with the given name.
func (t *Table) Lookup(name string) (*Route, bool) {
	r, ok := t.names[name]
	return r, ok
}

// URL builds the path of a named route.
func (t *Table) URL(name string, params map[string]string) (string, error) {
	r, ok := t.names[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrRouteNotFound, name)
	}
	return r.URL(params)
}

// Routes lists the table in registration order.
func (t *Table) Routes() []models.RouteDefinition {
	defs := make([]models.RouteDefinition, 0, len(t.routes))
	for _, r := range t.routes {
		defs = append(defs, r.Definition())
	}
	return defs
}

// CountByModule returns the number of routes bound to each module.
func (t *Table) CountByModule() map[string]int {
	counts := make(map[string]int)
	for _, r := range t.routes {
		counts[r.binding.ModuleID]++
	}
	return counts
}

// Match finds the first route answering the request.
// methodAllowed is false when a route matched the host and path but not the method.
func (t *Table) Match(method, host, path string) (route *Route, params gin.Params, methodAllowed bool) {
	methodAllowed = true
	pathMatched := false

	for _, r := range t.routes {
		if !r.domain.Matches(host) {
			continue
		}
		p, ok := r.match(path)
		if !ok {
			continue
		}
		if !r.matchesMethod(method) {
			pathMatched = true
			continue
		}
		return r, p, true
	}

	return nil, nil, !pathMatched
}

// Handler returns a gin handler that dispatches to the table.
// Unmatched requests are passed to notFound.
func (t *Table) Handler(notFound gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		route, params, methodAllowed := t.Match(c.Request.Method, c.Request.Host, c.Request.URL.Path)
		if route == nil {
			if !methodAllowed {
				c.Header("Allow", "GET, HEAD")
				c.AbortWithStatus(http.StatusMethodNotAllowed)
				return
			}
			notFound(c)
			return
		}

		c.Params = append(c.Params, params...)
		c.Set(RouteNameKey, route.name)

		for _, h := range route.chain {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
