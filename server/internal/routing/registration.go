// Package routing turns the module hierarchy into route registrations.
//
// The Walker visits modules, versions and clusters in registry order and
// produces one Registration per routable node, most specific first. A
// Registrar turns each Registration into routes on the route table.
package routing

import (
	"fmt"
	"strings"

	"converge.io/converge/models"
	"converge.io/converge/pkg/pattern"
)

// Registration is one routable node of the hierarchy.
type Registration struct {
	// URI is the base path of the node (e.g., "/docs/v1/eu").
	URI string

	// Name is the dotted route name (e.g., "docs.v1.eu").
	Name string

	// Domain restricts the node's routes to one host. Empty means any host.
	Domain models.Domain

	// Pattern constrains the {resource} parameter of the show route.
	Pattern pattern.Constraint

	// Binding is the context the node's routes resolve.
	Binding models.Binding
}

// Registrar emits the routes of one registration.
type Registrar interface {
	Register(reg Registration) error
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(reg Registration) error

// Register calls f.
func (f RegistrarFunc) Register(reg Registration) error {
	return f(reg)
}

// routeName joins identifiers into a dotted route name, skipping empty ones.
func routeName(ids ...string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			parts = append(parts, id)
		}
	}
	return strings.Join(parts, ".")
}

// ValidatePlan rejects plans in which two registrations share a name.
// Module-level and version-level clusters can collide when segment ids
// coincide across scopes; neither scope takes precedence.
func ValidatePlan(plan []Registration) error {
	seen := make(map[string]Registration, len(plan))
	for _, reg := range plan {
		if prev, ok := seen[reg.Name]; ok {
			return fmt.Errorf("%w: %q is generated for %s (%s) and %s (%s)",
				models.ErrDuplicateRouteName, reg.Name,
				prev.URI, describeBinding(prev.Binding),
				reg.URI, describeBinding(reg.Binding))
		}
		seen[reg.Name] = reg
	}
	return nil
}

func describeBinding(b models.Binding) string {
	return fmt.Sprintf("module=%s version=%s cluster=%s", b.ModuleArg(), b.VersionArg(), b.ClusterArg())
}
