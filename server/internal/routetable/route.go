package routetable

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"converge.io/converge/models"
	"converge.io/converge/pkg/pattern"
)

// Route is one registered endpoint.
type Route struct {
	method   string
	template string
	name     string
	domain   models.Domain
	binding  models.Binding

	segments    []segment
	constraints map[string]*pattern.Matcher
	chain       []gin.HandlerFunc
}

// segment is one element of a path template: a literal or a {param}.
type segment struct {
	literal string
	param   string
}

// Option configures a route at registration time.
type Option func(*Route) error

// Where constrains a path parameter. The parameter must appear in the template.
func Where(param string, c pattern.Constraint) Option {
	return func(r *Route) error {
		if !r.hasParam(param) {
			return fmt.Errorf("route %q has no parameter {%s}", r.name, param)
		}
		m, err := c.Compile()
		if err != nil {
			return fmt.Errorf("route %q: %w", r.name, err)
		}
		r.constraints[param] = m
		return nil
	}
}

// Bind records the context binding the route resolves, for listings.
func Bind(b models.Binding) Option {
	return func(r *Route) error {
		r.binding = b
		return nil
	}
}

// parseTemplate splits a path template into segments.
// The last parameter of a template captures the remainder of the path,
// slashes included.
func parseTemplate(template string) ([]segment, error) {
	var segments []segment
	seen := make(map[string]bool)

	for _, part := range splitPath(template) {
		if !strings.HasPrefix(part, "{") {
			if strings.ContainsAny(part, "{}") {
				return nil, fmt.Errorf("invalid segment %q in %q", part, template)
			}
			segments = append(segments, segment{literal: part})
			continue
		}

		if !strings.HasSuffix(part, "}") || len(part) < 3 {
			return nil, fmt.Errorf("invalid parameter %q in %q", part, template)
		}
		name := part[1 : len(part)-1]
		if seen[name] {
			return nil, fmt.Errorf("duplicate parameter {%s} in %q", name, template)
		}
		seen[name] = true
		segments = append(segments, segment{param: name})
	}

	return segments, nil
}

// splitPath returns the non-empty segments of a path.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

func (r *Route) hasParam(name string) bool {
	for _, s := range r.segments {
		if s.param == name {
			return true
		}
	}
	return false
}

// match reports whether the path matches the template and every constraint,
// returning the captured parameters.
func (r *Route) match(path string) (gin.Params, bool) {
	parts := splitPath(path)
	var params gin.Params

	for i, s := range r.segments {
		if i >= len(parts) {
			return nil, false
		}

		if s.param == "" {
			if parts[i] != s.literal {
				return nil, false
			}
			continue
		}

		value := parts[i]
		if i == len(r.segments)-1 {
			value = strings.Join(parts[i:], "/")
		}
		if m, ok := r.constraints[s.param]; ok && !m.Match(value) {
			return nil, false
		}
		params = append(params, gin.Param{Key: s.param, Value: value})
	}

	last := len(r.segments) - 1
	if last < 0 || r.segments[last].param == "" {
		if len(parts) != len(r.segments) {
			return nil, false
		}
	}

	return params, true
}

// matchesMethod reports whether the route answers the method.
// GET routes also answer HEAD.
func (r *Route) matchesMethod(method string) bool {
	return method == r.method || (r.method == "GET" && method == "HEAD")
}

// Name returns the route name.
func (r *Route) Name() string {
	return r.name
}

// Template returns the path template.
func (r *Route) Template() string {
	return r.template
}

// Binding returns the context binding recorded for the route.
func (r *Route) Binding() models.Binding {
	return r.binding
}

// Definition describes the route for listings.
func (r *Route) Definition() models.RouteDefinition {
	def := models.RouteDefinition{
		Method:  r.method,
		URI:     r.template,
		Name:    r.name,
		Domain:  r.domain,
		Binding: r.binding,
	}
	for _, s := range r.segments {
		if m, ok := r.constraints[s.param]; ok && s.param != "" {
			def.Pattern = m.Constraint().String()
		}
	}
	return def
}

// URL builds a path from the template. Every parameter must be supplied.
func (r *Route) URL(params map[string]string) (string, error) {
	var b strings.Builder
	for _, s := range r.segments {
		b.WriteByte('/')
		if s.param == "" {
			b.WriteString(s.literal)
			continue
		}
		value, ok := params[s.param]
		if !ok || value == "" {
			return "", fmt.Errorf("route %q: missing parameter {%s}", r.name, s.param)
		}
		if m, ok := r.constraints[s.param]; ok && !m.Match(value) {
			return "", fmt.Errorf("route %q: parameter {%s}=%q violates %q", r.name, s.param, value, m.Constraint())
		}
		b.WriteString(value)
	}
	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}
