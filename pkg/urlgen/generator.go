package urlgen

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTemplate indicates a template is malformed or uses an unknown placeholder.
	ErrInvalidTemplate = errors.New("invalid URL template")

	// ErrMissingSegment indicates a template references a segment that was not supplied.
	ErrMissingSegment = errors.New("URL template segment not supplied")
)

// Generator computes a route path from a base path and optional version and
// cluster segments. Empty segments mean "not supplied".
type Generator interface {
	Generate(base, version, cluster string) (string, error)
}

// Func adapts a function to the Generator interface.
type Func func(base, version, cluster string) (string, error)

// Generate calls f.
func (f Func) Generate(base, version, cluster string) (string, error) {
	return f(base, version, cluster)
}

// Segments appends the version and cluster segments to the base path.
type Segments struct{}

// Generate returns base/version/cluster, skipping empty parts.
func (Segments) Generate(base, version, cluster string) (string, error) {
	return Join(base, version, cluster), nil
}

// Spec describes the generator.
func (Segments) Spec() Spec {
	return Spec{Kind: KindSegments}
}

// Replace puts the cluster segment where the version segment would go.
// Without a cluster it behaves like Segments.
type Replace struct{}

// Generate returns base/cluster, or base/version when no cluster is supplied.
func (Replace) Generate(base, version, cluster string) (string, error) {
	if cluster != "" {
		return Join(base, cluster), nil
	}
	return Join(base, version), nil
}

// Spec describes the generator.
func (Replace) Spec() Spec {
	return Spec{Kind: KindReplace}
}

// Prefix ignores the base path and routes under Path instead.
type Prefix struct {
	Path string
}

// Generate returns Path/version/cluster.
func (p Prefix) Generate(_, version, cluster string) (string, error) {
	return Join(p.Path, version, cluster), nil
}

// Spec describes the generator.
func (p Prefix) Spec() Spec {
	return Spec{Kind: KindPrefix, Path: p.Path}
}

// Template substitutes {base}, {version} and {cluster} in a pattern,
// e.g. "{base}/{cluster}-{version}".
type Template struct {
	pattern string
	parts   []templatePart
}

type templatePart struct {
	literal     string
	placeholder string
}

var placeholders = map[string]bool{
	"base":    true,
	"version": true,
	"cluster": true,
}

// NewTemplate parses a template pattern.
func NewTemplate(pattern string) (*Template, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidTemplate)
	}

	t := &Template{pattern: pattern}
	rest := pattern
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, fmt.Errorf("%w: unbalanced '}' in %q", ErrInvalidTemplate, pattern)
			}
			t.parts = append(t.parts, templatePart{literal: rest})
			break
		}
		if strings.IndexByte(rest[:open], '}') >= 0 {
			return nil, fmt.Errorf("%w: unbalanced '}' in %q", ErrInvalidTemplate, pattern)
		}
		if open > 0 {
			t.parts = append(t.parts, templatePart{literal: rest[:open]})
		}

		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated placeholder in %q", ErrInvalidTemplate, pattern)
		}
		name := rest[open+1 : open+end]
		if !placeholders[name] {
			return nil, fmt.Errorf("%w: unknown placeholder {%s} in %q", ErrInvalidTemplate, name, pattern)
		}
		t.parts = append(t.parts, templatePart{placeholder: name})
		rest = rest[open+end+1:]
	}

	return t, nil
}

// Generate substitutes the placeholders. Every placeholder used by the
// pattern must be supplied.
func (t *Template) Generate(base, version, cluster string) (string, error) {
	values := map[string]string{
		"base":    base,
		"version": version,
		"cluster": cluster,
	}

	var b strings.Builder
	for _, part := range t.parts {
		if part.placeholder == "" {
			b.WriteString(part.literal)
			continue
		}
		value := strings.Trim(values[part.placeholder], "/")
		if value == "" && part.placeholder != "base" {
			return "", fmt.Errorf("%w: {%s} in %q", ErrMissingSegment, part.placeholder, t.pattern)
		}
		b.WriteString(value)
	}

	return Join(b.String()), nil
}

// Spec describes the generator.
func (t *Template) Spec() Spec {
	return Spec{Kind: KindTemplate, Template: t.pattern}
}

// Join joins path parts with slashes. The result starts with a slash, has no
// trailing slash and no empty segments. Joining nothing yields "/".
func Join(parts ...string) string {
	var segments []string
	for _, part := range parts {
		for _, segment := range strings.Split(part, "/") {
			if segment != "" {
				segments = append(segments, segment)
			}
		}
	}
	return "/" + strings.Join(segments, "/")
}
