package urlgen

import "fmt"

// Kind names a generator variant in registry configuration.
type Kind string

const (
	KindSegments Kind = "segments"
	KindReplace  Kind = "replace"
	KindPrefix   Kind = "prefix"
	KindTemplate Kind = "template"
)

// Spec is the serializable description of a generator.
type Spec struct {
	Kind     Kind   `yaml:"kind" json:"kind"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	Template string `yaml:"template,omitempty" json:"template,omitempty"`
}

// Specifier is implemented by generators that can be described by a Spec.
type Specifier interface {
	Spec() Spec
}

// FromSpec builds a generator. The zero Spec selects Segments.
func FromSpec(s Spec) (Generator, error) {
	switch s.Kind {
	case "", KindSegments:
		return Segments{}, nil
	case KindReplace:
		return Replace{}, nil
	case KindPrefix:
		if s.Path == "" {
			return nil, fmt.Errorf("prefix generator requires a path")
		}
		return Prefix{Path: s.Path}, nil
	case KindTemplate:
		t, err := NewTemplate(s.Template)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown generator kind %q", s.Kind)
	}
}

// SpecOf describes g. It reports false for generators that cannot be
// serialized, such as Func. A nil generator is described as Segments.
func SpecOf(g Generator) (Spec, bool) {
	if g == nil {
		return Spec{Kind: KindSegments}, true
	}
	if s, ok := g.(Specifier); ok {
		return s.Spec(), true
	}
	return Spec{}, false
}
