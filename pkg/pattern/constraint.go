// Package pattern builds path-parameter constraints for generated routes.
//
// The generic resource route of a module must never capture a
// version-qualified URL. Exclude produces a constraint that rejects any value
// whose first path segment literally equals one of the module's version
// segments:
//
//	c := pattern.Exclude("v1", "v2")
//	// c == `^(?!(v1|v2)(?:/|$))(.*)$`
//
// Only whole segments are excluded: "v10" and "v1beta" still match, so those
// paths stay on the module's quiet route.
//
// Constraints use negative look-ahead, which Go's regexp package does not
// support, so they are compiled with github.com/dlclark/regexp2.
package pattern

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Any is the unconstrained wildcard.
const Any Constraint = ".*"

// matchTimeout bounds a single constraint evaluation.
const matchTimeout = 100 * time.Millisecond

// Constraint is a regular expression a path parameter must fully match.
type Constraint string

// Exclude returns a constraint matching any value whose first segment is not
// one of segments. Each segment is escaped as a literal. Without segments it
// returns Any.
func Exclude(segments ...string) Constraint {
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		escaped = append(escaped, regexp2.Escape(segment))
	}

	if len(escaped) == 0 {
		return Any
	}

	return Constraint(fmt.Sprintf("^(?!(%s)(?:/|$))(.*)$", strings.Join(escaped, "|")))
}

// String returns the constraint expression.
func (c Constraint) String() string {
	return string(c)
}

// IsAny reports whether the constraint accepts every value.
func (c Constraint) IsAny() bool {
	return c == "" || c == Any
}

// Body returns the expression without its leading ^ and trailing $ anchors,
// suitable for embedding into a larger expression.
func (c Constraint) Body() string {
	if c.IsAny() {
		return string(Any)
	}
	body := strings.TrimPrefix(string(c), "^")
	if strings.HasSuffix(body, "$") && !strings.HasSuffix(body, `\$`) {
		body = strings.TrimSuffix(body, "$")
	}
	return body
}

// Compile compiles the constraint into a Matcher.
func (c Constraint) Compile() (*Matcher, error) {
	rx, err := regexp2.Compile("^(?:"+c.Body()+")$", regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("invalid constraint %q: %w", c, err)
	}
	rx.MatchTimeout = matchTimeout

	return &Matcher{constraint: c, rx: rx}, nil
}

// MustCompile is like Compile but panics on error.
func (c Constraint) MustCompile() *Matcher {
	m, err := c.Compile()
	if err != nil {
		panic(err)
	}
	return m
}

// Matcher evaluates a compiled constraint.
type Matcher struct {
	constraint Constraint
	rx         *regexp2.Regexp
}

// Constraint returns the source constraint.
func (m *Matcher) Constraint() Constraint {
	return m.constraint
}

// Match reports whether value satisfies the constraint.
// Evaluation errors (timeouts) count as a mismatch.
func (m *Matcher) Match(value string) bool {
	ok, err := m.rx.MatchString(value)
	return err == nil && ok
}
