package pattern

import "testing"

func TestExclude_NoSegments(t *testing.T) {
	if got := Exclude(); got != Any {
		t.Errorf("Expected Any, got %q", got)
	}
	if got := Exclude(""); got != Any {
		t.Errorf("Expected Any for empty segment, got %q", got)
	}
}

func TestExclude_Expression(t *testing.T) {
	got := Exclude("v1", "v2")
	want := Constraint(`^(?!(v1|v2)(?:/|$))(.*)$`)
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestExclude_EscapesLiterals(t *testing.T) {
	m := Exclude("1.0", "v(2)").MustCompile()

	if m.Match("1.0/page") {
		t.Error("Expected literal 1.0 to be excluded")
	}
	if !m.Match("1x0/page") {
		t.Error("Expected '.' to be matched literally, 1x0 should pass")
	}
	if m.Match("v(2)") {
		t.Error("Expected literal v(2) to be excluded")
	}
}

func TestMatcher_VersionSegments(t *testing.T) {
	m := Exclude("v1", "v2").MustCompile()

	tests := []struct {
		value string
		want  bool
	}{
		{"v1", false},
		{"v2", false},
		{"v1/getting-started", false},
		{"v2/a/b/c", false},
		{"v10", true},
		{"v1beta/page", true},
		{"guide", true},
		{"guide/v1", true},
		{"img/logo.png", true},
	}

	for _, tt := range tests {
		if got := m.Match(tt.value); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestMatcher_Any(t *testing.T) {
	m := Any.MustCompile()

	for _, value := range []string{"", "v1", "a/b/c"} {
		if !m.Match(value) {
			t.Errorf("Expected Any to match %q", value)
		}
	}
}

func TestConstraint_Body(t *testing.T) {
	if got := Exclude("v1").Body(); got != `(?!(v1)(?:/|$))(.*)` {
		t.Errorf("Unexpected body %q", got)
	}
	if got := Constraint("").Body(); got != ".*" {
		t.Errorf("Expected empty constraint body to be .*, got %q", got)
	}
}

func TestConstraint_CompileInvalid(t *testing.T) {
	if _, err := Constraint("(unclosed").Compile(); err == nil {
		t.Error("Expected compile error")
	}
}
