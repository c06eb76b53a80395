package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"converge.io/converge/models"
	"converge.io/converge/pkg/urlgen"
)

func TestParse(t *testing.T) {
	modules, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("Parse() len = %d, want 2", len(modules))
	}

	docs := modules[0]
	if docs.Domain != "docs.example.com" {
		t.Errorf("docs domain = %q, want %q", docs.Domain, "docs.example.com")
	}
	if len(docs.Versions) != 3 {
		t.Fatalf("docs versions = %d, want 3", len(docs.Versions))
	}
	if docs.Versions[2].Link == nil || docs.Versions[2].Link.Target != "v1" {
		t.Errorf("versions[2] = %+v, want link to v1", docs.Versions[2])
	}

	v1 := docs.Versions[0].Version
	if len(v1.Clusters) != 3 || v1.Clusters[2].Link == nil {
		t.Fatalf("v1 clusters = %+v", v1.Clusters)
	}
	if v1.Clusters[0].Cluster.Domain != "eu.example.com" || !v1.Clusters[1].Cluster.Default {
		t.Errorf("v1 clusters = %+v, %+v", v1.Clusters[0].Cluster, v1.Clusters[1].Cluster)
	}

	v2 := docs.Versions[1].Version
	if !v2.Default || !reflect.DeepEqual(v2.Generator, urlgen.Prefix{Path: "/archive"}) {
		t.Errorf("v2 = %+v", v2)
	}

	if got := docs.Clusters[0].Cluster.Generator; !reflect.DeepEqual(got, urlgen.Replace{}) {
		t.Errorf("staging generator = %#v, want Replace", got)
	}

	blog := modules[1]
	if blog.QuietRoutePath() != "/news" || blog.Domain != "blog.example.com" || blog.Generator != nil {
		t.Errorf("blog = %+v", blog)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown domain reference",
			yaml: "modules: [{id: docs, path: /docs, domain: {ref: nope}}]",
		},
		{
			name: "domain with scheme",
			yaml: "modules: [{id: docs, path: /docs, domain: 'https://docs.example.com'}]",
		},
		{
			name: "link with id",
			yaml: "modules: [{id: docs, path: /docs, versions: [{id: v1, link: v2}]}]",
		},
		{
			name: "unknown generator",
			yaml: "modules: [{id: docs, path: /docs, generator: {kind: magic}}]",
		},
		{
			name: "malformed document",
			yaml: "modules: {id: docs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, models.ErrInvalidRegistry) {
				t.Errorf("Parse() error = %v, want %v", err, models.ErrInvalidRegistry)
			}
		})
	}
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write registry: %v", err)
	}

	provider := FileProvider{Path: path}
	modules, err := provider.Modules(context.Background())
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if len(modules) != 2 {
		t.Errorf("Modules() len = %d, want 2", len(modules))
	}

	// Edits are picked up on the next call.
	invalid := "modules: [{id: docs, path: /docs, versions: [{link: v9}]}]"
	if err := os.WriteFile(path, []byte(invalid), 0o600); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	if _, err := provider.Modules(context.Background()); !errors.Is(err, models.ErrDanglingLink) {
		t.Errorf("Modules() error = %v, want %v", err, models.ErrDanglingLink)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestEncode(t *testing.T) {
	modules, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	data, err := Encode(modules)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Encode()) error = %v\n%s", err, data)
	}
	if !reflect.DeepEqual(modules, again) {
		t.Errorf("Parse(Encode()) differs:\n%s", data)
	}

	_, err = Encode([]*models.Module{{ID: "x", Path: "/x", Generator: urlgen.Func(
		func(base, version, cluster string) (string, error) { return base, nil })}})
	if !errors.Is(err, models.ErrInvalidRegistry) {
		t.Errorf("Encode(func generator) error = %v, want %v", err, models.ErrInvalidRegistry)
	}
}
