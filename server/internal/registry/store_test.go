package registry

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"converge.io/converge/models"
	"converge.io/converge/pkg/urlgen"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	core, _ := observer.New(zap.InfoLevel)
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "registry.db"), zap.New(core))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ImportAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	modules, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	template, err := urlgen.NewTemplate("{base}/{cluster}-{version}")
	if err != nil {
		t.Fatalf("NewTemplate() error = %v", err)
	}
	modules[0].Versions[0].Version.Clusters[0].Cluster.Generator = template

	if err := s.Import(ctx, modules); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	loaded, err := s.Modules(ctx)
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, modules) {
		t.Errorf("Modules() differs from imported registry")
		for i := range loaded {
			t.Logf("loaded[%d] = %+v", i, loaded[i])
		}
	}
}

func TestStore_ImportReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []*models.Module{{ID: "docs", Path: "/docs"}, {ID: "blog", Path: "/blog"}}
	if err := s.Import(ctx, first); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	second := []*models.Module{{ID: "api", Path: "/api"}}
	if err := s.Import(ctx, second); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	loaded, err := s.Modules(ctx)
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "api" {
		t.Errorf("Modules() = %+v, want only api", loaded)
	}
}

func TestStore_OrderPreserved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Ids are deliberately out of lexical order.
	modules := []*models.Module{
		{ID: "zeta", Path: "/zeta", Versions: []models.VersionEntry{
			{Version: &models.Version{ID: "v9"}},
			{Link: &models.Link{Target: "v9"}},
			{Version: &models.Version{ID: "v1"}},
		}},
		{ID: "alpha", Path: "/alpha"},
	}
	if err := s.Import(ctx, modules); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	loaded, err := s.Modules(ctx)
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if loaded[0].ID != "zeta" || loaded[1].ID != "alpha" {
		t.Errorf("module order = %s, %s", loaded[0].ID, loaded[1].ID)
	}
	if !reflect.DeepEqual(loaded[0].Versions, modules[0].Versions) {
		t.Errorf("versions = %+v", loaded[0].Versions)
	}
}

func TestStore_ImportRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Import(ctx, []*models.Module{{ID: "docs", Path: "/docs"}}); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	bad := []*models.Module{
		{ID: "api", Path: "/api"},
		{ID: "fn", Path: "/fn", Generator: urlgen.Func(func(base, _, _ string) (string, error) { return base, nil })},
	}
	if err := s.Import(ctx, bad); !errors.Is(err, models.ErrInvalidRegistry) {
		t.Fatalf("Import() error = %v, want %v", err, models.ErrInvalidRegistry)
	}

	loaded, err := s.Modules(ctx)
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "docs" {
		t.Errorf("Modules() after failed import = %+v, want previous registry", loaded)
	}
}

func TestStore_Empty(t *testing.T) {
	loaded, err := newTestStore(t).Modules(context.Background())
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Modules() len = %d, want 0", len(loaded))
	}
}
