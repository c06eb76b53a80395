package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"converge.io/converge/models"
)

const testRegistry = `
modules:
  - id: docs
    path: /docs
    domain: example.com
    versions:
      - id: v1
        clusters:
          - id: eu
      - id: v2
`

// run executes the root command with fresh flag state and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	routesSource, validateSource, exportSource = registrySource{}, registrySource{}, registrySource{}
	routesModule, routesJSON, routesURL, routesParams = "", false, "", nil
	importFile, importDB, exportOut = "", "", ""
	logLevel, logFormat = "error", "console"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeRegistry(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	return path
}

func TestRoutesCommand(t *testing.T) {
	path := writeRegistry(t, testRegistry)

	out, err := run(t, "routes", "--registry", path)
	if err != nil {
		t.Fatalf("routes: %v\n%s", err, out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.HasPrefix(lines[0], "METHOD") {
		t.Errorf("missing header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "/docs/v1/eu/converge/search/endpoint") || !strings.Contains(lines[1], "docs,eu") {
		t.Errorf("first route = %q", lines[1])
	}
	if !strings.HasSuffix(out, "12 routes\n") {
		t.Errorf("expected 12 routes, got:\n%s", out)
	}
}

func TestRoutesCommand_URL(t *testing.T) {
	path := writeRegistry(t, testRegistry)

	out, err := run(t, "routes", "--registry", path, "--url", "docs.v1.show", "--param", "resource=intro")
	if err != nil {
		t.Fatalf("routes --url: %v", err)
	}
	if strings.TrimSpace(out) != "/docs/v1/intro" {
		t.Errorf("url = %q, want /docs/v1/intro", out)
	}

	if _, err := run(t, "routes", "--registry", path, "--url", "docs.show", "--param", "resource=v1"); err == nil {
		t.Error("expected error for a resource shadowing a version")
	}
	if _, err := run(t, "routes", "--registry", path, "--url", "docs", "--param", "broken"); err == nil {
		t.Error("expected error for a malformed --param")
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", "--registry", writeRegistry(t, testRegistry))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "1 modules, 12 routes") {
		t.Errorf("unexpected output: %q", out)
	}

	invalid := `
modules:
  - id: docs
    path: /docs
    versions:
      - link: v9
`
	if _, err := run(t, "validate", "--registry", writeRegistry(t, invalid)); err == nil {
		t.Error("expected validation error for a dangling link")
	}
}

func TestRegistrySource_Exclusive(t *testing.T) {
	if _, err := run(t, "validate", "--registry", "a.yaml", "--db", "b.db"); err == nil {
		t.Error("expected error when both sources are set")
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	path := writeRegistry(t, testRegistry)
	db := filepath.Join(t.TempDir(), "converge.db")

	if _, err := run(t, "import", "--registry", path, "--db", db); err != nil {
		t.Fatalf("import: %v", err)
	}

	fromFile, err := run(t, "routes", "--registry", path)
	if err != nil {
		t.Fatalf("routes --registry: %v", err)
	}
	fromDB, err := run(t, "routes", "--db", db)
	if err != nil {
		t.Fatalf("routes --db: %v", err)
	}
	if fromFile != fromDB {
		t.Errorf("routes differ between sources:\nfile:\n%s\ndb:\n%s", fromFile, fromDB)
	}

	exported := filepath.Join(t.TempDir(), "exported.yaml")
	if _, err := run(t, "export", "--db", db, "--out", exported); err != nil {
		t.Fatalf("export: %v", err)
	}
	fromExport, err := run(t, "routes", "--registry", exported)
	if err != nil {
		t.Fatalf("routes from export: %v", err)
	}
	if fromExport != fromFile {
		t.Errorf("exported registry generates different routes:\n%s", fromExport)
	}
}

func TestServeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     serveConfig
		wantErr bool
	}{
		{"defaults", serveConfig{ListenAddr: ":8080"}, false},
		{"bad listen", serveConfig{ListenAddr: "8080"}, true},
		{"bad instance", serveConfig{ListenAddr: ":8080", InstanceID: "nope"}, true},
		{"bad proxy", serveConfig{ListenAddr: ":8080", TrustedProxies: "10.0.0.0/8,not-an-ip"}, true},
		{"secret without token", serveConfig{ListenAddr: ":8080", HMACSecret: "s"}, true},
		{"negative rate", serveConfig{ListenAddr: ":8080", RateLimitRPS: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.cfg.InstanceID == "" {
				t.Error("instance ID not generated")
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitList() = %v", got)
	}
	if splitList("") != nil {
		t.Error("splitList(\"\") should be nil")
	}
}

func TestRunServe_BootstrapFailure(t *testing.T) {
	invalid := `
modules:
  - id: docs
    path: /docs
    versions:
      - link: v9
`
	logLevel, logFormat = "error", "console"
	cfg := serveConfig{
		ListenAddr: "127.0.0.1:18080",
		registry:   registrySource{file: writeRegistry(t, invalid)},
	}

	err := runServe(context.Background(), &cfg)
	if !errors.Is(err, models.ErrDanglingLink) {
		t.Fatalf("runServe() error = %v, want %v", err, models.ErrDanglingLink)
	}
}
