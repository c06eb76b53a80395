package registry

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"converge.io/converge/models"
	"converge.io/converge/pkg/urlgen"
	"converge.io/converge/server/internal/metrics"
)

// Document is the YAML registry format.
//
//	domains: {primary: docs.example.com}
//	modules:
//	  - id: docs
//	    path: /docs
//	    domain: {ref: primary}
//	    versions:
//	      - id: v1
//	        clusters: [{id: eu, domain: eu.example.com}, {link: eu}]
//	      - link: v1
type Document struct {
	Domains map[string]string `yaml:"domains,omitempty"`
	Modules []ModuleDoc       `yaml:"modules"`
}

// ModuleDoc is one module of a registry document.
type ModuleDoc struct {
	ID        string       `yaml:"id"`
	Path      string       `yaml:"path"`
	QuietPath string       `yaml:"quiet_path,omitempty"`
	Domain    DomainRef    `yaml:"domain,omitempty"`
	Generator *urlgen.Spec `yaml:"generator,omitempty"`
	Versions  []VersionDoc `yaml:"versions,omitempty"`
	Clusters  []ClusterDoc `yaml:"clusters,omitempty"`
}

// VersionDoc is a version entry. Link entries set only Link.
type VersionDoc struct {
	ID        string       `yaml:"id,omitempty"`
	Link      string       `yaml:"link,omitempty"`
	Default   bool         `yaml:"default,omitempty"`
	Generator *urlgen.Spec `yaml:"generator,omitempty"`
	Clusters  []ClusterDoc `yaml:"clusters,omitempty"`
}

// ClusterDoc is a cluster entry. Link entries set only Link.
type ClusterDoc struct {
	ID        string       `yaml:"id,omitempty"`
	Link      string       `yaml:"link,omitempty"`
	Default   bool         `yaml:"default,omitempty"`
	Domain    DomainRef    `yaml:"domain,omitempty"`
	Generator *urlgen.Spec `yaml:"generator,omitempty"`
}

// DomainRef is a domain given either literally ("docs.example.com") or as a
// reference to a named domain ({ref: primary}).
type DomainRef struct {
	Host string
	Ref  string
}

// UnmarshalYAML accepts a scalar host or a {ref: name} mapping.
func (d *DomainRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		d.Host = value.Value
		return nil
	case yaml.MappingNode:
		var ref struct {
			Ref string `yaml:"ref"`
		}
		if err := value.Decode(&ref); err != nil {
			return err
		}
		if ref.Ref == "" {
			return fmt.Errorf("line %d: domain reference requires 'ref'", value.Line)
		}
		d.Ref = ref.Ref
		return nil
	default:
		return fmt.Errorf("line %d: domain must be a host name or {ref: name}", value.Line)
	}
}

// MarshalYAML writes the reference form when set, the host otherwise.
func (d DomainRef) MarshalYAML() (interface{}, error) {
	if d.Ref != "" {
		return map[string]string{"ref": d.Ref}, nil
	}
	return d.Host, nil
}

// IsZero reports whether no domain is given, for omitempty.
func (d DomainRef) IsZero() bool {
	return d.Host == "" && d.Ref == ""
}

// resolve normalizes the domain, following references into named.
func (d DomainRef) resolve(named map[string]string) (models.Domain, error) {
	host := d.Host
	if d.Ref != "" {
		h, ok := named[d.Ref]
		if !ok {
			return models.NoDomain, fmt.Errorf("%w: unknown domain reference %q", models.ErrInvalidRegistry, d.Ref)
		}
		host = h
	}
	return models.ParseDomain(host)
}

// Parse decodes a YAML registry document into modules.
func Parse(data []byte) ([]*models.Module, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidRegistry, err)
	}
	return doc.Build()
}

// Build converts the document into modules, resolving domains and generators.
func (doc *Document) Build() ([]*models.Module, error) {
	modules := make([]*models.Module, 0, len(doc.Modules))
	for i, md := range doc.Modules {
		m, err := md.build(doc.Domains)
		if err != nil {
			return nil, fmt.Errorf("module %d (%s): %w", i, md.ID, err)
		}
		modules = append(modules, m)
	}
	return modules, nil
}

func (md ModuleDoc) build(named map[string]string) (*models.Module, error) {
	domain, err := md.Domain.resolve(named)
	if err != nil {
		return nil, err
	}
	gen, err := buildGenerator(md.Generator)
	if err != nil {
		return nil, err
	}

	m := &models.Module{
		ID:        md.ID,
		Path:      md.Path,
		QuietPath: md.QuietPath,
		Domain:    domain,
		Generator: gen,
	}

	for _, vd := range md.Versions {
		entry, err := vd.build(named)
		if err != nil {
			return nil, err
		}
		m.Versions = append(m.Versions, entry)
	}

	m.Clusters, err = buildClusters(md.Clusters, named)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (vd VersionDoc) build(named map[string]string) (models.VersionEntry, error) {
	if vd.Link != "" {
		if vd.ID != "" || len(vd.Clusters) > 0 {
			return models.VersionEntry{}, fmt.Errorf("%w: version link %q must not declare an id or clusters", models.ErrInvalidRegistry, vd.Link)
		}
		return models.VersionEntry{Link: &models.Link{Target: vd.Link}}, nil
	}

	gen, err := buildGenerator(vd.Generator)
	if err != nil {
		return models.VersionEntry{}, fmt.Errorf("version %s: %w", vd.ID, err)
	}
	clusters, err := buildClusters(vd.Clusters, named)
	if err != nil {
		return models.VersionEntry{}, fmt.Errorf("version %s: %w", vd.ID, err)
	}

	return models.VersionEntry{Version: &models.Version{
		ID:        vd.ID,
		Default:   vd.Default,
		Clusters:  clusters,
		Generator: gen,
	}}, nil
}

func buildClusters(docs []ClusterDoc, named map[string]string) ([]models.ClusterEntry, error) {
	var entries []models.ClusterEntry
	for _, cd := range docs {
		if cd.Link != "" {
			if cd.ID != "" {
				return nil, fmt.Errorf("%w: cluster link %q must not declare an id", models.ErrInvalidRegistry, cd.Link)
			}
			entries = append(entries, models.ClusterEntry{Link: &models.Link{Target: cd.Link}})
			continue
		}

		domain, err := cd.Domain.resolve(named)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", cd.ID, err)
		}
		gen, err := buildGenerator(cd.Generator)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", cd.ID, err)
		}
		entries = append(entries, models.ClusterEntry{Cluster: &models.Cluster{
			ID:        cd.ID,
			Default:   cd.Default,
			Domain:    domain,
			Generator: gen,
		}})
	}
	return entries, nil
}

func buildGenerator(spec *urlgen.Spec) (urlgen.Generator, error) {
	if spec == nil {
		return nil, nil
	}
	gen, err := urlgen.FromSpec(*spec)
	if err != nil {
		return nil, fmt.Errorf("%w: generator: %v", models.ErrInvalidRegistry, err)
	}
	return gen, nil
}

// FileProvider reads the registry from a YAML file on every call,
// so a reload picks up edits.
type FileProvider struct {
	Path string
}

// Modules loads and validates the file.
func (p FileProvider) Modules(ctx context.Context) ([]*models.Module, error) {
	modules, err := LoadFile(p.Path)
	if err == nil {
		err = Validate(modules)
	}
	metrics.RegistryLoads.WithLabelValues("file", metrics.StatusLabel(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.RegistryModules.Set(float64(len(modules)))
	return modules, nil
}

// LoadFile reads and parses a YAML registry file.
func LoadFile(path string) ([]*models.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	modules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return modules, nil
}
