package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"converge.io/converge/models"
	"converge.io/converge/pkg/urlgen"
)

// NewDocument describes modules as a registry document.
// Domains are written literally.
func NewDocument(modules []*models.Module) (*Document, error) {
	doc := &Document{Modules: make([]ModuleDoc, 0, len(modules))}
	for _, m := range modules {
		md := ModuleDoc{
			ID:        m.ID,
			Path:      m.Path,
			QuietPath: m.QuietPath,
			Domain:    DomainRef{Host: m.Domain.String()},
		}
		var err error
		if md.Generator, err = describeGenerator(m.Generator); err != nil {
			return nil, fmt.Errorf("module %s: %w", m.ID, err)
		}

		for _, entry := range m.Versions {
			if entry.Link != nil {
				md.Versions = append(md.Versions, VersionDoc{Link: entry.Link.Target})
				continue
			}
			v := entry.Version
			vd := VersionDoc{ID: v.ID, Default: v.Default}
			if vd.Generator, err = describeGenerator(v.Generator); err != nil {
				return nil, fmt.Errorf("module %s version %s: %w", m.ID, v.ID, err)
			}
			if vd.Clusters, err = describeClusters(v.Clusters); err != nil {
				return nil, fmt.Errorf("module %s version %s: %w", m.ID, v.ID, err)
			}
			md.Versions = append(md.Versions, vd)
		}

		if md.Clusters, err = describeClusters(m.Clusters); err != nil {
			return nil, fmt.Errorf("module %s: %w", m.ID, err)
		}
		doc.Modules = append(doc.Modules, md)
	}
	return doc, nil
}

// Encode renders modules as a YAML registry document.
func Encode(modules []*models.Module) ([]byte, error) {
	doc, err := NewDocument(modules)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

func describeClusters(entries []models.ClusterEntry) ([]ClusterDoc, error) {
	var docs []ClusterDoc
	for _, entry := range entries {
		if entry.Link != nil {
			docs = append(docs, ClusterDoc{Link: entry.Link.Target})
			continue
		}
		c := entry.Cluster
		cd := ClusterDoc{ID: c.ID, Default: c.Default, Domain: DomainRef{Host: c.Domain.String()}}
		gen, err := describeGenerator(c.Generator)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", c.ID, err)
		}
		cd.Generator = gen
		docs = append(docs, cd)
	}
	return docs, nil
}

// describeGenerator returns nil for the default generator.
func describeGenerator(g urlgen.Generator) (*urlgen.Spec, error) {
	spec, ok := urlgen.SpecOf(g)
	if !ok {
		return nil, fmt.Errorf("%w: generator %T cannot be described", models.ErrInvalidRegistry, g)
	}
	if spec.Kind == urlgen.KindSegments {
		return nil, nil
	}
	return &spec, nil
}
