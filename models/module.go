package models

import "converge.io/converge/pkg/urlgen"

// Module is a top-level content unit exposed at a base URL.
// A module optionally carries versions and module-level clusters; both child
// collections keep registry order and may contain links.
type Module struct {
	// ID is the unique module identifier (e.g., "docs").
	// It is also the base of every route name generated for the module.
	ID string `json:"id" db:"id"`

	// Path is the raw route path of the module (e.g., "/docs").
	// Version and version-scoped cluster URIs are generated from it.
	Path string `json:"path" db:"path"`

	// QuietPath is the effective canonical path of the module.
	// It differs from Path when versioning rewrites the canonical URL.
	// Defaults to Path when empty.
	QuietPath string `json:"quiet_path,omitempty" db:"quiet_path"`

	// Domain restricts the module's routes to one host.
	// Empty means the routes match any host.
	Domain Domain `json:"domain,omitempty" db:"domain"`

	// Versions is the ordered version collection.
	Versions []VersionEntry `json:"versions,omitempty"`

	// Clusters is the ordered module-level (version independent) cluster collection.
	Clusters []ClusterEntry `json:"clusters,omitempty"`

	// Generator computes the raw and quiet URIs of the module.
	// Nil selects urlgen.Segments.
	Generator urlgen.Generator `json:"-"`
}

// QuietRoutePath returns the quiet path, falling back to the raw path.
func (m *Module) QuietRoutePath() string {
	if m.QuietPath != "" {
		return m.QuietPath
	}
	return m.Path
}

// URLGenerator returns the module's generator or the default one.
func (m *Module) URLGenerator() urlgen.Generator {
	return generatorOrDefault(m.Generator)
}

// DefaultVersion returns the module's default version, or nil.
func (m *Module) DefaultVersion() *Version {
	for _, v := range ConcreteVersions(m.Versions) {
		if v.Default {
			return v
		}
	}
	return nil
}

// DefaultCluster returns the module's default module-level cluster, or nil.
func (m *Module) DefaultCluster() *Cluster {
	return defaultCluster(m.Clusters)
}

// Version is a pinned release variant of a module's content.
type Version struct {
	// ID is the version route segment (e.g., "v1").
	ID string `json:"id" db:"id"`

	// Default marks the canonical version. The default version gets no
	// version-scoped route and is served through the module's quiet path.
	Default bool `json:"default,omitempty" db:"is_default"`

	// Clusters is the ordered version-scoped cluster collection.
	Clusters []ClusterEntry `json:"clusters,omitempty"`

	// Generator computes the version URI from the module's raw URI.
	// Nil selects urlgen.Segments.
	Generator urlgen.Generator `json:"-"`
}

// URLGenerator returns the version's generator or the default one.
func (v *Version) URLGenerator() urlgen.Generator {
	return generatorOrDefault(v.Generator)
}

// DefaultCluster returns the version's default cluster, or nil.
func (v *Version) DefaultCluster() *Cluster {
	return defaultCluster(v.Clusters)
}

// Link is a placeholder entry that references another entity by identifier.
// Links are never routable and are skipped wherever child collections are walked.
type Link struct {
	// Target is the identifier of the referenced entity in the same scope.
	Target string `json:"target" db:"link_target"`
}

// VersionEntry is one element of a module's version collection.
// Exactly one of Version and Link is set.
type VersionEntry struct {
	Version *Version `json:"version,omitempty"`
	Link    *Link    `json:"link,omitempty"`
}

// Concrete returns the entry's version when the entry is not a link.
func (e VersionEntry) Concrete() (*Version, bool) {
	return e.Version, e.Version != nil
}

// ConcreteVersions filters a version collection down to concrete versions,
// preserving order.
func ConcreteVersions(entries []VersionEntry) []*Version {
	versions := make([]*Version, 0, len(entries))
	for _, entry := range entries {
		if v, ok := entry.Concrete(); ok {
			versions = append(versions, v)
		}
	}
	return versions
}

// FindVersion returns the concrete version with the given id.
func (m *Module) FindVersion(id string) (*Version, bool) {
	for _, v := range ConcreteVersions(m.Versions) {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

func generatorOrDefault(g urlgen.Generator) urlgen.Generator {
	if g == nil {
		return urlgen.Segments{}
	}
	return g
}
