package models

import "converge.io/converge/pkg/urlgen"

// Cluster is a named sub-routing variant of a module or a version,
// such as a region ("eu") or an environment ("staging").
type Cluster struct {
	// ID is the cluster route segment (e.g., "eu").
	ID string `json:"id" db:"id"`

	// Default marks the canonical cluster of its scope.
	// The default cluster gets no cluster-scoped route.
	Default bool `json:"default,omitempty" db:"is_default"`

	// Domain overrides the owning module's domain for this cluster's routes.
	// Empty inherits the module domain.
	Domain Domain `json:"domain,omitempty" db:"domain"`

	// Generator computes the cluster URI.
	// Nil selects urlgen.Segments.
	Generator urlgen.Generator `json:"-"`
}

// URLGenerator returns the cluster's generator or the default one.
func (c *Cluster) URLGenerator() urlgen.Generator {
	return generatorOrDefault(c.Generator)
}

// DomainOr returns the cluster's domain override, or fallback when none is set.
func (c *Cluster) DomainOr(fallback Domain) Domain {
	if !c.Domain.IsZero() {
		return c.Domain
	}
	return fallback
}

// ClusterEntry is one element of a cluster collection.
// Exactly one of Cluster and Link is set.
type ClusterEntry struct {
	Cluster *Cluster `json:"cluster,omitempty"`
	Link    *Link    `json:"link,omitempty"`
}

// Concrete returns the entry's cluster when the entry is not a link.
func (e ClusterEntry) Concrete() (*Cluster, bool) {
	return e.Cluster, e.Cluster != nil
}

// ConcreteClusters filters a cluster collection down to concrete clusters,
// preserving order.
func ConcreteClusters(entries []ClusterEntry) []*Cluster {
	clusters := make([]*Cluster, 0, len(entries))
	for _, entry := range entries {
		if c, ok := entry.Concrete(); ok {
			clusters = append(clusters, c)
		}
	}
	return clusters
}

// FindCluster returns the concrete cluster with the given id from a collection.
func FindCluster(entries []ClusterEntry, id string) (*Cluster, bool) {
	for _, c := range ConcreteClusters(entries) {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func defaultCluster(entries []ClusterEntry) *Cluster {
	for _, c := range ConcreteClusters(entries) {
		if c.Default {
			return c
		}
	}
	return nil
}
