package registry

import (
	"fmt"

	"converge.io/converge/models"
)

// Index resolves binding identifiers against a loaded module list.
// It is immutable and safe for concurrent use.
type Index struct {
	modules map[string]*models.Module
	count   int
}

// NewIndex indexes modules by id. Later duplicates are ignored.
func NewIndex(modules []*models.Module) *Index {
	idx := &Index{modules: make(map[string]*models.Module, len(modules))}
	for _, m := range modules {
		if _, exists := idx.modules[m.ID]; !exists {
			idx.modules[m.ID] = m
		}
	}
	idx.count = len(idx.modules)
	return idx
}

// Len returns the number of indexed modules.
func (idx *Index) Len() int {
	return idx.count
}

// Module returns the module with the given id.
func (idx *Index) Module(id string) (*models.Module, error) {
	m, ok := idx.modules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrModuleNotFound, id)
	}
	return m, nil
}

// Version returns the version a binding pins. Without a version id it
// returns the module's default version, which may be nil.
func (idx *Index) Version(moduleID, versionID string) (*models.Version, error) {
	m, err := idx.Module(moduleID)
	if err != nil {
		return nil, err
	}
	if versionID == "" {
		return m.DefaultVersion(), nil
	}
	v, ok := m.FindVersion(versionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", models.ErrVersionNotFound, moduleID, versionID)
	}
	return v, nil
}

// Cluster returns the cluster a binding pins. A binding that names a version
// looks in that version's clusters first and the module-level clusters
// second; a binding without a version only sees module-level clusters.
// Without a cluster id it returns the default cluster of the bound (or
// default) version, then of the module, which may be nil.
func (idx *Index) Cluster(moduleID, versionID, clusterID string) (*models.Cluster, error) {
	m, err := idx.Module(moduleID)
	if err != nil {
		return nil, err
	}

	if clusterID != "" && versionID == "" {
		if c, ok := models.FindCluster(m.Clusters, clusterID); ok {
			return c, nil
		}
		return nil, fmt.Errorf("%w: %s/%s", models.ErrClusterNotFound, moduleID, clusterID)
	}

	v, err := idx.Version(moduleID, versionID)
	if err != nil {
		return nil, err
	}

	if clusterID == "" {
		if v != nil {
			if c := v.DefaultCluster(); c != nil {
				return c, nil
			}
		}
		return m.DefaultCluster(), nil
	}

	if c, ok := models.FindCluster(v.Clusters, clusterID); ok {
		return c, nil
	}
	if c, ok := models.FindCluster(m.Clusters, clusterID); ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s/%s/%s", models.ErrClusterNotFound, moduleID, versionID, clusterID)
}
