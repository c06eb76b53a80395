package registry

import (
	"errors"
	"fmt"

	"converge.io/converge/models"
	"converge.io/converge/server/internal/util"
)

// Validate checks a module list before routes are generated from it.
//
// It rejects invalid identifiers and paths, duplicate ids within a scope,
// more than one default per scope and links whose target does not exist in
// the same scope. Every problem is reported; the returned error wraps each
// of them.
func Validate(modules []*models.Module) error {
	var errs []error
	moduleIDs := make(map[string]bool, len(modules))

	for _, m := range modules {
		if err := util.ValidateSegment(m.ID); err != nil {
			errs = append(errs, fmt.Errorf("%w: module: %v", models.ErrInvalidRegistry, err))
			continue
		}
		if moduleIDs[m.ID] {
			errs = append(errs, fmt.Errorf("%w: module %s", models.ErrDuplicateID, m.ID))
		}
		moduleIDs[m.ID] = true

		errs = append(errs, validateModule(m)...)
	}

	return errors.Join(errs...)
}

func validateModule(m *models.Module) []error {
	var errs []error
	scope := "module " + m.ID

	if err := util.ValidateRoutePath(m.Path); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s: %v", models.ErrInvalidRegistry, scope, err))
	}
	if m.QuietPath != "" {
		if err := util.ValidateRoutePath(m.QuietPath); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: quiet path: %v", models.ErrInvalidRegistry, scope, err))
		}
	}

	versionIDs := make(map[string]bool)
	defaults := 0
	for _, v := range models.ConcreteVersions(m.Versions) {
		if err := util.ValidateSegment(v.ID); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: version: %v", models.ErrInvalidRegistry, scope, err))
			continue
		}
		if versionIDs[v.ID] {
			errs = append(errs, fmt.Errorf("%w: %s: version %s", models.ErrDuplicateID, scope, v.ID))
		}
		versionIDs[v.ID] = true
		if v.Default {
			defaults++
		}
		errs = append(errs, validateClusters(scope+" version "+v.ID, v.Clusters)...)
	}
	if defaults > 1 {
		errs = append(errs, fmt.Errorf("%w: %s has %d default versions", models.ErrDuplicateDefault, scope, defaults))
	}

	for _, entry := range m.Versions {
		if entry.Link != nil && !versionIDs[entry.Link.Target] {
			errs = append(errs, fmt.Errorf("%w: %s: version link to %q", models.ErrDanglingLink, scope, entry.Link.Target))
		}
	}

	errs = append(errs, validateClusters(scope, m.Clusters)...)
	return errs
}

func validateClusters(scope string, entries []models.ClusterEntry) []error {
	var errs []error
	ids := make(map[string]bool)
	defaults := 0

	for _, c := range models.ConcreteClusters(entries) {
		if err := util.ValidateSegment(c.ID); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: cluster: %v", models.ErrInvalidRegistry, scope, err))
			continue
		}
		if ids[c.ID] {
			errs = append(errs, fmt.Errorf("%w: %s: cluster %s", models.ErrDuplicateID, scope, c.ID))
		}
		ids[c.ID] = true
		if c.Default {
			defaults++
		}
	}
	if defaults > 1 {
		errs = append(errs, fmt.Errorf("%w: %s has %d default clusters", models.ErrDuplicateDefault, scope, defaults))
	}

	for _, entry := range entries {
		if entry.Link != nil && !ids[entry.Link.Target] {
			errs = append(errs, fmt.Errorf("%w: %s: cluster link to %q", models.ErrDanglingLink, scope, entry.Link.Target))
		}
	}
	return errs
}
