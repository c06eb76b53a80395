// Package registry loads the Module → Version → Cluster hierarchy routes are
// generated from.
//
// Two sources are supported: a YAML file (LoadFile) and a SQLite database
// (Store). Both preserve registry order exactly, including link entries.
package registry

import (
	"context"

	"converge.io/converge/models"
)

// Provider supplies the ordered module sequence.
type Provider interface {
	Modules(ctx context.Context) ([]*models.Module, error)
}

// Static is a Provider over an in-memory module list.
type Static []*models.Module

// Modules returns the list as is.
func (s Static) Modules(context.Context) ([]*models.Module, error) {
	return s, nil
}
