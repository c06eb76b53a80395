package routing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"converge.io/converge/models"
	"converge.io/converge/pkg/pattern"
	"converge.io/converge/server/internal/logging"
	"converge.io/converge/server/internal/metrics"
	"converge.io/converge/server/internal/registry"
)

// Walker generates route registrations from the module hierarchy.
type Walker struct {
	registrar Registrar
	logger    *zap.Logger
}

// NewWalker creates a walker.
//
// Parameters:
//   - registrar: Receives every registration, in order
//   - logger: Zap logger
//
// Returns:
//   - Configured Walker
func NewWalker(registrar Registrar, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		registrar: registrar,
		logger:    logger.With(zap.String(logging.FieldComponent, "walker")),
	}
}

// Generate loads the modules from the provider, plans their registrations and
// hands them to the registrar.
//
// Generation is all-or-nothing: the plan is built and validated before the
// first registration, and any error aborts the pass.
//
// Parameters:
//   - ctx: Context passed to the provider
//   - provider: Ordered module source
//
// Returns:
//   - Number of registrations emitted
//   - Error if loading, planning, validation or registration fails
func (w *Walker) Generate(ctx context.Context, provider registry.Provider) (n int, err error) {
	start := time.Now()
	defer func() {
		metrics.RouteGenerations.WithLabelValues(metrics.StatusLabel(err)).Inc()
		metrics.RouteGenerationDuration.Observe(time.Since(start).Seconds())
	}()

	modules, err := provider.Modules(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load modules: %w", err)
	}

	plan, err := w.Plan(modules)
	if err != nil {
		return 0, err
	}

	for _, reg := range plan {
		if err := w.registrar.Register(reg); err != nil {
			return 0, fmt.Errorf("%w: %s: %w", models.ErrRouteGeneration, reg.Name, err)
		}
		w.logger.Debug("Registered routes",
			zap.String(logging.FieldRouteName, reg.Name),
			zap.String(logging.FieldURI, reg.URI),
			zap.String(logging.FieldDomain, reg.Domain.String()),
			zap.String(logging.FieldPattern, reg.Pattern.String()))
	}

	w.logger.Info("Generated routes",
		zap.Int("modules", len(modules)),
		zap.Int("registrations", len(plan)),
		zap.Duration(logging.FieldDuration, time.Since(start)))

	return len(plan), nil
}

// Plan computes the ordered registrations of the modules and validates them.
//
// Per module, version-scoped clusters come first, then the version itself,
// then module-level clusters, and the module's quiet registration last.
// Links and default entities produce no registration.
func (w *Walker) Plan(modules []*models.Module) ([]Registration, error) {
	var plan []Registration
	for _, m := range modules {
		regs, err := planModule(m)
		if err != nil {
			return nil, fmt.Errorf("%w: module %s: %w", models.ErrRouteGeneration, m.ID, err)
		}
		plan = append(plan, regs...)
	}

	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func planModule(m *models.Module) ([]Registration, error) {
	gen := m.URLGenerator()

	rawURI, err := gen.Generate(m.Path, "", "")
	if err != nil {
		return nil, fmt.Errorf("raw URI: %w", err)
	}
	quietURI, err := gen.Generate(m.QuietRoutePath(), "", "")
	if err != nil {
		return nil, fmt.Errorf("quiet URI: %w", err)
	}

	var regs []Registration
	versions := models.ConcreteVersions(m.Versions)
	segments := make([]string, 0, len(versions))

	for _, v := range versions {
		segments = append(segments, v.ID)

		for _, c := range models.ConcreteClusters(v.Clusters) {
			if c.Default {
				continue
			}
			uri, err := c.URLGenerator().Generate(rawURI, v.ID, c.ID)
			if err != nil {
				return nil, fmt.Errorf("cluster %s of version %s: %w", c.ID, v.ID, err)
			}
			regs = append(regs, Registration{
				URI:     uri,
				Name:    routeName(m.ID, v.ID, c.ID),
				Domain:  c.DomainOr(m.Domain),
				Pattern: pattern.Any,
				Binding: models.Binding{ModuleID: m.ID, VersionID: v.ID, ClusterID: c.ID},
			})
		}

		if v.Default {
			continue
		}
		uri, err := v.URLGenerator().Generate(rawURI, v.ID, "")
		if err != nil {
			return nil, fmt.Errorf("version %s: %w", v.ID, err)
		}
		regs = append(regs, Registration{
			URI:     uri,
			Name:    routeName(m.ID, v.ID),
			Domain:  m.Domain,
			Pattern: pattern.Any,
			Binding: models.Binding{ModuleID: m.ID, VersionID: v.ID},
		})
	}

	for _, c := range models.ConcreteClusters(m.Clusters) {
		if c.Default {
			continue
		}
		uri, err := c.URLGenerator().Generate(quietURI, "", c.ID)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", c.ID, err)
		}
		regs = append(regs, Registration{
			URI:     uri,
			Name:    routeName(m.ID, c.ID),
			Domain:  c.DomainOr(m.Domain),
			Pattern: pattern.Any,
			Binding: models.Binding{ModuleID: m.ID, ClusterID: c.ID},
		})
	}

	regs = append(regs, Registration{
		URI:     quietURI,
		Name:    m.ID,
		Domain:  m.Domain,
		Pattern: pattern.Exclude(segments...),
		Binding: models.Binding{ModuleID: m.ID},
	})

	return regs, nil
}
