// Package api provides the HTTP surface of the Converge server.
//
// It owns the live route table generated from the module registry, the
// admin API reporting on it, and the Gin engine dispatching requests to
// both.
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"converge.io/converge/models"
	"converge.io/converge/server/internal/api/handlers"
	"converge.io/converge/server/internal/api/middleware"
	"converge.io/converge/server/internal/metrics"
	"converge.io/converge/server/internal/registry"
	"converge.io/converge/server/internal/routetable"
	"converge.io/converge/server/internal/routing"
)

// errNotLoaded is reported by readiness checks before the first generation.
var errNotLoaded = errors.New("route table not loaded")

// pinger is implemented by providers backed by a database.
type pinger interface {
	Ping(ctx context.Context) error
}

// snapshot is one generated route table with the registry it was built from.
type snapshot struct {
	table   *routetable.Table
	modules int
}

// LiveRoutes holds the route table currently serving requests.
//
// Reload generates a complete new table before swapping it in, so requests
// always see either the old table or the new one.
type LiveRoutes struct {
	provider registry.Provider
	logger   *zap.Logger
	limiter  *middleware.RateLimiter

	mu      sync.Mutex
	current atomic.Pointer[snapshot]
}

// NewLiveRoutes creates a holder reading modules from provider.
// No table is loaded until Reload succeeds.
//
// Parameters:
//   - provider: Source of the module registry
//   - logger: Logger for generation events
//   - limiter: Per-module rate limiter shared by every table, or nil
func NewLiveRoutes(provider registry.Provider, logger *zap.Logger, limiter *middleware.RateLimiter) *LiveRoutes {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveRoutes{
		provider: provider,
		logger:   logger.With(zap.String("component", "routes")),
		limiter:  limiter,
	}
}

// BuildTable validates modules and generates their route table.
//
// The returned table dispatches to the content handlers, with the binding
// stages resolving against an index of the same modules.
func BuildTable(ctx context.Context, modules []*models.Module, logger *zap.Logger, limiter *middleware.RateLimiter) (*routetable.Table, error) {
	if err := registry.Validate(modules); err != nil {
		return nil, err
	}

	table := routetable.New()
	content := handlers.NewContentHandler(table)
	binder := middleware.NewBinder(registry.NewIndex(modules), limiter)
	registrar := routing.NewTableRegistrar(table, binder, content.Handlers())

	if _, err := routing.NewWalker(registrar, logger).Generate(ctx, registry.Static(modules)); err != nil {
		return nil, err
	}
	return table, nil
}

// Reload reads the registry, generates a new table and swaps it in.
// On any error the current table keeps serving.
func (l *LiveRoutes) Reload(ctx context.Context) (models.ReloadResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	modules, err := l.provider.Modules(ctx)
	if err != nil {
		return models.ReloadResponse{}, fmt.Errorf("load registry: %w", err)
	}

	table, err := BuildTable(ctx, modules, l.logger, l.limiter)
	if err != nil {
		l.logger.Warn("Route table not replaced", zap.Error(err))
		return models.ReloadResponse{}, err
	}

	l.current.Store(&snapshot{table: table, modules: len(modules)})
	metrics.RecordRouteTable(table.CountByModule())

	l.logger.Info("Route table loaded",
		zap.Int("routes", table.Len()),
		zap.Int("modules", len(modules)))

	return models.ReloadResponse{Routes: table.Len(), Modules: len(modules)}, nil
}

// Table returns the table currently serving requests, or nil before the
// first successful Reload.
func (l *LiveRoutes) Table() *routetable.Table {
	if s := l.current.Load(); s != nil {
		return s.table
	}
	return nil
}

// Ready reports whether requests can be served: a table is loaded and, for
// database-backed registries, the database answers.
func (l *LiveRoutes) Ready(ctx context.Context) error {
	if l.current.Load() == nil {
		return errNotLoaded
	}
	if p, ok := l.provider.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Handler dispatches requests to the current table.
// Requests arriving before the first Reload are answered 404.
func (l *LiveRoutes) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := l.current.Load()
		if s == nil {
			handlers.NotFound(c)
			return
		}
		s.table.Handler(handlers.NotFound)(c)
	}
}
