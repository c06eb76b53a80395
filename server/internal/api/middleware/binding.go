package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"converge.io/converge/models"
	"converge.io/converge/server/internal/logging"
	"converge.io/converge/server/internal/metrics"
)

// Context keys set by the binding stages.
const (
	ContextKeyBinding = "binding"
	ContextKeyModule  = "module"
	ContextKeyVersion = "version"
	ContextKeyCluster = "cluster"
)

// Resolver resolves binding identifiers into registry entities.
//
// Version and Cluster return the scope's default entity, possibly nil, when
// the binding leaves the axis empty.
type Resolver interface {
	Module(id string) (*models.Module, error)
	Version(moduleID, versionID string) (*models.Version, error)
	Cluster(moduleID, versionID, clusterID string) (*models.Cluster, error)
}

// Binder builds the context-binding stages of generated routes.
//
// The stages run inside the route table's handler chain, one after the
// other, and never call c.Next. A stage that fails aborts the request.
type Binder struct {
	resolver      Resolver
	moduleLimiter *RateLimiter
}

// NewBinder creates a binder.
//
// Parameters:
//   - resolver: Entity lookup for the current registry
//   - moduleLimiter: Optional per-module rate limiter; nil disables it
//
// Returns:
//   - Configured Binder
func NewBinder(resolver Resolver, moduleLimiter *RateLimiter) *Binder {
	return &Binder{resolver: resolver, moduleLimiter: moduleLimiter}
}

// BindModule resolves the bound module and applies the per-module rate limit.
func (b *Binder) BindModule(binding models.Binding) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := b.resolver.Module(binding.ModuleID)
		if err != nil {
			abortBinding(c, "module", binding, err)
			return
		}

		if b.moduleLimiter != nil && !b.moduleLimiter.Allow(m.ID) {
			abortRateLimited(c, "module")
			return
		}

		c.Set(ContextKeyBinding, binding)
		c.Set(ContextKeyModule, m)
		c.Set(contextKeyLogger, GetLogger(c).With(logging.BindingFields(binding)...))
	}
}

// BindVersion resolves the bound version, or the module's default version
// when the binding has none.
func (b *Binder) BindVersion(binding models.Binding) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := b.resolver.Version(binding.ModuleID, binding.VersionID)
		if err != nil {
			abortBinding(c, "version", binding, err)
			return
		}
		c.Set(ContextKeyVersion, v)
	}
}

// BindCluster resolves the bound cluster, or the scope's default cluster
// when the binding has none.
func (b *Binder) BindCluster(binding models.Binding) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, err := b.resolver.Cluster(binding.ModuleID, binding.VersionID, binding.ClusterID)
		if err != nil {
			abortBinding(c, "cluster", binding, err)
			return
		}
		c.Set(ContextKeyCluster, cl)
	}
}

// abortBinding answers 404 for unknown entities and 500 for anything else.
func abortBinding(c *gin.Context, stage string, binding models.Binding, err error) {
	metrics.BindingFailures.WithLabelValues(stage).Inc()
	GetLogger(c).Warn("context binding failed",
		append(logging.BindingFields(binding),
			zap.String("stage", stage),
			zap.Error(err))...)

	status, code, message := http.StatusInternalServerError, "internal_error", "An internal error occurred"
	if errors.Is(err, models.ErrModuleNotFound) ||
		errors.Is(err, models.ErrVersionNotFound) ||
		errors.Is(err, models.ErrClusterNotFound) {
		status, code, message = http.StatusNotFound, "not_found", "Resource not found"
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":      code,
		"message":    message,
		"request_id": GetRequestID(c),
	})
}

// GetBinding returns the binding of the matched route.
func GetBinding(c *gin.Context) models.Binding {
	if val, exists := c.Get(ContextKeyBinding); exists {
		if b, ok := val.(models.Binding); ok {
			return b
		}
	}
	return models.Binding{}
}

// GetModule returns the bound module, or nil outside generated routes.
func GetModule(c *gin.Context) *models.Module {
	if val, exists := c.Get(ContextKeyModule); exists {
		if m, ok := val.(*models.Module); ok {
			return m
		}
	}
	return nil
}

// GetVersion returns the bound version. It is nil when the module has no
// version or no default version.
func GetVersion(c *gin.Context) *models.Version {
	if val, exists := c.Get(ContextKeyVersion); exists {
		if v, ok := val.(*models.Version); ok {
			return v
		}
	}
	return nil
}

// GetCluster returns the bound cluster. It is nil when the scope has no
// default cluster.
func GetCluster(c *gin.Context) *models.Cluster {
	if val, exists := c.Get(ContextKeyCluster); exists {
		if cl, ok := val.(*models.Cluster); ok {
			return cl
		}
	}
	return nil
}
