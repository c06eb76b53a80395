package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"converge.io/converge/pkg/token"
	"converge.io/converge/server/internal/api/handlers"
	"converge.io/converge/server/internal/api/middleware"
	"converge.io/converge/server/internal/metrics"
)

// RouterConfig holds configuration for setting up the HTTP router.
type RouterConfig struct {
	// Logger is the Zap logger for request logging.
	Logger *zap.Logger

	// InstanceID is this server instance's UUID.
	InstanceID string

	// Routes is the live route table generated routes dispatch to.
	Routes *LiveRoutes

	// AdminVerifier checks the admin token. Nil disables the admin API.
	AdminVerifier *token.Verifier

	// AllowOrigins is the list of allowed CORS origins.
	// Use []string{"*"} to allow all origins (not recommended for production).
	AllowOrigins []string

	// IPLimiter rate limits requests per client IP, or nil to disable.
	IPLimiter *middleware.RateLimiter

	// AuthFailureLimiter locks out clients failing admin authentication, or nil to disable.
	AuthFailureLimiter *middleware.RateLimiter

	// TrustedProxies are the proxies whose forwarding headers are honored.
	// Empty trusts none.
	TrustedProxies []string
}

// SetupRouter creates and configures the Gin HTTP router with all routes and middleware.
//
// This function sets up:
// - Global middleware (recovery, metrics, request logging, rate limiting)
// - Metrics and health check endpoints (no auth required)
// - Route administration endpoints (admin token auth)
// - Generated routes, dispatched from NoRoute to the live route table
//
// Parameters:
//   - config: Router configuration
//
// Returns:
//   - Configured Gin engine ready to serve requests
//   - Error if the trusted proxy list is invalid
func SetupRouter(config *RouterConfig) (*gin.Engine, error) {
	router := gin.New()

	if err := router.SetTrustedProxies(config.TrustedProxies); err != nil {
		return nil, err
	}

	// Recovery middleware (recover from panics)
	router.Use(gin.Recovery())

	// Metrics middleware (should be early to capture all requests)
	router.Use(middleware.MetricsMiddleware())

	// Request logging middleware
	router.Use(middleware.RequestLogger(config.Logger))

	// CORS middleware
	if len(config.AllowOrigins) > 0 {
		router.Use(middleware.CORS(config.AllowOrigins))
	}

	// Global rate limiting by IP (applies to all endpoints)
	if config.IPLimiter != nil {
		router.Use(middleware.RateLimitByIP(config.IPLimiter))
	}

	healthHandler := handlers.NewHealthHandler(config.InstanceID, config.Routes.Ready)
	adminHandler := handlers.NewAdminHandler(config.Routes)

	// Metrics endpoint (no authentication required)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		metrics.Registry,
		promhttp.HandlerOpts{},
	)))

	// Health check routes (no authentication required)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Liveness)
		health.GET("/ready", healthHandler.Readiness)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	if config.AuthFailureLimiter != nil {
		v1.Use(middleware.LimitAuthFailures(config.AuthFailureLimiter))
	}
	v1.Use(middleware.RequireAdminToken(config.AdminVerifier))

	routes := v1.Group("/routes")
	{
		// GET /api/v1/routes - List the live route table
		routes.GET("", adminHandler.ListRoutes)

		// POST /api/v1/routes/reload - Regenerate the route table
		routes.POST("/reload", adminHandler.Reload)

		// GET /api/v1/routes/:name - Describe one route, optionally building its URL
		routes.GET("/:name", adminHandler.GetRoute)
	}

	// Everything else is matched against the generated route table.
	router.NoRoute(config.Routes.Handler())

	return router, nil
}
