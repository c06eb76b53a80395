package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"converge.io/converge/pkg/token"
	"converge.io/converge/server/internal/api"
	"converge.io/converge/server/internal/api/middleware"
	"converge.io/converge/server/internal/metrics"
	"converge.io/converge/server/internal/util"
)

const (
	// limiterCleanup is how often idle rate limiter entries are dropped.
	limiterCleanup = 5 * time.Minute

	// authFailuresPerMin is the admin authentication failure budget per client IP.
	authFailuresPerMin = 10
)

// serveConfig holds server configuration from flags and environment variables.
type serveConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080").
	ListenAddr string

	// InstanceID is this server instance's UUID.
	InstanceID string

	// AdminToken enables the admin API when set.
	AdminToken string

	// HMACSecret keys the admin token hash.
	HMACSecret string

	// AllowOrigins is a comma-separated list of allowed CORS origins.
	AllowOrigins string

	// TrustedProxies is a comma-separated list of proxy IPs or CIDRs.
	TrustedProxies string

	// RateLimitRPS and RateLimitBurst limit requests per client IP. Zero disables.
	RateLimitRPS   float64
	RateLimitBurst int

	// ModuleRPS and ModuleBurst limit requests per module. Zero disables.
	ModuleRPS   float64
	ModuleBurst int

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	registry registrySource
}

var serveCfg serveConfig

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated route table",
	Long: `Load the module registry, generate the route table and serve it.

The table is regenerated on SIGHUP and on POST /api/v1/routes/reload. A
registry that fails validation never replaces the table being served.
The server refuses to start if the first generation fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), &serveCfg)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveCfg.ListenAddr, "listen", getEnv("CONVERGE_LISTEN_ADDR", ":8080"),
		"Address to listen on")
	f.StringVar(&serveCfg.InstanceID, "instance-id", getEnv("CONVERGE_INSTANCE_ID", ""),
		"Server instance UUID (auto-generated if not provided)")
	f.StringVar(&serveCfg.AdminToken, "admin-token", getEnv("CONVERGE_ADMIN_TOKEN", ""),
		"Admin API token (admin API disabled if empty)")
	f.StringVar(&serveCfg.HMACSecret, "secret", getEnv("CONVERGE_HMAC_SECRET", ""),
		"HMAC secret for admin token hashing (min 32 bytes)")
	f.StringVar(&serveCfg.AllowOrigins, "cors-origins", getEnv("CONVERGE_CORS_ORIGINS", ""),
		"Comma-separated list of allowed CORS origins (* for all)")
	f.StringVar(&serveCfg.TrustedProxies, "trusted-proxies", getEnv("CONVERGE_TRUSTED_PROXIES", ""),
		"Comma-separated list of trusted proxy IPs or CIDRs")
	f.Float64Var(&serveCfg.RateLimitRPS, "rate-limit", envFloat("CONVERGE_RATE_LIMIT_RPS", 100),
		"Requests per second per client IP (0 disables)")
	f.IntVar(&serveCfg.RateLimitBurst, "rate-limit-burst", envInt("CONVERGE_RATE_LIMIT_BURST", 200),
		"Burst size per client IP")
	f.Float64Var(&serveCfg.ModuleRPS, "module-rate-limit", envFloat("CONVERGE_MODULE_RATE_LIMIT_RPS", 0),
		"Requests per second per module (0 disables)")
	f.IntVar(&serveCfg.ModuleBurst, "module-rate-limit-burst", envInt("CONVERGE_MODULE_RATE_LIMIT_BURST", 500),
		"Burst size per module")
	f.DurationVar(&serveCfg.ShutdownTimeout, "shutdown-timeout", 15*time.Second,
		"Maximum time to drain connections on shutdown")
	serveCfg.registry.addFlags(serveCmd)

	rootCmd.AddCommand(serveCmd)
}

// validate checks the configuration and fills in generated defaults.
func (c *serveConfig) validate() error {
	if err := util.ValidateListenAddr(c.ListenAddr); err != nil {
		return err
	}

	if c.InstanceID == "" {
		c.InstanceID = uuid.New().String()
	}
	if err := util.ValidateUUID(c.InstanceID); err != nil {
		return fmt.Errorf("invalid instance ID: %w", err)
	}

	for _, proxy := range splitList(c.TrustedProxies) {
		if err := util.ValidateProxy(proxy); err != nil {
			return fmt.Errorf("invalid trusted proxy: %w", err)
		}
	}

	if c.AdminToken == "" && c.HMACSecret != "" {
		return errors.New("--secret is set but --admin-token is empty")
	}
	if c.RateLimitRPS < 0 || c.ModuleRPS < 0 {
		return errors.New("rate limits cannot be negative")
	}

	return nil
}

// adminVerifier returns the admin token verifier, or nil when the admin API is disabled.
func (c *serveConfig) adminVerifier() (*token.Verifier, error) {
	if c.AdminToken == "" {
		return nil, nil
	}
	verifier, err := token.NewVerifier(c.AdminToken, c.HMACSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid admin token configuration: %w", err)
	}
	return verifier, nil
}

func runServe(ctx context.Context, cfg *serveConfig) error {
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting converge",
		zap.String("version", Version),
		zap.String("instance_id", cfg.InstanceID),
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("log_level", logLevel),
	)

	metrics.MustInit()

	verifier, err := cfg.adminVerifier()
	if err != nil {
		return err
	}
	if verifier == nil {
		logger.Warn("Admin API disabled (no admin token configured)")
	}

	provider, closeRegistry, err := cfg.registry.open(ctx, logger)
	if err != nil {
		return err
	}
	defer closeRegistry() //nolint:errcheck

	var moduleLimiter *middleware.RateLimiter
	if cfg.ModuleRPS > 0 {
		moduleLimiter = middleware.NewRateLimiter(cfg.ModuleRPS, cfg.ModuleBurst, limiterCleanup)
		defer moduleLimiter.Stop()
	}

	routes := api.NewLiveRoutes(provider, logger, moduleLimiter)
	if _, err := routes.Reload(ctx); err != nil {
		logger.Error("initial route generation failed", zap.Error(err))
		return err
	}

	var ipLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		ipLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, limiterCleanup)
		defer ipLimiter.Stop()
	}

	authLimiter := middleware.NewRateLimiter(authFailuresPerMin/60.0, authFailuresPerMin, limiterCleanup)
	defer authLimiter.Stop()

	gin.SetMode(gin.ReleaseMode)
	router, err := api.SetupRouter(&api.RouterConfig{
		Logger:             logger,
		InstanceID:         cfg.InstanceID,
		Routes:             routes,
		AdminVerifier:      verifier,
		AllowOrigins:       splitList(cfg.AllowOrigins),
		IPLimiter:          ipLimiter,
		AuthFailureLimiter: authLimiter,
		TrustedProxies:     splitList(cfg.TrustedProxies),
	})
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	for {
		select {
		case err, ok := <-serverErr:
			if ok {
				logger.Error("server failed", zap.Error(err))
				return err
			}
			return nil

		case sig := <-signals:
			if sig == syscall.SIGHUP {
				logger.Info("SIGHUP received, reloading routes")
				if _, err := routes.Reload(ctx); err != nil {
					logger.Error("route reload failed, keeping current table", zap.Error(err))
				}
				continue
			}

			logger.Info("shutting down", zap.String("signal", sig.String()))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			err := server.Shutdown(shutdownCtx)
			cancel()
			if err != nil {
				logger.Error("graceful shutdown failed", zap.Error(err))
				return err
			}
			logger.Info("server stopped")
			return nil
		}
	}
}

// envFloat reads a float environment variable, falling back on absence or parse errors.
func envFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

// envInt reads an integer environment variable, falling back on absence or parse errors.
func envInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
