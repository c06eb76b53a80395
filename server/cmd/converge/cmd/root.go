// Package cmd provides the CLI commands of the converge binary.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"converge.io/converge/server/internal/logging"
	"converge.io/converge/server/internal/registry"
)

var (
	// Version information (set at build time via ldflags)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	logLevel  string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "converge",
	Short: "Converge - route generation for versioned documentation",
	Long: `Converge generates an HTTP route table from a registry of modules,
their versions and clusters, and serves it.

Each module, version and cluster gets a landing page, a search endpoint
and a resource route. The unversioned "quiet" routes of a module serve
its default version and never shadow a version segment.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", getEnv("CONVERGE_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", getEnv("CONVERGE_LOG_FORMAT", "console"),
		"Log format (json, console)")
}

// getEnv retrieves an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// newLogger builds the logger selected by the global flags.
func newLogger() (*zap.Logger, error) {
	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return nil, err
	}

	cfg := logging.DefaultConfig()
	cfg.Level = logLevel
	cfg.Format = format
	return logging.NewLogger(cfg)
}

// registrySource selects where modules are read from.
type registrySource struct {
	file string
	db   string
}

// addFlags registers --registry and --db on cmd.
func (s *registrySource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.file, "registry", getEnv("CONVERGE_REGISTRY", ""),
		"Path to the YAML module registry")
	cmd.Flags().StringVar(&s.db, "db", getEnv("CONVERGE_DB_PATH", ""),
		"Path to the SQLite module registry")
}

// open returns a provider for the selected source. The returned close
// function releases the database, if one was opened.
func (s *registrySource) open(ctx context.Context, logger *zap.Logger) (registry.Provider, func() error, error) {
	noop := func() error { return nil }

	switch {
	case s.file != "" && s.db != "":
		return nil, noop, errors.New("--registry and --db are mutually exclusive")
	case s.file != "":
		logger.Info("Using YAML registry", zap.String("path", s.file))
		return registry.FileProvider{Path: s.file}, noop, nil
	case s.db != "":
		store, err := registry.Open(ctx, s.db, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, errors.New("a registry is required (set --registry or --db, or CONVERGE_REGISTRY / CONVERGE_DB_PATH)")
	}
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

// versionString returns formatted version information
func versionString() string {
	return fmt.Sprintf("Converge %s (commit: %s, built: %s)", Version, Commit, BuildDate)
}
