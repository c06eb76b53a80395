package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"converge.io/converge/server/internal/registry"
)

var (
	importFile string
	importDB   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a YAML registry into SQLite",
	Long: `Validate a YAML registry and store it in a SQLite database, replacing
its previous contents. Order is preserved, so "serve --db" generates the
same routes as "serve --registry".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if importFile == "" || importDB == "" {
			return errors.New("--registry and --db are required")
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		modules, err := registry.LoadFile(importFile)
		if err != nil {
			return err
		}
		if err := registry.Validate(modules); err != nil {
			return err
		}

		store, err := registry.Open(cmd.Context(), importDB, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Import(cmd.Context(), modules); err != nil {
			return err
		}

		logger.Info("registry imported",
			zap.String("registry", importFile),
			zap.String("db", importDB),
			zap.Int("modules", len(modules)))
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d modules into %s\n", len(modules), importDB)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "registry", getEnv("CONVERGE_REGISTRY", ""), "Path to the YAML module registry")
	importCmd.Flags().StringVar(&importDB, "db", getEnv("CONVERGE_DB_PATH", ""), "Path to the SQLite module registry")
	rootCmd.AddCommand(importCmd)
}
