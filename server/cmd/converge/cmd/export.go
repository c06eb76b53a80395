package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"converge.io/converge/server/internal/registry"
)

var (
	exportSource registrySource
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the registry as YAML",
	Long: `Read the registry and print it as a YAML registry document.

Exporting a SQLite registry produces a file "import" accepts. Domains are
written inline; named domains are not reconstructed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		provider, closeRegistry, err := exportSource.open(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer closeRegistry() //nolint:errcheck

		modules, err := provider.Modules(cmd.Context())
		if err != nil {
			return err
		}

		data, err := registry.Encode(modules)
		if err != nil {
			return err
		}

		if exportOut != "" {
			return os.WriteFile(exportOut, data, 0o644)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	exportSource.addFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
