package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateSource registrySource

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the module registry",
	Long: `Check the registry and generate its route table without serving it.

Fails on duplicate ids, more than one default per scope, links to missing
entries, invalid generators and route names generated twice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadTable(cmd, &validateSource)
		if err != nil {
			return err
		}

		counts := table.CountByModule()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Registry valid: %d modules, %d routes\n", len(counts), table.Len())
		return nil
	},
}

func init() {
	validateSource.addFlags(validateCmd)
	rootCmd.AddCommand(validateCmd)
}
