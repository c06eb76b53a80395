package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"converge.io/converge/sdk"
)

var (
	remoteServers string
	remoteToken   string
)

// remoteCmd groups commands talking to running servers through the admin API.
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage running converge servers",
	Long: `Query and control running servers through their admin API.

Servers are tried in order; the first reachable one answers.`,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the readiness of every server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAdminClient()
		if err != nil {
			return err
		}

		results := client.Health(cmd.Context())
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SERVER\tREADY\tINSTANCE\tERROR")

		notReady := 0
		for _, h := range results {
			status, reason := "yes", "-"
			if !h.Ready {
				status = "no"
				reason = h.Err.Error()
				notReady++
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.BaseURL, status, orDash(h.InstanceID), reason)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if notReady > 0 {
			return fmt.Errorf("%d of %d servers not ready", notReady, len(results))
		}
		return nil
	},
}

var remoteRoutesModule string

var remoteRoutesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the live route table of a server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAdminClient()
		if err != nil {
			return err
		}

		list, err := client.ListRoutes(cmd.Context(), sdk.RouteFilter{Module: remoteRoutesModule})
		if err != nil {
			return err
		}
		return writeRoutesTable(cmd.OutOrStdout(), list.Routes)
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Regenerate the route table of a server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAdminClient()
		if err != nil {
			return err
		}

		resp, err := client.Reload(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Reloaded: %d modules, %d routes\n", resp.Modules, resp.Routes)
		return nil
	},
}

func init() {
	remoteCmd.PersistentFlags().StringVar(&remoteServers, "server", getEnv("CONVERGE_SERVERS", "http://localhost:8080"),
		"Comma-separated list of server URLs")
	remoteCmd.PersistentFlags().StringVar(&remoteToken, "admin-token", getEnv("CONVERGE_ADMIN_TOKEN", ""),
		"Admin API token")
	remoteRoutesCmd.Flags().StringVar(&remoteRoutesModule, "module", "", "Only print routes bound to this module")

	remoteCmd.AddCommand(statusCmd, remoteRoutesCmd, reloadCmd)
	rootCmd.AddCommand(remoteCmd)
}

func newAdminClient() (*sdk.Client, error) {
	return sdk.NewClient(sdk.ClientConfig{
		BaseURLs:   splitList(remoteServers),
		AdminToken: remoteToken,
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
