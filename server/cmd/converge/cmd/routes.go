package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"converge.io/converge/models"
	"converge.io/converge/server/internal/api"
	"converge.io/converge/server/internal/routetable"
)

var (
	routesSource registrySource
	routesModule string
	routesJSON   bool
	routesURL    string
	routesParams []string
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the generated route table",
	Long: `Generate the route table from the registry and print it in match order.

Bindings are shown in their textual form: the module stage argument is the
module id, the version and cluster arguments are "module,segment" or
"module,module" when the route does not pin one.

With --url, print the path of one named route instead:

  converge routes --registry registry.yaml --url docs.v1.show --param resource=intro`,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadTable(cmd, &routesSource)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if routesURL != "" {
			params, err := parseParams(routesParams)
			if err != nil {
				return err
			}
			url, err := table.URL(routesURL, params)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, url)
			return nil
		}

		defs := filterRoutes(table.Routes(), routesModule)
		if routesJSON {
			return writeRoutesJSON(out, defs)
		}
		return writeRoutesTable(out, defs)
	},
}

func init() {
	routesSource.addFlags(routesCmd)
	routesCmd.Flags().StringVar(&routesModule, "module", "", "Only print routes bound to this module")
	routesCmd.Flags().BoolVar(&routesJSON, "json", false, "Print routes as JSON")
	routesCmd.Flags().StringVar(&routesURL, "url", "", "Print the path of the named route")
	routesCmd.Flags().StringArrayVar(&routesParams, "param", nil, "Route parameter for --url as name=value (repeatable)")

	rootCmd.AddCommand(routesCmd)
}

// loadTable reads the registry and generates its route table.
func loadTable(cmd *cobra.Command, source *registrySource) (*routetable.Table, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	defer logger.Sync() //nolint:errcheck

	provider, closeRegistry, err := source.open(cmd.Context(), logger)
	if err != nil {
		return nil, err
	}
	defer closeRegistry() //nolint:errcheck

	modules, err := provider.Modules(cmd.Context())
	if err != nil {
		return nil, err
	}

	table, err := api.BuildTable(cmd.Context(), modules, logger, nil)
	if err != nil {
		logger.Error("route generation failed", zap.Error(err))
		return nil, err
	}
	return table, nil
}

func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q (want name=value)", pair)
		}
		params[name] = value
	}
	return params, nil
}

func filterRoutes(defs []models.RouteDefinition, moduleID string) []models.RouteDefinition {
	if moduleID == "" {
		return defs
	}
	filtered := defs[:0:0]
	for _, def := range defs {
		if def.Binding.ModuleID == moduleID {
			filtered = append(filtered, def)
		}
	}
	return filtered
}

func writeRoutesJSON(w io.Writer, defs []models.RouteDefinition) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(models.RouteListResponse{Routes: defs, Total: len(defs)})
}

func writeRoutesTable(w io.Writer, defs []models.RouteDefinition) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tHOST\tURI\tNAME\tPATTERN\tMODULE\tVERSION\tCLUSTER")
	for _, def := range defs {
		host := def.Domain.String()
		if host == "" {
			host = "*"
		}
		pattern := def.Pattern
		if pattern == "" {
			pattern = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			def.Method, host, def.URI, def.Name, pattern,
			def.Binding.ModuleArg(), def.Binding.VersionArg(), def.Binding.ClusterArg())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d routes\n", len(defs))
	return err
}
