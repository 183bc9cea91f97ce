package commands

import (
	"github.com/spf13/cobra"

	"github.com/spicery/jsconvert/pkg/mcp"
	"github.com/spicery/jsconvert/pkg/observability"
)

func newMCPCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server on stdio",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes these tools:
  - jsconvert_convert: convert JavaScript source with a rule catalog
  - jsconvert_tree: print the parse tree of JavaScript source
  - jsconvert_catalogs: list the available rule catalogs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.setup(observability.ModeMCP)
			if err != nil {
				return err
			}
			defer a.close()

			red, err := observability.NewREDMetrics(a.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:     a.logger(),
				Tracer:     a.providers.Tracer,
				Metrics:    red,
				Transpiler: a.transpiler(),
			})

			return srv.Run(cmd.Context())
		},
	}
}
