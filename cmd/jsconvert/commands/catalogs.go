package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spicery/jsconvert/pkg/observability"
	"github.com/spicery/jsconvert/pkg/rewriter"
)

func newCatalogsCommand(opts *globalOptions) *cobra.Command {
	list := func(cmd *cobra.Command, _ []string) error {
		a, err := opts.setup(observability.ModeCLI)
		if err != nil {
			return err
		}
		defer a.close()

		a.printer(cmd).Catalogs(a.registry.Catalogs())
		return nil
	}

	cmd := &cobra.Command{
		Use:   "catalogs",
		Short: "List or validate rule catalogs",
		Args:  cobra.NoArgs,
		RunE:  list,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the registered catalogs, including those from catalog_files",
			Args:  cobra.NoArgs,
			RunE:  list,
		},
		newValidateCatalogsCommand(opts),
		newSchemaCommand(),
	)

	return cmd
}

func newValidateCatalogsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check YAML catalogs against the schema and compile their rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			invalid := 0
			for _, path := range args {
				if err := validateCatalog(a, path); err != nil {
					invalid++
					fmt.Fprintf(out, "invalid %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "ok %s\n", path)
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d catalogs invalid", invalid, len(args))
			}
			return nil
		},
	}
}

// validateCatalog compiles the catalog at path without registering it.
func validateCatalog(a *app, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	config, err := rewriter.ParseCatalogConfig(data)
	if err != nil {
		return err
	}
	_, err = a.registry.FromConfig(config)
	return err
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of YAML catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(rewriter.Schema())
			return err
		},
	}
}
