package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/spicery/jsconvert/pkg/observability"
	"github.com/spicery/jsconvert/pkg/transpiler"
)

func newDiffCommand(opts *globalOptions) *cobra.Command {
	var against string

	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Show how converting a file would change its existing output",
		Long: `Convert file in memory and compare the result with the output it would be
written to (or with --against). Nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			t := a.transpiler()
			cat, err := t.Registry().Lookup(a.cfg.Catalog)
			if err != nil {
				return err
			}

			input := args[0]
			source, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}

			result, err := t.Convert(cmd.Context(), transpiler.Request{Name: input, Source: string(source)})
			if err != nil {
				return err
			}

			target := against
			if target == "" {
				target = transpiler.OutputPath(input, cat.Extensions())
			}
			existing, err := os.ReadFile(target)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("read %s: %w", target, err)
			}

			a.printer(cmd).Diff(target, "converted "+input, string(existing), result.Text+"\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&against, "against", "", "file to compare with (default: the conversion output path)")

	return cmd
}
