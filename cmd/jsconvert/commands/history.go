package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spicery/jsconvert/pkg/observability"
)

const defaultHistoryLimit = 20

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or the units of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openManifest()
			if err != nil {
				return err
			}
			defer store.Close()

			p := a.printer(cmd)

			if len(args) == 1 {
				id, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid run id %q: %w", args[0], err)
				}
				units, err := store.Units(uint(id))
				if err != nil {
					return err
				}
				p.Units(units)
				return nil
			}

			runs, err := store.Runs(limit)
			if err != nil {
				return err
			}
			p.Runs(runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of runs to show")

	return cmd
}
