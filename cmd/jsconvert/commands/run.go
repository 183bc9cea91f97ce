package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spicery/jsconvert/pkg/manifest"
	"github.com/spicery/jsconvert/pkg/observability"
	"github.com/spicery/jsconvert/pkg/transpiler"
)

type runOptions struct {
	workers      int
	dump         bool
	dumpFormat   string
	force        bool
	packageIndex bool
	incremental  bool
	noManifest   bool
	diagnostics  bool
}

func newRunCommand(opts *globalOptions) *cobra.Command {
	ro := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <input> [output]",
		Short: "Convert a file or a directory tree",
		Long: `Convert every source file under input, mirroring the directory layout into
output (or writing next to the inputs). Units are converted concurrently and
independently: one unit failing does not stop the others. Each run is
recorded in the manifest database unless --no-manifest is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&ro.workers, "workers", "w", 0, "concurrent conversions (default: config, then CPU count)")
	flags.BoolVar(&ro.dump, "dump", false, "also write the parse tree of every unit")
	flags.StringVar(&ro.dumpFormat, "dump-format", "", "parse tree format (default: config)")
	flags.BoolVar(&ro.force, "force", false, "overwrite outputs marked no-edit")
	flags.BoolVar(&ro.packageIndex, "package-index", false, "maintain __all__ in package __init__.py files")
	flags.BoolVar(&ro.incremental, "incremental", false, "skip files unchanged since their last successful conversion")
	flags.BoolVar(&ro.noManifest, "no-manifest", false, "do not record the run")
	flags.BoolVar(&ro.diagnostics, "diagnostics", false, "list every passed-through construct")

	return cmd
}

func (ro *runOptions) run(cmd *cobra.Command, opts *globalOptions, args []string) error {
	a, err := opts.setup(observability.ModeCLI)
	if err != nil {
		return err
	}
	defer a.close()

	incremental := ro.incremental || a.cfg.Manifest.Incremental

	var store *manifest.Store
	if !ro.noManifest && a.cfg.Manifest.Path != "" {
		store, err = a.openManifest()
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var extra []transpiler.Option
	if incremental && store != nil {
		extra = append(extra, transpiler.WithHistory(store))
	}
	t := a.transpiler(extra...)

	output := ""
	if len(args) == 2 {
		output = args[1]
	}

	treeOpts := transpiler.TreeOptions{
		Workers:      ro.workers,
		Dump:         ro.dump || a.cfg.Dump.Enabled,
		DumpFormat:   ro.dumpFormat,
		Force:        ro.force,
		PackageIndex: ro.packageIndex,
	}
	if treeOpts.Workers == 0 {
		treeOpts.Workers = a.cfg.Workers
	}
	if treeOpts.DumpFormat == "" {
		treeOpts.DumpFormat = a.cfg.Dump.Format
	}

	started := time.Now()
	results, runErr := t.ConvertTree(cmd.Context(), args[0], output, a.cfg.Catalog, treeOpts)
	if results == nil && runErr != nil {
		return runErr
	}

	if store != nil {
		run, err := store.RecordRun(a.cfg.Catalog, started, results)
		if err != nil {
			a.logger().Warn("failed to record run", "error", err)
		} else {
			a.logger().Debug("recorded run", "run", run.ID)
		}
	}

	p := a.printer(cmd)
	p.Batch(results)
	p.Failures(results)
	if ro.diagnostics {
		p.Diagnostics(results)
	}

	if runErr != nil {
		return runErr
	}
	summary := transpiler.Summarize(results)
	if failed := summary.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d units", errUnitsFailed, failed, summary.Total)
	}
	return nil
}
