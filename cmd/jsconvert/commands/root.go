// Package commands implements the jsconvert subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spicery/jsconvert/pkg/catalog"
	"github.com/spicery/jsconvert/pkg/config"
	"github.com/spicery/jsconvert/pkg/manifest"
	"github.com/spicery/jsconvert/pkg/observability"
	"github.com/spicery/jsconvert/pkg/report"
	"github.com/spicery/jsconvert/pkg/tokenizer"
	"github.com/spicery/jsconvert/pkg/transpiler"
	"github.com/spicery/jsconvert/pkg/version"
)

var errUnitsFailed = errors.New("conversion failed")

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	catalog    string
	verbose    bool
	quiet      bool
	noColor    bool
}

func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "jsconvert",
		Short: "jsconvert - rule-directed JavaScript source converter",
		Long: `jsconvert parses JavaScript into a syntax tree and rewrites it into another
language using a catalog of rules. Constructs no rule handles are copied
through unchanged and reported as diagnostics.

Commands:
  convert   Convert a single snippet or file to stdout
  run       Convert files or whole directories
  dump      Print the parse tree
  diff      Compare a conversion against the existing output
  repl      Convert interactively
  catalogs  List or validate rule catalogs
  history   Show recorded runs
  mcp       Serve conversions over the Model Context Protocol`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: jsconvert.yaml in . or $HOME)")
	flags.StringVarP(&opts.catalog, "catalog", "c", "", "rule catalog (overrides config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(
		newConvertCommand(opts),
		newRunCommand(opts),
		newDumpCommand(opts),
		newDiffCommand(opts),
		newReplCommand(opts),
		newCatalogsCommand(opts),
		newHistoryCommand(opts),
		newMCPCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jsconvert %s\n", version.String())
		},
	}
}

// app is the state a subcommand builds from the configuration.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	metrics   *observability.ConversionMetrics
	registry  *catalog.Registry
	rules     *tokenizer.TokenizerRules
	colors    bool
}

func (o *globalOptions) setup(mode observability.AppMode) (*app, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.catalog != "" {
		cfg.Catalog = o.catalog
	}

	providers, err := observability.Init(o.observabilityConfig(cfg, mode))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	a := &app{cfg: cfg, providers: providers, colors: !o.noColor && !color.NoColor}

	a.metrics, err = observability.NewConversionMetrics(providers.Meter)
	if err != nil {
		a.close()
		return nil, err
	}

	a.registry = catalog.Builtin()
	a.registry.SetLogger(providers.Logger)
	for _, path := range cfg.CatalogFiles {
		if _, err := a.registry.LoadFile(path); err != nil {
			a.close()
			return nil, fmt.Errorf("load catalog %s: %w", path, err)
		}
	}

	if cfg.TokenRules != "" {
		file, err := tokenizer.LoadRulesFile(cfg.TokenRules)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("load token rules: %w", err)
		}
		a.rules, err = tokenizer.ApplyRulesToDefaults(file)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("apply token rules: %w", err)
		}
	}

	return a, nil
}

func (o *globalOptions) observabilityConfig(cfg *config.Config, mode observability.AppMode) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.Insecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.Headers)
	obsCfg.LogJSON = strings.EqualFold(cfg.Logging.Format, "json") || mode == observability.ModeMCP
	obsCfg.LogLevel, _ = observability.ParseLevel(cfg.Logging.Level)

	switch {
	case o.verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case o.quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	return obsCfg
}

func (a *app) logger() *slog.Logger {
	return a.providers.Logger
}

func (a *app) close() {
	if err := a.providers.Shutdown(context.Background()); err != nil {
		a.logger().Warn("observability shutdown failed", "error", err)
	}
}

func (a *app) transpiler(extra ...transpiler.Option) *transpiler.Transpiler {
	opts := []transpiler.Option{
		transpiler.WithLogger(a.logger()),
		transpiler.WithTracer(a.providers.Tracer),
		transpiler.WithMetrics(a.metrics),
		transpiler.WithIndent(a.cfg.IndentUnit()),
		transpiler.WithDefaultCatalog(a.cfg.Catalog),
		transpiler.WithCheckTree(a.cfg.CheckTree),
	}
	if a.rules != nil {
		opts = append(opts, transpiler.WithTokenRules(a.rules))
	}
	return transpiler.New(a.registry, append(opts, extra...)...)
}

// openManifest opens the history database, creating its directory.
func (a *app) openManifest() (*manifest.Store, error) {
	path := a.cfg.Manifest.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create manifest directory: %w", err)
		}
	}
	return manifest.OpenMigrated(path)
}

func (a *app) printer(cmd *cobra.Command) *report.Printer {
	return report.NewPrinter(cmd.OutOrStdout(), a.colors)
}

func (a *app) errPrinter(cmd *cobra.Command) *report.Printer {
	return report.NewPrinter(cmd.ErrOrStderr(), a.colors)
}
