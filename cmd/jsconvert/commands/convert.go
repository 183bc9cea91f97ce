package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spicery/jsconvert/pkg/checker"
	"github.com/spicery/jsconvert/pkg/observability"
	"github.com/spicery/jsconvert/pkg/transpiler"
)

var errCodeAndFile = errors.New("use either --code or a file argument, not both")

func newConvertCommand(opts *globalOptions) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a snippet or file and print the result",
		Long: `Convert JavaScript read from a file, from --code or from stdin and write the
converted text to stdout. Diagnostics for constructs that were passed
through unchanged go to stderr.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if code != "" && len(args) > 0 {
				return errCodeAndFile
			}

			name := "<stdin>"
			source := code
			switch {
			case code != "":
				name = "<code>"
			case len(args) == 1 && args[0] != "-":
				name = args[0]
				data, err := os.ReadFile(name)
				if err != nil {
					return fmt.Errorf("read %s: %w", name, err)
				}
				source = string(data)
			default:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				source = string(data)
			}

			a, err := opts.setup(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.transpiler().Convert(cmd.Context(), transpiler.Request{Name: name, Source: source})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			a.errPrinter(cmd).Diagnostics([]*transpiler.Result{result})

			return nil
		},
	}

	cmd.Flags().StringVarP(&code, "code", "e", "", "source text to convert")

	return cmd
}

var errMalformedTree = errors.New("parse tree failed validation")

func newDumpCommand(opts *globalOptions) *cobra.Command {
	var format string
	var check bool

	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Print the parse tree of a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read source: %w", err)
			}

			a, err := opts.setup(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			if format == "" {
				format = a.cfg.Dump.Format
			}

			t := a.transpiler()
			if check {
				root, err := t.ParseTree(string(data))
				if err != nil {
					return err
				}
				c := checker.NewChecker(string(data))
				ok := c.Check(root)
				c.ReportErrors(cmd.ErrOrStderr())
				if !ok {
					return errMalformedTree
				}
			}

			dump, err := t.DumpTree(string(data), format)
			if err != nil {
				return err
			}

			_, err = io.WriteString(cmd.OutOrStdout(), dump)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "tree format: ASCIITREE, DOM, DOT, JSON or YAML")
	cmd.Flags().BoolVar(&check, "check", false, "validate the tree and list constructs kept verbatim")

	return cmd
}
