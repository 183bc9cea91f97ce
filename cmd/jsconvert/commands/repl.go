package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/spicery/jsconvert/pkg/observability"
	"github.com/spicery/jsconvert/pkg/parser"
	"github.com/spicery/jsconvert/pkg/report"
	"github.com/spicery/jsconvert/pkg/tokenizer"
	"github.com/spicery/jsconvert/pkg/transpiler"
)

const (
	primaryPrompt      = "js> "
	continuationPrompt = "... "
	historyFile        = ".jsconvert_history"
)

const replHelp = `:catalog NAME  switch the rule catalog
:tree          toggle printing the parse tree instead of converting
:help          show this help
:quit          leave (Ctrl-D also works)
`

type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func newReplCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Convert JavaScript interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.setup(observability.ModeREPL)
			if err != nil {
				return err
			}
			defer a.close()

			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			historyPath := ""
			if home, err := os.UserHomeDir(); err == nil {
				historyPath = filepath.Join(home, historyFile)
				if f, err := os.Open(historyPath); err == nil {
					_, _ = line.ReadHistory(f)
					f.Close()
				}
			}

			r := newRepl(a.transpiler(), a.cfg.Catalog, cmd.OutOrStdout(), a.errPrinter(cmd))
			line.SetCompleter(r.complete)
			loopErr := r.loop(cmd.Context(), line)

			if historyPath != "" {
				if f, err := os.Create(historyPath); err == nil {
					_, _ = line.WriteHistory(f)
					f.Close()
				}
			}
			return loopErr
		},
	}
}

type repl struct {
	transpiler  *transpiler.Transpiler
	catalog     string
	tree        bool
	out         io.Writer
	diagnostics *report.Printer
	pending     strings.Builder
}

func newRepl(t *transpiler.Transpiler, catalog string, out io.Writer, diagnostics *report.Printer) *repl {
	return &repl{transpiler: t, catalog: catalog, out: out, diagnostics: diagnostics}
}

func (r *repl) loop(ctx context.Context, p prompter) error {
	for ctx.Err() == nil {
		prompt := primaryPrompt
		if r.pending.Len() > 0 {
			prompt = continuationPrompt
		}

		line, err := p.Prompt(prompt)
		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)
			return nil
		case errors.Is(err, liner.ErrPromptAborted):
			r.pending.Reset()
			continue
		case err != nil:
			return err
		}

		if r.pending.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			p.AppendHistory(line)
			if r.command(strings.TrimSpace(line)) {
				return nil
			}
			continue
		}

		r.pending.WriteString(line)
		r.pending.WriteString("\n")
		source := r.pending.String()
		if line != "" && incomplete(source) {
			continue
		}
		r.pending.Reset()
		if strings.TrimSpace(source) == "" {
			continue
		}
		p.AppendHistory(strings.TrimSuffix(source, "\n"))
		r.eval(ctx, source)
	}
	return nil
}

// command runs a colon command and reports whether the loop should end.
func (r *repl) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprint(r.out, replHelp)
	case ":tree":
		r.tree = !r.tree
		fmt.Fprintf(r.out, "tree mode %s\n", onOff(r.tree))
	case ":catalog":
		if arg == "" {
			fmt.Fprintln(r.out, r.catalog)
			break
		}
		if _, err := r.transpiler.Registry().Lookup(arg); err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			break
		}
		r.catalog = arg
		fmt.Fprintf(r.out, "catalog %s\n", arg)
	default:
		fmt.Fprintf(r.out, "unknown command %s, try :help\n", name)
	}
	return false
}

func (r *repl) eval(ctx context.Context, source string) {
	if r.tree {
		dump, err := r.transpiler.DumpTree(source, "ASCIITREE")
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			return
		}
		fmt.Fprint(r.out, dump)
		return
	}

	result, err := r.transpiler.Convert(ctx, transpiler.Request{Name: "<repl>", Source: source, Catalog: r.catalog})
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, result.Text)
	r.diagnostics.Diagnostics([]*transpiler.Result{result})
}

func (r *repl) complete(line string) []string {
	if !strings.HasPrefix(line, ":") {
		return nil
	}
	var candidates []string
	if strings.HasPrefix(line, ":catalog ") {
		for _, name := range r.transpiler.Registry().Names() {
			if c := ":catalog " + name; strings.HasPrefix(c, line) {
				candidates = append(candidates, c)
			}
		}
		return candidates
	}
	for _, c := range []string{":catalog ", ":help", ":quit", ":tree"} {
		if strings.HasPrefix(c, line) {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// incomplete reports whether source stops inside an open bracket, so that
// more lines should be read before converting.
func incomplete(source string) bool {
	tokens, err := tokenizer.New(source).Tokenize()
	if err != nil {
		return false
	}
	var syntaxErr *parser.SyntaxError
	if errors.As(parser.CheckBalance(tokens), &syntaxErr) {
		return strings.HasPrefix(syntaxErr.Message, "unclosed")
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
