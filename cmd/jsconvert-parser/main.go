package main

import (
	"fmt"
	"io"
	"os"

	pflag "github.com/spf13/pflag"

	"github.com/spicery/jsconvert/pkg/checker"
	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/parser"
	"github.com/spicery/jsconvert/pkg/tokenizer"
	"github.com/spicery/jsconvert/pkg/version"
)

const usage = `jsconvert-parser - parse JavaScript and print the syntax tree

Reads JavaScript from --input (or stdin) and writes the parse tree in the
chosen format. With --check the tree is also validated; problems are listed
on stderr and the exit status is non-zero when the parser broke an
invariant.

Usage:
  jsconvert-parser [options]

Options:
`

const defaultFormat = "ASCIITREE"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var showHelp, showVersion, noSpans, check bool
	var inputFile, outputFile, format, rulesFile string
	var trim int

	flags := pflag.NewFlagSet("jsconvert-parser", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}

	flags.BoolVarP(&showHelp, "help", "h", false, "Show help")
	flags.BoolVar(&showVersion, "version", false, "Show version")
	flags.StringVarP(&inputFile, "input", "i", "", "Input file (defaults to stdin)")
	flags.StringVarP(&outputFile, "output", "o", "", "Output file (defaults to stdout)")
	flags.StringVarP(&format, "format", "f", defaultFormat, "Output format (ASCIITREE, DOM, DOT, JSON, YAML)")
	flags.StringVar(&rulesFile, "token-rules", "", "YAML file overriding the tokenizer rules")
	flags.IntVar(&trim, "trim", 0, "Trim names for display purposes")
	flags.BoolVar(&noSpans, "no-spans", false, "Suppress span information in output")
	flags.BoolVar(&check, "check", false, "Validate the tree and report problems")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if showHelp {
		flags.Usage()
		return 0
	}

	if showVersion {
		fmt.Fprintf(stdout, "jsconvert-parser version %s\n", version.Version)
		return 0
	}

	// Reject any positional arguments.
	if flags.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: Unexpected positional arguments. Use --input and --output flags instead.\n\n")
		flags.Usage()
		return 2
	}

	printFunc, err := common.PickPrintFunc(format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	var rules *tokenizer.TokenizerRules
	if rulesFile != "" {
		file, err := tokenizer.LoadRulesFile(rulesFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading token rules: %v\n", err)
			return 1
		}
		rules, err = tokenizer.ApplyRulesToDefaults(file)
		if err != nil {
			fmt.Fprintf(stderr, "Error applying token rules: %v\n", err)
			return 1
		}
	}

	// Determine input source.
	input := stdin
	if inputFile != "" {
		file, err := os.Open(inputFile) // #nosec G304 - CLI tool reads user-specified input files
		if err != nil {
			fmt.Fprintf(stderr, "Error opening input file: %v\n", err)
			return 1
		}
		defer file.Close()
		input = file
	}

	source, err := io.ReadAll(input)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return 1
	}

	tree, err := parser.ParseSource(string(source), rules)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	status := 0
	if check {
		c := checker.NewChecker(string(source))
		if !c.Check(tree) {
			status = 1
		}
		c.ReportErrors(stderr)
	}

	// Determine output destination.
	output := stdout
	if outputFile != "" {
		file, err := os.Create(outputFile) // #nosec G304 - CLI tool writes to user-specified output files
		if err != nil {
			fmt.Fprintf(stderr, "Error creating output file: %v\n", err)
			return 1
		}
		defer file.Close()
		output = file
	}

	options := common.DefaultPrintOptions()
	options.Format = format
	options.TrimTokenOnOutput = trim
	options.IncludeSpans = !noSpans
	if err := printFunc(tree, "  ", output, options); err != nil {
		fmt.Fprintf(stderr, "Error writing tree: %v\n", err)
		return 1
	}
	return status
}
