package common

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintASTDOM writes one line per node, indented by depth, in the layout of
// the .dom side files produced next to converted sources.
func PrintASTDOM(root *Node, indentDelta string, output io.Writer, options *PrintOptions) error {
	if options == nil {
		options = DefaultPrintOptions()
	}
	if indentDelta == "" {
		indentDelta = "  "
	}
	w := bufio.NewWriter(output)
	printNodeDOM(root, "", indentDelta, w, options)
	return w.Flush()
}

func printNodeDOM(node *Node, indent, indentDelta string, w *bufio.Writer, options *PrintOptions) {
	w.WriteString(indent)
	w.WriteString(node.Name)
	keys := make([]string, 0, len(node.Options))
	for key := range node.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := TrimValue(key, node.Options[key], options.TrimTokenOnOutput)
		fmt.Fprintf(w, " %s=%q", key, value)
	}
	if options.IncludeSpans {
		fmt.Fprintf(w, " @%d:%d", node.Span.StartLine, node.Span.StartColumn)
	}
	if options.IncludeRaw && len(node.Children) == 0 && node.Raw != "" {
		raw := strings.ReplaceAll(node.Raw, "\n", `\n`)
		fmt.Fprintf(w, " %q", TrimValue(OptionValue, raw, options.TrimTokenOnOutput))
	}
	w.WriteString("\n")
	for _, child := range node.Children {
		printNodeDOM(child, indent+indentDelta, indentDelta, w, options)
	}
}
