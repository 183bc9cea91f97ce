package common

import (
	"fmt"
	"io"
	"sort"

	asciitree "github.com/thediveo/go-asciitree"
)

type AsciiNode struct {
	Label    string      `asciitree:"label"`
	Props    []string    `asciitree:"properties"`
	Children []AsciiNode `asciitree:"children"`
}

// convertToTree converts a Node structure to an asciitree-tagged value.
func convertToTree(n *Node, options *PrintOptions) AsciiNode {
	label := n.Name

	// Extract and sort keys lexically
	sortedKeys := make([]string, 0, len(n.Options))
	for key := range n.Options {
		sortedKeys = append(sortedKeys, key)
	}
	sort.Strings(sortedKeys)

	var props []string
	for _, key := range sortedKeys {
		value := n.Options[key]
		trimmedValue := TrimValue(key, value, options.TrimTokenOnOutput)
		props = append(props, fmt.Sprintf("%s: %s", key, trimmedValue))
	}
	if options.IncludeSpans {
		props = append(props, fmt.Sprintf("%s: %s", OptionSpan, n.Span.SpanString()))
	}
	if options.IncludeRaw && len(n.Children) == 0 {
		props = append(props, fmt.Sprintf("raw: %q", TrimValue(OptionValue, n.Raw, options.TrimTokenOnOutput)))
	}

	var children []AsciiNode
	for _, child := range n.Children {
		children = append(children, convertToTree(child, options))
	}
	return AsciiNode{
		Label:    label,
		Props:    props,
		Children: children,
	}
}

func PrintASTAsciiTree(root *Node, indentDelta string, output io.Writer, options *PrintOptions) error {
	if options == nil {
		options = DefaultPrintOptions()
	}
	_, err := fmt.Fprintln(output, asciitree.RenderFancy(convertToTree(root, options)))
	return err
}
