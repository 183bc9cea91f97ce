package common

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

func PrintASTDOT(root *Node, indentDelta string, output io.Writer, options *PrintOptions) error {
	if options == nil {
		options = DefaultPrintOptions()
	}
	w := bufio.NewWriter(output)
	fmt.Fprintln(w, `digraph G {`)
	fmt.Fprintln(w, `  bgcolor="transparent";`)
	fmt.Fprintln(w, `  node [shape="box", style="filled", fontname="Ubuntu Mono"];`)

	counter := 0
	printNodeDOT(root, "", w, options, &counter)

	fmt.Fprintln(w, `}`)
	return w.Flush()
}

func printNodeDOT(node *Node, parentID string, w io.Writer, options *PrintOptions, counter *int) {
	*counter++
	nodeID := fmt.Sprintf("node_%d", *counter)

	label := node.Name
	for _, key := range []string{OptionValue, OptionName, OptionOperator, OptionKeyword, OptionText} {
		if value, exists := node.Options[key]; exists {
			trimmedValue := TrimValue(key, value, options.TrimTokenOnOutput)
			label = fmt.Sprintf("%s: %s", node.Name, escapeDOTValue(trimmedValue))
			break
		}
	}

	fillColor := tagColors[node.Name]
	if fillColor == "" {
		fillColor = "lightgray"
	}

	fmt.Fprintf(w, "  \"%s\" [label=\"%s\", shape=\"box\", fillcolor=\"%s\"];\n", nodeID, label, fillColor)

	if parentID != "" {
		fmt.Fprintf(w, "  \"%s\" -> \"%s\";\n", parentID, nodeID)
	}

	for _, child := range node.Children {
		printNodeDOT(child, nodeID, w, options, counter)
	}
}

func escapeDOTValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "\n", `\n`)
	return strings.ReplaceAll(value, `"`, `\"`)
}

var tagColors = map[string]string{
	NameModule:     "lightpink",
	NameBlock:      "#FFD8E1",
	NameFunction:   "lightblue",
	NameClass:      "lightblue",
	NameCall:       "lightgreen",
	NameIdentifier: "Honeydew",
	NameArguments:  "PaleTurquoise",
	NameBinary:     "#C0FFC0",
	NameUnary:      "#C0FFC0",
	NameNumber:     "lightgoldenrodyellow",
	NameString:     "lightgoldenrodyellow",
	NameRaw:        "orange",
}
