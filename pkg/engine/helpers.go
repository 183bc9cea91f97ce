package engine

import (
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
)

// Statements emits nodes one per line at the current indentation. Helpers
// hoisted while emitting a statement are placed in front of it. Statements
// that emit nothing are dropped.
func Statements(c *Context, nodes []*common.Node, recurse Recurse) (string, error) {
	var lines []string
	for _, node := range nodes {
		mark := len(c.hoisted)
		text, err := recurse(node)
		if err != nil {
			c.hoisted = c.hoisted[:mark]
			return "", err
		}
		for _, helper := range c.hoisted[mark:] {
			lines = append(lines, Reindent(helper, c.Indent()))
		}
		c.hoisted = c.hoisted[:mark]
		if text != "" {
			lines = append(lines, c.Indent()+text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// Block emits nodes as a nested block. The result starts with a line break
// so it can follow a header such as "if x:". When there are no statements
// the empty text, if any, is emitted instead.
func Block(c *Context, nodes []*common.Node, recurse Recurse, empty string) (string, error) {
	return c.Nest(func() (string, error) {
		body, err := Statements(c, nodes, recurse)
		if err != nil {
			return "", err
		}
		if body == "" {
			if empty == "" {
				return "", nil
			}
			body = c.Indent() + empty
		}
		return "\n" + body, nil
	})
}

// Join emits nodes and joins the results with sep.
func Join(nodes []*common.Node, sep string, recurse Recurse) (string, error) {
	parts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		text, err := recurse(node)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, sep), nil
}

// Splice returns the raw text of node with every child replaced by its
// emission, keeping the connective text between children.
func Splice(node *common.Node, recurse Recurse) (string, error) {
	var sb strings.Builder
	base := node.Span.Start
	pos := 0
	for _, child := range node.Children {
		start, end := child.Span.Start-base, child.Span.End-base
		if start < pos || end > len(node.Raw) {
			continue
		}
		sb.WriteString(node.Raw[pos:start])
		text, err := recurse(child)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		pos = end
	}
	sb.WriteString(node.Raw[pos:])
	return sb.String(), nil
}

// Reindent prefixes every non-blank line of text with indent.
func Reindent(text, indent string) string {
	if indent == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}
