// Package python holds the rules that convert JavaScript into Python 3.
//
// Statements are emitted without their leading indentation; the enclosing
// engine.Statements call supplies it. Constructs the rules cannot express
// faithfully are either left to the engine's pass-through or emitted on a
// best-effort basis with a warning.
package python

import (
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
)

const (
	Name        = "python"
	Description = "JavaScript to Python 3"
)

// Rules returns a fresh copy of the catalog's rules in registration order.
func Rules() []engine.Rule {
	var rules []engine.Rule
	rules = append(rules, statementRules()...)
	rules = append(rules, functionRules()...)
	rules = append(rules, expressionRules()...)
	return rules
}

// reserved are names a JavaScript program may declare that would break or
// shadow something in the emitted Python.
var reserved = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "def": true, "del": true, "elif": true, "except": true,
	"from": true, "global": true, "is": true, "lambda": true, "nonlocal": true,
	"not": true, "or": true, "pass": true, "raise": true, "self": true,
	"print": true, "len": true, "str": true, "int": true, "float": true,
	"list": true, "dict": true, "set": true, "type": true, "range": true,
	"input": true, "id": true, "math": true, "json": true, "re": true,
	"sys": true, "random": true, "isinstance": true,
}

// declare introduces a source name in the current scope and returns the
// name to use for it in Python.
func declare(c *engine.Context, name string) string {
	if reserved[name] {
		renamed := name + "_"
		c.Bind(name, renamed)
		return renamed
	}
	return name
}

// privateName maps a class private name onto Python's underscore
// convention.
func privateName(name string) string {
	if strings.HasPrefix(name, "#") {
		return "_" + name[1:]
	}
	return name
}

// inStatement reports whether the current node's value is discarded, i.e.
// it is an expression statement or a for loop's init or update clause.
func inStatement(c *engine.Context) bool {
	parent := c.Parent()
	switch {
	case parent.Is(common.NameExpression):
		return true
	case parent.Is(common.NameFor):
		i := c.SiblingIndex()
		return i == 0 || i == 2
	case parent.Is(common.NameSequence):
		grand := c.ParentOf(parent)
		if grand.Is(common.NameExpression) {
			return true
		}
		return grand.Is(common.NameFor) && c.IndexOf(parent) != 1
	case parent.Is(common.NameAssign):
		return parent.Option(common.OptionOperator) == "=" && c.Node().Option(common.OptionOperator) == "=" && c.IndexOf(c.Node()) == 1
	}
	return false
}

// suite emits a loop or branch body, which is either a block or a single
// statement, as an indented Python suite.
func suite(c *engine.Context, body *common.Node, recurse engine.Recurse) (string, error) {
	nodes := []*common.Node{body}
	if body.Is(common.NameBlock) {
		nodes = body.Children
	}
	return c.Nest(func() (string, error) {
		return suiteLines(c, nodes, recurse, nil)
	})
}

// suiteLines emits nodes at the current indentation, preceded by the
// prologue lines, and guarantees at least one statement.
func suiteLines(c *engine.Context, nodes []*common.Node, recurse engine.Recurse, prologue []string) (string, error) {
	var lines []string
	for _, line := range prologue {
		lines = append(lines, c.Indent()+line)
	}
	body, err := engine.Statements(c, nodes, recurse)
	if err != nil {
		return "", err
	}
	if body != "" {
		lines = append(lines, body)
	}
	text := strings.Join(lines, "\n")
	if !hasCode(text) {
		if text != "" {
			text += "\n"
		}
		text += c.Indent() + "pass"
	}
	return "\n" + text, nil
}

// hasCode reports whether text contains a line that is not a comment.
func hasCode(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			return true
		}
	}
	return false
}

// dedent strips prefix from every line that carries it.
func dedent(text, prefix string) string {
	if prefix == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

// containsJump reports whether a break or continue inside body would act
// on the loop being emitted, i.e. is not nested in an inner loop, switch
// or function.
func containsJump(body *common.Node, names ...string) bool {
	found := false
	var visit func(n *common.Node, top bool)
	visit = func(n *common.Node, top bool) {
		if found || n == nil {
			return
		}
		if !top && n.Is(common.NameFor, common.NameForIn, common.NameForOf, common.NameWhile, common.NameDo,
			common.NameSwitch, common.NameFunction, common.NameArrow, common.NameClass) {
			return
		}
		if n.Is(names...) && !n.HasOption(common.OptionLabel) {
			found = true
			return
		}
		for _, child := range n.Children {
			visit(child, false)
		}
	}
	visit(body, true)
	return found
}

// assigns reports whether any assignment or update within n targets name.
func assigns(n *common.Node, name string) bool {
	found := false
	n.Walk(func(node *common.Node, _ *common.Path) bool {
		if found {
			return false
		}
		if node.Is(common.NameAssign, common.NameUpdate) {
			target := node.Child(0)
			if target.Is(common.NameIdentifier) && target.Option(common.OptionName) == name {
				found = true
			}
		}
		return true
	})
	return found
}

var resizingMethods = map[string]bool{"push": true, "pop": true, "shift": true, "unshift": true, "splice": true}

// resizes reports whether body changes the length that a bound such as
// a.length reads, by reassigning a or calling a method that resizes it.
func resizes(body, bound *common.Node) bool {
	if !bound.Is(common.NameMember) || bound.Option(common.OptionName) != "length" {
		return false
	}
	receiver := bound.Child(0)
	if receiver.Is(common.NameIdentifier) && assigns(body, receiver.Option(common.OptionName)) {
		return true
	}
	found := false
	body.Walk(func(node *common.Node, _ *common.Path) bool {
		if found {
			return false
		}
		if node.Is(common.NameCall) {
			callee := node.Child(0)
			if callee.Is(common.NameMember) && resizingMethods[callee.Option(common.OptionName)] &&
				callee.Child(0).Raw == receiver.Raw {
				found = true
			}
		}
		return true
	})
	return found
}

func kinds(names ...string) []string {
	return names
}
