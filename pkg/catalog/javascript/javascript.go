// Package javascript re-emits JavaScript with normalised statement layout:
// one statement per line, four-space indentation, explicit semicolons and
// braces on the statement line. Expressions are kept as written.
package javascript

import (
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
)

const (
	Name        = "javascript"
	Description = "JavaScript with normalised layout"
)

func Rules() []engine.Rule {
	return []engine.Rule{
		engine.NewRule("module", []string{common.NameModule}, emitModule),
		engine.NewRule("block", []string{common.NameBlock}, emitBlock),
		engine.NewRule("empty", []string{common.NameEmpty}, emitEmpty, engine.When(engine.ParentIs(common.NameModule, common.NameBlock))),
		engine.NewRule("expression-statement", []string{common.NameExpression}, emitExpressionStatement),
		engine.NewRule("var", []string{common.NameVar}, emitVar),
		engine.NewRule("function", []string{common.NameFunction}, emitWithBody, engine.When(isDeclaration)),
		engine.NewRule("class", []string{common.NameClass}, emitClass, engine.When(isDeclaration)),
		engine.NewRule("if", []string{common.NameIf}, emitIf),
		engine.NewRule("loop", []string{common.NameFor, common.NameForIn, common.NameForOf, common.NameWhile}, emitWithBody),
		engine.NewRule("do-while", []string{common.NameDo}, emitDoWhile),
		engine.NewRule("try", []string{common.NameTry}, emitTry),
		engine.NewRule("switch", []string{common.NameSwitch}, emitSwitch),
		engine.NewRule("label", []string{common.NameLabel}, emitLabel),
		engine.NewRule("export", []string{common.NameExport}, emitExport),
		engine.NewRule("simple-statement", []string{
			common.NameReturn, common.NameThrow, common.NameBreak, common.NameContinue, common.NameImport,
		}, emitTerminated),
		engine.NewRule("comment", []string{common.NameComment}, emitVerbatim),
		// Everything else, expressions in particular, is kept as written.
		// Unrecognised statements are left to the pass-through so they are
		// still reported.
		engine.NewRule("verbatim", nil, emitVerbatim, engine.WithPrecedence(-100),
			engine.When(engine.Not(isRaw))),
	}
}

func isRaw(n *common.Node, _ *engine.Context) bool {
	return n.Is(common.NameRaw)
}

func isDeclaration(n *common.Node, c *engine.Context) bool {
	return !n.Flag(common.OptionExpression) || c.Parent().Is(common.NameExport)
}

func emitModule(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	return engine.Statements(c, n.Children, recurse)
}

func emitBlock(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	body, err := engine.Block(c, n.Children, recurse, "")
	if err != nil {
		return "", err
	}
	if body == "" {
		return "{}", nil
	}
	return "{" + body + c.Newline() + "}", nil
}

func emitEmpty(*common.Node, *engine.Context, engine.Recurse) (string, error) {
	return "", nil
}

func emitVerbatim(n *common.Node, _ *engine.Context, _ engine.Recurse) (string, error) {
	return n.Raw, nil
}

// terminate ends a statement with exactly one semicolon.
func terminate(text string) string {
	return strings.TrimRight(strings.TrimSpace(text), ";") + ";"
}

func emitTerminated(n *common.Node, _ *engine.Context, _ engine.Recurse) (string, error) {
	return terminate(n.Raw), nil
}

func emitExpressionStatement(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	text, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	return terminate(text), nil
}

func emitVar(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	declarators, err := engine.Join(n.Children, ", ", recurse)
	if err != nil {
		return "", err
	}
	text := n.Option(common.OptionKeyword) + " " + declarators
	if c.Parent().Is(common.NameFor, common.NameForIn, common.NameForOf) {
		return text, nil
	}
	return text + ";", nil
}

// header is the source text of n up to where child starts.
func header(n, child *common.Node) string {
	return strings.TrimSpace(n.Raw[:child.Span.Start-n.Span.Start])
}

// body emits a loop or branch body: blocks stay on the header line, single
// statements go on their own indented line.
func body(c *engine.Context, n *common.Node, recurse engine.Recurse) (string, error) {
	if n.Is(common.NameBlock) {
		text, err := recurse(n)
		if err != nil {
			return "", err
		}
		return " " + text, nil
	}
	return c.Nest(func() (string, error) {
		text, err := recurse(n)
		if err != nil {
			return "", err
		}
		return c.Newline() + text, nil
	})
}

// emitWithBody keeps the header as written and re-emits the trailing body.
func emitWithBody(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	last := n.Child(-1)
	text, err := body(c, last, recurse)
	if err != nil {
		return "", err
	}
	return header(n, last) + text, nil
}

func emitIf(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	test, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	consequent, err := body(c, n.Child(1), recurse)
	if err != nil {
		return "", err
	}
	text := "if (" + test + ")" + consequent
	alternate := n.Child(2)
	if alternate == nil {
		return text, nil
	}
	separator := " else"
	if !n.Child(1).Is(common.NameBlock) {
		separator = c.Newline() + "else"
	}
	if alternate.Is(common.NameIf) {
		rest, err := recurse(alternate)
		if err != nil {
			return "", err
		}
		return text + separator + " " + rest, nil
	}
	rest, err := body(c, alternate, recurse)
	if err != nil {
		return "", err
	}
	return text + separator + rest, nil
}

func emitDoWhile(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	loop, err := body(c, n.Child(0), recurse)
	if err != nil {
		return "", err
	}
	test, err := recurse(n.Child(1))
	if err != nil {
		return "", err
	}
	separator := " "
	if !n.Child(0).Is(common.NameBlock) {
		separator = c.Newline()
	}
	return "do" + loop + separator + "while (" + test + ");", nil
}

func emitTry(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	text, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	parts := []string{"try " + text}
	for _, clause := range n.Children[1:] {
		rest, err := emitWithBody(clause, c, recurse)
		if err != nil {
			return "", err
		}
		parts = append(parts, rest)
	}
	return strings.Join(parts, " "), nil
}

func emitSwitch(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	subject, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	clauses, err := c.Nest(func() (string, error) {
		var sb strings.Builder
		for _, clause := range n.Children[1:] {
			stmts := clause.Children
			label := "default:"
			if clause.Is(common.NameCase) {
				test, err := recurse(clause.Child(0))
				if err != nil {
					return "", err
				}
				label = "case " + test + ":"
				stmts = stmts[1:]
			}
			text, err := engine.Block(c, stmts, recurse, "")
			if err != nil {
				return "", err
			}
			sb.WriteString(c.Newline() + label + text)
		}
		return sb.String(), nil
	})
	if err != nil {
		return "", err
	}
	if clauses == "" {
		return "switch (" + subject + ") {}", nil
	}
	return "switch (" + subject + ") {" + clauses + c.Newline() + "}", nil
}

func emitLabel(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	text, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	return n.Option(common.OptionLabel) + ": " + text, nil
}

func emitExport(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	decl := n.Child(0)
	switch {
	case n.HasOption(common.OptionSource) || decl == nil || decl.Is(common.NameSpecifier):
		return terminate(n.Raw), nil
	case decl.Is(common.NameVar, common.NameFunction, common.NameClass):
		text, err := recurse(decl)
		if err != nil {
			return "", err
		}
		return header(n, decl) + " " + text, nil
	}
	return terminate(n.Raw), nil
}

// emitClass re-indents the members of a class body, one per line.
func emitClass(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	head := "class"
	if name := n.Option(common.OptionName); name != "" {
		head += " " + name
	}
	members := n.Children
	if len(members) > 0 && members[0].Is(common.NameExtends) {
		superclass, err := recurse(members[0].Child(0))
		if err != nil {
			return "", err
		}
		head += " extends " + superclass
		members = members[1:]
	}
	if len(members) == 0 {
		return head + " {}", nil
	}
	text, err := c.Nest(func() (string, error) {
		var sb strings.Builder
		for _, m := range members {
			var line string
			var err error
			if m.Is(common.NameMethod) {
				line, err = emitMethod(m, c, recurse)
			} else {
				line = terminate(m.Raw)
			}
			if err != nil {
				return "", err
			}
			sb.WriteString(c.Newline() + line)
		}
		return sb.String(), nil
	})
	if err != nil {
		return "", err
	}
	return head + " {" + text + c.Newline() + "}", nil
}

// emitMethod keeps the method signature and re-emits its body block.
func emitMethod(m *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	block := m.Child(-1)
	if fn := m.Child(-1); fn.Is(common.NameFunction) {
		block = fn.Child(1)
	}
	text, err := recurse(block)
	if err != nil {
		return "", err
	}
	return header(m, block) + " " + text, nil
}
