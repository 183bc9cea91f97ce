package python

import (
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
)

func functionRules() []engine.Rule {
	return []engine.Rule{
		engine.NewRule("function-declaration", kinds(common.NameFunction), emitFunctionDeclaration,
			engine.When(isDeclaration)),
		engine.NewRule("function-expression", kinds(common.NameFunction), emitFunctionExpression,
			engine.When(engine.HasOption(common.OptionExpression, common.ValueTrue))),
		engine.NewRule("arrow", kinds(common.NameArrow), emitArrow),
		engine.NewRule("class", kinds(common.NameClass), classDef, engine.When(isDeclaration)),
	}
}

// isDeclaration matches named functions and classes in statement position.
func isDeclaration(n *common.Node, _ *engine.Context) bool {
	return !n.Flag(common.OptionExpression) && n.Option(common.OptionName) != ""
}

type defOptions struct {
	self bool
	// fields are instance fields assigned at the top of the body, after a
	// leading super() call if there is one.
	fields []*common.Node
}

// def emits a function or block-bodied arrow as a Python def. The header
// carries no indentation; the body is one level deeper than the caller.
func def(c *engine.Context, name string, fn *common.Node, recurse engine.Recurse, opts defOptions) (string, error) {
	keyword := "def "
	if fn.Flag(common.OptionAsync) {
		keyword = "async def "
	}
	return c.Nest(func() (string, error) {
		params, err := paramList(c, fn.Child(0), recurse)
		if err != nil {
			return "", err
		}
		if opts.self {
			params = strings.TrimSuffix("self, "+params, ", ")
		}
		body := fn.Child(1)
		nodes := statementsOf(body)
		if !body.Is(common.NameBlock) {
			nodes = nil
		}
		var prologue []string
		if len(opts.fields) > 0 {
			if len(nodes) > 0 && isSuperCall(nodes[0]) {
				first, err := recurse(nodes[0])
				if err != nil {
					return "", err
				}
				prologue = append(prologue, first)
				nodes = nodes[1:]
			}
			for _, field := range opts.fields {
				line, err := fieldAssignment(field, "self.", recurse)
				if err != nil {
					return "", err
				}
				prologue = append(prologue, line)
			}
		}
		if !body.Is(common.NameBlock) {
			value, err := recurse(body)
			if err != nil {
				return "", err
			}
			prologue = append(prologue, "return "+value)
		}
		text, err := suiteLines(c, nodes, recurse, prologue)
		if err != nil {
			return "", err
		}
		return keyword + name + "(" + params + "):" + text, nil
	})
}

// paramList declares the parameters in the current scope and returns them
// as a Python parameter list.
func paramList(c *engine.Context, params *common.Node, recurse engine.Recurse) (string, error) {
	var parts []string
	for _, param := range params.Children {
		switch {
		case param.Is(common.NameIdentifier):
			parts = append(parts, declare(c, param.Option(common.OptionName)))
		case param.Is(common.NameAssign) && param.Child(0).Is(common.NameIdentifier):
			value, err := recurse(param.Child(1))
			if err != nil {
				return "", err
			}
			parts = append(parts, declare(c, param.Child(0).Option(common.OptionName))+"="+value)
		case param.Is(common.NameSpread) && param.Child(0).Is(common.NameIdentifier):
			parts = append(parts, "*"+declare(c, param.Child(0).Option(common.OptionName)))
		default:
			text, err := recurse(param)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ", "), nil
}

func isSuperCall(stmt *common.Node) bool {
	expr := stmt.Child(0)
	return stmt.Is(common.NameExpression) && expr.Is(common.NameCall) && expr.Child(0).Is(common.NameSuper)
}

func fieldAssignment(field *common.Node, prefix string, recurse engine.Recurse) (string, error) {
	value := "None"
	if init := field.Child(0); init != nil {
		text, err := recurse(init)
		if err != nil {
			return "", err
		}
		value = text
	}
	return prefix + privateName(field.Option(common.OptionName)) + " = " + value, nil
}

func emitFunctionDeclaration(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	return def(c, declare(c, n.Option(common.OptionName)), n, recurse, defOptions{})
}

// emitFunctionExpression hoists the function as a def in front of the
// current statement and refers to it by name.
func emitFunctionExpression(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	name := n.Option(common.OptionName)
	if name == "" {
		name = c.UniqueName("_func")
	}
	return hoistDef(c, name, n, recurse)
}

func hoistDef(c *engine.Context, name string, fn *common.Node, recurse engine.Recurse) (string, error) {
	text, err := def(c, name, fn, recurse, defOptions{})
	if err != nil {
		return "", err
	}
	c.Hoist(dedent(text, c.Indent()))
	return name, nil
}

// lambdaBody returns the single expression an arrow evaluates to, or nil
// when it needs a full def.
func lambdaBody(n *common.Node) *common.Node {
	if n.Flag(common.OptionAsync) {
		return nil
	}
	body := n.Child(1)
	if n.Flag(common.OptionExpression) {
		return body
	}
	if len(body.Children) == 1 && body.Child(0).Is(common.NameReturn) {
		return body.Child(0).Child(0)
	}
	return nil
}

func emitArrow(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	body := lambdaBody(n)
	if body == nil {
		return hoistDef(c, c.UniqueName("_func"), n, recurse)
	}
	return c.Nest(func() (string, error) {
		params, err := paramList(c, n.Child(0), recurse)
		if err != nil {
			return "", err
		}
		value, err := recurse(body)
		if err != nil {
			return "", err
		}
		if params == "" {
			return "lambda: " + value, nil
		}
		return "lambda " + params + ": " + value, nil
	})
}

// methodNames maps JavaScript protocol methods onto their Python dunder.
var methodNames = map[string]string{
	"constructor": "__init__",
	"toString":    "__str__",
}

func classDef(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	header := "class " + declare(c, n.Option(common.OptionName))
	members := n.Children
	hasBase := false
	if len(members) > 0 && members[0].Is(common.NameExtends) {
		base, err := recurse(members[0].Child(0))
		if err != nil {
			return "", err
		}
		header += "(" + base + ")"
		hasBase = true
		members = members[1:]
	}

	var fields []*common.Node
	hasConstructor := false
	for _, m := range members {
		switch {
		case m.Is(common.NameField) && !m.Flag(common.OptionComputed) && !m.Flag(common.OptionStatic):
			fields = append(fields, m)
		case m.Is(common.NameMethod) && m.Option(common.OptionKind) == common.ValueConstructor:
			hasConstructor = true
		}
	}

	body, err := c.Nest(func() (string, error) {
		var lines []string
		add := func(text string) {
			lines = append(lines, c.Indent()+text)
		}
		if !hasConstructor && len(fields) > 0 {
			params := "self"
			text, err := c.Nest(func() (string, error) {
				var prologue []string
				if hasBase {
					params = "self, *args, **kwargs"
					prologue = append(prologue, "super().__init__(*args, **kwargs)")
				}
				for _, field := range fields {
					line, err := fieldAssignment(field, "self.", recurse)
					if err != nil {
						return "", err
					}
					prologue = append(prologue, line)
				}
				return suiteLines(c, nil, recurse, prologue)
			})
			if err != nil {
				return "", err
			}
			add("def __init__(" + params + "):" + text)
		}
		for _, m := range members {
			static := m.Flag(common.OptionStatic)
			kind := m.Option(common.OptionKind)
			switch {
			case m.Is(common.NameField) && !m.Flag(common.OptionComputed):
				if !static {
					continue
				}
				line, err := fieldAssignment(m, "", recurse)
				if err != nil {
					return "", err
				}
				add(line)
			case m.Is(common.NameMethod) && !m.Flag(common.OptionComputed) && kind != "static-block":
				name := privateName(m.Option(common.OptionName))
				if renamed, ok := methodNames[m.Option(common.OptionName)]; ok && !static {
					name = renamed
				}
				opts := defOptions{self: !static}
				var decorators []string
				switch kind {
				case common.ValueConstructor:
					opts.fields = fields
				case common.ValueGet:
					decorators = append(decorators, "@property")
				case common.ValueSet:
					decorators = append(decorators, "@"+name+".setter")
				}
				if static {
					decorators = append(decorators, "@staticmethod")
				}
				text, err := def(c, name, m.Child(0), recurse, opts)
				if err != nil {
					return "", err
				}
				for _, decorator := range decorators {
					add(decorator)
				}
				add(text)
			default:
				text, err := recurse(m)
				if err != nil {
					return "", err
				}
				add(text)
			}
		}
		if len(lines) == 0 {
			add("pass")
		}
		return "\n" + strings.Join(lines, "\n"), nil
	})
	if err != nil {
		return "", err
	}
	return header + ":" + body, nil
}
