package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/parser"
)

func parse(t *testing.T, source string) *common.Node {
	t.Helper()

	root, err := parser.ParseSource(source, nil)
	require.NoError(t, err)
	return root
}

func transform(t *testing.T, rules []engine.Rule, source string, opts ...engine.Option) (*engine.Output, error) {
	t.Helper()

	e := engine.New(engine.NewRuleSet("test", rules), opts...)
	return e.Transform(context.Background(), parse(t, source), source)
}

func constant(text string) engine.EmitFunc {
	return func(*common.Node, *engine.Context, engine.Recurse) (string, error) {
		return text, nil
	}
}

var (
	moduleRule = engine.NewRule("module", []string{common.NameModule},
		func(n *common.Node, c *engine.Context, r engine.Recurse) (string, error) {
			return engine.Statements(c, n.Children, r)
		})
	blockRule = engine.NewRule("block", []string{common.NameBlock},
		func(n *common.Node, c *engine.Context, r engine.Recurse) (string, error) {
			body, err := engine.Block(c, n.Children, r, "")
			return "{" + body + c.Newline() + "}", err
		})
	statementRule = engine.NewRule("expression", []string{common.NameExpression},
		func(n *common.Node, _ *engine.Context, r engine.Recurse) (string, error) {
			text, err := r(n.Child(0))
			return text + ";", err
		})
	spliceRule = engine.NewRule("splice", nil,
		func(n *common.Node, _ *engine.Context, r engine.Recurse) (string, error) {
			return engine.Splice(n, r)
		}, engine.WithPrecedence(-1))
	upperRule = engine.NewRule("upper", []string{common.NameIdentifier},
		func(n *common.Node, _ *engine.Context, _ engine.Recurse) (string, error) {
			return strings.ToUpper(n.Option(common.OptionName)), nil
		})
)

func TestTransform_PassThroughIsTotal(t *testing.T) {
	t.Parallel()

	source := "import { a } from './a';\nclass K { m() { return a?.b ?? `t${1}`; } }\nwith (o) { x >>>= 2; }\n"
	root := parse(t, source)
	e := engine.New(engine.NewRuleSet("empty", nil))

	root.Walk(func(node *common.Node, _ *common.Path) bool {
		out, err := e.Transform(context.Background(), node, source)
		require.NoError(t, err)
		assert.Equal(t, node.Raw, out.Text, node.Name)
		require.Len(t, out.Diagnostics, 1)
		assert.Equal(t, engine.UnsupportedConstruct, out.Diagnostics[0].Kind)
		assert.Equal(t, node.Name, out.Diagnostics[0].NodeKind)
		return true
	})
}

func TestTransform_IdempotentWithoutMatchingRules(t *testing.T) {
	t.Parallel()

	source := "let a = 1;\n\nfunction f(x) {\n  return x * a;\n}\n"
	unused := engine.NewRule("class", []string{common.NameClass}, constant("never"))

	out, err := transform(t, []engine.Rule{unused}, source)
	require.NoError(t, err)
	assert.Equal(t, source, out.Text)
	assert.Equal(t, 1, out.PassThroughs())
}

func TestTransform_SpliceKeepsConnectiveText(t *testing.T) {
	t.Parallel()

	out, err := transform(t, []engine.Rule{spliceRule, upperRule}, "var x = y + 1;\n")
	require.NoError(t, err)
	assert.Equal(t, "var X = Y + 1;\n", out.Text)
	assert.Empty(t, out.Diagnostics)
}

func TestLookup_PrecedenceIsDeterministic(t *testing.T) {
	t.Parallel()

	low := engine.NewRule("low", []string{common.NameIdentifier}, constant("low"), engine.WithPrecedence(1))
	high := engine.NewRule("high", []string{common.NameIdentifier}, constant("high"), engine.WithPrecedence(10))
	first := engine.NewRule("first", []string{common.NameIdentifier}, constant("first"), engine.WithPrecedence(5))
	second := engine.NewRule("second", []string{common.NameIdentifier}, constant("second"), engine.WithPrecedence(5))

	tests := []struct {
		name  string
		rules []engine.Rule
		want  string
	}{
		{"higher registered last", []engine.Rule{low, high}, "high"},
		{"higher registered first", []engine.Rule{high, low}, "high"},
		{"equal precedence, first wins", []engine.Rule{first, second}, "first"},
		{"equal precedence, reversed", []engine.Rule{second, first}, "second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rules := append([]engine.Rule{moduleRule, statementRule}, tt.rules...)
			for range 20 {
				out, err := transform(t, rules, "x")
				require.NoError(t, err)
				assert.Equal(t, tt.want+";", out.Text)
			}
		})
	}
}

func TestLookup_MergesWildcardRules(t *testing.T) {
	t.Parallel()

	node := &common.Node{Name: common.NameIdentifier}
	wild := engine.NewRule("wild", nil, constant("wild"), engine.WithPrecedence(5))
	kinded := engine.NewRule("kinded", []string{common.NameIdentifier}, constant("kinded"), engine.WithPrecedence(5))
	weak := engine.NewRule("weak", []string{common.NameIdentifier}, constant("weak"), engine.WithPrecedence(1))

	rule, ok := engine.NewRuleSet("a", []engine.Rule{weak, wild, kinded}).Lookup(node, nil)
	require.True(t, ok)
	assert.Equal(t, "wild", rule.Name())

	rule, ok = engine.NewRuleSet("b", []engine.Rule{kinded, wild}).Lookup(node, nil)
	require.True(t, ok)
	assert.Equal(t, "kinded", rule.Name())

	_, ok = engine.NewRuleSet("c", []engine.Rule{weak}).Lookup(&common.Node{Name: common.NameNumber}, nil)
	assert.False(t, ok)
}

func TestLookup_SkipsRulesWhosePredicateFails(t *testing.T) {
	t.Parallel()

	never := engine.NewRule("never", []string{common.NameIdentifier}, constant("never"),
		engine.WithPrecedence(100),
		engine.When(func(*common.Node, *engine.Context) bool { return false }))
	named := engine.NewRule("named", []string{common.NameIdentifier}, constant("named"),
		engine.When(engine.HasOption(common.OptionName, "x")))

	out, err := transform(t, []engine.Rule{moduleRule, statementRule, never, named}, "x; y;")
	require.NoError(t, err)
	assert.Equal(t, "named;\ny;", out.Text)
	assert.Equal(t, 1, out.PassThroughs())
}

func TestRuleSet_Accessors(t *testing.T) {
	t.Parallel()

	twice := engine.NewRule("twice", []string{common.NameIdentifier, common.NameIdentifier}, constant("x"))
	rs := engine.NewRuleSet("named", []engine.Rule{moduleRule, twice})

	assert.Equal(t, "named", rs.Name())
	assert.Equal(t, 2, rs.Len())
	assert.Equal(t, []string{"module", "twice"}, rs.Names())
	assert.Len(t, rs.Rules(), 2)
}

func TestContext_BindingsFollowBlockNesting(t *testing.T) {
	t.Parallel()

	seen := map[string]string{}
	identifier := engine.NewRule("id", []string{common.NameIdentifier},
		func(n *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
			name := n.Option(common.OptionName)
			switch name {
			case "a":
				c.Bind("x", "outer")
			case "b":
				c.Bind("y", "inner")
			case "c":
				c.Bind("z", "deep")
			}
			seen[name] = c.Resolve("x") + "," + c.Resolve("y") + "," + c.Resolve("z")
			return name, nil
		})

	source := "a;\n{\n  b;\n  {\n    c;\n  }\n  d;\n}\ne;"
	out, err := transform(t, []engine.Rule{moduleRule, blockRule, statementRule, identifier}, source)
	require.NoError(t, err)

	assert.Equal(t, "a;\n{\n    b;\n    {\n        c;\n    }\n    d;\n}\ne;", out.Text)
	assert.Equal(t, map[string]string{
		"a": "outer,y,z",
		"b": "outer,inner,z",
		"c": "outer,inner,deep",
		"d": "outer,inner,z",
		"e": "outer,y,z",
	}, seen)
}

func TestContext_IndentationRestoredOnFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name string
		body func(c *engine.Context) (string, error)
	}{
		{"error", func(*engine.Context) (string, error) { return "", boom }},
		{"panic", func(*engine.Context) (string, error) { panic("kaboom") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var levelAfter int
			var leaked bool
			var childErr error
			module := engine.NewRule("module", []string{common.NameModule},
				func(n *common.Node, c *engine.Context, r engine.Recurse) (string, error) {
					_, childErr = r(n.Child(0))
					levelAfter = c.IndentLevel()
					_, leaked = c.Lookup("leak")
					return "recovered", nil
				})
			failing := engine.NewRule("failing", []string{common.NameExpression},
				func(_ *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
					return c.Nest(func() (string, error) {
						c.Bind("leak", "x")
						return tt.body(c)
					})
				})

			out, err := transform(t, []engine.Rule{module, failing}, "x;")
			require.NoError(t, err)
			assert.Equal(t, "recovered", out.Text)
			assert.Equal(t, 0, levelAfter)
			assert.False(t, leaked)

			var ruleErr *engine.RuleError
			require.True(t, errors.As(childErr, &ruleErr))
			assert.Equal(t, "failing", ruleErr.Rule)
			assert.Equal(t, common.NameExpression, ruleErr.NodeKind)
		})
	}
}

func TestTransform_DetectsIndentImbalance(t *testing.T) {
	t.Parallel()

	unbalanced := engine.NewRule("unbalanced", []string{common.NameExpression},
		func(_ *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
			c.Enter()
			return "x", nil
		})

	_, err := transform(t, []engine.Rule{moduleRule, unbalanced}, "x;")
	require.ErrorIs(t, err, engine.ErrIndentImbalance)

	var ruleErr *engine.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, "unbalanced", ruleErr.Rule)
}

func TestTransform_RuleErrorsAreWrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	failing := engine.NewRule("failing", []string{common.NameNumber},
		func(*common.Node, *engine.Context, engine.Recurse) (string, error) {
			return "", boom
		})

	_, err := transform(t, []engine.Rule{moduleRule, statementRule, spliceRule, failing}, "a;\nb + 1;")
	require.ErrorIs(t, err, boom)

	var ruleErr *engine.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, "failing", ruleErr.Rule)
	assert.Equal(t, common.NameNumber, ruleErr.NodeKind)
	assert.Equal(t, 2, ruleErr.Span.StartLine)
	assert.Equal(t, 5, ruleErr.Span.StartColumn)
}

func TestTransform_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := "x;"
	e := engine.New(engine.NewRuleSet("t", []engine.Rule{moduleRule, statementRule}))
	_, err := e.Transform(ctx, parse(t, source), source)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTransform_TooDeep(t *testing.T) {
	t.Parallel()

	_, err := transform(t, []engine.Rule{spliceRule}, "a + b * c;", engine.WithMaxDepth(3))
	require.ErrorIs(t, err, engine.ErrTooDeep)
}

func TestContext_Ancestry(t *testing.T) {
	t.Parallel()

	type record struct {
		parent, prev, path, call string
		index, ancestors           int
		next, inCall, inClass      bool
	}
	var got record
	probe := engine.NewRule("probe", []string{common.NameIdentifier},
		func(n *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
			if n.Option(common.OptionName) == "b" {
				got = record{
					parent:    c.Parent().Name,
					prev:      c.PrevSibling().Option(common.OptionName),
					path:      c.Path(),
					call:      c.Ancestor(common.NameCall).Raw,
					index:     c.SiblingIndex(),
					ancestors: len(c.Ancestors()),
					next:      c.NextSibling() != nil,
					inCall:    c.HasAncestor(common.NameCall),
					inClass:   c.HasAncestor(common.NameClass),
				}
			}
			return n.Option(common.OptionName), nil
		})

	_, err := transform(t, []engine.Rule{spliceRule, probe}, "f(a, b);")
	require.NoError(t, err)
	assert.Equal(t, record{
		parent:    common.NameArguments,
		prev:      "a",
		path:      "module/expression/call/arguments/id",
		call:      "f(a, b)",
		index:     1,
		ancestors: 4,
		next:      false,
		inCall:    true,
		inClass:   false,
	}, got)
}

func TestContext_PreludeAndHoisting(t *testing.T) {
	t.Parallel()

	expression := engine.NewRule("expression", []string{common.NameExpression},
		func(n *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
			c.Require("math", "import math")
			name := n.Child(0).Option(common.OptionName)
			if name != "b" {
				return name, nil
			}
			helper := c.UniqueName("_func")
			c.Hoist("def " + helper + "():\n    pass")
			c.RegisterImport(helper, "generated")
			return helper + "()", nil
		})

	out, err := transform(t, []engine.Rule{moduleRule, blockRule, expression}, "a;\n{\n  b;\n}")
	require.NoError(t, err)
	assert.Equal(t, "import math\n\na\n{\n    def _func_1():\n        pass\n    _func_1()\n}", out.Text)
	assert.Equal(t, map[string]string{"_func_1": "generated"}, out.Imports)
}

func TestContext_WarnRecordsApproximation(t *testing.T) {
	t.Parallel()

	warn := engine.NewRule("warn", []string{common.NameExpression},
		func(n *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
			c.Warn(n, "approximated %s", "loop control")
			return "x", nil
		})

	out, err := transform(t, []engine.Rule{moduleRule, warn}, "x;\nwith (o) {\n  p;\n}")
	require.NoError(t, err)
	require.Len(t, out.Diagnostics, 2)

	assert.Equal(t, engine.ApproximateConstruct, out.Diagnostics[0].Kind)
	assert.Equal(t, "approximated loop control", out.Diagnostics[0].Message)
	assert.Equal(t, engine.UnsupportedConstruct, out.Diagnostics[1].Kind)
	assert.Equal(t, "with (o) {", out.Diagnostics[1].Excerpt)
	assert.Equal(t, 1, out.PassThroughs())
}

func TestReindent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "  a\n\n    b", engine.Reindent("a\n\n  b", "  "))
	assert.Equal(t, "a", engine.Reindent("a", ""))
}
