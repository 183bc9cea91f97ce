package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/parser"
	"github.com/spicery/jsconvert/pkg/tokenizer"
)

func parse(t *testing.T, source string) *common.Node {
	t.Helper()

	root, err := parser.ParseSource(source, nil)
	require.NoError(t, err)
	require.Equal(t, common.NameModule, root.Name)
	return root
}

// names lists the node names of a subtree in pre-order.
func names(node *common.Node) []string {
	var result []string
	node.Walk(func(n *common.Node, _ *common.Path) bool {
		result = append(result, n.Name)
		return true
	})
	return result
}

func TestParse_VarDeclaration(t *testing.T) {
	t.Parallel()

	root := parse(t, "var x = 1;")
	require.Len(t, root.Children, 1)

	decl := root.Child(0)
	assert.Equal(t, common.NameVar, decl.Name)
	assert.Equal(t, "var", decl.Option(common.OptionKeyword))
	assert.Equal(t, "var x = 1;", decl.Raw)
	assert.Equal(t, []string{"var", "declarator", "id", "number"}, names(decl))
	assert.Equal(t, "x", decl.Child(0).Child(0).Option(common.OptionName))
	assert.Equal(t, "1", decl.Child(0).Child(1).Option(common.OptionValue))
}

func TestParse_SpansReconstructSource(t *testing.T) {
	t.Parallel()

	source := `// header
import { a as b, c } from "./lib";
export function total(items, start = 0) {
  let sum = start;
  for (const item of items) {
    sum += item.price ?? 0;
  }
  return sum > 10 ? sum : -sum;
}
class Shape extends Base {
  constructor(w) { super(w); this.w = w; }
  get area() { return this.w ** 2; }
  static create() { return new Shape(1); }
}
const greet = (name) => ` + "`hello ${name.toUpperCase()}!`" + `;
do { i++ } while (i < 3)
switch (k) { case 1: f(); break; default: g(); }
try { risky(); } catch (e) { throw new Error(e.message); } finally { done(); }
`
	root := parse(t, source)
	assert.Equal(t, source, root.Reconstruct(source))

	root.Walk(func(n *common.Node, path *common.Path) bool {
		assert.Equal(t, source[n.Span.Start:n.Span.End], n.Raw, n.Name)
		if path != nil {
			assert.True(t, path.Parent.Span.Contains(&n.Span), "%s inside %s", n.Name, path.Parent.Name)
		}
		return true
	})
	for _, statement := range root.Children {
		assert.NotEqual(t, common.NameRaw, statement.Name, statement.Raw)
	}
}

func TestParse_BinaryPrecedence(t *testing.T) {
	t.Parallel()

	expr := parse(t, "a + b * c;").Child(0).Child(0)
	assert.Equal(t, "+", expr.Option(common.OptionOperator))
	assert.Equal(t, "*", expr.Child(1).Option(common.OptionOperator))

	expr = parse(t, "a - b - c;").Child(0).Child(0)
	assert.Equal(t, "a - b", expr.Child(0).Raw)

	expr = parse(t, "a ** b ** c;").Child(0).Child(0)
	assert.Equal(t, "b ** c", expr.Child(1).Raw)

	expr = parse(t, "a || b && c === d;").Child(0).Child(0)
	assert.Equal(t, "||", expr.Option(common.OptionOperator))
	assert.Equal(t, "b && c === d", expr.Child(1).Raw)
}

func TestParse_Expressions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"call chain", "a.b(c)[0];", []string{"expression", "index", "call", "member", "id", "arguments", "id", "number"}},
		{"optional chain", "a?.b;", []string{"expression", "member", "id"}},
		{"new", "new Foo(1);", []string{"expression", "new", "id", "arguments", "number"}},
		{"conditional", "a ? b : c;", []string{"expression", "conditional", "id", "id", "id"}},
		{"assignment", "x += 2;", []string{"expression", "assign", "id", "number"}},
		{"postfix update", "i++;", []string{"expression", "update", "id"}},
		{"unary", "!typeof x;", []string{"expression", "unary", "unary", "id"}},
		{"array with hole", "[1, , ...r];", []string{"expression", "array", "number", "hole", "spread", "id"}},
		{"sequence", "a, b;", []string{"expression", "sequence", "id", "id"}},
		{"regex", "/ab+/g.test(s);", []string{"expression", "call", "member", "regex", "arguments", "id"}},
		{"await", "async function f() { await g(); }", []string{"function", "params", "block", "expression", "await", "call", "id", "arguments"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := parse(t, tt.source)
			require.Len(t, root.Children, 1)
			assert.Equal(t, tt.want, names(root.Child(0)))
		})
	}
}

func TestParse_Arrow(t *testing.T) {
	t.Parallel()

	arrow := parse(t, "const f = (a, b) => a + b;").Child(0).Child(0).Child(1)
	require.Equal(t, common.NameArrow, arrow.Name)
	assert.True(t, arrow.Flag(common.OptionExpression))
	assert.Len(t, arrow.Child(0).Children, 2)

	arrow = parse(t, "g(x => { return x; });").Child(0).Child(0).Child(1).Child(0)
	require.Equal(t, common.NameArrow, arrow.Name)
	assert.False(t, arrow.Flag(common.OptionExpression))
	assert.Equal(t, common.NameBlock, arrow.Child(1).Name)
}

func TestParse_Template(t *testing.T) {
	t.Parallel()

	source := "s = `sum ${a + b}!`;"
	tmpl := parse(t, source).Child(0).Child(0).Child(1)
	require.Equal(t, common.NameTemplate, tmpl.Name)
	require.Len(t, tmpl.Children, 3)

	assert.Equal(t, "sum ", tmpl.Child(0).Option(common.OptionValue))
	assert.Equal(t, common.NameBinary, tmpl.Child(1).Name)
	assert.Equal(t, "a + b", tmpl.Child(1).Raw)
	assert.Equal(t, "!", tmpl.Child(2).Option(common.OptionValue))
}

func TestParse_Literals(t *testing.T) {
	t.Parallel()

	str := parse(t, "'it';").Child(0).Child(0)
	assert.Equal(t, "it", str.Option(common.OptionValue))
	assert.Equal(t, common.ValueSingle, str.Option(common.OptionQuote))

	re := parse(t, "x = /a[/]b/gi;").Child(0).Child(0).Child(1)
	assert.Equal(t, "a[/]b", re.Option(common.OptionValue))
	assert.Equal(t, "gi", re.Option(common.OptionFlags))
}

func TestParse_Object(t *testing.T) {
	t.Parallel()

	obj := parse(t, "x = {a: 1, b, [c]: 2, get: 3, m() {}, ...rest};").Child(0).Child(0).Child(1)
	require.Equal(t, common.NameObject, obj.Name)
	require.Len(t, obj.Children, 6)

	assert.Equal(t, "a", obj.Child(0).Option(common.OptionName))
	assert.True(t, obj.Child(1).Flag(common.OptionShorthand))
	assert.True(t, obj.Child(2).Flag(common.OptionComputed))
	assert.Equal(t, "get", obj.Child(3).Option(common.OptionName))
	assert.Equal(t, common.ValueInit, obj.Child(3).Option(common.OptionKind))
	assert.Equal(t, common.ValueMethod, obj.Child(4).Option(common.OptionKind))
	assert.Equal(t, common.NameSpread, obj.Child(5).Name)
}

func TestParse_ClassicForHasFourChildren(t *testing.T) {
	t.Parallel()

	loop := parse(t, "for (let i = 0; i < n; i++) {}").Child(0)
	require.Equal(t, common.NameFor, loop.Name)
	assert.Len(t, loop.Children, 4)

	loop = parse(t, "for (;;) {}").Child(0)
	require.Len(t, loop.Children, 4)
	for _, clause := range loop.Children[:3] {
		assert.Equal(t, common.NameEmpty, clause.Name)
	}
}

func TestParse_AutomaticSemicolons(t *testing.T) {
	t.Parallel()

	root := parse(t, "a = 1\nb = 2\nreturn\nc")
	assert.Equal(t, []string{"expression", "expression", "return", "expression"}, []string{
		root.Child(0).Name, root.Child(1).Name, root.Child(2).Name, root.Child(3).Name,
	})
	assert.Empty(t, root.Child(2).Children)
}

func TestParse_Comments(t *testing.T) {
	t.Parallel()

	root := parse(t, "// first\nx;\n/* second */\n")
	require.Len(t, root.Children, 3)

	assert.Equal(t, common.NameComment, root.Child(0).Name)
	assert.Equal(t, common.ValueLine, root.Child(0).Option(common.OptionStyle))
	assert.Equal(t, " first", root.Child(0).Option(common.OptionText))
	assert.Equal(t, common.ValueBlock, root.Child(2).Option(common.OptionStyle))
	assert.Equal(t, " second ", root.Child(2).Option(common.OptionText))
}

func TestParse_UnrecognisedStatementBecomesRaw(t *testing.T) {
	t.Parallel()

	root := parse(t, "with (obj) { a; }\nx = 1;")
	require.Len(t, root.Children, 2)

	assert.Equal(t, common.NameRaw, root.Child(0).Name)
	assert.Equal(t, "with (obj) { a; }", root.Child(0).Raw)
	assert.Equal(t, common.NameExpression, root.Child(1).Name)
}

func TestParse_RawInsideBlockStopsAtBrace(t *testing.T) {
	t.Parallel()

	root := parse(t, "function f() { a b c }")
	fn := root.Child(0)
	require.Equal(t, common.NameFunction, fn.Name)

	block := fn.Child(1)
	require.Len(t, block.Children, 1)
	assert.Equal(t, common.NameRaw, block.Child(0).Name)
	assert.Equal(t, "a b c", block.Child(0).Raw)
}

func TestParse_DeepNestingDegradesToRaw(t *testing.T) {
	t.Parallel()

	source := strings.Repeat("(", 2000) + "x" + strings.Repeat(")", 2000) + ";"
	root := parse(t, source)
	require.Len(t, root.Children, 1)
	assert.Equal(t, common.NameRaw, root.Child(0).Name)
	assert.Equal(t, source, root.Child(0).Raw)
}

func TestParse_SyntaxErrorOnUnbalancedDelimiters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		line   int
	}{
		{"mismatched", "if (a\n}", 2},
		{"unclosed", "f(\n  1,", 1},
		{"stray closer", "x = 1;\n]", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parser.ParseSource(tt.source, nil)
			require.Error(t, err)

			var syntaxErr *parser.SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, tt.line, syntaxErr.Span.StartLine)
		})
	}
}

func TestParse_LexErrorPropagates(t *testing.T) {
	t.Parallel()

	_, err := parser.ParseSource("x = 'abc", nil)
	var lexErr *tokenizer.LexError
	require.True(t, errors.As(err, &lexErr))
}

func TestParse_ModuleSpanCoversSource(t *testing.T) {
	t.Parallel()

	source := "a;\n\n  "
	root := parse(t, source)
	assert.Equal(t, 0, root.Span.Start)
	assert.Equal(t, len(source), root.Span.End)
	assert.Equal(t, 3, root.Span.EndLine)
	assert.Equal(t, source, root.Raw)
}
