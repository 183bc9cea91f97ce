package javascript_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/jsconvert/pkg/catalog/javascript"
	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/parser"
)

func normalise(t *testing.T, source string) *engine.Output {
	t.Helper()

	root, err := parser.ParseSource(source, nil)
	require.NoError(t, err)
	e := engine.New(engine.NewRuleSet(javascript.Name, javascript.Rules()))
	out, err := e.Transform(context.Background(), root, source)
	require.NoError(t, err)
	return out
}

func TestRules_Normalise(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"var", "var x = 1;", "var x = 1;"},
		{"missing semicolons", "let a = 1\nf(a)", "let a = 1;\nf(a);"},
		{"function", "function f(x){return x*2}", "function f(x) {\n    return x*2;\n}"},
		{"if else", "if (a) b(); else { c() }", "if (a)\n    b();\nelse {\n    c();\n}"},
		{"else if", "if (a) {x()} else if (b) {y()}", "if (a) {\n    x();\n} else if (b) {\n    y();\n}"},
		{"loop", "for (let i = 0; i < n; i++) { if (i) continue }", "for (let i = 0; i < n; i++) {\n    if (i)\n        continue;\n}"},
		{"do while", "do { n-- } while (n)", "do {\n    n--;\n} while (n);"},
		{"try", "try { a() } catch (e) { b(e) } finally { c() }", "try {\n    a();\n} catch (e) {\n    b(e);\n} finally {\n    c();\n}"},
		{"switch", "switch (x) { case 1: a(); break; default: b() }", "switch (x) {\n    case 1:\n        a();\n        break;\n    default:\n        b();\n}"},
		{"class", "class A extends B { x = 1; m() { return 2 } }", "class A extends B {\n    x = 1;\n    m() {\n        return 2;\n    }\n}"},
		{"export", "export function f() {}", "export function f() {}"},
		{"empty statements dropped", ";;x;", "x;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := normalise(t, tt.source)
			assert.Equal(t, tt.want, out.Text)
			assert.Empty(t, out.Diagnostics)

			again := normalise(t, out.Text)
			assert.Equal(t, out.Text, again.Text)
		})
	}
}

func TestRules_UnrecognisedStatementsAreReported(t *testing.T) {
	t.Parallel()

	out := normalise(t, "with (obj) { a; }")
	assert.Equal(t, "with (obj) { a; }", out.Text)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, engine.UnsupportedConstruct, out.Diagnostics[0].Kind)
}
