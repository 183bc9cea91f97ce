package python_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/jsconvert/pkg/catalog/python"
	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/parser"
)

func convert(t *testing.T, source string) *engine.Output {
	t.Helper()

	root, err := parser.ParseSource(source, nil)
	require.NoError(t, err)
	e := engine.New(engine.NewRuleSet(python.Name, python.Rules()))
	out, err := e.Transform(context.Background(), root, source)
	require.NoError(t, err)
	return out
}

func TestRules_Convert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"var", "var x = 1;", "x = 1"},
		{"uninitialised declarators", "let a = 1, b;", "a = 1\nb = None"},
		{"string", "const s = 'hi';", "s = 'hi'"},
		{
			"if chain",
			"if (a > 1) { b(); } else if (c) { d(); } else { e(); }",
			"if a > 1:\n    b()\nelif c:\n    d()\nelse:\n    e()",
		},
		{"while with update", "while (i < 10) i++;", "while i < 10:\n    i += 1"},
		{
			"counting loop",
			"for (let i = 0; i < n; i++) { console.log(i); }",
			"for i in range(n):\n    print(i)",
		},
		{
			"inclusive stepped loop",
			"for (let i = 1; i <= 10; i += 2) {}",
			"for i in range(1, 10 + 1, 2):\n    pass",
		},
		{
			"general loop",
			"for (let i = 0; i < n; i = next(i)) { f(i); }",
			"i = 0\nwhile i < n:\n    f(i)\n    i = next(i)",
		},
		{
			"do while",
			"do { x--; } while (x > 0);",
			"while True:\n    x -= 1\n    if not (x > 0):\n        break",
		},
		{"for of", "for (const item of items) { total += item; }", "for item in items:\n    total += item"},
		{"function", "function add(a, b = 2) { return a + b; }", "def add(a, b=2):\n    return a + b"},
		{"async function", "async function f() { await g(); }", "async def f():\n    await g()"},
		{"lambda", "const double = x => x * 2;", "double = lambda x: x * 2"},
		{"arrow with block", "const f = (a) => { g(a); return a; };", "def f(a):\n    g(a)\n    return a"},
		{
			"hoisted callback",
			"items.forEach(item => { log(item); log(item); });",
			"def _func_1(item):\n    log(item)\n    log(item)\nitems.forEach(_func_1)",
		},
		{
			"switch as match",
			"switch (x) {\n  case 1:\n  case 2:\n    a();\n    break;\n  default:\n    b();\n}",
			"match x:\n    case 1 | 2:\n        a()\n    case _:\n        b()",
		},
		{
			"switch with leading default",
			"switch (x) { default: g(); break; case 1: f(); }",
			"match x:\n    case 1:\n        f()\n    case _:\n        g()",
		},
		{
			"switch with default between cases",
			"switch (x) { case 1: f(); break; default: case 2: g(); break; case 3: h(); }",
			"match x:\n    case 1:\n        f()\n    case 3:\n        h()\n    case _:\n        g()",
		},
		{
			"switch as if chain",
			"switch (k) { case A: f(); break; default: g(); }",
			"if k == A:\n    f()\nelse:\n    g()",
		},
		{
			"try",
			"try { f(); } catch (e) { g(e); } finally { h(); }",
			"try:\n    f()\nexcept Exception as e:\n    g(e)\nfinally:\n    h()",
		},
		{"logical operators", "x = a && !b || c;", "x = a and not b or c"},
		{"python precedence", "y = a & b == c;", "y = a & (b == c)"},
		{"null comparison", "if (v === null) { v = 0; }", "if v is None:\n    v = 0"},
		{"conditional", "z = a ? b : c;", "z = b if a else c"},
		{"template", "s = `hi`;", `s = "hi"`},
		{"builtins", "console.log(Math.max(a, b), arr.length);", "print(max(a, b), len(arr))"},
		{"object", "o = {a: 1, 'b': 2, c, [k]: 3, ...rest};", `o = {"a": 1, "b": 2, "c": c, k: 3, **rest}`},
		{"reserved names", "let list = []; list.push(1);", "list_ = []\nlist_.append(1)"},
		{"parameter rename is scoped", "function f(str) { return str; }\nstr(1);", "def f(str_):\n    return str_\nstr(1)"},
		{"named import", "import { a, b as c } from './util.js';", "from .util import a, b as c"},
		{"default import", "import React from 'react';", "import react as React"},
		{"namespace import", "import * as path from 'path';", "import path"},
		{"comment", "// hello\nx = 1;", "# hello\nx = 1"},
		{"export declaration", "export function f() {}", "def f():\n    pass"},
		{"typeof", "t = typeof x;", "t = type(x).__name__"},
		{"throw", "throw new Error('bad');", "raise Exception('bad')"},
		{"use strict", "'use strict';\nx = 1;", "x = 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := convert(t, tt.source)
			assert.Equal(t, tt.want, out.Text)
			assert.Empty(t, out.Diagnostics)
		})
	}
}

func TestRules_Class(t *testing.T) {
	t.Parallel()

	source := `class Dog extends Animal {
  sound = "woof";
  constructor(name) {
    super(name);
    this.name = name;
  }
  speak() {
    return ` + "`${this.name} says ${this.sound}`" + `;
  }
  static create() { return new Dog("rex"); }
}`
	want := `class Dog(Animal):
    def __init__(self, name):
        super().__init__(name)
        self.sound = "woof"
        self.name = name
    def speak(self):
        return f"{self.name} says {self.sound}"
    @staticmethod
    def create():
        return Dog("rex")`

	out := convert(t, source)
	assert.Equal(t, want, out.Text)
	assert.Empty(t, out.Diagnostics)
}

func TestRules_PreludeImports(t *testing.T) {
	t.Parallel()

	out := convert(t, "y = Math.floor(x);\nr = /ab+c/gi;")
	assert.Equal(t, "import math\nimport re\n\ny = math.floor(x)\nr = re.compile(r\"ab+c\", re.I)", out.Text)
}

func TestRules_UnknownOperatorPassesThrough(t *testing.T) {
	t.Parallel()

	out := convert(t, "a ?? b;")
	assert.Equal(t, "a ?? b", out.Text)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, engine.UnsupportedConstruct, out.Diagnostics[0].Kind)
	assert.Equal(t, "binary", out.Diagnostics[0].NodeKind)
	assert.Equal(t, 1, out.PassThroughs())
}

func TestRules_UpdateInsideExpressionPassesThrough(t *testing.T) {
	t.Parallel()

	out := convert(t, "a = b++;")
	assert.Equal(t, "a = b++", out.Text)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, "update", out.Diagnostics[0].NodeKind)
}

func TestRules_LoopControlIsApproximate(t *testing.T) {
	t.Parallel()

	out := convert(t, "do { if (a) continue; b(); } while (c);")
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, engine.ApproximateConstruct, out.Diagnostics[0].Kind)
	assert.Contains(t, out.Diagnostics[0].Message, "continue")
}

func TestRules_ImportsAreRegistered(t *testing.T) {
	t.Parallel()

	out := convert(t, "import { a } from './util.js';\nimport fs from 'fs';")
	assert.Equal(t, map[string]string{"a": "./util.js", "fs": "fs"}, out.Imports)
}

func TestRules_StringMethods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		source      string
		want        string
		approximate int
	}{
		{"indexOf", "i = s.indexOf('a');", "i = s.find('a')", 0},
		{"lastIndexOf of unknown value", "i = s.lastIndexOf(t);", "i = s.rfind(t)", 1},
		{"charAt", "ch = s.charAt(i);", "ch = s[i]", 0},
		{"charCodeAt", "n = s.charCodeAt(0);", "n = ord(s[0])", 0},
		{"fromCharCode", "ch = String.fromCharCode(65);", "ch = chr(65)", 0},
		{"substring", "t = s.substring(1, 3);", "t = s[1:3]", 0},
		{"substring to end", "t = s.substring(2);", "t = s[2:]", 0},
		{"substring with computed bounds", "t = s.substring(a, b);", "t = s[a:b]", 1},
		{"localeCompare", "r = a.localeCompare(b);", "from locale import strcoll\n\nr = strcoll(a, b)", 0},
		{"regex test", "ok = /ab/g.test(s);", "import re\n\nok = bool(re.compile(r\"ab\").search(s))", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := convert(t, tt.source)
			assert.Equal(t, tt.want, out.Text)
			require.Len(t, out.Diagnostics, tt.approximate)
			for _, d := range out.Diagnostics {
				assert.Equal(t, engine.ApproximateConstruct, d.Kind)
			}
		})
	}
}

func TestRules_LoopBoundResizedInBody(t *testing.T) {
	t.Parallel()

	out := convert(t, "for (let i = 0; i < q.length; i++) { q.pop(); }")
	assert.Equal(t, "i = 0\nwhile i < len(q):\n    q.pop()\n    i += 1", out.Text)
	assert.Empty(t, out.Diagnostics)

	out = convert(t, "for (let i = 0; i < q.length; i++) { log(q[i]); }")
	assert.Equal(t, "for i in range(len(q)):\n    log(q[i])", out.Text)
}
