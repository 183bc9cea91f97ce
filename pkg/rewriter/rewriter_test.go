package rewriter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/parser"
	"github.com/spicery/jsconvert/pkg/rewriter"
)

const baseRules = `
  - name: module
    match:
      self:
        name: module
    emit:
      statements: {}
  - name: expression
    kinds: [expression]
    emit:
      child: 0
  - name: identifier
    kinds: [id]
    emit:
      lookup: name
  - name: number
    kinds: [number]
    emit:
      attr: value
`

func run(t *testing.T, catalog, source string) *engine.Output {
	t.Helper()

	config, err := rewriter.LoadCatalogConfigFromString(catalog)
	require.NoError(t, err)
	rules, err := rewriter.Compile(config)
	require.NoError(t, err)

	root, err := parser.ParseSource(source, nil)
	require.NoError(t, err)

	out, err := engine.New(engine.NewRuleSet(config.Name, rules)).Transform(context.Background(), root, source)
	require.NoError(t, err)
	return out
}

func TestCatalog_VarBecomesAssignment(t *testing.T) {
	t.Parallel()

	catalog := `
name: assignments
rules:` + baseRules + `
  - name: var
    match:
      self:
        name: var
    emit:
      children:
        separator: "\n"
  - name: declarator
    match:
      self:
        name: declarator
        count: 2
    emit:
      sequence:
        - child: 0
        - text: " = "
        - child: 1
`
	out := run(t, catalog, "var x = 1;")
	assert.Equal(t, "x = 1", out.Text)
	assert.Empty(t, out.Diagnostics)
}

func TestCatalog_BindingsAndPrelude(t *testing.T) {
	t.Parallel()

	catalog := `
name: constants
rules:` + baseRules + `
  - name: const
    match:
      self:
        name: var
        key: keyword
        value: const
    emit:
      sequence:
        - bind:
            name: PI
            with: math.pi
        - require:
            key: math
            line: import math
`
	out := run(t, catalog, "const PI = 3;\nPI;\nother;")
	assert.Equal(t, "import math\n\nmath.pi\nother", out.Text)
}

func TestCatalog_NestedBlocks(t *testing.T) {
	t.Parallel()

	catalog := `
name: blocks
rules:` + baseRules + `
  - name: if
    match:
      self:
        name: if
        count: 2
    emit:
      sequence:
        - text: "if "
        - child: 0
        - text: ":"
        - nest:
            - child: 1
  - name: block
    kinds: [block]
    emit:
      sequence:
        - text: "\n"
        - statements: {}
  - name: empty-block
    precedence: 1
    match:
      self:
        name: block
        count: 0
    emit:
      sequence:
        - newline: true
        - text: pass
`
	out := run(t, catalog, "if (a) { b; c; }\nif (d) {}")
	assert.Equal(t, "if a:\n    b\n    c\nif d:\n    pass", out.Text)
}

func TestPattern_Matching(t *testing.T) {
	t.Parallel()

	catalog := `
name: patterns
rules:` + baseRules + `
  - name: call
    kinds: [call, arguments, member, binary]
    emit:
      splice: true
  - name: first-argument
    precedence: 5
    match:
      self:
        name: id
        siblingPosition: 0
      parent:
        name: arguments
    emit:
      text: FIRST
  - name: inside-binary
    precedence: 4
    match:
      self:
        name: number
      ancestor:
        name: binary
    emit:
      text: N
  - name: not-log
    precedence: 3
    match:
      self:
        name: member
        key: name
        value: log
        cmp: false
    emit:
      text: OTHER
  - name: loggers
    precedence: 3
    match:
      self:
        name: id
        key: name
        value.regexp: "^con"
    emit:
      text: CONSOLE
  - name: call-with-number-then-id
    precedence: 6
    match:
      self:
        name: arguments
      child:
        name: number
      nextChild:
        name: id
    emit:
      text: (MATCHED)
`
	out := run(t, catalog, "console.log(a, b + 2);\nconsole.warn(c);\nf(1, d);")
	assert.Equal(t, "CONSOLE.log(FIRST, b + N)\nOTHER(FIRST)\nf(MATCHED)", out.Text)
}

func TestLoadCatalogConfig_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "name: file\ndescription: from disk\nextends: javascript\nextensions:\n  input: .js\n  output: .mjs\nremove: [a]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := rewriter.LoadCatalogConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "file", config.Name)
	assert.Equal(t, "javascript", config.Extends)
	assert.Equal(t, ".mjs", config.Extensions.Output)
	assert.Equal(t, []string{"a"}, config.Remove)

	_, err = rewriter.LoadCatalogConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestCatalog_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		catalog string
	}{
		{"missing name", "rules: []"},
		{"unknown field", "name: x\nbogus: 1"},
		{"two steps", "name: x\nrules:\n  - name: r\n    emit:\n      text: a\n      raw: true"},
		{"missing emit", "name: x\nrules:\n  - name: r\n    kinds: [id]"},
		{"bad regexp", "name: x\nrules:\n  - name: r\n    match:\n      self:\n        key: name\n        value.regexp: \"(\"\n    emit:\n      raw: true"},
		{"value without key", "name: x\nrules:\n  - name: r\n    match:\n      self:\n        value: a\n    emit:\n      raw: true"},
		{"duplicate rules", "name: x\nrules:\n  - name: r\n    emit:\n      raw: true\n  - name: r\n    emit:\n      raw: true"},
		{"bind without name", "name: x\nrules:\n  - name: r\n    emit:\n      bind:\n        with: y"},
		{"next without child", "name: x\nrules:\n  - name: r\n    match:\n      nextChild:\n        name: id\n    emit:\n      raw: true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config, err := rewriter.LoadCatalogConfigFromString(tt.catalog)
			if err == nil {
				_, err = rewriter.Compile(config)
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, rewriter.ErrInvalidCatalog), err.Error())
		})
	}
}

func TestRange_Select(t *testing.T) {
	t.Parallel()

	root, err := parser.ParseSource("a; b; c; d;", nil)
	require.NoError(t, err)

	two := 2
	minusOne := -1
	assert.Len(t, rewriter.Range{}.Select(root.Children), 4)
	assert.Len(t, rewriter.Range{From: 1, To: &two}.Select(root.Children), 1)
	assert.Len(t, rewriter.Range{From: 1, To: &minusOne}.Select(root.Children), 2)
	assert.Empty(t, rewriter.Range{From: 3, To: &two}.Select(root.Children))
}
