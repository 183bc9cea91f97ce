package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/jsconvert/pkg/catalog"
	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/parser"
	"github.com/spicery/jsconvert/pkg/rewriter"
)

func transform(t *testing.T, registry *catalog.Registry, name, source string) *engine.Output {
	t.Helper()

	rules, err := registry.Load(name)
	require.NoError(t, err)
	root, err := parser.ParseSource(source, nil)
	require.NoError(t, err)
	out, err := engine.New(rules).Transform(context.Background(), root, source)
	require.NoError(t, err)
	return out
}

func TestBuiltin_Names(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"es5", catalog.Identity, "javascript", "python"}, catalog.Builtin().Names())
}

func TestBuiltin_PythonVarDeclaration(t *testing.T) {
	t.Parallel()

	out := transform(t, catalog.Builtin(), "python", "var x = 1;")
	assert.Equal(t, "x = 1", out.Text)
	assert.Empty(t, out.Diagnostics)
}

func TestBuiltin_PythonUnknownOperator(t *testing.T) {
	t.Parallel()

	out := transform(t, catalog.Builtin(), "python", "c = a ?? b;")
	assert.Equal(t, "c = a ?? b", out.Text)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, engine.UnsupportedConstruct, out.Diagnostics[0].Kind)
	assert.Equal(t, common.NameBinary, out.Diagnostics[0].NodeKind)
}

func TestBuiltin_Identity(t *testing.T) {
	t.Parallel()

	source := "let x = 1;\nif (x) {\n  f(x)\n}\n"
	out := transform(t, catalog.Builtin(), catalog.Identity, source)
	assert.Equal(t, source, out.Text)
}

func TestBuiltin_ES5ExtendsJavascript(t *testing.T) {
	t.Parallel()

	registry := catalog.Builtin()
	out := transform(t, registry, "es5", "let x = 1\nconst y = 2;\nvar z = 3;\nif (x) { let w = x }")
	assert.Equal(t, "var x = 1;\nvar y = 2;\nvar z = 3;\nif (x) {\n    var w = x;\n}", out.Text)

	es5, err := registry.Lookup("es5")
	require.NoError(t, err)
	assert.Equal(t, ".js", es5.Extensions().Input)
	assert.Equal(t, ".es5.js", es5.Extensions().Output)
}

func TestRegistry_NotFound(t *testing.T) {
	t.Parallel()

	registry := catalog.Builtin()
	_, err := registry.Lookup("cobol")
	assert.True(t, errors.Is(err, catalog.ErrCatalogNotFound))
	_, err = registry.Load("cobol")
	assert.True(t, errors.Is(err, catalog.ErrCatalogNotFound))
}

func TestRegistry_Duplicate(t *testing.T) {
	t.Parallel()

	registry := catalog.NewRegistry()
	empty := catalog.Static("empty", "", catalog.Extensions{}, func() []engine.Rule { return nil })
	require.NoError(t, registry.Register(empty))
	err := registry.Register(empty)
	assert.True(t, errors.Is(err, catalog.ErrDuplicateCatalog))
}

func TestRegistry_LoadIsCachedAndConcurrent(t *testing.T) {
	t.Parallel()

	registry := catalog.Builtin()
	sets := make([]*engine.RuleSet, 16)
	var wg sync.WaitGroup
	for i := range sets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := registry.Load("python")
			assert.NoError(t, err)
			sets[i] = set
		}()
	}
	wg.Wait()
	for _, set := range sets {
		assert.Same(t, sets[0], set)
	}
	assert.Equal(t, "python", sets[0].Name())
}

func TestRegistry_LoadFileExtendsAndRemoves(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "loud.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: loud
description: Python with suffixed names
extends: python
remove: [comment]
rules:
  - name: identifier
    kinds: [id]
    emit:
      sequence:
        - attr: name
        - text: "_"
`), 0o600))

	registry := catalog.Builtin()
	loud, err := registry.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "loud", loud.Name())
	assert.Equal(t, ".py", loud.Extensions().Output)

	out := transform(t, registry, "loud", "x = y;\n// hi")
	assert.Equal(t, "x_ = y_\n// hi", out.Text)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, common.NameComment, out.Diagnostics[0].NodeKind)
}

func TestRegistry_FromConfigErrors(t *testing.T) {
	t.Parallel()

	registry := catalog.Builtin()

	config, err := rewriter.LoadCatalogConfigFromString("name: orphan\nextends: missing\n")
	require.NoError(t, err)
	_, err = registry.FromConfig(config)
	assert.True(t, errors.Is(err, catalog.ErrCatalogNotFound))

	config, err = rewriter.LoadCatalogConfigFromString("name: orphan\nremove: [var]\n")
	require.NoError(t, err)
	_, err = registry.FromConfig(config)
	assert.True(t, errors.Is(err, rewriter.ErrInvalidCatalog))
}

func TestExtendAndWithout(t *testing.T) {
	t.Parallel()

	rule := func(name string) engine.Rule {
		return engine.NewRule(name, nil, func(*common.Node, *engine.Context, engine.Recurse) (string, error) {
			return name, nil
		})
	}
	base := catalog.Static("base", "base rules", catalog.Extensions{Input: ".js", Output: ".txt"}, func() []engine.Rule {
		return []engine.Rule{rule("a"), rule("b"), rule("c")}
	})

	derived := catalog.Extend("derived", "", base, catalog.Extensions{Output: ".out"}, rule("b"), rule("d"))
	rules, err := derived.Rules()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(rules))
	assert.Equal(t, catalog.Extensions{Input: ".js", Output: ".out"}, derived.Extensions())

	trimmed := catalog.Without(derived, "a", "c")
	rules, err = trimmed.Rules()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, names(rules))
	assert.Equal(t, "derived", trimmed.Name())

	rules, err = base.Rules()
	require.NoError(t, err)
	assert.Len(t, rules, 3)
}

func names(rules []engine.Rule) []string {
	var result []string
	for _, r := range rules {
		result = append(result, r.Name())
	}
	return result
}
