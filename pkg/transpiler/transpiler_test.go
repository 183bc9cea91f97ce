package transpiler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/spicery/jsconvert/pkg/catalog"
	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/observability"
	"github.com/spicery/jsconvert/pkg/parser"
	"github.com/spicery/jsconvert/pkg/tokenizer"
	"github.com/spicery/jsconvert/pkg/transpiler"
)

func newTranspiler(opts ...transpiler.Option) *transpiler.Transpiler {
	return transpiler.New(catalog.Builtin(), opts...)
}

func writeSource(t *testing.T, dir, name, source string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestConvertString_VarDeclaration(t *testing.T) {
	t.Parallel()

	text, err := newTranspiler().ConvertString(context.Background(), "var x = 1;", "python")
	require.NoError(t, err)
	assert.Equal(t, "x = 1", text)
}

func TestConvertString_DefaultCatalog(t *testing.T) {
	t.Parallel()

	tr := newTranspiler(transpiler.WithDefaultCatalog(catalog.Identity))
	text, err := tr.ConvertString(context.Background(), "var x = 1;", "")
	require.NoError(t, err)
	assert.Equal(t, "var x = 1;", text)
}

func TestConvertString_UnknownCatalog(t *testing.T) {
	t.Parallel()

	_, err := newTranspiler().ConvertString(context.Background(), "var x = 1;", "cobol")
	require.ErrorIs(t, err, catalog.ErrCatalogNotFound)
}

func TestConvert_UnknownOperatorPassesThrough(t *testing.T) {
	t.Parallel()

	result, err := newTranspiler().Convert(context.Background(), transpiler.Request{
		Name:    "coalesce",
		Source:  "c = a ?? b;",
		Catalog: "python",
	})
	require.NoError(t, err)
	assert.Equal(t, transpiler.StatusOK, result.Status)
	assert.Equal(t, "c = a ?? b", result.Text)
	assert.Equal(t, 1, result.PassThroughs())
	assert.Equal(t, engine.UnsupportedConstruct, result.Diagnostics[0].Kind)
	assert.Equal(t, common.NameBinary, result.Diagnostics[0].NodeKind)
}

func TestConvert_UnitErrors(t *testing.T) {
	t.Parallel()

	tr := newTranspiler()

	result, err := tr.Convert(context.Background(), transpiler.Request{Source: "var a = (1;", Catalog: "python"})
	var syntaxErr *parser.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, transpiler.StatusFailed, result.Status)
	assert.Empty(t, result.Text)

	result, err = tr.Convert(context.Background(), transpiler.Request{Source: "var a = #1;", Catalog: "python"})
	var lexErr *tokenizer.LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, transpiler.StatusFailed, result.Status)
}

func TestConvert_NoEditComment(t *testing.T) {
	t.Parallel()

	result, err := newTranspiler().Convert(context.Background(), transpiler.Request{
		Source:  "// no-edit\nvar x = 1;",
		Catalog: "python",
	})
	require.ErrorIs(t, err, transpiler.ErrNoEdit)
	assert.Equal(t, transpiler.StatusSkipped, result.Status)
}

func TestConvert_NoEditMarkerInLeadingComments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		locked bool
	}{
		{"marker among words", "// generated, no-edit please\nvar x = 1;", true},
		{"second leading comment", "/* header */\n// no-edit\nvar x = 1;", true},
		{"marker after code", "var x = 1;\n// no-edit\n", false},
		{"marker inside a word", "// no-editing rules\nvar x = 1;", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := newTranspiler().Convert(context.Background(), transpiler.Request{
				Source:  tt.source,
				Catalog: "python",
			})
			if tt.locked {
				require.ErrorIs(t, err, transpiler.ErrNoEdit)
				assert.Equal(t, transpiler.StatusSkipped, result.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, transpiler.StatusOK, result.Status)
		})
	}
}

func TestConvert_Dump(t *testing.T) {
	t.Parallel()

	result, err := newTranspiler().Convert(context.Background(), transpiler.Request{
		Source:     "var x = 1;",
		Catalog:    "python",
		Dump:       true,
		DumpFormat: "YAML",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Dump, common.NameModule)
	assert.Contains(t, result.Dump, common.NameVar)
}

func TestConvert_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTranspiler().Convert(ctx, transpiler.Request{Source: "var x = 1;", Catalog: "python"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, transpiler.StatusCanceled, result.Status)
}

func TestDumpTree_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := newTranspiler().DumpTree("x;", "PNG")
	require.Error(t, err)
}

func TestConvertFile_WritesOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSource(t, dir, "a.js", "var x = 1;")

	result := newTranspiler().ConvertFile(context.Background(), transpiler.FileRequest{
		Input:   input,
		Catalog: "python",
		Dump:    true,
	})
	require.NoError(t, result.Err)
	assert.Equal(t, filepath.Join(dir, "a.py"), result.Output)
	assert.Equal(t, "x = 1\n", readFile(t, result.Output))
	assert.Contains(t, readFile(t, filepath.Join(dir, "a.json")), `"module"`)
	assert.NotEmpty(t, result.SourceHash)
}

func TestConvertFile_SameInputOutput(t *testing.T) {
	t.Parallel()

	input := writeSource(t, t.TempDir(), "a.js", "var x = 1;")

	result := newTranspiler().ConvertFile(context.Background(), transpiler.FileRequest{
		Input:   input,
		Output:  input,
		Catalog: catalog.Identity,
	})
	require.ErrorIs(t, result.Err, transpiler.ErrSameInputOutput)
	assert.Equal(t, "var x = 1;", readFile(t, input))
}

func TestConvertFile_NoEditOutputHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSource(t, dir, "a.js", "var x = 1;")
	output := writeSource(t, dir, "a.py", "# hand written\n# no-edit please\nx = 2\n")

	result := newTranspiler().ConvertFile(context.Background(), transpiler.FileRequest{Input: input, Catalog: "python"})
	require.ErrorIs(t, result.Err, transpiler.ErrNoEdit)
	assert.Equal(t, transpiler.StatusSkipped, result.Status)
	assert.Equal(t, "# hand written\n# no-edit please\nx = 2\n", readFile(t, output))
}

func TestConvertFile_FailureWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSource(t, dir, "a.js", "if (x { y(); }")

	result := newTranspiler().ConvertFile(context.Background(), transpiler.FileRequest{Input: input, Catalog: "python"})
	require.Error(t, result.Err)
	assert.Equal(t, transpiler.StatusFailed, result.Status)
	assert.NoFileExists(t, filepath.Join(dir, "a.py"))
}

func TestConvertFile_UnknownCatalog(t *testing.T) {
	t.Parallel()

	input := writeSource(t, t.TempDir(), "a.js", "x;")

	result := newTranspiler().ConvertFile(context.Background(), transpiler.FileRequest{Input: input, Catalog: "cobol"})
	require.ErrorIs(t, result.Err, catalog.ErrCatalogNotFound)
	assert.Equal(t, transpiler.StatusFailed, result.Status)
}

type fakeHistory map[string]string

func (h fakeHistory) SourceHash(path, catalogName string) (string, bool, error) {
	hash, ok := h[catalogName+":"+path]
	return hash, ok, nil
}

func TestConvertFile_Incremental(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSource(t, dir, "a.js", "var x = 1;")

	first := newTranspiler().ConvertFile(context.Background(), transpiler.FileRequest{Input: input, Catalog: "python"})
	require.NoError(t, first.Err)

	history := fakeHistory{"python:" + input: first.SourceHash}
	tr := newTranspiler(transpiler.WithHistory(history))

	again := tr.ConvertFile(context.Background(), transpiler.FileRequest{Input: input, Catalog: "python"})
	require.NoError(t, again.Err)
	assert.Equal(t, transpiler.StatusUnchanged, again.Status)

	forced := tr.ConvertFile(context.Background(), transpiler.FileRequest{Input: input, Catalog: "python", Force: true})
	assert.Equal(t, transpiler.StatusOK, forced.Status)

	writeSource(t, dir, "a.js", "var x = 2;")
	changed := tr.ConvertFile(context.Background(), transpiler.FileRequest{Input: input, Catalog: "python"})
	assert.Equal(t, transpiler.StatusOK, changed.Status)
	assert.Equal(t, "x = 2\n", readFile(t, changed.Output))
}

func TestConvertBatch_IndependentFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reqs := []transpiler.FileRequest{
		{Input: writeSource(t, dir, "one.js", "var x = 1;"), Catalog: "python"},
		{Input: writeSource(t, dir, "two.js", "function f( {"), Catalog: "python"},
		{Input: writeSource(t, dir, "three.js", "let y = 2;"), Catalog: "python"},
	}

	results, err := newTranspiler().ConvertBatch(context.Background(), reqs, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, transpiler.StatusOK, results[0].Status)
	assert.Equal(t, "x = 1\n", readFile(t, filepath.Join(dir, "one.py")))

	var syntaxErr *parser.SyntaxError
	require.ErrorAs(t, results[1].Err, &syntaxErr)
	assert.Equal(t, transpiler.StatusFailed, results[1].Status)
	assert.NoFileExists(t, filepath.Join(dir, "two.py"))

	assert.Equal(t, transpiler.StatusOK, results[2].Status)
	assert.Equal(t, "y = 2\n", readFile(t, filepath.Join(dir, "three.py")))

	summary := transpiler.Summarize(results)
	assert.Equal(t, 2, summary.ByStatus[transpiler.StatusOK])
	assert.Equal(t, 1, summary.Failed())
}

func TestConvertBatch_UnknownCatalogFailsUpFront(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reqs := []transpiler.FileRequest{
		{Input: writeSource(t, dir, "one.js", "var x = 1;"), Catalog: "python"},
		{Input: writeSource(t, dir, "two.js", "var y = 1;"), Catalog: "cobol"},
	}

	results, err := newTranspiler().ConvertBatch(context.Background(), reqs, 2)
	require.ErrorIs(t, err, catalog.ErrCatalogNotFound)
	assert.Nil(t, results)
	assert.NoFileExists(t, filepath.Join(dir, "one.py"))
}

func TestConvertBatch_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var reqs []transpiler.FileRequest
	for _, name := range []string{"a.js", "b.js", "c.js", "d.js"} {
		reqs = append(reqs, transpiler.FileRequest{Input: writeSource(t, dir, name, "var x = 1;")})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := newTranspiler().ConvertBatch(ctx, reqs, 2)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, transpiler.StatusCanceled, r.Status)
		assert.True(t, errors.Is(r.Err, context.Canceled))
	}
	assert.NoFileExists(t, filepath.Join(dir, "a.py"))
}

func TestConvertTree_MirrorsLayout(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	out := t.TempDir()
	writeSource(t, src, "a.js", "var a = 1;")
	writeSource(t, src, "sub/b.js", "var b = 2;")
	writeSource(t, src, ".cache/c.js", "var c = 3;")
	writeSource(t, src, "vendor.min.js", "var d=4;")
	writeSource(t, src, "notes.txt", "hello")
	writeSource(t, out, "__init__.py", "import os\n__all__ = [\"old\"]\n")

	results, err := newTranspiler().ConvertTree(context.Background(), src, out, "python", transpiler.TreeOptions{
		Workers:      2,
		PackageIndex: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a = 1\n", readFile(t, filepath.Join(out, "a.py")))
	assert.Equal(t, "b = 2\n", readFile(t, filepath.Join(out, "sub", "b.py")))
	assert.NoFileExists(t, filepath.Join(out, ".cache", "c.py"))
	assert.NoFileExists(t, filepath.Join(out, "vendor.min.py"))

	assert.Equal(t, "import os\n__all__ = [\"a\"]\n", readFile(t, filepath.Join(out, "__init__.py")))
	assert.Equal(t, "__all__ = [\"b\"]\n", readFile(t, filepath.Join(out, "sub", "__init__.py")))
}

func TestConvertTree_SingleFileIntoDirectory(t *testing.T) {
	t.Parallel()

	input := writeSource(t, t.TempDir(), "main.js", "let z = 3;")
	out := t.TempDir()

	results, err := newTranspiler().ConvertTree(context.Background(), input, out, "javascript", transpiler.TreeOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "let z = 3;\n", readFile(t, filepath.Join(out, "main.out.js")))
}

func TestCollectFiles_SkipsOwnOutputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSource(t, dir, "a.js", "x;")
	writeSource(t, dir, "a.out.js", "x;")

	files, err := transpiler.CollectFiles(dir, catalog.Extensions{Input: ".js", Output: ".out.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.js")}, files)
}

func TestTranspiler_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := observability.NewConversionMetrics(mp.Meter("test"))
	require.NoError(t, err)

	tr := newTranspiler(transpiler.WithMetrics(metrics))
	_, err = tr.ConvertString(context.Background(), "c = a ?? b;", "python")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["jsconvert.units.total"])
	assert.True(t, names["jsconvert.passthrough.total"])
}
