package report_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spicery/jsconvert/pkg/catalog"
	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/manifest"
	"github.com/spicery/jsconvert/pkg/report"
	"github.com/spicery/jsconvert/pkg/transpiler"
)

func sampleResults() []*transpiler.Result {
	return []*transpiler.Result{
		{
			Name:        "one.js",
			Input:       "one.js",
			Output:      "one.py",
			Status:      transpiler.StatusOK,
			InputBytes:  2048,
			OutputBytes: 1500,
			Diagnostics: []engine.Diagnostic{{
				Kind:    engine.UnsupportedConstruct,
				Message: "no rule for binary",
				Excerpt: "a ?? b",
			}},
		},
		{
			Name:   "two.js",
			Input:  "two.js",
			Output: "two.py",
			Status: transpiler.StatusFailed,
			Err:    errors.New("unclosed '('"),
		},
	}
}

func TestPrinter_Batch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report.NewPrinter(&buf, false).Batch(sampleResults())

	out := buf.String()
	assert.Contains(t, out, "INPUT")
	assert.Contains(t, out, "one.js")
	assert.Contains(t, out, "one.py")
	assert.NotContains(t, out, "two.py")
	assert.Contains(t, out, "1.5 kB")
	assert.Contains(t, out, "2 units: 1 ok, 1 failed, 2.0 kB in, 1.5 kB out, 1 passed through")
}

func TestPrinter_FailuresAndDiagnostics(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := report.NewPrinter(&buf, false)
	p.Failures(sampleResults())
	p.Diagnostics(sampleResults())

	assert.Equal(t, "error two.js: unclosed '('\none.js\n  0:0 no rule for binary\n    a ?? b\n", buf.String())
}

func TestPrinter_Runs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := report.NewPrinter(&buf, false)
	p.Runs(nil)
	assert.Equal(t, "no runs recorded\n", buf.String())

	buf.Reset()
	started := time.Now().Add(-time.Minute)
	p.Runs([]manifest.Run{{ID: 7, Catalog: "python", StartedAt: started, FinishedAt: started.Add(time.Second), Units: 3, Failures: 1}})
	assert.Contains(t, buf.String(), "python")
	assert.Contains(t, buf.String(), "1 minute ago")
}

func TestLineDiff(t *testing.T) {
	t.Parallel()

	assert.Empty(t, report.LineDiff("same\n", "same\n"))
	assert.Equal(t, " a\n-b\n+c\n", report.LineDiff("a\nb\n", "a\nc\n"))
	assert.Equal(t, " a\n+b\n", report.LineDiff("a\n", "a\nb"))
}

func TestPrinter_Diff(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := report.NewPrinter(&buf, false)

	assert.False(t, p.Diff("x", "y", "a\n", "a\n"))
	assert.Equal(t, "x and y are identical\n", buf.String())

	buf.Reset()
	assert.True(t, p.Diff("x", "y", "a\n", "b\n"))
	assert.Equal(t, "--- x\n+++ y\n-a\n+b\n", buf.String())
}

func TestPrinter_Catalogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report.NewPrinter(&buf, false).Catalogs(catalog.Builtin().Catalogs())

	out := buf.String()
	assert.Contains(t, out, "CATALOG")
	assert.Contains(t, out, "python")
	assert.Contains(t, out, ".py")
	assert.Contains(t, out, "es5")
}
