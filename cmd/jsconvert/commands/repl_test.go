package commands

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/jsconvert/pkg/report"
	"github.com/spicery/jsconvert/pkg/transpiler"
)

// scriptedPrompter answers prompts from a fixed list, then reports EOF.
type scriptedPrompter struct {
	lines   []string
	prompts []string
	history []string
}

func (s *scriptedPrompter) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", liner.ErrPromptAborted
	}
	return line, nil
}

func (s *scriptedPrompter) AppendHistory(item string) {
	s.history = append(s.history, item)
}

func runRepl(t *testing.T, lines ...string) (string, string, *scriptedPrompter) {
	t.Helper()

	var out, diagnostics bytes.Buffer
	r := newRepl(transpiler.New(nil), "python", &out, report.NewPrinter(&diagnostics, false))
	p := &scriptedPrompter{lines: lines}
	require.NoError(t, r.loop(context.Background(), p))

	return out.String(), diagnostics.String(), p
}

func TestRepl_ConvertsLines(t *testing.T) {
	t.Parallel()

	out, diagnostics, p := runRepl(t, "var x = 1;", "c = a ?? b;")
	assert.Equal(t, "x = 1\nc = a ?? b\n\n", out)
	assert.Contains(t, diagnostics, "a ?? b")
	assert.Equal(t, []string{"var x = 1;", "c = a ?? b;"}, p.history)
}

func TestRepl_ContinuesOpenBrackets(t *testing.T) {
	t.Parallel()

	_, _, p := runRepl(t, "function f(a) {", "return a;", "}")
	assert.Equal(t, []string{primaryPrompt, continuationPrompt, continuationPrompt, primaryPrompt}, p.prompts)
	assert.Equal(t, []string{"function f(a) {\nreturn a;\n}"}, p.history)
}

func TestRepl_AbortDropsPendingInput(t *testing.T) {
	t.Parallel()

	out, _, p := runRepl(t, "f(", "^C", "var y = 2;")
	assert.Equal(t, "y = 2\n\n", out)
	assert.Equal(t, []string{primaryPrompt, continuationPrompt, primaryPrompt, primaryPrompt}, p.prompts)
}

func TestRepl_Commands(t *testing.T) {
	t.Parallel()

	out, _, _ := runRepl(t, ":catalog cobol", ":catalog javascript", ":catalog", "let z = 3;", ":tree", ":nope", ":quit", "var never = 1;")
	assert.Contains(t, out, "error: rule catalog not found")
	assert.Contains(t, out, "catalog javascript\njavascript\nlet z = 3;\n")
	assert.Contains(t, out, "tree mode on\n")
	assert.Contains(t, out, "unknown command :nope")
	assert.NotContains(t, out, "never")
}

func TestRepl_TreeMode(t *testing.T) {
	t.Parallel()

	out, _, _ := runRepl(t, ":tree", "x;")
	assert.Contains(t, out, "module")
}

func TestRepl_Complete(t *testing.T) {
	t.Parallel()

	r := newRepl(transpiler.New(nil), "python", io.Discard, report.NewPrinter(io.Discard, false))
	assert.Equal(t, []string{":tree"}, r.complete(":t"))
	assert.Equal(t, []string{":catalog es5"}, r.complete(":catalog e"))
	assert.Nil(t, r.complete("var"))
}

func TestIncomplete(t *testing.T) {
	t.Parallel()

	assert.True(t, incomplete("if (a) {\n"))
	assert.False(t, incomplete("if (a) {}\n"))
	assert.False(t, incomplete("a)\n"))
	assert.False(t, incomplete("f(#1\n"))
}
