package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runParser(stdin string, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	status := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return status, stdout.String(), stderr.String()
}

func TestRun_PrintsTree(t *testing.T) {
	t.Parallel()

	status, stdout, stderr := runParser("var x = 1;", "--format", "JSON")
	assert.Equal(t, 0, status, stderr)
	assert.Contains(t, stdout, `"module"`)
	assert.Empty(t, stderr)
}

func TestRun_InputAndOutputFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "a.js")
	output := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(input, []byte("f(1);"), 0o644))

	status, stdout, stderr := runParser("", "-i", input, "-o", output, "-f", "yaml")
	assert.Equal(t, 0, status, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "module")
}

func TestRun_CheckReportsIssues(t *testing.T) {
	t.Parallel()

	status, _, stderr := runParser("with (o) { p; }\nx;", "--check")
	assert.Equal(t, 0, status)
	assert.Contains(t, stderr, "unrecognised statement kept verbatim")
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stdin  string
		args   []string
		status int
		want   string
	}{
		{"syntax", "f(1;", nil, 1, "unclosed"},
		{"lex", "var a = #1;", nil, 1, "lex error"},
		{"format", "x;", []string{"-f", "PNG"}, 2, "unknown format"},
		{"positional", "x;", []string{"a.js"}, 2, "Unexpected positional arguments"},
		{"missing input", "", []string{"-i", "/nonexistent/a.js"}, 1, "Error opening input file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, _, stderr := runParser(tt.stdin, tt.args...)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRun_Version(t *testing.T) {
	t.Parallel()

	status, stdout, _ := runParser("", "--version")
	assert.Equal(t, 0, status)
	assert.Equal(t, "jsconvert-parser version dev\n", stdout)
}
