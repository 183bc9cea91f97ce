package transpiler

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spicery/jsconvert/pkg/catalog"
	"github.com/spicery/jsconvert/pkg/engine"
)

// FileRequest is a conversion of one file. Output defaults to Input with
// the catalog's output extension.
type FileRequest struct {
	Input      string
	Output     string
	Catalog    string
	Dump       bool
	DumpFormat string
	// Force converts even when the history says the file is unchanged.
	Force bool
}

// ConvertFile converts one file. Failures, including an unknown catalog,
// are reported in the Result.
func (t *Transpiler) ConvertFile(ctx context.Context, req FileRequest) *Result {
	cat, rules, err := t.resolve(req.Catalog)
	if err != nil {
		result := &Result{Name: req.Input, Input: req.Input, Catalog: req.Catalog}
		result.fail(err)
		return result
	}
	return t.convertFile(ctx, req, cat, rules)
}

func (t *Transpiler) convertFile(ctx context.Context, req FileRequest, cat catalog.Catalog, rules *engine.RuleSet) *Result {
	ext := cat.Extensions()
	output := req.Output
	if output == "" {
		output = OutputPath(req.Input, ext)
	}
	failed := func(err error) *Result {
		result := &Result{Name: req.Input, Input: req.Input, Output: output, Catalog: cat.Name()}
		result.fail(err)
		t.record(ctx, result)
		return result
	}

	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	same, err := samePath(req.Input, output)
	if err != nil {
		return failed(err)
	}
	if same {
		return failed(fmt.Errorf("%w: %s", ErrSameInputOutput, req.Input))
	}
	locked, err := hasNoEditHeader(output)
	if err != nil {
		return failed(err)
	}
	if locked {
		return failed(fmt.Errorf("%w: %s", ErrNoEdit, output))
	}

	data, err := os.ReadFile(req.Input) // #nosec G304 - converts user-specified files
	if err != nil {
		return failed(err)
	}
	source := string(data)

	if !req.Force && t.unchanged(req.Input, cat.Name(), source, output) {
		result := &Result{
			Name:       req.Input,
			Input:      req.Input,
			Output:     output,
			Catalog:    cat.Name(),
			Status:     StatusUnchanged,
			InputBytes: len(source),
			SourceHash: sourceHash(source),
		}
		t.record(ctx, result)
		return result
	}

	result := t.convertSource(ctx, unit{
		name:       req.Input,
		input:      req.Input,
		source:     source,
		catalog:    cat,
		rules:      rules,
		dump:       req.Dump,
		dumpFormat: req.DumpFormat,
	})
	result.Output = output
	if result.Status != StatusOK {
		return result
	}

	// A unit canceled after emission finished is still discarded.
	if err := ctx.Err(); err != nil {
		result.fail(err)
		return result
	}
	text := result.Text
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := writeFile(output, text); err != nil {
		result.fail(err)
		return result
	}
	if req.Dump {
		if err := writeFile(DumpPath(output, ext), result.Dump); err != nil {
			result.fail(err)
			return result
		}
	}
	return result
}

func (t *Transpiler) unchanged(input, catalogName, source, output string) bool {
	if t.history == nil {
		return false
	}
	hash, ok, err := t.history.SourceHash(input, catalogName)
	if err != nil {
		t.logger.Warn("history lookup failed", "input", input, "error", err)
		return false
	}
	if !ok || hash != sourceHash(source) {
		return false
	}
	_, err = os.Stat(output)
	return err == nil
}

// OutputPath replaces the input extension of path with the output one.
func OutputPath(path string, ext catalog.Extensions) string {
	out := ext.Output
	if out == "" {
		out = ".out" + filepath.Ext(path)
	}
	return trimExtension(path, ext.Input) + out
}

// DumpPath places a tree dump beside output.
func DumpPath(output string, ext catalog.Extensions) string {
	dump := ext.Dump
	if dump == "" {
		dump = ".tree.json"
	}
	return trimExtension(output, ext.Output) + dump
}

func trimExtension(path, ext string) string {
	if ext != "" && strings.HasSuffix(path, ext) {
		return strings.TrimSuffix(path, ext)
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// skipped reports whether path ends in one of the catalog's skip suffixes.
func skipped(path string, ext catalog.Extensions) bool {
	return slices.ContainsFunc(ext.Skip, func(suffix string) bool {
		return strings.HasSuffix(path, suffix)
	})
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

// hasNoEditHeader scans the leading comment lines of an existing output
// file for the no-edit marker as a word of its own.
func hasNoEditHeader(path string) (bool, error) {
	f, err := os.Open(path) // #nosec G304 - output path chosen by the caller
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		var body string
		switch {
		case strings.HasPrefix(line, "#"):
			body = line[1:]
		case strings.HasPrefix(line, "//"):
			body = line[2:]
		default:
			return false, scanner.Err()
		}
		if slices.Contains(strings.Fields(body), noEditMarker) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// writeFile replaces path only once text is completely written.
func writeFile(path, text string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
