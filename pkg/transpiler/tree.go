package transpiler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spicery/jsconvert/pkg/catalog"
)

const packageIndexFile = "__init__.py"

// TreeOptions tune ConvertTree.
type TreeOptions struct {
	Workers    int
	Dump       bool
	DumpFormat string
	Force      bool
	// PackageIndex maintains the __all__ list of an __init__.py in every
	// output directory that received converted modules.
	PackageIndex bool
}

// ConvertTree converts input, a file or a directory. Directories are walked
// for files with the catalog's input extension, skipping hidden directories
// and skip suffixes, and the relative layout is mirrored under output. An
// empty output writes beside the input.
func (t *Transpiler) ConvertTree(ctx context.Context, input, output, catalogName string, opts TreeOptions) ([]*Result, error) {
	cat, _, err := t.resolve(catalogName)
	if err != nil {
		return nil, err
	}
	ext := cat.Extensions()

	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}

	request := func(in, out string) FileRequest {
		return FileRequest{
			Input:      in,
			Output:     out,
			Catalog:    cat.Name(),
			Dump:       opts.Dump,
			DumpFormat: opts.DumpFormat,
			Force:      opts.Force,
		}
	}

	if !info.IsDir() {
		if output != "" {
			if outInfo, err := os.Stat(output); err == nil && outInfo.IsDir() {
				output = filepath.Join(output, filepath.Base(OutputPath(input, ext)))
			}
		}
		return t.ConvertBatch(ctx, []FileRequest{request(input, output)}, 1)
	}

	if output == "" {
		output = input
	}
	files, err := CollectFiles(input, ext)
	if err != nil {
		return nil, err
	}
	reqs := make([]FileRequest, 0, len(files))
	for _, path := range files {
		rel, err := filepath.Rel(input, path)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, request(path, filepath.Join(output, OutputPath(rel, ext))))
	}
	t.logger.InfoContext(ctx, "converting tree", "input", input, "output", output, "files", len(reqs), "catalog", cat.Name())

	results, err := t.ConvertBatch(ctx, reqs, opts.Workers)
	if err != nil {
		return results, err
	}
	if opts.PackageIndex {
		if err := writePackageIndexes(results, ext); err != nil {
			return results, err
		}
	}
	return results, nil
}

// CollectFiles lists the convertible files under root in lexical order.
func CollectFiles(root string, ext catalog.Extensions) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ext.Input) || skipped(path, ext) {
			return nil
		}
		// Outputs of a catalog that keeps the input extension are not inputs.
		if ext.Output != ext.Input && strings.HasSuffix(path, ext.Output) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", root, err)
	}
	return files, nil
}

func writePackageIndexes(results []*Result, ext catalog.Extensions) error {
	dirs := map[string]bool{}
	for _, r := range results {
		if r.OK() {
			dirs[filepath.Dir(r.Output)] = true
		}
	}
	for dir := range dirs {
		if err := writePackageIndex(dir, ext.Output); err != nil {
			return err
		}
	}
	return nil
}

func writePackageIndex(dir, suffix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var modules []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) || strings.HasPrefix(name, "_") {
			continue
		}
		modules = append(modules, fmt.Sprintf("%q", strings.TrimSuffix(name, suffix)))
	}
	slices.Sort(modules)
	all := "__all__ = [" + strings.Join(modules, ", ") + "]"

	path := filepath.Join(dir, packageIndexFile)
	data, err := os.ReadFile(path) // #nosec G304 - inside the output tree
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return writeFile(path, replaceAll(string(data), all))
}

// replaceAll swaps the __all__ list of an existing index for all, or
// appends it.
func replaceAll(text, all string) string {
	start := strings.Index(text, "__all__")
	if start >= 0 {
		if end := strings.Index(text[start:], "]"); end >= 0 {
			return text[:start] + all + text[start+end+1:]
		}
	}
	if text == "" {
		return all + "\n"
	}
	return strings.TrimRight(text, "\n") + "\n" + all + "\n"
}
