package catalog

import (
	_ "embed"

	"github.com/spicery/jsconvert/pkg/catalog/javascript"
	"github.com/spicery/jsconvert/pkg/catalog/python"
	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/rewriter"
)

const Identity = "identity"

//go:embed es5.yaml
var es5Catalog string

var javascriptExtensions = Extensions{
	Input:  ".js",
	Output: ".out.js",
	Dump:   ".json",
	Skip:   []string{".min.js"},
}

// Builtin returns a registry holding the catalogs shipped with the tool.
func Builtin() *Registry {
	r := NewRegistry()
	must(r.Register(Static(python.Name, python.Description, Extensions{
		Input:  ".js",
		Output: ".py",
		Dump:   ".json",
		Skip:   []string{".min.js"},
	}, python.Rules)))
	must(r.Register(Static(javascript.Name, javascript.Description, javascriptExtensions, javascript.Rules)))
	must(r.Register(Static(Identity, "Source passed through unchanged", javascriptExtensions, func() []engine.Rule {
		return nil
	})))

	config, err := rewriter.LoadCatalogConfigFromString(es5Catalog)
	must(err)
	_, err = r.LoadConfig(config)
	must(err)
	return r
}

// must panics on errors in the embedded catalogs, which are fixed at build
// time.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
