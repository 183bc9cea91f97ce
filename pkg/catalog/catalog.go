// Package catalog names rule sets and makes them available by name.
//
// A catalog is a named, ordered list of rules together with the file
// extensions it reads and writes. Catalogs are either built in Go, loaded
// from YAML, or derived from another catalog with Extend and Without.
package catalog

import (
	"slices"

	"github.com/spicery/jsconvert/pkg/engine"
)

// Extensions tells the batch converter which files a catalog handles.
type Extensions struct {
	// Input is the extension of source files, e.g. ".js".
	Input string `json:"input,omitempty"`
	// Output replaces Input on converted files, e.g. ".py".
	Output string `json:"output,omitempty"`
	// Dump is used for parse-tree dumps.
	Dump string `json:"dump,omitempty"`
	// Skip lists file suffixes that match Input but are left alone, such as
	// ".min.js".
	Skip []string `json:"skip,omitempty"`
}

// merge fills the empty fields of e from base.
func (e Extensions) merge(base Extensions) Extensions {
	if e.Input == "" {
		e.Input = base.Input
	}
	if e.Output == "" {
		e.Output = base.Output
	}
	if e.Dump == "" {
		e.Dump = base.Dump
	}
	if e.Skip == nil {
		e.Skip = slices.Clone(base.Skip)
	}
	return e
}

type Catalog interface {
	Name() string
	Description() string
	Extensions() Extensions
	// Rules returns the rules in registration order. Each call returns a
	// fresh slice.
	Rules() ([]engine.Rule, error)
}

type ruleCatalog struct {
	name        string
	description string
	extensions  Extensions
	rules       func() ([]engine.Rule, error)
}

// New creates a catalog whose rules are produced by rules.
func New(name, description string, extensions Extensions, rules func() ([]engine.Rule, error)) Catalog {
	return &ruleCatalog{name: name, description: description, extensions: extensions, rules: rules}
}

// Static creates a catalog from a fixed rule list.
func Static(name, description string, extensions Extensions, rules func() []engine.Rule) Catalog {
	return New(name, description, extensions, func() ([]engine.Rule, error) {
		return rules(), nil
	})
}

func (rc *ruleCatalog) Name() string           { return rc.name }
func (rc *ruleCatalog) Description() string    { return rc.description }
func (rc *ruleCatalog) Extensions() Extensions { return rc.extensions }

func (rc *ruleCatalog) Rules() ([]engine.Rule, error) {
	if rc.rules == nil {
		return nil, nil
	}
	return rc.rules()
}

// Extend derives a catalog from base. A rule with the same name as a base
// rule replaces it in place; other rules are appended.
func Extend(name, description string, base Catalog, extensions Extensions, rules ...engine.Rule) Catalog {
	return New(name, description, extensions.merge(base.Extensions()), func() ([]engine.Rule, error) {
		inherited, err := base.Rules()
		if err != nil {
			return nil, err
		}
		return override(inherited, rules), nil
	})
}

func override(base, rules []engine.Rule) []engine.Rule {
	result := slices.Clone(base)
	for _, rule := range rules {
		i := slices.IndexFunc(result, func(r engine.Rule) bool { return r.Name() == rule.Name() })
		if i >= 0 {
			result[i] = rule
		} else {
			result = append(result, rule)
		}
	}
	return result
}

// Without derives a catalog from base with the named rules removed. The
// derived catalog keeps the base's name and description.
func Without(base Catalog, names ...string) Catalog {
	return New(base.Name(), base.Description(), base.Extensions(), func() ([]engine.Rule, error) {
		rules, err := base.Rules()
		if err != nil {
			return nil, err
		}
		return remove(rules, names), nil
	})
}

func remove(rules []engine.Rule, names []string) []engine.Rule {
	return slices.DeleteFunc(slices.Clone(rules), func(r engine.Rule) bool {
		return slices.Contains(names, r.Name())
	})
}
