package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/rewriter"
)

var (
	ErrCatalogNotFound  = errors.New("rule catalog not found")
	ErrDuplicateCatalog = errors.New("rule catalog already registered")
)

// Registry maps catalog names to catalogs and caches the rule sets built
// from them. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	catalogs map[string]Catalog
	sets     map[string]*engine.RuleSet
	logger   *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		catalogs: make(map[string]Catalog),
		sets:     make(map[string]*engine.RuleSet),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// SetLogger directs registry logging to logger.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

func (r *Registry) Register(c Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.catalogs[c.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateCatalog, c.Name())
	}
	r.catalogs[c.Name()] = c
	r.logger.Debug("registered catalog", "catalog", c.Name())
	return nil
}

// Replace registers c, dropping any catalog of the same name and its cached
// rule set.
func (r *Registry) Replace(c Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogs[c.Name()] = c
	delete(r.sets, c.Name())
}

func (r *Registry) Lookup(name string) (Catalog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.catalogs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCatalogNotFound, name)
	}
	return c, nil
}

// Names lists the registered catalogs alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.catalogs))
	for name := range r.catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalogs returns the registered catalogs ordered by name.
func (r *Registry) Catalogs() []Catalog {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	catalogs := make([]Catalog, 0, len(names))
	for _, name := range names {
		if c, ok := r.catalogs[name]; ok {
			catalogs = append(catalogs, c)
		}
	}
	return catalogs
}

// Load returns the rule set of the named catalog, building it on first use.
func (r *Registry) Load(name string) (*engine.RuleSet, error) {
	r.mu.RLock()
	set, ok := r.sets[name]
	r.mu.RUnlock()
	if ok {
		return set, nil
	}

	c, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	rules, err := c.Rules()
	if err != nil {
		return nil, fmt.Errorf("loading catalog %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.sets[name]; ok {
		return set, nil
	}
	set = engine.NewRuleSet(name, rules)
	r.sets[name] = set
	r.logger.Debug("built rule set", "catalog", name, "rules", set.Len())
	return set, nil
}

// LoadFile reads a YAML catalog and registers it. A catalog that extends
// another is resolved against the catalogs already registered.
func (r *Registry) LoadFile(path string) (Catalog, error) {
	config, err := rewriter.LoadCatalogConfig(path)
	if err != nil {
		return nil, err
	}
	return r.LoadConfig(config)
}

// LoadConfig builds a catalog from a parsed YAML catalog and registers it.
func (r *Registry) LoadConfig(config *rewriter.CatalogConfig) (Catalog, error) {
	c, err := r.FromConfig(config)
	if err != nil {
		return nil, err
	}
	if err := r.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// FromConfig builds a catalog from a parsed YAML catalog without
// registering it.
func (r *Registry) FromConfig(config *rewriter.CatalogConfig) (Catalog, error) {
	rules, err := rewriter.Compile(config)
	if err != nil {
		return nil, err
	}
	extensions := Extensions{
		Input:  config.Extensions.Input,
		Output: config.Extensions.Output,
		Dump:   config.Extensions.Dump,
		Skip:   slices.Clone(config.Extensions.Skip),
	}
	if config.Extends == "" {
		if len(config.Remove) > 0 {
			return nil, fmt.Errorf("%w: catalog %q removes rules but extends nothing", rewriter.ErrInvalidCatalog, config.Name)
		}
		return New(config.Name, config.Description, extensions, func() ([]engine.Rule, error) {
			return slices.Clone(rules), nil
		}), nil
	}
	base, err := r.Lookup(config.Extends)
	if err != nil {
		return nil, fmt.Errorf("catalog %q extends %q: %w", config.Name, config.Extends, err)
	}
	if len(config.Remove) > 0 {
		base = Without(base, config.Remove...)
	}
	return Extend(config.Name, config.Description, base, extensions, rules...), nil
}
