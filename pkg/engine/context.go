package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
)

// Context is the mutable state of one conversion. It is created by
// Engine.Transform and must not be shared between conversions.
type Context struct {
	ctx    context.Context
	rules  *RuleSet
	logger *slog.Logger
	source string

	indentUnit string
	level      int
	scope      *Scope
	maxDepth   int

	stack   []*common.Node
	parents map[*common.Node]*common.Node
	indexes map[*common.Node]int

	diagnostics []Diagnostic
	prelude     []string
	required    map[string]bool
	hoisted     []string
	counters    map[string]int
	imports     map[string]string
}

func newContext(ctx context.Context, e *Engine, root *common.Node, source string) *Context {
	c := &Context{
		ctx:        ctx,
		rules:      e.rules,
		logger:     e.logger,
		source:     source,
		indentUnit: e.indent,
		scope:      newScope(),
		maxDepth:   e.maxDepth,
		parents:    make(map[*common.Node]*common.Node),
		indexes:    make(map[*common.Node]int),
		required:   make(map[string]bool),
		counters:   make(map[string]int),
		imports:    make(map[string]string),
	}
	root.Walk(func(node *common.Node, path *common.Path) bool {
		if path != nil {
			c.parents[node] = path.Parent
			c.indexes[node] = path.SiblingPosition
		}
		return true
	})
	return c
}

// Context returns the Go context of the conversion.
func (c *Context) Context() context.Context { return c.ctx }

func (c *Context) Source() string { return c.source }

func (c *Context) Logger() *slog.Logger { return c.logger }

// Indentation.

func (c *Context) IndentLevel() int { return c.level }

// Indent is the whitespace for the current level.
func (c *Context) Indent() string {
	return strings.Repeat(c.indentUnit, c.level)
}

// IndentUnit is the whitespace added per level.
func (c *Context) IndentUnit() string { return c.indentUnit }

// Newline is a line break followed by the current indentation.
func (c *Context) Newline() string {
	return "\n" + c.Indent()
}

// Enter opens a nesting level with its own binding scope. It must be paired
// with Leave; Nest does both.
func (c *Context) Enter() {
	c.level++
	c.scope = c.scope.NewChildScope(c.Node())
}

func (c *Context) Leave() {
	if c.scope.Parent != nil {
		c.scope = c.scope.Parent
	}
	c.level--
}

// Nest runs fn one level deeper. The level and scope are restored on
// return, including when fn fails or panics.
func (c *Context) Nest(fn func() (string, error)) (string, error) {
	level, scope := c.level, c.scope
	c.Enter()
	defer func() {
		c.level, c.scope = level, scope
	}()
	return fn()
}

// Ancestry. The queries follow the parsed tree, not the order in which
// rules happen to recurse.

// Node is the node currently being emitted.
func (c *Context) Node() *common.Node {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Parent is the parent of the current node, nil at the root.
func (c *Context) Parent() *common.Node {
	return c.ParentOf(c.Node())
}

func (c *Context) ParentOf(node *common.Node) *common.Node {
	return c.parents[node]
}

// SiblingIndex is the position of the current node among its siblings.
func (c *Context) SiblingIndex() int {
	return c.IndexOf(c.Node())
}

// IndexOf is the position of node among its siblings, 0 for the root.
func (c *Context) IndexOf(node *common.Node) int {
	return c.indexes[node]
}

// Ancestors lists the ancestors of the current node, nearest first.
func (c *Context) Ancestors() []*common.Node {
	var result []*common.Node
	for node := c.Parent(); node != nil; node = c.parents[node] {
		result = append(result, node)
	}
	return result
}

// Ancestor returns the nearest ancestor with one of the given names.
func (c *Context) Ancestor(names ...string) *common.Node {
	for node := c.Parent(); node != nil; node = c.parents[node] {
		if node.Is(names...) {
			return node
		}
	}
	return nil
}

func (c *Context) HasAncestor(names ...string) bool {
	return c.Ancestor(names...) != nil
}

func (c *Context) PrevSibling() *common.Node {
	return c.sibling(-1)
}

func (c *Context) NextSibling() *common.Node {
	return c.sibling(1)
}

func (c *Context) sibling(delta int) *common.Node {
	parent := c.Parent()
	if parent == nil {
		return nil
	}
	i := c.SiblingIndex() + delta
	if i < 0 {
		return nil
	}
	return parent.Child(i)
}

// Path renders the ancestry of the current node, e.g. module/function/block.
func (c *Context) Path() string {
	ancestors := c.Ancestors()
	parts := make([]string, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		parts = append(parts, ancestors[i].Name)
	}
	if node := c.Node(); node != nil {
		parts = append(parts, node.Name)
	}
	return strings.Join(parts, "/")
}

// Bindings.

// Bind maps name to substitution until the current scope closes.
func (c *Context) Bind(name, substitution string) {
	c.scope.Bindings[name] = substitution
}

func (c *Context) Lookup(name string) (string, bool) {
	return c.scope.Lookup(name)
}

// Resolve returns the substitution for name, or name itself.
func (c *Context) Resolve(name string) string {
	if substitution, ok := c.scope.Lookup(name); ok {
		return substitution
	}
	return name
}

// Scope is the innermost binding scope.
func (c *Context) Scope() *Scope { return c.scope }

// Diagnostics.

// Warn records that node was emitted on a best-effort basis.
func (c *Context) Warn(node *common.Node, format string, args ...any) {
	d := newDiagnostic(ApproximateConstruct, node, fmt.Sprintf(format, args...))
	c.logger.Debug("approximate emission", "node", node.Name, "line", node.Span.StartLine, "message", d.Message)
	c.diagnostics = append(c.diagnostics, d)
}

func (c *Context) passThrough(node *common.Node) {
	d := newDiagnostic(UnsupportedConstruct, node, "no rule for "+node.Name+", passed through")
	c.logger.Debug("pass-through", "node", node.Name, "line", node.Span.StartLine)
	c.diagnostics = append(c.diagnostics, d)
}

func (c *Context) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diagnostics...)
}

// Prelude and hoisting.

// Require adds line to the prelude the first time key is required.
func (c *Context) Require(key, line string) {
	if c.required[key] {
		return
	}
	c.required[key] = true
	c.prelude = append(c.prelude, line)
}

// Hoist queues a definition to be placed before the statement currently
// being emitted. Code is written at indentation zero and reindented when
// it is placed.
func (c *Context) Hoist(code string) {
	c.hoisted = append(c.hoisted, code)
}

// UniqueName returns prefix_1, prefix_2 and so on.
func (c *Context) UniqueName(prefix string) string {
	c.counters[prefix]++
	return fmt.Sprintf("%s_%d", prefix, c.counters[prefix])
}

// RegisterImport records that name was brought in from source.
func (c *Context) RegisterImport(name, source string) {
	c.imports[name] = source
}

func (c *Context) IsImported(name string) bool {
	_, ok := c.imports[name]
	return ok
}

// Imports returns a copy of the registered imports.
func (c *Context) Imports() map[string]string {
	result := make(map[string]string, len(c.imports))
	for name, source := range c.imports {
		result[name] = source
	}
	return result
}
