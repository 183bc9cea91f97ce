package engine

import (
	"github.com/spicery/jsconvert/pkg/common"
)

// Recurse emits a node with the same context. Rules call it for exactly the
// children they want transformed, in the order they want them.
type Recurse func(*common.Node) (string, error)

// Rule claims nodes and turns them into target text. Rules hold no state of
// their own; everything mutable lives in the Context.
type Rule interface {
	Name() string
	// Precedence orders competing rules, higher first.
	Precedence() int
	// Kinds lists the node names the rule can match. Empty means any.
	Kinds() []string
	Applies(node *common.Node, c *Context) bool
	Emit(node *common.Node, c *Context, recurse Recurse) (string, error)
}

// EmitFunc is the action half of a rule built with NewRule.
type EmitFunc func(node *common.Node, c *Context, recurse Recurse) (string, error)

// Predicate is the match half of a rule built with NewRule.
type Predicate func(node *common.Node, c *Context) bool

type funcRule struct {
	name       string
	precedence int
	kinds      []string
	when       []Predicate
	emit       EmitFunc
}

// RuleOption configures a rule built with NewRule.
type RuleOption func(*funcRule)

// WithPrecedence sets the precedence, zero by default.
func WithPrecedence(precedence int) RuleOption {
	return func(r *funcRule) {
		r.precedence = precedence
	}
}

// When adds a predicate. All predicates must hold for the rule to apply.
func When(predicate Predicate) RuleOption {
	return func(r *funcRule) {
		r.when = append(r.when, predicate)
	}
}

// NewRule builds a rule from an emit action. Pass no kinds for a wildcard
// rule.
func NewRule(name string, kinds []string, emit EmitFunc, opts ...RuleOption) Rule {
	r := &funcRule{name: name, kinds: kinds, emit: emit}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *funcRule) Name() string    { return r.name }
func (r *funcRule) Precedence() int { return r.precedence }
func (r *funcRule) Kinds() []string { return r.kinds }

func (r *funcRule) Applies(node *common.Node, c *Context) bool {
	for _, predicate := range r.when {
		if !predicate(node, c) {
			return false
		}
	}
	return true
}

func (r *funcRule) Emit(node *common.Node, c *Context, recurse Recurse) (string, error) {
	return r.emit(node, c, recurse)
}

// HasOption matches nodes whose attribute has one of the given values.
func HasOption(key string, values ...string) Predicate {
	return func(node *common.Node, _ *Context) bool {
		if !node.HasOption(key) {
			return false
		}
		if len(values) == 0 {
			return true
		}
		value := node.Option(key)
		for _, v := range values {
			if v == value {
				return true
			}
		}
		return false
	}
}

// ParentIs matches nodes whose parent has one of the given names.
func ParentIs(names ...string) Predicate {
	return func(_ *common.Node, c *Context) bool {
		return c.Parent().Is(names...)
	}
}

// Within matches nodes with an ancestor of one of the given names.
func Within(names ...string) Predicate {
	return func(_ *common.Node, c *Context) bool {
		return c.HasAncestor(names...)
	}
}

// Not negates a predicate.
func Not(predicate Predicate) Predicate {
	return func(node *common.Node, c *Context) bool {
		return !predicate(node, c)
	}
}
