// Package engine turns a parsed tree into target text by dispatching each
// node to the best applicable rule of a RuleSet. Nodes that no rule claims
// are emitted verbatim and recorded as diagnostics.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
)

const (
	DefaultIndent   = "    "
	DefaultMaxDepth = 5000
)

// Engine is safe for concurrent use; every Transform gets its own Context.
type Engine struct {
	rules    *RuleSet
	indent   string
	logger   *slog.Logger
	maxDepth int
}

type Option func(*Engine)

// WithIndent sets the whitespace emitted per nesting level.
func WithIndent(unit string) Option {
	return func(e *Engine) {
		e.indent = unit
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxDepth bounds how deeply emission may recurse.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

func New(rules *RuleSet, opts ...Option) *Engine {
	e := &Engine{
		rules:    rules,
		indent:   DefaultIndent,
		logger:   slog.New(slog.DiscardHandler),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rules == nil {
		e.rules = NewRuleSet("", nil)
	}
	return e
}

func (e *Engine) Rules() *RuleSet { return e.rules }

// Output is the result of one successful transformation.
type Output struct {
	Text        string
	Diagnostics []Diagnostic
	Imports     map[string]string
}

// PassThroughs counts the nodes that were emitted verbatim.
func (o *Output) PassThroughs() int {
	count := 0
	for _, d := range o.Diagnostics {
		if d.Kind == UnsupportedConstruct {
			count++
		}
	}
	return count
}

// Transform emits root, whose spans index into source. Any partial output
// is discarded on error.
func (e *Engine) Transform(ctx context.Context, root *common.Node, source string) (out *Output, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	c := newContext(ctx, e, root, source)
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &RuleError{NodeKind: root.Name, Span: root.Span, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	text, err := c.emit(root)
	if err != nil {
		return nil, err
	}
	if c.level != 0 {
		return nil, ErrIndentImbalance
	}

	var sb strings.Builder
	for _, line := range c.prelude {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(c.prelude) > 0 && text != "" {
		sb.WriteString("\n")
	}
	for _, helper := range c.hoisted {
		sb.WriteString(helper)
		sb.WriteString("\n")
	}
	sb.WriteString(text)

	return &Output{
		Text:        sb.String(),
		Diagnostics: c.diagnostics,
		Imports:     c.Imports(),
	}, nil
}

// emit is the Recurse function handed to every rule.
func (c *Context) emit(node *common.Node) (string, error) {
	if node == nil {
		return "", nil
	}
	if err := c.ctx.Err(); err != nil {
		return "", err
	}
	if len(c.stack) >= c.maxDepth {
		return "", ErrTooDeep
	}
	c.stack = append(c.stack, node)
	defer func() {
		c.stack = c.stack[:len(c.stack)-1]
	}()

	rule, ok := c.rules.Lookup(node, c)
	if !ok {
		c.passThrough(node)
		return node.Raw, nil
	}

	level, scope := c.level, c.scope
	text, err := c.apply(rule, node)
	if err == nil && c.level != level {
		err = ErrIndentImbalance
	}
	if err != nil {
		c.level, c.scope = level, scope
		return "", c.wrap(rule, node, err)
	}
	return text, nil
}

func (c *Context) apply(rule Rule, node *common.Node) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return rule.Emit(node, c, c.emit)
}

func (c *Context) wrap(rule Rule, node *common.Node, err error) error {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) || errors.Is(err, ErrTooDeep) {
		return err
	}
	if ctxErr := c.ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	return &RuleError{Rule: rule.Name(), NodeKind: node.Name, Span: node.Span, Err: err}
}
