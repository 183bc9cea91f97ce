package rewriter

import (
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
)

// Step is one part of a declarative emission. The outputs of the steps of
// a rule are concatenated.
type Step interface {
	Run(node *common.Node, c *engine.Context, recurse engine.Recurse) (string, error)
}

////////////////////////////////////////////////////////////////////////////////
/// Steps
////////////////////////////////////////////////////////////////////////////////

type TextStep struct {
	Text string
}

func (s *TextStep) Run(*common.Node, *engine.Context, engine.Recurse) (string, error) {
	return s.Text, nil
}

type AttrStep struct {
	Key string
}

func (s *AttrStep) Run(node *common.Node, _ *engine.Context, _ engine.Recurse) (string, error) {
	return node.Option(s.Key), nil
}

// LookupStep emits an attribute after applying the bindings in scope.
type LookupStep struct {
	Key string
}

func (s *LookupStep) Run(node *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
	return c.Resolve(node.Option(s.Key)), nil
}

// ChildStep emits one child; a missing child emits nothing.
type ChildStep struct {
	Index int
}

func (s *ChildStep) Run(node *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	if len(node.Children) == 0 {
		return "", nil
	}
	i := s.Index
	if i < 0 {
		i += len(node.Children)
	}
	return recurse(node.Child(i))
}

// Range selects children [From, To). Negative bounds count from the end;
// a nil To means the end.
type Range struct {
	From int
	To   *int
}

func (r Range) Select(children []*common.Node) []*common.Node {
	n := len(children)
	from := clamp(r.From, n)
	to := n
	if r.To != nil {
		to = clamp(*r.To, n)
	}
	if from >= to {
		return nil
	}
	return children[from:to]
}

func clamp(i, n int) int {
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}

type ChildrenStep struct {
	Range     Range
	Separator string
}

func (s *ChildrenStep) Run(node *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	return engine.Join(s.Range.Select(node.Children), s.Separator, recurse)
}

type RawStep struct{}

func (s *RawStep) Run(node *common.Node, _ *engine.Context, _ engine.Recurse) (string, error) {
	return node.Raw, nil
}

type SpliceStep struct{}

func (s *SpliceStep) Run(node *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	return engine.Splice(node, recurse)
}

type StatementsStep struct {
	Range Range
}

func (s *StatementsStep) Run(node *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	return engine.Statements(c, s.Range.Select(node.Children), recurse)
}

type BlockStep struct {
	Range Range
	Empty string
}

func (s *BlockStep) Run(node *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	return engine.Block(c, s.Range.Select(node.Children), recurse, s.Empty)
}

type NewlineStep struct{}

func (s *NewlineStep) Run(_ *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
	return c.Newline(), nil
}

// NestStep runs its steps one indentation level deeper.
type NestStep struct {
	Steps []Step
}

func (s *NestStep) Run(node *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	return c.Nest(func() (string, error) {
		return runSteps(s.Steps, node, c, recurse)
	})
}

// BindStep maps a name to a substitution in the current scope. The name is
// either literal or read from an attribute, and so is the substitution.
type BindStep struct {
	Key      string
	Name     string
	With     string
	WithAttr string
}

func (s *BindStep) Run(node *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
	name := s.Name
	if s.Key != "" {
		name = node.Option(s.Key)
	}
	with := s.With
	if s.WithAttr != "" {
		with = node.Option(s.WithAttr)
	}
	c.Bind(name, with)
	return "", nil
}

type RequireStep struct {
	Key  string
	Line string
}

func (s *RequireStep) Run(_ *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
	c.Require(s.Key, s.Line)
	return "", nil
}

type WarnStep struct {
	Message string
}

func (s *WarnStep) Run(node *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
	c.Warn(node, "%s", s.Message)
	return "", nil
}

type SequenceStep struct {
	Steps []Step
}

func (s *SequenceStep) Run(node *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	return runSteps(s.Steps, node, c, recurse)
}

func runSteps(steps []Step, node *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	var sb strings.Builder
	for _, step := range steps {
		text, err := step.Run(node, c, recurse)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
