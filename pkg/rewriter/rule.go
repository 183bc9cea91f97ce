package rewriter

import (
	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
)

// Rule is an engine rule compiled from a RuleConfig.
type Rule struct {
	name       string
	precedence int
	kinds      []string
	pattern    *Pattern
	step       Step
}

func compileRule(rc RuleConfig) (*Rule, error) {
	if err := rc.Match.Validate(rc.Name); err != nil {
		return nil, err
	}
	step, err := rc.Emit.ToStep()
	if err != nil {
		return nil, err
	}
	kinds := rc.Kinds
	if len(kinds) == 0 && rc.Match != nil && rc.Match.Self != nil && rc.Match.Self.Name != nil {
		kinds = []string{*rc.Match.Self.Name}
	}
	return &Rule{
		name:       rc.Name,
		precedence: rc.Precedence,
		kinds:      kinds,
		pattern:    rc.Match,
		step:       step,
	}, nil
}

func (r *Rule) Name() string    { return r.name }
func (r *Rule) Precedence() int { return r.precedence }
func (r *Rule) Kinds() []string { return r.kinds }

func (r *Rule) Applies(node *common.Node, c *engine.Context) bool {
	if r.pattern.isEmpty() {
		return true
	}
	return r.pattern.Matches(node, c)
}

func (r *Rule) Emit(node *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	return r.step.Run(node, c, recurse)
}
