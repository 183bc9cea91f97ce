package rewriter

import (
	"fmt"
	"regexp"

	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
)

type NodePattern struct {
	Name            *string `yaml:"name,omitempty"`
	Key             *string `yaml:"key,omitempty"`
	Value           *string `yaml:"value,omitempty"`
	ValueRegexp     *string `yaml:"value.regexp,omitempty"`
	Cmp             *bool   `yaml:"cmp,omitempty"`
	Count           *int    `yaml:"count,omitempty"`
	SiblingPosition *int    `yaml:"siblingPosition,omitempty"`

	compiled *regexp.Regexp
}

// GetCmp returns the comparison value, defaulting to true if not set
func (np *NodePattern) GetCmp() bool {
	if np.Cmp == nil {
		return true
	}
	return *np.Cmp
}

func (np *NodePattern) IsEmpty() bool {
	return np == nil || (np.Name == nil && np.Key == nil && np.Value == nil && np.ValueRegexp == nil && np.Count == nil && np.SiblingPosition == nil)
}

// Matches tests node, whose parent and position among the parent's
// children are given. A nil parent means position is unknown.
func (np *NodePattern) Matches(node, parent *common.Node, position int) bool {
	if node == nil {
		return false
	}
	if np.IsEmpty() {
		return true
	}
	if np.Name != nil && node.Name != *np.Name {
		return false
	}
	if np.Key != nil {
		val, exists := node.Options[*np.Key]
		if !exists {
			return false
		}
		if np.Value != nil && (val == *np.Value) != np.GetCmp() {
			return false
		}
		if np.compiled != nil && np.compiled.MatchString(val) != np.GetCmp() {
			return false
		}
	}
	if np.Count != nil && len(node.Children) != *np.Count {
		return false
	}
	if np.SiblingPosition != nil {
		if parent == nil {
			return false
		}
		if position != mod(*np.SiblingPosition, len(parent.Children)) {
			return false
		}
	}
	return true
}

func (np *NodePattern) compile() error {
	if np == nil {
		return nil
	}
	if (np.Value != nil || np.ValueRegexp != nil) && np.Key == nil {
		return fmt.Errorf("value given without key")
	}
	if np.Value != nil && np.ValueRegexp != nil {
		return fmt.Errorf("value and value.regexp are mutually exclusive")
	}
	if np.ValueRegexp != nil {
		re, err := regexp.Compile(*np.ValueRegexp)
		if err != nil {
			return fmt.Errorf("invalid value.regexp: %w", err)
		}
		np.compiled = re
	}
	return nil
}

func mod(a, b int) int {
	if b == 0 {
		return 0
	}
	return ((a % b) + b) % b
}

type Pattern struct {
	Parent        *NodePattern `yaml:"parent,omitempty"`
	Self          *NodePattern `yaml:"self,omitempty"`
	Child         *NodePattern `yaml:"child,omitempty"`
	PreviousChild *NodePattern `yaml:"previousChild,omitempty"`
	NextChild     *NodePattern `yaml:"nextChild,omitempty"`
	Ancestor      *NodePattern `yaml:"ancestor,omitempty"`
}

// Matches tests node in the position the context reports for it. The
// previous and next child patterns are checked around the first child
// matching the child pattern.
func (p *Pattern) Matches(node *common.Node, c *engine.Context) bool {
	if node == nil || p == nil {
		return false
	}
	var parent *common.Node
	position := -1
	if c != nil {
		parent = c.ParentOf(node)
		position = c.IndexOf(node)
	}
	if p.Self != nil && !p.Self.Matches(node, parent, position) {
		return false
	}
	if p.Parent != nil {
		if parent == nil || !p.Parent.Matches(parent, c.ParentOf(parent), -1) {
			return false
		}
	}
	if p.Ancestor != nil {
		found := false
		for ancestor := parent; ancestor != nil && !found; ancestor = c.ParentOf(ancestor) {
			found = p.Ancestor.Matches(ancestor, nil, -1)
		}
		if !found {
			return false
		}
	}
	if p.Child == nil {
		return true
	}
	childPosition := -1
	for n, child := range node.Children {
		if p.Child.Matches(child, node, n) {
			childPosition = n
			break
		}
	}
	if childPosition < 0 {
		return false
	}
	if p.PreviousChild != nil && childPosition >= 1 {
		if !p.PreviousChild.Matches(node.Children[childPosition-1], node, childPosition-1) {
			return false
		}
	}
	if p.NextChild != nil && childPosition <= len(node.Children)-2 {
		if !p.NextChild.Matches(node.Children[childPosition+1], node, childPosition+1) {
			return false
		}
	}
	return true
}

// Validate compiles the patterns' regular expressions and checks their
// consistency.
func (p *Pattern) Validate(name string) error {
	if p == nil {
		return nil
	}
	for label, np := range map[string]*NodePattern{
		"parent":        p.Parent,
		"self":          p.Self,
		"child":         p.Child,
		"previousChild": p.PreviousChild,
		"nextChild":     p.NextChild,
		"ancestor":      p.Ancestor,
	} {
		if err := np.compile(); err != nil {
			return fmt.Errorf("%s pattern of rule %s: %w", label, name, err)
		}
	}
	if (p.PreviousChild != nil || p.NextChild != nil) && p.Child == nil {
		return fmt.Errorf("previousChild and nextChild need a child pattern: %s", name)
	}
	return nil
}

func (p *Pattern) isEmpty() bool {
	return p == nil || (p.Parent == nil && p.Self == nil && p.Child == nil && p.PreviousChild == nil && p.NextChild == nil && p.Ancestor == nil)
}
