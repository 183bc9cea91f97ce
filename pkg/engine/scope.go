package engine

import (
	"github.com/spicery/jsconvert/pkg/common"
)

// Scope holds the bindings introduced while emitting one nesting level.
type Scope struct {
	Level    int               // Nesting level (0 = module).
	Bindings map[string]string // Maps source names to their substitution.
	Parent   *Scope            // Parent scope for lookups.
	Node     *common.Node      // The node being emitted when the scope opened.
}

func newScope() *Scope {
	return &Scope{Bindings: make(map[string]string)}
}

// NewChildScope creates a new child scope of the current scope.
func (s *Scope) NewChildScope(node *common.Node) *Scope {
	return &Scope{
		Level:    s.Level + 1,
		Bindings: make(map[string]string),
		Parent:   s,
		Node:     node,
	}
}

// Lookup searches the scope chain from the innermost scope outwards.
func (s *Scope) Lookup(name string) (string, bool) {
	for scope := s; scope != nil; scope = scope.Parent {
		if substitution, ok := scope.Bindings[name]; ok {
			return substitution, true
		}
	}
	return "", false
}
