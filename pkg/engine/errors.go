package engine

import (
	"errors"
	"fmt"

	"github.com/spicery/jsconvert/pkg/common"
)

var (
	// ErrIndentImbalance is returned when a rule leaves the indentation
	// level different from how it found it.
	ErrIndentImbalance = errors.New("indentation level not restored")
	// ErrTooDeep is returned when emission recurses past the depth limit.
	ErrTooDeep = errors.New("tree nested too deeply to emit")
)

// RuleError reports a failure inside a rule's emit action. The innermost
// failing rule is reported.
type RuleError struct {
	Rule     string
	NodeKind string
	Span     common.Span
	Err      error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q failed on %s at line %d, column %d: %v", e.Rule, e.NodeKind, e.Span.StartLine, e.Span.StartColumn, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}
