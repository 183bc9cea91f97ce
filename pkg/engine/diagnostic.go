package engine

import (
	"fmt"

	"github.com/spicery/jsconvert/pkg/common"
)

type DiagnosticKind string

const (
	// UnsupportedConstruct marks a node no rule claimed; its source text was
	// passed through unchanged.
	UnsupportedConstruct DiagnosticKind = "unsupported-construct"
	// ApproximateConstruct marks a best-effort emission a rule could not
	// make exact.
	ApproximateConstruct DiagnosticKind = "approximate-construct"
)

// excerptLength bounds the source excerpt kept in a diagnostic.
const excerptLength = 40

// Diagnostic is a non-fatal finding recorded during emission.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	NodeKind string         `json:"node"`
	Span     common.Span    `json:"span"`
	Excerpt  string         `json:"excerpt"`
	Message  string         `json:"message"`
}

func newDiagnostic(kind DiagnosticKind, node *common.Node, message string) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		NodeKind: node.Name,
		Span:     node.Span,
		Excerpt:  common.TrimValue(common.OptionValue, firstLine(node.Raw), excerptLength),
		Message:  message,
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s (%s)", d.Span.StartLine, d.Span.StartColumn, d.Kind, d.Message, d.Excerpt)
}

func firstLine(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			return text[:i]
		}
	}
	return text
}
