package common

import (
	"fmt"
	"io"
	"strings"
)

// Node is a vertex of the syntax tree. Name is the node kind, Options hold
// its attributes and Raw is always the exact source text covered by Span.
type Node struct {
	Name     string            `json:"name" yaml:"name"`                             // The kind of the node
	Span     Span              `json:"span" yaml:"span"`                             // The span of the node in the source
	Options  map[string]string `json:"options,omitempty" yaml:"options,omitempty"`   // Attributes (name-value pairs)
	Children []*Node           `json:"children,omitempty" yaml:"children,omitempty"` // Child nodes
	Raw      string            `json:"raw,omitempty" yaml:"raw,omitempty"`           // Verbatim source text
}

// Statements.
const NameModule = "module"
const NameBlock = "block"
const NameVar = "var"
const NameDeclarator = "declarator"
const NameFunction = "function"
const NameParams = "params"
const NameClass = "class"
const NameExtends = "extends"
const NameMethod = "method"
const NameField = "field"
const NameIf = "if"
const NameFor = "for"
const NameForIn = "for-in"
const NameForOf = "for-of"
const NameWhile = "while"
const NameDo = "do"
const NameReturn = "return"
const NameBreak = "break"
const NameContinue = "continue"
const NameThrow = "throw"
const NameTry = "try"
const NameCatch = "catch"
const NameFinally = "finally"
const NameSwitch = "switch"
const NameCase = "case"
const NameDefault = "default"
const NameImport = "import"
const NameSpecifier = "specifier"
const NameExport = "export"
const NameLabel = "label"
const NameExpression = "expression"
const NameEmpty = "empty"
const NameComment = "comment"
const NameRaw = "raw"

// Expressions.
const NameIdentifier = "id"
const NameNumber = "number"
const NameString = "string"
const NameTemplate = "template"
const NameTemplateText = "template-text"
const NameRegex = "regex"
const NameBoolean = "boolean"
const NameNull = "null"
const NameThis = "this"
const NameSuper = "super"
const NameArray = "array"
const NameHole = "hole"
const NameObject = "object"
const NameProperty = "property"
const NameCall = "call"
const NameArguments = "arguments"
const NameNew = "new"
const NameMember = "member"
const NameIndex = "index"
const NameUnary = "unary"
const NameUpdate = "update"
const NameBinary = "binary"
const NameAssign = "assign"
const NameConditional = "conditional"
const NameArrow = "arrow"
const NameSequence = "sequence"
const NameSpread = "spread"
const NameParen = "paren"
const NameAwait = "await"
const NameYield = "yield"

const OptionValue = "value"
const OptionName = "name"
const OptionKind = "kind"
const OptionKeyword = "keyword"
const OptionOperator = "operator"
const OptionQuote = "quote"
const OptionFlags = "flags"
const OptionPrefix = "prefix"
const OptionOptional = "optional"
const OptionComputed = "computed"
const OptionShorthand = "shorthand"
const OptionStatic = "static"
const OptionAsync = "async"
const OptionGenerator = "generator"
const OptionDelegate = "delegate"
const OptionDefault = "default"
const OptionSource = "source"
const OptionImported = "imported"
const OptionLocal = "local"
const OptionLabel = "label"
const OptionText = "text"
const OptionStyle = "style"
const OptionExpression = "expression"
const OptionSpan = "span"

const ValueTrue = "true"
const ValueFalse = "false"
const ValueParentheses = "parentheses"
const ValueBrackets = "brackets"
const ValueBraces = "braces"
const ValueComma = "comma"
const ValueSemicolon = "semicolon"
const ValueLine = "line"
const ValueBlock = "block"
const ValueSingle = "single"
const ValueDouble = "double"
const ValueInit = "init"
const ValueMethod = "method"
const ValueGet = "get"
const ValueSet = "set"
const ValueConstructor = "constructor"
const ValueNamed = "named"
const ValueNamespace = "namespace"
const ValueDefault = "default"

// NewNode creates a node whose raw text is sliced from source.
func NewNode(name string, span Span, source string) *Node {
	return &Node{
		Name: name,
		Span: span,
		Raw:  source[span.Start:span.End],
	}
}

// SetOption sets an attribute, allocating the map on first use.
func (n *Node) SetOption(key, value string) *Node {
	if n.Options == nil {
		n.Options = make(map[string]string)
	}
	n.Options[key] = value
	return n
}

// Option returns the attribute value or "" when it is absent.
func (n *Node) Option(key string) string {
	if n == nil || n.Options == nil {
		return ""
	}
	return n.Options[key]
}

func (n *Node) HasOption(key string) bool {
	if n == nil || n.Options == nil {
		return false
	}
	_, ok := n.Options[key]
	return ok
}

// Flag reports whether a boolean attribute is set to "true".
func (n *Node) Flag(key string) bool {
	return n.Option(key) == ValueTrue
}

// Child returns the i-th child; negative indexes count from the end. Out of
// range indexes yield nil.
func (n *Node) Child(i int) *Node {
	if n == nil {
		return nil
	}
	if i < 0 {
		i += len(n.Children)
	}
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

func (n *Node) Is(names ...string) bool {
	if n == nil {
		return false
	}
	for _, name := range names {
		if n.Name == name {
			return true
		}
	}
	return false
}

// Walk visits the tree in pre-order. Returning false from fn skips the
// children of that node.
func (n *Node) Walk(fn func(node *Node, path *Path) bool) {
	walk(n, nil, fn)
}

func walk(n *Node, path *Path, fn func(*Node, *Path) bool) {
	if !fn(n, path) {
		return
	}
	for i, child := range n.Children {
		walk(child, &Path{SiblingPosition: i, Parent: n, Others: path}, fn)
	}
}

// Reconstruct rebuilds the node's text from its children and the connective
// source text lying between them. For a well-formed tree the result equals Raw.
func (n *Node) Reconstruct(source string) string {
	if len(n.Children) == 0 {
		return n.Raw
	}
	var sb strings.Builder
	pos := n.Span.Start
	for _, child := range n.Children {
		if child.Span.Start > pos {
			sb.WriteString(source[pos:child.Span.Start])
		}
		sb.WriteString(child.Reconstruct(source))
		pos = child.Span.End
	}
	if n.Span.End > pos {
		sb.WriteString(source[pos:n.Span.End])
	}
	return sb.String()
}

func (n *Node) UpdateSpan() {
	if len(n.Children) > 0 {
		span := n.Children[0].Span
		for _, child := range n.Children[1:] {
			span = span.MergeSpan(&child.Span)
		}
		n.Span = span
	}
}

// TrimValue trims a value if it's a token value and trimming is enabled
func TrimValue(key, value string, trimLength int) string {
	if (key == OptionValue || key == OptionText) && trimLength > 0 && len(value) > trimLength {
		// Reserve space for Unicode ellipsis (1 character: "…")
		if trimLength >= 2 {
			return value[:trimLength-1] + "…"
		} else if trimLength >= 1 {
			// If trim length is too small for ellipsis, just truncate
			return value[:trimLength]
		}
	}
	return value
}

type PrintFunc func(root *Node, indentDelta string, output io.Writer, options *PrintOptions) error

// PickPrintFunc maps a format name onto its tree writer.
func PickPrintFunc(format string) (PrintFunc, error) {
	switch strings.ToUpper(format) {
	case "JSON":
		return PrintASTJSON, nil
	case "YAML":
		return PrintASTYAML, nil
	case "ASCIITREE":
		return PrintASTAsciiTree, nil
	case "DOT":
		return PrintASTDOT, nil
	case "DOM":
		return PrintASTDOM, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// Formats lists the names accepted by PickPrintFunc.
func Formats() []string {
	return []string{"ASCIITREE", "DOM", "DOT", "JSON", "YAML"}
}
