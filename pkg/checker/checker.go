package checker

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/spicery/jsconvert/pkg/common"
)

type Bug struct {
	Message string
	Node    *common.Node
}

type Issue struct {
	Message string
	Node    *common.Node
}

// Checker validates the shape of a parsed tree. Bugs are broken guarantees
// of the parser, issues are source constructs that will only be passed
// through verbatim.
type Checker struct {
	Bugs   []Bug   // Accumulated internal errors (bugs).
	Issues []Issue // Accumulated warnings about the source.
	source string
}

// arity bounds the number of children; max < 0 means unbounded.
type arity struct {
	min, max int
}

var arities = map[string]arity{
	common.NameModule:       {0, -1},
	common.NameBlock:        {0, -1},
	common.NameVar:          {1, -1},
	common.NameDeclarator:   {1, 2},
	common.NameFunction:     {2, 2},
	common.NameParams:       {0, -1},
	common.NameClass:        {0, -1},
	common.NameExtends:      {1, 1},
	common.NameMethod:       {1, 2},
	common.NameField:        {0, 2},
	common.NameIf:           {2, 3},
	common.NameFor:          {4, 4},
	common.NameForIn:        {3, 3},
	common.NameForOf:        {3, 3},
	common.NameWhile:        {2, 2},
	common.NameDo:           {2, 2},
	common.NameReturn:       {0, 1},
	common.NameBreak:        {0, 0},
	common.NameContinue:     {0, 0},
	common.NameThrow:        {1, 1},
	common.NameTry:          {2, 3},
	common.NameCatch:        {1, 2},
	common.NameFinally:      {1, 1},
	common.NameSwitch:       {1, -1},
	common.NameCase:         {1, -1},
	common.NameDefault:      {0, -1},
	common.NameImport:       {0, -1},
	common.NameSpecifier:    {0, 0},
	common.NameExport:       {0, -1},
	common.NameLabel:        {1, 1},
	common.NameExpression:   {1, 1},
	common.NameEmpty:        {0, 0},
	common.NameComment:      {0, 0},
	common.NameRaw:          {0, 0},
	common.NameIdentifier:   {0, 0},
	common.NameNumber:       {0, 0},
	common.NameString:       {0, 0},
	common.NameTemplate:     {1, -1},
	common.NameTemplateText: {0, 0},
	common.NameRegex:        {0, 0},
	common.NameBoolean:      {0, 0},
	common.NameNull:         {0, 0},
	common.NameThis:         {0, 0},
	common.NameSuper:        {0, 0},
	common.NameArray:        {0, -1},
	common.NameHole:         {0, 0},
	common.NameObject:       {0, -1},
	common.NameProperty:     {1, 2},
	common.NameCall:         {2, 2},
	common.NameArguments:    {0, -1},
	common.NameNew:          {1, 2},
	common.NameMember:       {1, 1},
	common.NameIndex:        {2, 2},
	common.NameUnary:        {1, 1},
	common.NameUpdate:       {1, 1},
	common.NameBinary:       {2, 2},
	common.NameAssign:       {2, 2},
	common.NameConditional:  {3, 3},
	common.NameArrow:        {2, 2},
	common.NameSequence:     {2, -1},
	common.NameSpread:       {1, 1},
	common.NameParen:        {1, 1},
	common.NameAwait:        {1, 1},
	common.NameYield:        {0, 1},
}

// requiredOptions lists the attributes a node cannot do without.
var requiredOptions = map[string][]string{
	common.NameVar:          {common.OptionKeyword},
	common.NameIdentifier:   {common.OptionName},
	common.NameNumber:       {common.OptionValue},
	common.NameString:       {common.OptionValue, common.OptionQuote},
	common.NameTemplateText: {common.OptionValue},
	common.NameRegex:        {common.OptionValue, common.OptionFlags},
	common.NameBoolean:      {common.OptionValue},
	common.NameMember:       {common.OptionName},
	common.NameUnary:        {common.OptionOperator},
	common.NameUpdate:       {common.OptionOperator, common.OptionPrefix},
	common.NameBinary:       {common.OptionOperator},
	common.NameAssign:       {common.OptionOperator},
	common.NameProperty:     {common.OptionKind},
	common.NameMethod:       {common.OptionKind},
	common.NameSpecifier:    {common.OptionKind, common.OptionImported},
	common.NameComment:      {common.OptionStyle, common.OptionText},
	common.NameImport:       {common.OptionSource},
	common.NameLabel:        {common.OptionLabel},
}

// NewChecker creates a checker for trees parsed from source.
func NewChecker(source string) *Checker {
	return &Checker{
		Bugs:   []Bug{},
		Issues: []Issue{},
		source: source,
	}
}

// Check validates the tree rooted at node, which must be a module. It
// reports whether no bugs were found; issues do not fail the check.
func (c *Checker) Check(node *common.Node) bool {
	if node == nil {
		c.addBug("invalid node: nil", node)
		return false
	}
	if node.Name != common.NameModule {
		c.addBug("expected module node as root", node)
		return false
	}
	if node.Span.Start != 0 || node.Span.End != len(c.source) {
		c.addBug("module span does not cover the source", node)
	}
	c.validate(node)
	if len(c.Bugs) == 0 && node.Reconstruct(c.source) != node.Raw {
		c.addBug("children do not reconstruct the source", node)
	}
	return len(c.Bugs) == 0
}

func (c *Checker) validate(node *common.Node) {
	if node == nil {
		c.addBug("invalid node: nil", node)
		return
	}
	bounds, ok := arities[node.Name]
	if !ok {
		c.addBug(fmt.Sprintf("unexpected node type: %s", node.Name), node)
		return
	}
	c.factArity(bounds, node)
	for _, key := range requiredOptions[node.Name] {
		if !node.HasOption(key) {
			c.addBug(fmt.Sprintf("%s node missing %s option", node.Name, key), node)
		}
	}
	c.validateSpan(node)

	switch node.Name {
	case common.NameRaw:
		c.addIssue("unrecognised statement kept verbatim", node)
	case common.NameVar:
		c.expectChildren(node, common.NameDeclarator)
	case common.NameFunction:
		c.expectChild(node, 0, common.NameParams)
		c.expectChild(node, 1, common.NameBlock)
	case common.NameCall:
		c.expectChild(node, 1, common.NameArguments)
	case common.NameSwitch:
		for _, clause := range node.Children[min(1, len(node.Children)):] {
			if !clause.Is(common.NameCase, common.NameDefault) {
				c.addBug("switch clause must be case or default", clause)
			}
		}
	case common.NameTemplate:
		c.validateTemplate(node)
	}
	for _, child := range node.Children {
		c.validate(child)
	}
}

// validateSpan checks that the raw text is the source slice and that the
// children lie in order within the parent.
func (c *Checker) validateSpan(node *common.Node) {
	span := node.Span
	if span.Start < 0 || span.End < span.Start || span.End > len(c.source) {
		c.addBug(fmt.Sprintf("span %d..%d out of range", span.Start, span.End), node)
		return
	}
	if node.Raw != c.source[span.Start:span.End] {
		c.addBug("raw text differs from source", node)
	}
	pos := span.Start
	for _, child := range node.Children {
		if child == nil {
			continue
		}
		if child.Span.Start < pos || child.Span.End > span.End {
			c.addBug(fmt.Sprintf("child %s is out of order or outside its parent", child.Name), child)
		}
		pos = child.Span.End
	}
}

func (c *Checker) validateTemplate(node *common.Node) {
	if len(node.Children)%2 == 0 {
		c.addBug("template must alternate text and substitutions", node)
		return
	}
	for i, child := range node.Children {
		if (i%2 == 0) != child.Is(common.NameTemplateText) {
			c.addBug("template must alternate text and substitutions", child)
			return
		}
	}
}

func (c *Checker) expectChildren(node *common.Node, name string) {
	for _, child := range node.Children {
		if !child.Is(name) {
			c.addBug(fmt.Sprintf("%s node children must be %s nodes", node.Name, name), child)
		}
	}
}

func (c *Checker) expectChild(node *common.Node, i int, name string) {
	if child := node.Child(i); child != nil && !child.Is(name) {
		c.addBug(fmt.Sprintf("expected %s node, got %s", name, child.Name), child)
	}
}

func (c *Checker) factArity(bounds arity, node *common.Node) bool {
	n := len(node.Children)
	if n < bounds.min || (bounds.max >= 0 && n > bounds.max) {
		if bounds.min == bounds.max {
			c.addBug(fmt.Sprintf("expected %d children, got %d", bounds.min, n), node)
		} else {
			c.addBug(fmt.Sprintf("unexpected number of children for %s: %d", node.Name, n), node)
		}
		return false
	}
	return true
}

// ReportErrors writes bugs first, then issues.
func (c *Checker) ReportErrors(w io.Writer) {
	bold := color.New(color.Bold)
	if len(c.Bugs) > 0 {
		bold.Fprintln(w, "Bug in parser detected; the output of the parser is faulty:")
		for i, bug := range c.Bugs {
			fmt.Fprintf(w, "  [%d]. %s, at %s\n", i+1, bug.Message, location(bug.Node))
		}
	}
	if len(c.Issues) > 0 {
		bold.Fprintln(w, "Constructs that will be passed through unchanged:")
		for i, issue := range c.Issues {
			fmt.Fprintf(w, "  [%d]. %s, at %s\n", i+1, issue.Message, location(issue.Node))
		}
	}
}

func location(node *common.Node) string {
	if node == nil {
		return "unknown location"
	}
	return fmt.Sprintf("line %d, column %d", node.Span.StartLine, node.Span.StartColumn)
}

// We add a bug if the parser is supposed to guarantee the condition but it
// is violated.
func (c *Checker) addBug(message string, node *common.Node) {
	c.Bugs = append(c.Bugs, Bug{Message: message, Node: node})
}

// We add an issue if the source parses but the construct is not modelled.
func (c *Checker) addIssue(message string, node *common.Node) {
	c.Issues = append(c.Issues, Issue{Message: message, Node: node})
}
