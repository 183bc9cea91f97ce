package python

import (
	"strconv"
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
)

// Python precedence levels, lowest first.
const (
	precLambda = iota
	precConditional
	precOr
	precAnd
	precNot
	precComparison
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPower
	precAwait
	precAtom
)

// binaryOperators maps the JavaScript operators Python can express onto
// their Python spelling. Operators missing here, such as ?? and >>>, are
// left to the engine's pass-through.
var binaryOperators = map[string]string{
	"||": "or", "&&": "and",
	"==": "==", "===": "==", "!=": "!=", "!==": "!=",
	"<": "<", ">": ">", "<=": "<=", ">=": ">=", "in": "in",
	"|": "|", "^": "^", "&": "&", "<<": "<<", ">>": ">>",
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%", "**": "**",
}

var pythonPrecedence = map[string]int{
	"or": precOr, "and": precAnd,
	"==": precComparison, "!=": precComparison, "<": precComparison, ">": precComparison,
	"<=": precComparison, ">=": precComparison, "in": precComparison,
	"is": precComparison, "is not": precComparison,
	"|": precBitOr, "^": precBitXor, "&": precBitAnd, "<<": precShift, ">>": precShift,
	"+": precAdditive, "-": precAdditive, "*": precMultiplicative, "/": precMultiplicative,
	"%": precMultiplicative, "**": precPower,
}

var assignOperators = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "**=": true,
	"<<=": true, ">>=": true, "&=": true, "|=": true, "^=": true,
}

// precedenceOf is the Python precedence of the text a node emits as.
func precedenceOf(n *common.Node) int {
	switch {
	case n.Is(common.NameBinary):
		if n.Option(common.OptionOperator) == "instanceof" {
			return precAtom
		}
		if op, ok := binaryOperators[n.Option(common.OptionOperator)]; ok {
			return pythonPrecedence[op]
		}
		return precLambda
	case n.Is(common.NameUnary):
		switch n.Option(common.OptionOperator) {
		case "!":
			return precNot
		case "typeof":
			return precAtom
		}
		return precUnary
	case n.Is(common.NameConditional):
		return precConditional
	case n.Is(common.NameArrow):
		if lambdaBody(n) != nil {
			return precLambda
		}
	case n.Is(common.NameAwait):
		return precAwait
	case n.Is(common.NameYield, common.NameSequence, common.NameAssign, common.NameUpdate):
		return precLambda
	}
	return precAtom
}

// operand emits n and parenthesises it when it binds more loosely than min.
func operand(n *common.Node, min int, recurse engine.Recurse) (string, error) {
	text, err := recurse(n)
	if err != nil {
		return "", err
	}
	if precedenceOf(n) < min {
		return "(" + text + ")", nil
	}
	return text, nil
}

func expressionRules() []engine.Rule {
	return []engine.Rule{
		engine.NewRule("identifier", kinds(common.NameIdentifier), emitIdentifier),
		engine.NewRule("number", kinds(common.NameNumber), emitNumber),
		engine.NewRule("string", kinds(common.NameString), emitString),
		engine.NewRule("template", kinds(common.NameTemplate), emitTemplate),
		engine.NewRule("regex", kinds(common.NameRegex), emitRegex),
		engine.NewRule("boolean", kinds(common.NameBoolean), emitBoolean),
		engine.NewRule("null", kinds(common.NameNull), emitConstant("None")),
		engine.NewRule("this", kinds(common.NameThis), emitConstant("self")),
		engine.NewRule("super", kinds(common.NameSuper), emitConstant("super()")),
		engine.NewRule("hole", kinds(common.NameHole), emitConstant("None")),
		engine.NewRule("array", kinds(common.NameArray), emitArray),
		engine.NewRule("object", kinds(common.NameObject), emitObject, engine.When(objectIsData)),
		engine.NewRule("paren", kinds(common.NameParen), emitParen),
		engine.NewRule("spread", kinds(common.NameSpread), emitSpread,
			engine.When(engine.ParentIs(common.NameArguments, common.NameArray))),
		engine.NewRule("binary", kinds(common.NameBinary), emitBinary, engine.When(binaryIsSupported)),
		engine.NewRule("compare-null", kinds(common.NameBinary), emitCompareNull,
			engine.WithPrecedence(10), engine.When(comparesWithNull)),
		engine.NewRule("unary", kinds(common.NameUnary), emitUnary,
			engine.When(engine.HasOption(common.OptionOperator, "!", "-", "+", "~", "typeof"))),
		engine.NewRule("update", kinds(common.NameUpdate), emitUpdate, engine.When(inStatementContext)),
		engine.NewRule("assign", kinds(common.NameAssign), emitAssign, engine.When(assignIsSupported)),
		engine.NewRule("walrus", kinds(common.NameAssign), emitWalrus, engine.When(isWalrus)),
		engine.NewRule("conditional", kinds(common.NameConditional), emitConditional),
		engine.NewRule("sequence", kinds(common.NameSequence), emitSequence, engine.When(inStatementContext)),
		engine.NewRule("await", kinds(common.NameAwait), emitAwait),
		engine.NewRule("yield", kinds(common.NameYield), emitYield),
		engine.NewRule("member", kinds(common.NameMember), emitMember,
			engine.When(engine.Not(engine.HasOption(common.OptionOptional)))),
		engine.NewRule("index", kinds(common.NameIndex), emitIndex,
			engine.When(engine.Not(engine.HasOption(common.OptionOptional)))),
		engine.NewRule("call", kinds(common.NameCall), emitCall,
			engine.When(engine.Not(engine.HasOption(common.OptionOptional)))),
		engine.NewRule("new", kinds(common.NameNew), emitNew),
	}
}

func emitConstant(text string) engine.EmitFunc {
	return func(*common.Node, *engine.Context, engine.Recurse) (string, error) {
		return text, nil
	}
}

func inStatementContext(_ *common.Node, c *engine.Context) bool {
	return inStatement(c)
}

func emitIdentifier(n *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
	name := n.Option(common.OptionName)
	switch name {
	case "undefined":
		return "None", nil
	case "NaN":
		return `float("nan")`, nil
	case "Infinity":
		return `float("inf")`, nil
	}
	return c.Resolve(name), nil
}

func emitNumber(n *common.Node, _ *engine.Context, _ engine.Recurse) (string, error) {
	return strings.TrimSuffix(n.Option(common.OptionValue), "n"), nil
}

func emitString(n *common.Node, _ *engine.Context, _ engine.Recurse) (string, error) {
	return n.Raw, nil
}

func emitBoolean(n *common.Node, _ *engine.Context, _ engine.Recurse) (string, error) {
	if n.Option(common.OptionValue) == common.ValueTrue {
		return "True", nil
	}
	return "False", nil
}

// emitTemplate writes a template literal as an f-string, or as a plain
// string when it has no substitutions.
func emitTemplate(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	multiline := false
	substitutions := false
	for _, part := range n.Children {
		if part.Is(common.NameTemplateText) {
			multiline = multiline || strings.Contains(part.Option(common.OptionValue), "\n")
		} else {
			substitutions = true
		}
	}
	quote := `"`
	if multiline {
		quote = `"""`
	}
	var sb strings.Builder
	if substitutions {
		sb.WriteString("f")
	}
	sb.WriteString(quote)
	for _, part := range n.Children {
		if !part.Is(common.NameTemplateText) {
			expr, err := recurse(part)
			if err != nil {
				return "", err
			}
			sb.WriteString("{" + expr + "}")
			continue
		}
		text := strings.NewReplacer("\\`", "`", "\\$", "$").Replace(part.Option(common.OptionValue))
		if substitutions {
			text = strings.NewReplacer("{", "{{", "}", "}}").Replace(text)
		}
		if !multiline {
			text = escapeQuote(text, '"')
		}
		sb.WriteString(text)
	}
	sb.WriteString(quote)
	return sb.String(), nil
}

// escapeQuote escapes occurrences of q that are not already escaped.
func escapeQuote(text string, q byte) string {
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '\\' && i+1 < len(text) {
			sb.WriteByte(ch)
			sb.WriteByte(text[i+1])
			i++
			continue
		}
		if ch == q {
			sb.WriteByte('\\')
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

var regexFlags = map[rune]string{'i': "re.I", 'm': "re.M", 's': "re.S", 'u': "re.U"}

func emitRegex(n *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
	c.Require("re", "import re")
	var flags []string
	for _, flag := range n.Option(common.OptionFlags) {
		if name, ok := regexFlags[flag]; ok {
			flags = append(flags, name)
		} else if flag != 'g' {
			c.Warn(n, "regular expression flag %q dropped", string(flag))
		}
	}
	text := `re.compile(r"` + escapeQuote(n.Option(common.OptionValue), '"') + `"`
	if len(flags) > 0 {
		text += ", " + strings.Join(flags, " | ")
	}
	return text + ")", nil
}

func emitArray(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	items, err := engine.Join(n.Children, ", ", recurse)
	if err != nil {
		return "", err
	}
	return "[" + items + "]", nil
}

// objectIsData holds for object literals without methods or accessors.
func objectIsData(n *common.Node, _ *engine.Context) bool {
	for _, prop := range n.Children {
		if prop.Is(common.NameProperty) && prop.Option(common.OptionKind) != common.ValueInit {
			return false
		}
		if prop.Flag(common.OptionShorthand) && prop.Child(0).Is(common.NameAssign) {
			return false
		}
	}
	return true
}

func emitObject(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	entries := make([]string, 0, len(n.Children))
	for _, prop := range n.Children {
		if prop.Is(common.NameSpread) {
			value, err := recurse(prop.Child(0))
			if err != nil {
				return "", err
			}
			entries = append(entries, "**"+value)
			continue
		}
		key := strconv.Quote(prop.Option(common.OptionName))
		if prop.Flag(common.OptionComputed) {
			text, err := recurse(prop.Child(0))
			if err != nil {
				return "", err
			}
			key = text
		}
		value, err := recurse(prop.Child(-1))
		if err != nil {
			return "", err
		}
		entries = append(entries, key+": "+value)
	}
	return "{" + strings.Join(entries, ", ") + "}", nil
}

func emitParen(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	inner, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	return "(" + inner + ")", nil
}

func emitSpread(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	value, err := operand(n.Child(0), precAtom, recurse)
	if err != nil {
		return "", err
	}
	return "*" + value, nil
}

func binaryIsSupported(n *common.Node, _ *engine.Context) bool {
	op := n.Option(common.OptionOperator)
	_, ok := binaryOperators[op]
	return ok || op == "instanceof"
}

func emitBinary(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	jsOp := n.Option(common.OptionOperator)
	if jsOp == "instanceof" {
		value, err := recurse(n.Child(0))
		if err != nil {
			return "", err
		}
		class, err := recurse(n.Child(1))
		if err != nil {
			return "", err
		}
		return "isinstance(" + value + ", " + class + ")", nil
	}
	op := binaryOperators[jsOp]
	prec := pythonPrecedence[op]
	leftMin, rightMin := prec, prec+1
	switch {
	case op == "**":
		leftMin, rightMin = prec+1, prec
	case prec == precComparison:
		leftMin = prec + 1
	}
	left, err := operand(n.Child(0), leftMin, recurse)
	if err != nil {
		return "", err
	}
	right, err := operand(n.Child(1), rightMin, recurse)
	if err != nil {
		return "", err
	}
	return left + " " + op + " " + right, nil
}

func isNullish(n *common.Node) bool {
	return n.Is(common.NameNull) || isName(n, "undefined")
}

func comparesWithNull(n *common.Node, _ *engine.Context) bool {
	switch n.Option(common.OptionOperator) {
	case "==", "===", "!=", "!==":
		return isNullish(n.Child(0)) || isNullish(n.Child(1))
	}
	return false
}

// emitCompareNull writes comparisons against null or undefined as an
// identity test.
func emitCompareNull(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	subject := n.Child(0)
	if isNullish(subject) {
		subject = n.Child(1)
	}
	value, err := operand(subject, precComparison+1, recurse)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(n.Option(common.OptionOperator), "!") {
		return value + " is not None", nil
	}
	return value + " is None", nil
}

func emitUnary(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	switch op := n.Option(common.OptionOperator); op {
	case "!":
		value, err := operand(n.Child(0), precNot, recurse)
		if err != nil {
			return "", err
		}
		return "not " + value, nil
	case "typeof":
		value, err := recurse(n.Child(0))
		if err != nil {
			return "", err
		}
		return "type(" + value + ").__name__", nil
	default:
		value, err := operand(n.Child(0), precUnary, recurse)
		if err != nil {
			return "", err
		}
		return op + value, nil
	}
}

func emitUpdate(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	target, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	if n.Option(common.OptionOperator) == "++" {
		return target + " += 1", nil
	}
	return target + " -= 1", nil
}

func assignIsSupported(n *common.Node, c *engine.Context) bool {
	if !assignOperators[n.Option(common.OptionOperator)] || !inStatement(c) {
		return false
	}
	return n.Child(0).Is(common.NameIdentifier, common.NameMember, common.NameIndex, common.NameArray)
}

func emitAssign(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	target, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	value, err := recurse(n.Child(1))
	if err != nil {
		return "", err
	}
	return target + " " + n.Option(common.OptionOperator) + " " + value, nil
}

// isWalrus matches a plain assignment to a name whose value is used.
func isWalrus(n *common.Node, c *engine.Context) bool {
	return n.Option(common.OptionOperator) == "=" && n.Child(0).Is(common.NameIdentifier) &&
		!inStatement(c) && !c.Parent().Is(common.NameParams, common.NameProperty)
}

func emitWalrus(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	target, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	value, err := recurse(n.Child(1))
	if err != nil {
		return "", err
	}
	return "(" + target + " := " + value + ")", nil
}

func emitConditional(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	test, err := operand(n.Child(0), precOr, recurse)
	if err != nil {
		return "", err
	}
	consequent, err := operand(n.Child(1), precOr, recurse)
	if err != nil {
		return "", err
	}
	alternate, err := operand(n.Child(2), precConditional, recurse)
	if err != nil {
		return "", err
	}
	return consequent + " if " + test + " else " + alternate, nil
}

func emitSequence(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	return engine.Join(n.Children, c.Newline(), recurse)
}

func emitAwait(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	value, err := operand(n.Child(0), precAwait, recurse)
	if err != nil {
		return "", err
	}
	return "await " + value, nil
}

func emitYield(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	keyword := "yield"
	if n.Flag(common.OptionDelegate) {
		keyword = "yield from"
	}
	if len(n.Children) == 0 {
		return keyword, nil
	}
	value, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	return keyword + " " + value, nil
}

func emitIndex(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	object, err := operand(n.Child(0), precAtom, recurse)
	if err != nil {
		return "", err
	}
	property, err := recurse(n.Child(1))
	if err != nil {
		return "", err
	}
	return object + "[" + property + "]", nil
}
