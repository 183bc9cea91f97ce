package parser

import (
	"strings"

	. "github.com/spicery/jsconvert/pkg/common"
)

var binaryPrecedence = map[string]int{
	"??":         1,
	"||":         2,
	"&&":         3,
	"|":          4,
	"^":          5,
	"&":          6,
	"==":         7,
	"!=":         7,
	"===":        7,
	"!==":        7,
	"<":          8,
	">":          8,
	"<=":         8,
	">=":         8,
	"instanceof": 8,
	"in":         8,
	"<<":         9,
	">>":         9,
	">>>":        9,
	"+":          10,
	"-":          10,
	"*":          11,
	"/":          11,
	"%":          11,
	"**":         12,
}

var assignmentOperators = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "**=": true,
	"<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true, "^=": true,
	"&&=": true, "||=": true, "??=": true,
}

var unaryOperators = map[string]bool{
	"!": true, "~": true, "+": true, "-": true, "typeof": true, "void": true, "delete": true,
}

// ReadExpression reads a comma separated sequence of assignments. With noIn
// set the `in` operator is not consumed, as in the head of a for loop.
func (p *Parser) ReadExpression(noIn bool) (*Node, error) {
	first, err := p.ReadAssignment(noIn)
	if err != nil {
		return nil, err
	}
	if !p.isMark(",") {
		return first, nil
	}
	items := []*Node{first}
	for p.TryReadToken(MarkTokenType, ",") != nil {
		item, err := p.ReadAssignment(noIn)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	node := p.makeNode(NameSequence, first.Span)
	node.Children = items
	return node, nil
}

func (p *Parser) ReadAssignment(noIn bool) (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.isArrowAhead() {
		return p.ReadArrow(noIn)
	}
	if p.isKeyword("yield") {
		return p.ReadYield(noIn)
	}
	left, err := p.ReadConditional(noIn)
	if err != nil {
		return nil, err
	}
	token := p.PeekToken()
	if token == nil || token.Type != OperatorTokenType || !assignmentOperators[token.Text] {
		return left, nil
	}
	p.pos++
	right, err := p.ReadAssignment(noIn)
	if err != nil {
		return nil, err
	}
	node := p.makeNode(NameAssign, left.Span)
	node.SetOption(OptionOperator, token.Text)
	node.Children = []*Node{left, right}
	return node, nil
}

func (p *Parser) ReadYield(noIn bool) (*Node, error) {
	first := p.GetToken()
	delegate := false
	if next := p.PeekToken(); next.Is(OperatorTokenType, "*") && !next.LnBefore {
		p.pos++
		delegate = true
	}
	var children []*Node
	if p.startsExpression() {
		arg, err := p.ReadAssignment(noIn)
		if err != nil {
			return nil, err
		}
		children = append(children, arg)
	}
	node := p.makeNode(NameYield, first.Span)
	setFlag(node, OptionDelegate, delegate)
	node.Children = children
	return node, nil
}

// startsExpression reports whether the next token, on the same line, can
// begin an operand.
func (p *Parser) startsExpression() bool {
	token := p.PeekToken()
	if token == nil || token.LnBefore {
		return false
	}
	switch token.Type {
	case VariableTokenType, NumericLiteralTokenType, StringLiteralTokenType,
		InterpolatedStringTokenType, RegexTokenType:
		return true
	case KeywordTokenType:
		switch token.Text {
		case "in", "instanceof", "of", "else", "case", "default", "catch", "finally", "extends":
			return false
		}
		return true
	case OpenDelimiterTokenType:
		return true
	case OperatorTokenType:
		return unaryOperators[token.Text] || token.Text == "++" || token.Text == "--" || token.Text == "..."
	}
	return false
}

func (p *Parser) ReadConditional(noIn bool) (*Node, error) {
	test, err := p.ReadBinary(0, noIn)
	if err != nil {
		return nil, err
	}
	if p.TryReadToken(OperatorTokenType, "?") == nil {
		return test, nil
	}
	consequent, err := p.ReadAssignment(false)
	if err != nil {
		return nil, err
	}
	if _, err := p.MustReadToken(OperatorTokenType, ":"); err != nil {
		return nil, err
	}
	alternate, err := p.ReadAssignment(noIn)
	if err != nil {
		return nil, err
	}
	node := p.makeNode(NameConditional, test.Span)
	node.Children = []*Node{test, consequent, alternate}
	return node, nil
}

func (p *Parser) binaryPrec(token *Token, noIn bool) int {
	if token == nil {
		return 0
	}
	switch token.Type {
	case OperatorTokenType:
		return binaryPrecedence[token.Text]
	case KeywordTokenType:
		if token.Text == "instanceof" || (token.Text == "in" && !noIn) {
			return binaryPrecedence[token.Text]
		}
	}
	return 0
}

// ReadBinary is a precedence climbing loop over the binary operators.
// Exponentiation associates to the right.
func (p *Parser) ReadBinary(minPrec int, noIn bool) (*Node, error) {
	left, err := p.ReadUnary()
	if err != nil {
		return nil, err
	}
	for {
		token := p.PeekToken()
		prec := p.binaryPrec(token, noIn)
		if prec == 0 || prec <= minPrec {
			return left, nil
		}
		p.pos++
		nextMin := prec
		if token.Text == "**" {
			nextMin = prec - 1
		}
		right, err := p.ReadBinary(nextMin, noIn)
		if err != nil {
			return nil, err
		}
		node := p.makeNode(NameBinary, left.Span)
		node.SetOption(OptionOperator, token.Text)
		node.Children = []*Node{left, right}
		left = node
	}
}

func (p *Parser) ReadUnary() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	token := p.PeekToken()
	if token == nil {
		return nil, p.unexpected(token, "expression")
	}
	isUnary := (token.Type == OperatorTokenType || token.Type == KeywordTokenType) && unaryOperators[token.Text]
	switch {
	case isUnary:
		p.pos++
		arg, err := p.ReadUnary()
		if err != nil {
			return nil, err
		}
		node := p.makeNode(NameUnary, token.Span)
		node.SetOption(OptionOperator, token.Text)
		node.Children = []*Node{arg}
		return node, nil
	case token.Is(OperatorTokenType, "++") || token.Is(OperatorTokenType, "--"):
		p.pos++
		arg, err := p.ReadUnary()
		if err != nil {
			return nil, err
		}
		node := p.makeNode(NameUpdate, token.Span)
		node.SetOption(OptionOperator, token.Text)
		node.SetOption(OptionPrefix, ValueTrue)
		node.Children = []*Node{arg}
		return node, nil
	case token.Is(VariableTokenType, "await"):
		p.pos++
		if !p.startsExpression() || p.isOp("+") || p.isOp("-") {
			p.pos--
			break
		}
		arg, err := p.ReadUnary()
		if err != nil {
			return nil, err
		}
		node := p.makeNode(NameAwait, token.Span)
		node.Children = []*Node{arg}
		return node, nil
	}
	return p.ReadPostfix()
}

func (p *Parser) ReadPostfix() (*Node, error) {
	expr, err := p.ReadCallMember()
	if err != nil {
		return nil, err
	}
	token := p.PeekToken()
	if token != nil && !token.LnBefore && (token.Is(OperatorTokenType, "++") || token.Is(OperatorTokenType, "--")) {
		p.pos++
		node := p.makeNode(NameUpdate, expr.Span)
		node.SetOption(OptionOperator, token.Text)
		node.SetOption(OptionPrefix, ValueFalse)
		node.Children = []*Node{expr}
		return node, nil
	}
	return expr, nil
}

// ReadCallMember reads a primary expression followed by any chain of
// member accesses, index operations and calls.
func (p *Parser) ReadCallMember() (*Node, error) {
	var expr *Node
	var err error
	if p.isKeyword("new") {
		expr, err = p.ReadNew()
	} else {
		expr, err = p.ReadPrimary()
	}
	if err != nil {
		return nil, err
	}
	return p.readChain(expr, true)
}

func (p *Parser) readChain(expr *Node, allowCalls bool) (*Node, error) {
	for {
		token := p.PeekToken()
		if token == nil {
			return expr, nil
		}
		switch {
		case token.Is(OperatorTokenType, "."):
			p.pos++
			name, err := p.MustReadName(true)
			if err != nil {
				return nil, err
			}
			expr = p.member(expr, name.Text, false)
		case token.Is(OperatorTokenType, "?."):
			if !allowCalls {
				return expr, nil
			}
			p.pos++
			var err error
			switch {
			case p.isOpen("("):
				expr, err = p.call(expr, true)
			case p.isOpen("["):
				expr, err = p.index(expr, true)
			default:
				var name *Token
				name, err = p.MustReadName(true)
				if err == nil {
					expr = p.member(expr, name.Text, true)
				}
			}
			if err != nil {
				return nil, err
			}
		case token.Is(OpenDelimiterTokenType, "["):
			var err error
			if expr, err = p.index(expr, false); err != nil {
				return nil, err
			}
		case token.Is(OpenDelimiterTokenType, "(") && allowCalls:
			var err error
			if expr, err = p.call(expr, false); err != nil {
				return nil, err
			}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) member(object *Node, name string, optional bool) *Node {
	node := p.makeNode(NameMember, object.Span)
	node.SetOption(OptionName, name)
	setFlag(node, OptionOptional, optional)
	node.Children = []*Node{object}
	return node
}

func (p *Parser) index(object *Node, optional bool) (*Node, error) {
	p.pos++
	property, err := p.ReadExpression(false)
	if err != nil {
		return nil, err
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, "]"); err != nil {
		return nil, err
	}
	node := p.makeNode(NameIndex, object.Span)
	setFlag(node, OptionOptional, optional)
	node.Children = []*Node{object, property}
	return node, nil
}

func (p *Parser) call(callee *Node, optional bool) (*Node, error) {
	args, err := p.ReadArguments()
	if err != nil {
		return nil, err
	}
	node := p.makeNode(NameCall, callee.Span)
	setFlag(node, OptionOptional, optional)
	node.Children = []*Node{callee, args}
	return node, nil
}

func (p *Parser) ReadNew() (*Node, error) {
	first := p.GetToken()
	if p.TryReadToken(OperatorTokenType, ".") != nil {
		name, err := p.MustReadName(false)
		if err != nil {
			return nil, err
		}
		meta := p.makeNode(NameIdentifier, first.Span)
		meta.SetOption(OptionName, "new."+name.Text)
		return meta, nil
	}
	var callee *Node
	var err error
	if p.isKeyword("new") {
		callee, err = p.ReadNew()
	} else {
		callee, err = p.ReadPrimary()
	}
	if err != nil {
		return nil, err
	}
	if callee, err = p.readChain(callee, false); err != nil {
		return nil, err
	}
	children := []*Node{callee}
	if p.isOpen("(") {
		args, err := p.ReadArguments()
		if err != nil {
			return nil, err
		}
		children = append(children, args)
	}
	node := p.makeNode(NameNew, first.Span)
	node.Children = children
	return node, nil
}

func (p *Parser) ReadArguments() (*Node, error) {
	open, err := p.MustReadToken(OpenDelimiterTokenType, "(")
	if err != nil {
		return nil, err
	}
	var args []*Node
	for !p.isClose(")") {
		arg, err := p.ReadElement()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	node := p.makeNode(NameArguments, open.Span)
	node.Children = args
	return node, nil
}

// ReadElement reads an argument or array element, which may be spread.
func (p *Parser) ReadElement() (*Node, error) {
	if spread := p.TryReadToken(OperatorTokenType, "..."); spread != nil {
		arg, err := p.ReadAssignment(false)
		if err != nil {
			return nil, err
		}
		node := p.makeNode(NameSpread, spread.Span)
		node.Children = []*Node{arg}
		return node, nil
	}
	return p.ReadAssignment(false)
}

func (p *Parser) ReadPrimary() (*Node, error) {
	token := p.PeekToken()
	if token == nil {
		return nil, p.unexpected(token, "expression")
	}
	switch token.Type {
	case VariableTokenType:
		if token.Text == "async" && p.PeekAhead(1).Is(KeywordTokenType, "function") && !p.PeekAhead(1).LnBefore {
			return p.ReadFunction(true)
		}
		p.pos++
		return p.identifier(token), nil
	case NumericLiteralTokenType:
		p.pos++
		return NewNode(NameNumber, token.Span, p.source).SetOption(OptionValue, token.Text), nil
	case StringLiteralTokenType:
		p.pos++
		node := NewNode(NameString, token.Span, p.source)
		node.SetOption(OptionValue, token.Text[1:len(token.Text)-1])
		if token.Text[0] == '\'' {
			node.SetOption(OptionQuote, ValueSingle)
		} else {
			node.SetOption(OptionQuote, ValueDouble)
		}
		return node, nil
	case InterpolatedStringTokenType:
		p.pos++
		return p.ReadTemplate(token)
	case RegexTokenType:
		p.pos++
		last := strings.LastIndexByte(token.Text, '/')
		node := NewNode(NameRegex, token.Span, p.source)
		node.SetOption(OptionValue, token.Text[1:last])
		node.SetOption(OptionFlags, token.Text[last+1:])
		return node, nil
	case KeywordTokenType:
		switch token.Text {
		case "this":
			p.pos++
			return NewNode(NameThis, token.Span, p.source), nil
		case "super":
			p.pos++
			return NewNode(NameSuper, token.Span, p.source), nil
		case "null":
			p.pos++
			return NewNode(NameNull, token.Span, p.source), nil
		case "true", "false":
			p.pos++
			return NewNode(NameBoolean, token.Span, p.source).SetOption(OptionValue, token.Text), nil
		case "function":
			return p.ReadFunction(true)
		case "class":
			return p.ReadClass(true)
		case "new":
			return p.ReadNew()
		}
	case OpenDelimiterTokenType:
		switch token.Text {
		case "(":
			return p.ReadParenthesised()
		case "[":
			return p.ReadArray()
		case "{":
			return p.ReadObject()
		}
	}
	return nil, p.unexpected(token, "")
}

func (p *Parser) ReadParenthesised() (*Node, error) {
	open := p.GetToken()
	expr, err := p.ReadExpression(false)
	if err != nil {
		return nil, err
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	node := p.makeNode(NameParen, open.Span)
	node.Children = []*Node{expr}
	return node, nil
}

func (p *Parser) ReadArray() (*Node, error) {
	open := p.GetToken()
	var elements []*Node
	for !p.isClose("]") {
		if comma := p.PeekToken(); comma.Is(MarkTokenType, ",") {
			elements = append(elements, p.hole(comma))
			p.pos++
			continue
		}
		element, err := p.ReadElement()
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, "]"); err != nil {
		return nil, err
	}
	node := p.makeNode(NameArray, open.Span)
	node.Children = elements
	return node, nil
}

// hole is the elided element in front of a comma, as in [a, , b].
func (p *Parser) hole(comma *Token) *Node {
	at := comma.Span.StartPos()
	return NewNode(NameHole, at.Span(at), p.source)
}

func (p *Parser) ReadObject() (*Node, error) {
	open := p.GetToken()
	var properties []*Node
	for !p.isClose("}") {
		property, err := p.ReadProperty()
		if err != nil {
			return nil, err
		}
		properties = append(properties, property)
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, "}"); err != nil {
		return nil, err
	}
	node := p.makeNode(NameObject, open.Span)
	node.Children = properties
	return node, nil
}

func (p *Parser) ReadProperty() (*Node, error) {
	first := p.PeekToken()
	if spread := p.TryReadToken(OperatorTokenType, "..."); spread != nil {
		arg, err := p.ReadAssignment(false)
		if err != nil {
			return nil, err
		}
		node := p.makeNode(NameSpread, spread.Span)
		node.Children = []*Node{arg}
		return node, nil
	}
	kind, async, generator := p.readMethodModifiers()
	name, key, err := p.ReadPropertyName()
	if err != nil {
		return nil, err
	}
	var children []*Node
	switch {
	case p.isOpen("("):
		fn, err := p.ReadMethodFunction(first, async, generator)
		if err != nil {
			return nil, err
		}
		children = appendKey(key, fn)
	case kind != ValueMethod || async || generator:
		return nil, p.unexpected(p.PeekToken(), "(")
	case p.TryReadToken(OperatorTokenType, ":") != nil:
		kind = ValueInit
		value, err := p.ReadAssignment(false)
		if err != nil {
			return nil, err
		}
		children = appendKey(key, value)
	case key == nil && first.Type == VariableTokenType:
		kind = ValueInit
		value := p.identifier(first)
		if p.TryReadToken(OperatorTokenType, "=") != nil {
			init, err := p.ReadAssignment(false)
			if err != nil {
				return nil, err
			}
			assign := p.makeNode(NameAssign, first.Span)
			assign.SetOption(OptionOperator, "=")
			assign.Children = []*Node{value, init}
			value = assign
		}
		children = []*Node{value}
		node := p.makeNode(NameProperty, first.Span)
		node.SetOption(OptionKind, kind)
		node.SetOption(OptionName, name)
		node.SetOption(OptionShorthand, ValueTrue)
		node.Children = children
		return node, nil
	default:
		return nil, p.unexpected(p.PeekToken(), ":")
	}
	node := p.makeNode(NameProperty, first.Span)
	node.SetOption(OptionKind, kind)
	node.SetOption(OptionName, name)
	setFlag(node, OptionComputed, key != nil)
	if first.Type == StringLiteralTokenType {
		node.SetOption(OptionQuote, ValueDouble)
	}
	node.Children = children
	return node, nil
}

// isArrowAhead looks past a parameter list for `=>` without consuming.
func (p *Parser) isArrowAhead() bool {
	i := p.pos
	token := p.PeekToken()
	if token == nil {
		return false
	}
	if token.Is(VariableTokenType, "async") {
		next := p.PeekAhead(1)
		if next != nil && !next.LnBefore && (next.Type == VariableTokenType || next.Is(OpenDelimiterTokenType, "(")) {
			i++
		}
	}
	if i >= len(p.tokens) {
		return false
	}
	switch start := p.tokens[i]; {
	case start.Type == VariableTokenType:
		i++
	case start.Is(OpenDelimiterTokenType, "("):
		i = p.matchingClose(i) + 1
	default:
		return false
	}
	return i < len(p.tokens) && p.tokens[i].Is(OperatorTokenType, "=>") && !p.tokens[i].LnBefore
}

// matchingClose finds the index of the delimiter closing the one at i.
func (p *Parser) matchingClose(i int) int {
	depth := 0
	for j := i; j < len(p.tokens); j++ {
		if p.tokens[j].IsOpen() {
			depth++
		} else if p.tokens[j].IsClose() {
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(p.tokens)
}

func (p *Parser) ReadArrow(noIn bool) (*Node, error) {
	first := p.PeekToken()
	async := false
	if first.Is(VariableTokenType, "async") && !p.PeekAhead(1).Is(OperatorTokenType, "=>") {
		p.pos++
		async = true
	}
	var params *Node
	if p.isOpen("(") {
		var err error
		if params, err = p.ReadParams(); err != nil {
			return nil, err
		}
	} else {
		name := p.GetToken()
		params = NewNode(NameParams, name.Span, p.source)
		params.Children = []*Node{p.identifier(name)}
	}
	if _, err := p.MustReadToken(OperatorTokenType, "=>"); err != nil {
		return nil, err
	}
	var body *Node
	var err error
	if p.isOpen("{") {
		body, err = p.ReadBlock()
	} else {
		body, err = p.ReadAssignment(noIn)
	}
	if err != nil {
		return nil, err
	}
	node := p.makeNode(NameArrow, first.Span)
	setFlag(node, OptionAsync, async)
	setFlag(node, OptionExpression, !body.Is(NameBlock))
	node.Children = []*Node{params, body}
	return node, nil
}
