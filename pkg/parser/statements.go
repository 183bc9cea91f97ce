package parser

import (
	. "github.com/spicery/jsconvert/pkg/common"
)

// ReadStatement reads a single statement, failing on anything it does not
// recognise so that the caller can fall back to a raw node.
func (p *Parser) ReadStatement() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	token := p.PeekToken()
	if token == nil {
		return nil, p.unexpected(token, "statement")
	}
	switch token.Type {
	case KeywordTokenType:
		switch token.Text {
		case "var", "let", "const":
			return p.ReadVarStatement()
		case "function":
			return p.ReadFunction(false)
		case "class":
			return p.ReadClass(false)
		case "if":
			return p.ReadIf()
		case "for":
			return p.ReadFor()
		case "while":
			return p.ReadWhile()
		case "do":
			return p.ReadDoWhile()
		case "return":
			return p.ReadReturn()
		case "break", "continue":
			return p.ReadJump()
		case "throw":
			return p.ReadThrow()
		case "try":
			return p.ReadTry()
		case "switch":
			return p.ReadSwitch()
		case "import":
			if next := p.PeekAhead(1); next.Is(OpenDelimiterTokenType, "(") || next.Is(OperatorTokenType, ".") {
				return p.ReadExpressionStatement()
			}
			return p.ReadImport()
		case "export":
			return p.ReadExport()
		}
	case OpenDelimiterTokenType:
		if token.Text == "{" {
			return p.ReadBlock()
		}
	case MarkTokenType:
		if token.Text == ";" {
			p.pos++
			return p.makeNode(NameEmpty, token.Span), nil
		}
	case VariableTokenType:
		if token.Text == "async" && p.PeekAhead(1).Is(KeywordTokenType, "function") && !p.PeekAhead(1).LnBefore {
			return p.ReadFunction(false)
		}
		if p.PeekAhead(1).Is(OperatorTokenType, ":") {
			return p.ReadLabel()
		}
	}
	return p.ReadExpressionStatement()
}

// ReadEndOfStatement consumes a semicolon, or accepts its automatic
// insertion before a line break, a closing brace or the end of input.
func (p *Parser) ReadEndOfStatement() error {
	if p.TryReadToken(MarkTokenType, ";") != nil {
		return nil
	}
	token := p.PeekToken()
	if token == nil || token.LnBefore || token.Is(CloseDelimiterTokenType, "}") {
		return nil
	}
	return p.unexpected(token, ";")
}

// canEndStatement reports whether an optional operand is absent.
func (p *Parser) canEndStatement() bool {
	token := p.PeekToken()
	return token == nil || token.LnBefore || token.Is(MarkTokenType, ";") || token.Is(CloseDelimiterTokenType, "}")
}

func (p *Parser) ReadBlock() (*Node, error) {
	open, err := p.MustReadToken(OpenDelimiterTokenType, "{")
	if err != nil {
		return nil, err
	}
	statements := p.ReadStatements(true)
	if _, err := p.MustReadToken(CloseDelimiterTokenType, "}"); err != nil {
		return nil, err
	}
	block := p.makeNode(NameBlock, open.Span)
	block.Children = statements
	return block, nil
}

func (p *Parser) ReadVarStatement() (*Node, error) {
	decl, err := p.ReadVarDeclaration(false)
	if err != nil {
		return nil, err
	}
	if err := p.ReadEndOfStatement(); err != nil {
		return nil, err
	}
	return p.extend(decl), nil
}

// extend stretches a node to the last consumed token, e.g. to take in a
// trailing semicolon.
func (p *Parser) extend(node *Node) *Node {
	grown := p.makeNode(node.Name, node.Span)
	grown.Options = node.Options
	grown.Children = node.Children
	return grown
}

// ReadVarDeclaration reads `var|let|const` and its declarators without the
// statement terminator.
func (p *Parser) ReadVarDeclaration(noIn bool) (*Node, error) {
	keyword := p.GetToken()
	var declarators []*Node
	for {
		target, err := p.ReadBindingTarget()
		if err != nil {
			return nil, err
		}
		children := []*Node{target}
		if p.TryReadToken(OperatorTokenType, "=") != nil {
			init, err := p.ReadAssignment(noIn)
			if err != nil {
				return nil, err
			}
			children = append(children, init)
		}
		declarator := p.makeNode(NameDeclarator, target.Span)
		declarator.Children = children
		declarators = append(declarators, declarator)
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	decl := p.makeNode(NameVar, keyword.Span)
	decl.SetOption(OptionKeyword, keyword.Text)
	decl.Children = declarators
	return decl, nil
}

// ReadBindingTarget reads an identifier or a destructuring pattern.
func (p *Parser) ReadBindingTarget() (*Node, error) {
	if p.isOpen("[") || p.isOpen("{") {
		return p.ReadPrimary()
	}
	token, err := p.MustReadName(false)
	if err != nil {
		return nil, err
	}
	return p.identifier(token), nil
}

func (p *Parser) identifier(token *Token) *Node {
	return NewNode(NameIdentifier, token.Span, p.source).SetOption(OptionName, token.Text)
}

// ReadFunction reads a function declaration or expression.
func (p *Parser) ReadFunction(isExpression bool) (*Node, error) {
	first := p.PeekToken()
	async := false
	if p.TryReadToken(VariableTokenType, "async") != nil {
		async = true
	}
	if _, err := p.MustReadToken(KeywordTokenType, "function"); err != nil {
		return nil, err
	}
	generator := p.TryReadToken(OperatorTokenType, "*") != nil
	name := ""
	if token := p.PeekToken(); token != nil && token.Type == VariableTokenType {
		p.pos++
		name = token.Text
	} else if !isExpression {
		return nil, p.unexpected(token, "function name")
	}
	params, err := p.ReadParams()
	if err != nil {
		return nil, err
	}
	body, err := p.ReadBlock()
	if err != nil {
		return nil, err
	}
	fn := p.makeNode(NameFunction, first.Span)
	if name != "" {
		fn.SetOption(OptionName, name)
	}
	setFlag(fn, OptionAsync, async)
	setFlag(fn, OptionGenerator, generator)
	setFlag(fn, OptionExpression, isExpression)
	fn.Children = []*Node{params, body}
	return fn, nil
}

func setFlag(node *Node, key string, value bool) {
	if value {
		node.SetOption(key, ValueTrue)
	}
}

// ReadParams reads a parenthesised parameter list.
func (p *Parser) ReadParams() (*Node, error) {
	open, err := p.MustReadToken(OpenDelimiterTokenType, "(")
	if err != nil {
		return nil, err
	}
	var params []*Node
	for !p.isClose(")") {
		param, err := p.ReadParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	node := p.makeNode(NameParams, open.Span)
	node.Children = params
	return node, nil
}

func (p *Parser) ReadParam() (*Node, error) {
	if spread := p.TryReadToken(OperatorTokenType, "..."); spread != nil {
		target, err := p.ReadBindingTarget()
		if err != nil {
			return nil, err
		}
		node := p.makeNode(NameSpread, spread.Span)
		node.Children = []*Node{target}
		return node, nil
	}
	target, err := p.ReadBindingTarget()
	if err != nil {
		return nil, err
	}
	if p.TryReadToken(OperatorTokenType, "=") == nil {
		return target, nil
	}
	value, err := p.ReadAssignment(false)
	if err != nil {
		return nil, err
	}
	node := p.makeNode(NameAssign, target.Span)
	node.SetOption(OptionOperator, "=")
	node.Children = []*Node{target, value}
	return node, nil
}

// ReadClass reads a class declaration or expression.
func (p *Parser) ReadClass(isExpression bool) (*Node, error) {
	first := p.GetToken()
	name := ""
	if token := p.PeekToken(); token != nil && token.Type == VariableTokenType {
		p.pos++
		name = token.Text
	} else if !isExpression {
		return nil, p.unexpected(token, "class name")
	}
	var children []*Node
	if keyword := p.TryReadToken(KeywordTokenType, "extends"); keyword != nil {
		superclass, err := p.ReadCallMember()
		if err != nil {
			return nil, err
		}
		extends := p.makeNode(NameExtends, keyword.Span)
		extends.Children = []*Node{superclass}
		children = append(children, extends)
	}
	if _, err := p.MustReadToken(OpenDelimiterTokenType, "{"); err != nil {
		return nil, err
	}
	for !p.isClose("}") {
		if p.TryReadToken(MarkTokenType, ";") != nil {
			continue
		}
		member, err := p.ReadClassMember()
		if err != nil {
			return nil, err
		}
		children = append(children, member)
	}
	p.pos++
	class := p.makeNode(NameClass, first.Span)
	if name != "" {
		class.SetOption(OptionName, name)
	}
	setFlag(class, OptionExpression, isExpression)
	class.Children = children
	return class, nil
}

// isModifier reports whether the contextual word at the cursor acts as a
// modifier rather than being the member name itself.
func (p *Parser) isModifier(word string) bool {
	if !p.isContextual(word) {
		return false
	}
	next := p.PeekAhead(1)
	if next == nil || next.LnBefore && word != "static" {
		return false
	}
	return !(next.Is(OpenDelimiterTokenType, "(") || next.Is(OperatorTokenType, "=") ||
		next.Is(OperatorTokenType, ":") || next.Is(MarkTokenType, ";") ||
		next.Is(CloseDelimiterTokenType, "}") || next.Is(MarkTokenType, ","))
}

func (p *Parser) ReadClassMember() (*Node, error) {
	first := p.PeekToken()
	static := false
	if p.isModifier("static") {
		p.pos++
		static = true
	}
	if static && p.isOpen("{") {
		block, err := p.ReadBlock()
		if err != nil {
			return nil, err
		}
		node := p.makeNode(NameMethod, first.Span)
		node.SetOption(OptionKind, "static-block")
		node.SetOption(OptionStatic, ValueTrue)
		node.Children = []*Node{block}
		return node, nil
	}
	kind, async, generator := p.readMethodModifiers()
	name, key, err := p.ReadPropertyName()
	if err != nil {
		return nil, err
	}
	var node *Node
	if p.isOpen("(") {
		fn, err := p.ReadMethodFunction(first, async, generator)
		if err != nil {
			return nil, err
		}
		if kind == ValueMethod && name == "constructor" && key == nil {
			kind = ValueConstructor
		}
		node = p.makeNode(NameMethod, first.Span)
		node.SetOption(OptionKind, kind)
		node.Children = appendKey(key, fn)
	} else {
		if kind != ValueMethod || async || generator {
			return nil, p.unexpected(p.PeekToken(), "(")
		}
		var children []*Node
		if p.TryReadToken(OperatorTokenType, "=") != nil {
			value, err := p.ReadAssignment(false)
			if err != nil {
				return nil, err
			}
			children = append(children, value)
		}
		if err := p.ReadEndOfStatement(); err != nil {
			return nil, err
		}
		node = p.makeNode(NameField, first.Span)
		node.Children = appendKey(key, children...)
	}
	node.SetOption(OptionName, name)
	setFlag(node, OptionStatic, static)
	setFlag(node, OptionComputed, key != nil)
	return node, nil
}

func appendKey(key *Node, rest ...*Node) []*Node {
	if key == nil {
		return rest
	}
	return append([]*Node{key}, rest...)
}

// readMethodModifiers consumes get/set/async/* prefixes of a method.
func (p *Parser) readMethodModifiers() (kind string, async bool, generator bool) {
	kind = ValueMethod
	if p.isModifier("get") {
		p.pos++
		kind = ValueGet
	} else if p.isModifier("set") {
		p.pos++
		kind = ValueSet
	} else if p.isModifier("async") {
		p.pos++
		async = true
	}
	if p.TryReadToken(OperatorTokenType, "*") != nil {
		generator = true
	}
	return kind, async, generator
}

// ReadMethodFunction reads the parameters and body of a method into a
// function node.
func (p *Parser) ReadMethodFunction(first *Token, async, generator bool) (*Node, error) {
	start := p.PeekToken()
	params, err := p.ReadParams()
	if err != nil {
		return nil, err
	}
	body, err := p.ReadBlock()
	if err != nil {
		return nil, err
	}
	fn := p.makeNode(NameFunction, start.Span)
	setFlag(fn, OptionAsync, async)
	setFlag(fn, OptionGenerator, generator)
	fn.Children = []*Node{params, body}
	return fn, nil
}

// ReadPropertyName reads a property or member name. For computed names the
// key expression is returned as well.
func (p *Parser) ReadPropertyName() (string, *Node, error) {
	token := p.PeekToken()
	if token == nil {
		return "", nil, p.unexpected(token, "property name")
	}
	switch token.Type {
	case VariableTokenType, KeywordTokenType, NumericLiteralTokenType:
		p.pos++
		return token.Text, nil, nil
	case StringLiteralTokenType:
		p.pos++
		return token.Text[1 : len(token.Text)-1], nil, nil
	case OpenDelimiterTokenType:
		if token.Text == "[" {
			p.pos++
			key, err := p.ReadAssignment(false)
			if err != nil {
				return "", nil, err
			}
			if _, err := p.MustReadToken(CloseDelimiterTokenType, "]"); err != nil {
				return "", nil, err
			}
			return key.Raw, key, nil
		}
	}
	return "", nil, p.unexpected(token, "property name")
}

func (p *Parser) ReadIf() (*Node, error) {
	first := p.GetToken()
	test, err := p.ReadCondition()
	if err != nil {
		return nil, err
	}
	consequent, err := p.ReadStatement()
	if err != nil {
		return nil, err
	}
	children := []*Node{test, consequent}
	if p.TryReadToken(KeywordTokenType, "else") != nil {
		alternate, err := p.ReadStatement()
		if err != nil {
			return nil, err
		}
		children = append(children, alternate)
	}
	node := p.makeNode(NameIf, first.Span)
	node.Children = children
	return node, nil
}

// ReadCondition reads a parenthesised expression.
func (p *Parser) ReadCondition() (*Node, error) {
	if _, err := p.MustReadToken(OpenDelimiterTokenType, "("); err != nil {
		return nil, err
	}
	expr, err := p.ReadExpression(false)
	if err != nil {
		return nil, err
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	return expr, nil
}

// ReadFor reads the three loop forms. A classic loop always has four
// children, with empty placeholders for absent clauses.
func (p *Parser) ReadFor() (*Node, error) {
	first := p.GetToken()
	await := p.TryReadToken(VariableTokenType, "await") != nil
	if _, err := p.MustReadToken(OpenDelimiterTokenType, "("); err != nil {
		return nil, err
	}
	var init *Node
	var err error
	switch {
	case p.isMark(";"):
		init = p.emptyAt(p.PeekToken())
	case p.isKeyword("var") || p.isKeyword("let") || p.isKeyword("const"):
		init, err = p.ReadVarDeclaration(true)
	default:
		init, err = p.ReadExpression(true)
	}
	if err != nil {
		return nil, err
	}

	if p.isContextual("of") || p.isKeyword("in") {
		kind := NameForIn
		if p.GetToken().Text == "of" {
			kind = NameForOf
		}
		right, err := p.ReadAssignment(false)
		if err != nil {
			return nil, err
		}
		if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
			return nil, err
		}
		body, err := p.ReadStatement()
		if err != nil {
			return nil, err
		}
		node := p.makeNode(kind, first.Span)
		setFlag(node, OptionAsync, await)
		node.Children = []*Node{init, right, body}
		return node, nil
	}

	if _, err := p.MustReadToken(MarkTokenType, ";"); err != nil {
		return nil, err
	}
	test := p.emptyAt(p.PeekToken())
	if !p.isMark(";") {
		if test, err = p.ReadExpression(false); err != nil {
			return nil, err
		}
	}
	if _, err := p.MustReadToken(MarkTokenType, ";"); err != nil {
		return nil, err
	}
	update := p.emptyAt(p.PeekToken())
	if !p.isClose(")") {
		if update, err = p.ReadExpression(false); err != nil {
			return nil, err
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
		return nil, err
	}
	body, err := p.ReadStatement()
	if err != nil {
		return nil, err
	}
	node := p.makeNode(NameFor, first.Span)
	node.Children = []*Node{init, test, update, body}
	return node, nil
}

func (p *Parser) ReadWhile() (*Node, error) {
	first := p.GetToken()
	test, err := p.ReadCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.ReadStatement()
	if err != nil {
		return nil, err
	}
	node := p.makeNode(NameWhile, first.Span)
	node.Children = []*Node{test, body}
	return node, nil
}

func (p *Parser) ReadDoWhile() (*Node, error) {
	first := p.GetToken()
	body, err := p.ReadStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.MustReadToken(KeywordTokenType, "while"); err != nil {
		return nil, err
	}
	test, err := p.ReadCondition()
	if err != nil {
		return nil, err
	}
	p.TryReadToken(MarkTokenType, ";")
	node := p.makeNode(NameDo, first.Span)
	node.Children = []*Node{body, test}
	return node, nil
}

func (p *Parser) ReadReturn() (*Node, error) {
	first := p.GetToken()
	var children []*Node
	if !p.canEndStatement() {
		arg, err := p.ReadExpression(false)
		if err != nil {
			return nil, err
		}
		children = append(children, arg)
	}
	if err := p.ReadEndOfStatement(); err != nil {
		return nil, err
	}
	node := p.makeNode(NameReturn, first.Span)
	node.Children = children
	return node, nil
}

// ReadJump reads break and continue with an optional label.
func (p *Parser) ReadJump() (*Node, error) {
	first := p.GetToken()
	label := ""
	if token := p.PeekToken(); token != nil && token.Type == VariableTokenType && !token.LnBefore {
		p.pos++
		label = token.Text
	}
	if err := p.ReadEndOfStatement(); err != nil {
		return nil, err
	}
	node := p.makeNode(first.Text, first.Span)
	if label != "" {
		node.SetOption(OptionLabel, label)
	}
	return node, nil
}

func (p *Parser) ReadThrow() (*Node, error) {
	first := p.GetToken()
	if p.canEndStatement() {
		return nil, p.unexpected(p.PeekToken(), "expression")
	}
	arg, err := p.ReadExpression(false)
	if err != nil {
		return nil, err
	}
	if err := p.ReadEndOfStatement(); err != nil {
		return nil, err
	}
	node := p.makeNode(NameThrow, first.Span)
	node.Children = []*Node{arg}
	return node, nil
}

func (p *Parser) ReadTry() (*Node, error) {
	first := p.GetToken()
	block, err := p.ReadBlock()
	if err != nil {
		return nil, err
	}
	children := []*Node{block}
	if keyword := p.TryReadToken(KeywordTokenType, "catch"); keyword != nil {
		var catchChildren []*Node
		if p.TryReadToken(OpenDelimiterTokenType, "(") != nil {
			param, err := p.ReadBindingTarget()
			if err != nil {
				return nil, err
			}
			if _, err := p.MustReadToken(CloseDelimiterTokenType, ")"); err != nil {
				return nil, err
			}
			catchChildren = append(catchChildren, param)
		}
		handler, err := p.ReadBlock()
		if err != nil {
			return nil, err
		}
		node := p.makeNode(NameCatch, keyword.Span)
		node.Children = append(catchChildren, handler)
		children = append(children, node)
	}
	if keyword := p.TryReadToken(KeywordTokenType, "finally"); keyword != nil {
		finalizer, err := p.ReadBlock()
		if err != nil {
			return nil, err
		}
		node := p.makeNode(NameFinally, keyword.Span)
		node.Children = []*Node{finalizer}
		children = append(children, node)
	}
	if len(children) == 1 {
		return nil, p.unexpected(p.PeekToken(), "catch")
	}
	node := p.makeNode(NameTry, first.Span)
	node.Children = children
	return node, nil
}

func (p *Parser) ReadSwitch() (*Node, error) {
	first := p.GetToken()
	discriminant, err := p.ReadCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.MustReadToken(OpenDelimiterTokenType, "{"); err != nil {
		return nil, err
	}
	children := []*Node{discriminant}
	for !p.isClose("}") {
		token := p.GetToken()
		var clause []*Node
		name := NameDefault
		switch {
		case token.Is(KeywordTokenType, "case"):
			name = NameCase
			test, err := p.ReadExpression(false)
			if err != nil {
				return nil, err
			}
			clause = append(clause, test)
		case token.Is(KeywordTokenType, "default"):
		default:
			return nil, p.unexpected(token, "case")
		}
		if _, err := p.MustReadToken(OperatorTokenType, ":"); err != nil {
			return nil, err
		}
		for !p.isKeyword("case") && !p.isKeyword("default") && !p.isClose("}") {
			clause = append(clause, p.ReadStatementOrRaw())
		}
		node := p.makeNode(name, token.Span)
		node.Children = clause
		children = append(children, node)
	}
	p.pos++
	node := p.makeNode(NameSwitch, first.Span)
	node.Children = children
	return node, nil
}

func (p *Parser) ReadLabel() (*Node, error) {
	first := p.GetToken()
	p.pos++
	body, err := p.ReadStatement()
	if err != nil {
		return nil, err
	}
	node := p.makeNode(NameLabel, first.Span)
	node.SetOption(OptionLabel, first.Text)
	node.Children = []*Node{body}
	return node, nil
}

func (p *Parser) ReadExpressionStatement() (*Node, error) {
	first := p.PeekToken()
	expr, err := p.ReadExpression(false)
	if err != nil {
		return nil, err
	}
	if err := p.ReadEndOfStatement(); err != nil {
		return nil, err
	}
	node := p.makeNode(NameExpression, first.Span)
	node.Children = []*Node{expr}
	return node, nil
}

// ReadModuleSource reads the quoted module name after `from`.
func (p *Parser) ReadModuleSource() (string, error) {
	token := p.PeekToken()
	if token == nil || token.Type != StringLiteralTokenType {
		return "", p.unexpected(token, "module name")
	}
	p.pos++
	return token.Text[1 : len(token.Text)-1], nil
}

func (p *Parser) ReadImport() (*Node, error) {
	first := p.GetToken()
	var specifiers []*Node
	if token := p.PeekToken(); token == nil || token.Type != StringLiteralTokenType {
		clause, err := p.ReadImportClause()
		if err != nil {
			return nil, err
		}
		specifiers = clause
		if p.TryReadToken(VariableTokenType, "from") == nil {
			return nil, p.unexpected(p.PeekToken(), "from")
		}
	}
	source, err := p.ReadModuleSource()
	if err != nil {
		return nil, err
	}
	if err := p.ReadEndOfStatement(); err != nil {
		return nil, err
	}
	node := p.makeNode(NameImport, first.Span)
	node.SetOption(OptionSource, source)
	node.Children = specifiers
	return node, nil
}

// ReadImportClause reads the bindings between `import` and `from`.
func (p *Parser) ReadImportClause() ([]*Node, error) {
	var specifiers []*Node
	if token := p.PeekToken(); token != nil && token.Type == VariableTokenType {
		p.pos++
		specifiers = append(specifiers, p.specifier(token.Span, ValueDefault, ValueDefault, token.Text))
		if p.TryReadToken(MarkTokenType, ",") == nil {
			return specifiers, nil
		}
	}
	if star := p.TryReadToken(OperatorTokenType, "*"); star != nil {
		if p.TryReadToken(VariableTokenType, "as") == nil {
			return nil, p.unexpected(p.PeekToken(), "as")
		}
		local, err := p.MustReadName(false)
		if err != nil {
			return nil, err
		}
		return append(specifiers, p.specifier(star.Span, ValueNamespace, "*", local.Text)), nil
	}
	named, err := p.ReadNamedSpecifiers()
	if err != nil {
		return nil, err
	}
	return append(specifiers, named...), nil
}

func (p *Parser) specifier(from Span, kind, imported, local string) *Node {
	node := p.makeNode(NameSpecifier, from)
	node.SetOption(OptionKind, kind)
	node.SetOption(OptionImported, imported)
	node.SetOption(OptionLocal, local)
	return node
}

// ReadNamedSpecifiers reads `{ a, b as c }`.
func (p *Parser) ReadNamedSpecifiers() ([]*Node, error) {
	if _, err := p.MustReadToken(OpenDelimiterTokenType, "{"); err != nil {
		return nil, err
	}
	var specifiers []*Node
	for !p.isClose("}") {
		name, err := p.MustReadName(true)
		if err != nil {
			return nil, err
		}
		local := name.Text
		if p.TryReadToken(VariableTokenType, "as") != nil {
			alias, err := p.MustReadName(true)
			if err != nil {
				return nil, err
			}
			local = alias.Text
		}
		specifiers = append(specifiers, p.specifier(name.Span, ValueNamed, name.Text, local))
		if p.TryReadToken(MarkTokenType, ",") == nil {
			break
		}
	}
	if _, err := p.MustReadToken(CloseDelimiterTokenType, "}"); err != nil {
		return nil, err
	}
	return specifiers, nil
}

func (p *Parser) ReadExport() (*Node, error) {
	first := p.GetToken()
	var node *Node
	switch {
	case p.TryReadToken(KeywordTokenType, "default") != nil:
		var decl *Node
		var err error
		switch {
		case p.isKeyword("function") || (p.isContextual("async") && p.PeekAhead(1).Is(KeywordTokenType, "function")):
			decl, err = p.ReadFunction(true)
		case p.isKeyword("class"):
			decl, err = p.ReadClass(true)
		default:
			decl, err = p.ReadAssignment(false)
			if err == nil {
				err = p.ReadEndOfStatement()
			}
		}
		if err != nil {
			return nil, err
		}
		node = p.makeNode(NameExport, first.Span)
		node.SetOption(OptionDefault, ValueTrue)
		node.Children = []*Node{decl}
	case p.isOp("*"):
		star := p.GetToken()
		local := ""
		if p.TryReadToken(VariableTokenType, "as") != nil {
			name, err := p.MustReadName(true)
			if err != nil {
				return nil, err
			}
			local = name.Text
		}
		if p.TryReadToken(VariableTokenType, "from") == nil {
			return nil, p.unexpected(p.PeekToken(), "from")
		}
		source, err := p.ReadModuleSource()
		if err != nil {
			return nil, err
		}
		if err := p.ReadEndOfStatement(); err != nil {
			return nil, err
		}
		node = p.makeNode(NameExport, first.Span)
		node.SetOption(OptionSource, source)
		node.Children = []*Node{p.specifierAt(star.Span, ValueNamespace, "*", local)}
	case p.isOpen("{"):
		specifiers, err := p.ReadNamedSpecifiers()
		if err != nil {
			return nil, err
		}
		source := ""
		if p.TryReadToken(VariableTokenType, "from") != nil {
			if source, err = p.ReadModuleSource(); err != nil {
				return nil, err
			}
		}
		if err := p.ReadEndOfStatement(); err != nil {
			return nil, err
		}
		node = p.makeNode(NameExport, first.Span)
		if source != "" {
			node.SetOption(OptionSource, source)
		}
		node.Children = specifiers
	default:
		decl, err := p.ReadStatement()
		if err != nil {
			return nil, err
		}
		if !decl.Is(NameVar, NameFunction, NameClass) {
			return nil, p.unexpected(first, "declaration after export")
		}
		node = p.makeNode(NameExport, first.Span)
		node.Children = []*Node{decl}
	}
	return node, nil
}

// specifierAt builds a specifier covering a single token.
func (p *Parser) specifierAt(span Span, kind, imported, local string) *Node {
	node := NewNode(NameSpecifier, span, p.source)
	node.SetOption(OptionKind, kind)
	node.SetOption(OptionImported, imported)
	if local != "" {
		node.SetOption(OptionLocal, local)
	}
	return node
}
