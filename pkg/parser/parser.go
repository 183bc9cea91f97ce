package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	. "github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/tokenizer"
)

// maxDepth bounds recursion so hostile input cannot exhaust the stack.
const maxDepth = 1000

// SyntaxError is raised only for structural failures of the token stream,
// i.e. delimiters that do not balance. Everything else degrades into raw
// nodes.
type SyntaxError struct {
	Span    Span
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Span.StartLine, e.Span.StartColumn, e.Message)
}

type Parser struct {
	source      string
	tokens      []*Token // significant tokens
	comments    []*Token
	pos         int
	nextComment int
	depth       int
	rules       *tokenizer.TokenizerRules
}

// ParseSource tokenizes and parses source. Errors are either a
// *tokenizer.LexError or a *SyntaxError.
func ParseSource(source string, rules *tokenizer.TokenizerRules) (*Node, error) {
	tokens, err := tokenizer.NewWithRules(source, rules).Tokenize()
	if err != nil {
		return nil, err
	}
	return ParseWithRules(source, tokens, rules)
}

// Parse builds the tree for source from its tokens.
func Parse(source string, tokens []*Token) (*Node, error) {
	return ParseWithRules(source, tokens, nil)
}

// ParseWithRules is Parse with the tokenizer rules used for re-tokenizing
// template literal substitutions.
func ParseWithRules(source string, tokens []*Token, rules *tokenizer.TokenizerRules) (*Node, error) {
	p := newParser(source, tokens, rules)
	if err := CheckBalance(p.tokens); err != nil {
		return nil, err
	}
	root := NewNode(NameModule, SourceSpan(source), source)
	root.Children = p.ReadStatements(false)
	return root, nil
}

func newParser(source string, tokens []*Token, rules *tokenizer.TokenizerRules) *Parser {
	p := &Parser{source: source, rules: rules}
	for _, token := range tokens {
		if token.Type == CommentTokenType {
			p.comments = append(p.comments, token)
		} else {
			p.tokens = append(p.tokens, token)
		}
	}
	return p
}

// SourceSpan is the span covering all of source.
func SourceSpan(source string) Span {
	start := LineCol{Offset: 0, LineNo: 1, ColNo: 1}
	return start.Span(Advance(start, source))
}

// Advance returns the position reached after reading text from pos.
func Advance(pos LineCol, text string) LineCol {
	for _, r := range text {
		pos.Offset += utf8.RuneLen(r)
		if r == '\n' {
			pos.LineNo++
			pos.ColNo = 1
		} else {
			pos.ColNo++
		}
	}
	return pos
}

// CheckBalance verifies that every opening delimiter is closed by the
// matching closer.
func CheckBalance(tokens []*Token) error {
	var stack []*Token
	for _, token := range tokens {
		switch token.Type {
		case OpenDelimiterTokenType:
			stack = append(stack, token)
		case CloseDelimiterTokenType:
			if len(stack) == 0 {
				return &SyntaxError{Span: token.Span, Message: fmt.Sprintf("unexpected closing '%s'", token.Text)}
			}
			open := stack[len(stack)-1]
			if open.Closer() != token.Text {
				return &SyntaxError{
					Span:    token.Span,
					Message: fmt.Sprintf("found '%s' while expecting '%s' to close '%s' at line %d, column %d", token.Text, open.Closer(), open.Text, open.Span.StartLine, open.Span.StartColumn),
				}
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return &SyntaxError{Span: open.Span, Message: fmt.Sprintf("unclosed '%s'", open.Text)}
	}
	return nil
}

// PeekToken returns the next token without consuming it. If there are no more
// tokens, it returns nil.
func (p *Parser) PeekToken() *Token {
	return p.PeekAhead(0)
}

func (p *Parser) PeekAhead(n int) *Token {
	if p.pos+n >= len(p.tokens) {
		return nil
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) GetToken() *Token {
	token := p.PeekToken()
	if token != nil {
		p.pos++
	}
	return token
}

// lastToken is the most recently consumed token.
func (p *Parser) lastToken() *Token {
	if p.pos == 0 {
		return nil
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) unexpected(token *Token, expecting string) error {
	if token == nil {
		if expecting == "" {
			return fmt.Errorf("unexpected end of input")
		}
		return fmt.Errorf("found end of input while expecting '%s'", expecting)
	}
	if expecting == "" {
		return fmt.Errorf("unexpected token '%s' at line %d, column %d", token.Text, token.Span.StartLine, token.Span.StartColumn)
	}
	return fmt.Errorf("found '%s' while expecting '%s' at line %d, column %d", token.Text, expecting, token.Span.StartLine, token.Span.StartColumn)
}

func (p *Parser) MustReadToken(expectedType TokenType, text string) (*Token, error) {
	token := p.PeekToken()
	if !token.Is(expectedType, text) {
		return nil, p.unexpected(token, text)
	}
	p.pos++
	return token, nil
}

func (p *Parser) TryReadToken(expectedType TokenType, text string) *Token {
	token := p.PeekToken()
	if token.Is(expectedType, text) {
		p.pos++
		return token
	}
	return nil
}

// MustReadName reads an identifier, also accepting reserved words where
// JavaScript allows them (property names).
func (p *Parser) MustReadName(allowKeywords bool) (*Token, error) {
	token := p.PeekToken()
	if token != nil && (token.Type == VariableTokenType || (allowKeywords && token.Type == KeywordTokenType)) {
		p.pos++
		return token, nil
	}
	return nil, p.unexpected(token, "identifier")
}

func (p *Parser) isOp(text string) bool {
	return p.PeekToken().Is(OperatorTokenType, text)
}

func (p *Parser) isKeyword(text string) bool {
	return p.PeekToken().Is(KeywordTokenType, text)
}

func (p *Parser) isContextual(text string) bool {
	return p.PeekToken().Is(VariableTokenType, text)
}

func (p *Parser) isOpen(text string) bool {
	return p.PeekToken().Is(OpenDelimiterTokenType, text)
}

func (p *Parser) isClose(text string) bool {
	return p.PeekToken().Is(CloseDelimiterTokenType, text)
}

func (p *Parser) isMark(text string) bool {
	return p.PeekToken().Is(MarkTokenType, text)
}

// makeNode creates a node spanning from the start of from to the end of the
// last consumed token.
func (p *Parser) makeNode(name string, from Span) *Node {
	end := p.lastToken().Span
	return NewNode(name, *from.ToSpan(&end), p.source)
}

// emptyAt creates a zero-width placeholder in front of token.
func (p *Parser) emptyAt(token *Token) *Node {
	var at LineCol
	if token != nil {
		at = token.Span.StartPos()
	} else if last := p.lastToken(); last != nil {
		at = last.Span.EndPos()
	} else {
		at = LineCol{LineNo: 1, ColNo: 1}
	}
	return NewNode(NameEmpty, at.Span(at), p.source)
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return p.unexpected(p.PeekToken(), "shallower nesting")
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// ReadStatements reads statements up to the end of input or, inside a block,
// up to the closing brace, which is left unconsumed.
func (p *Parser) ReadStatements(inBlock bool) []*Node {
	var statements []*Node
	for {
		token := p.PeekToken()
		limit := len(p.source)
		if token != nil {
			limit = token.Span.Start
		}
		statements = p.flushComments(statements, limit)
		if token == nil || (inBlock && token.Is(CloseDelimiterTokenType, "}")) {
			return statements
		}
		statements = append(statements, p.ReadStatementOrRaw())
	}
}

// flushComments turns comments lying between statements into comment nodes.
// Comments inside an already consumed statement stay part of its raw text.
func (p *Parser) flushComments(statements []*Node, limit int) []*Node {
	consumed := 0
	if last := p.lastToken(); last != nil {
		consumed = last.Span.End
	}
	for p.nextComment < len(p.comments) {
		comment := p.comments[p.nextComment]
		if comment.Span.Start >= limit {
			break
		}
		p.nextComment++
		if comment.Span.Start < consumed {
			continue
		}
		node := NewNode(NameComment, comment.Span, p.source)
		if strings.HasPrefix(comment.Text, "//") {
			node.SetOption(OptionStyle, ValueLine)
			node.SetOption(OptionText, comment.Text[2:])
		} else {
			node.SetOption(OptionStyle, ValueBlock)
			node.SetOption(OptionText, strings.TrimSuffix(comment.Text[2:], "*/"))
		}
		statements = append(statements, node)
	}
	return statements
}

// ReadStatementOrRaw reads one statement. When the statement is not
// recognised the tokens it covers are wrapped in a raw node instead.
func (p *Parser) ReadStatementOrRaw() *Node {
	pos, nextComment, depth := p.pos, p.nextComment, p.depth
	statement, err := p.ReadStatement()
	if err == nil {
		return statement
	}
	p.pos, p.nextComment, p.depth = pos, nextComment, depth
	return p.ReadRawStatement()
}

// ReadRawStatement consumes tokens up to a semicolon or line break at
// nesting depth zero, or up to the end of the enclosing block.
func (p *Parser) ReadRawStatement() *Node {
	first := p.GetToken()
	depth := 0
	if first.IsOpen() {
		depth++
	}
	if !first.IsClose() && !(depth == 0 && first.Is(MarkTokenType, ";")) {
		for {
			token := p.PeekToken()
			if token == nil {
				break
			}
			if depth == 0 && (token.IsClose() || token.LnBefore) {
				break
			}
			p.pos++
			if token.IsOpen() {
				depth++
			} else if token.IsClose() {
				depth--
			}
			if depth == 0 && token.Is(MarkTokenType, ";") {
				break
			}
		}
	}
	return p.makeNode(NameRaw, first.Span)
}
