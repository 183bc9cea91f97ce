package parser

import (
	. "github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/tokenizer"
)

// ReadTemplate expands a template literal token. The children alternate
// between template-text nodes and the parsed substitution expressions,
// always starting and ending with text.
func (p *Parser) ReadTemplate(token *Token) (*Node, error) {
	parts, err := tokenizer.SplitTemplate(p.source, token.Span.Start, token.Span.End)
	if err != nil {
		return nil, err
	}
	node := NewNode(NameTemplate, token.Span, p.source)
	for _, part := range parts {
		start := p.positionOf(token, part.Start)
		end := Advance(start, p.source[part.Start:part.End])
		if !part.Substitution {
			text := NewNode(NameTemplateText, start.Span(end), p.source)
			text.SetOption(OptionValue, p.source[part.Start:part.End])
			node.Children = append(node.Children, text)
			continue
		}
		expr, err := p.readSubstitution(start, part.End)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, expr)
	}
	return node, nil
}

// positionOf converts an offset inside token into a full position.
func (p *Parser) positionOf(token *Token, offset int) LineCol {
	return Advance(token.Span.StartPos(), p.source[token.Span.Start:offset])
}

func (p *Parser) readSubstitution(start LineCol, end int) (*Node, error) {
	tokens, err := tokenizer.NewRange(p.source, start, end, p.rules).Tokenize()
	if err != nil {
		return nil, err
	}
	sub := newParser(p.source, tokens, p.rules)
	sub.depth = p.depth
	expr, err := sub.ReadExpression(false)
	if err != nil {
		return nil, err
	}
	if extra := sub.PeekToken(); extra != nil {
		return nil, sub.unexpected(extra, "}")
	}
	return expr, nil
}
