package common

// TokenType represents the different types of tokens.
type TokenType string

const (
	// Literal constants
	NumericLiteralTokenType     TokenType = "n" // Numeric literals, any radix, optional BigInt suffix
	StringLiteralTokenType      TokenType = "s" // String literals with quotes and escapes
	InterpolatedStringTokenType TokenType = "i" // Template literals e.g. `Hello, ${name}!`
	RegexTokenType              TokenType = "r" // Regular expression literals

	// Identifier tokens
	KeywordTokenType  TokenType = "K" // Reserved words (var, if, function)
	VariableTokenType TokenType = "V" // Identifiers, including contextual keywords

	// Other tokens
	OperatorTokenType       TokenType = "O" // Punctuators other than delimiters and marks
	OpenDelimiterTokenType  TokenType = "[" // Opening brackets/braces/parentheses
	CloseDelimiterTokenType TokenType = "]" // Closing brackets/braces/parentheses
	MarkTokenType           TokenType = "M" // Marks (commas, semicolons)
	CommentTokenType        TokenType = "C" // Line and block comments
)

// Token represents a single lexical unit of the source text. Tokens are
// immutable once produced.
type Token struct {
	Text     string    `json:"text"`
	Span     Span      `json:"span"`
	Type     TokenType `json:"type"`
	LnBefore bool      `json:"ln_before,omitempty"` // True if a line break precedes the token
}

// NewToken creates a new token with the basic required fields.
func NewToken(text string, tokenType TokenType, span Span) *Token {
	return &Token{
		Text: text,
		Type: tokenType,
		Span: span,
	}
}

func (t *Token) Is(tokenType TokenType, text string) bool {
	return t != nil && t.Type == tokenType && t.Text == text
}

func (t *Token) IsOpen() bool {
	return t.Type == OpenDelimiterTokenType
}

func (t *Token) IsClose() bool {
	return t.Type == CloseDelimiterTokenType
}

// Closer returns the closing delimiter matching an opening delimiter.
func (t *Token) Closer() string {
	switch t.Text {
	case "(":
		return ")"
	case "[":
		return "]"
	case "{":
		return "}"
	default:
		return ""
	}
}

// ToKind returns a string representing the kind of delimiter token.
func (t *Token) ToKind() string {
	switch t.Text {
	case "[", "]":
		return ValueBrackets
	case "{", "}":
		return ValueBraces
	case "(", ")":
		return ValueParentheses
	default:
		return t.Text
	}
}

// ToSeparator returns a string representing the kind of separator token.
func (t *Token) ToSeparator() string {
	switch t.Text {
	case ",":
		return ValueComma
	case ";":
		return ValueSemicolon
	default:
		return "unknown"
	}
}
