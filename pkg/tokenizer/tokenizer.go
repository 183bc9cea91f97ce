package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spicery/jsconvert/pkg/common"
)

// LexError reports a character sequence that cannot start any token. The
// span covers the offending text.
type LexError struct {
	Span    common.Span
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at line %d, column %d: %s", e.Span.StartLine, e.Span.StartColumn, e.Message)
}

// Tokenizer turns JavaScript source text into tokens. Comments are kept as
// tokens of their own so that later phases can preserve them.
type Tokenizer struct {
	source string
	rules  *TokenizerRules
	end    int

	offset int
	line   int
	col    int

	lnBefore bool
	tokens   []*common.Token
}

// New creates a tokenizer for the whole source using the default rules.
func New(source string) *Tokenizer {
	return NewWithRules(source, nil)
}

// NewWithRules creates a tokenizer for the whole source. A nil rules value
// selects DefaultRules.
func NewWithRules(source string, rules *TokenizerRules) *Tokenizer {
	return NewRange(source, common.LineCol{Offset: 0, LineNo: 1, ColNo: 1}, len(source), rules)
}

// NewRange creates a tokenizer over source[start.Offset:end] whose spans are
// absolute positions within source.
func NewRange(source string, start common.LineCol, end int, rules *TokenizerRules) *Tokenizer {
	if rules == nil {
		rules = defaultRules
	}
	return &Tokenizer{
		source: source,
		rules:  rules,
		end:    end,
		offset: start.Offset,
		line:   start.LineNo,
		col:    start.ColNo,
	}
}

var defaultRules = DefaultRules()

// Tokenize scans the complete range.
func (t *Tokenizer) Tokenize() ([]*common.Token, error) {
	for t.offset < t.end {
		if err := t.next(); err != nil {
			return nil, err
		}
	}
	return t.tokens, nil
}

func (t *Tokenizer) position() common.LineCol {
	return common.LineCol{Offset: t.offset, LineNo: t.line, ColNo: t.col}
}

func (t *Tokenizer) peekRune(at int) (rune, int) {
	if at >= t.end {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(t.source[at:t.end])
}

func (t *Tokenizer) peekByte(at int) byte {
	if at >= t.end {
		return 0
	}
	return t.source[at]
}

// consume advances the cursor by n bytes, tracking lines and columns.
func (t *Tokenizer) consume(n int) {
	stop := t.offset + n
	for t.offset < stop {
		r, size := utf8.DecodeRuneInString(t.source[t.offset:])
		t.offset += size
		if r == '\n' {
			t.line++
			t.col = 1
		} else {
			t.col++
		}
	}
}

func (t *Tokenizer) emit(tokenType common.TokenType, start common.LineCol) {
	end := t.position()
	text := t.source[start.Offset:end.Offset]
	if tokenType == common.VariableTokenType && t.rules.Keywords[text] {
		tokenType = common.KeywordTokenType
	}
	token := common.NewToken(text, tokenType, start.Span(end))
	token.LnBefore = t.lnBefore
	t.lnBefore = false
	t.tokens = append(t.tokens, token)
}

func (t *Tokenizer) fail(start common.LineCol, n int, format string, args ...any) error {
	t.consume(n)
	return &LexError{Span: start.Span(t.position()), Message: fmt.Sprintf(format, args...)}
}

func (t *Tokenizer) next() error {
	r, size := t.peekRune(t.offset)
	start := t.position()
	switch {
	case r == '\n':
		t.consume(size)
		t.lnBefore = true
		return nil
	case r == '\uFEFF' || unicode.IsSpace(r):
		t.consume(size)
		return nil
	case r == '/' && t.peekByte(t.offset+1) == '/':
		return t.lineComment(start)
	case r == '/' && t.peekByte(t.offset+1) == '*':
		return t.blockComment(start)
	case isIdentifierStart(r):
		t.consume(t.identifierLength(t.offset))
		t.emit(common.VariableTokenType, start)
		return nil
	case r == '#':
		next, _ := t.peekRune(t.offset + 1)
		if !isIdentifierStart(next) {
			return t.fail(start, size, "invalid character %q", r)
		}
		t.consume(1 + t.identifierLength(t.offset+1))
		t.emit(common.VariableTokenType, start)
		return nil
	case isDigit(r) || (r == '.' && isDigit(rune(t.peekByte(t.offset+1)))):
		return t.number(start)
	case r == '"' || r == '\'':
		return t.stringLiteral(start, byte(r))
	case r == '`':
		n, err := t.templateLength(t.offset)
		if err != nil {
			return t.fail(start, t.end-t.offset, "%s", err.Error())
		}
		t.consume(n)
		t.emit(common.InterpolatedStringTokenType, start)
		return nil
	case r == '/' && t.regexAllowed():
		return t.regex(start)
	case r == '(' || r == '[' || r == '{':
		t.consume(1)
		t.emit(common.OpenDelimiterTokenType, start)
		return nil
	case r == ')' || r == ']' || r == '}':
		t.consume(1)
		t.emit(common.CloseDelimiterTokenType, start)
		return nil
	case t.rules.Marks[string(r)]:
		t.consume(size)
		t.emit(common.MarkTokenType, start)
		return nil
	}
	if op := t.matchOperator(); op != "" {
		t.consume(len(op))
		t.emit(common.OperatorTokenType, start)
		return nil
	}
	return t.fail(start, size, "invalid character %q", r)
}

func (t *Tokenizer) matchOperator() string {
	rest := t.source[t.offset:t.end]
	for _, op := range t.rules.ordered {
		if strings.HasPrefix(rest, op) {
			// a ?.5 : b is a conditional, not an optional chain.
			if op == "?." && len(rest) > 2 && isDigit(rune(rest[2])) {
				continue
			}
			return op
		}
	}
	return ""
}

func (t *Tokenizer) lineComment(start common.LineCol) error {
	n := strings.IndexByte(t.source[t.offset:t.end], '\n')
	if n < 0 {
		n = t.end - t.offset
	}
	t.consume(n)
	t.emitComment(start)
	return nil
}

func (t *Tokenizer) blockComment(start common.LineCol) error {
	n := strings.Index(t.source[t.offset+2:t.end], "*/")
	if n < 0 {
		return t.fail(start, t.end-t.offset, "unterminated block comment")
	}
	text := t.source[t.offset : t.offset+n+4]
	t.consume(n + 4)
	lnBefore := t.lnBefore
	t.emitComment(start)
	// A comment spanning lines terminates a statement like a line break.
	if strings.Contains(text, "\n") {
		t.lnBefore = true
	} else {
		t.lnBefore = lnBefore
	}
	return nil
}

// emitComment records a comment without consuming the pending line break
// flag, which belongs to the next significant token.
func (t *Tokenizer) emitComment(start common.LineCol) {
	lnBefore := t.lnBefore
	t.emit(common.CommentTokenType, start)
	t.tokens[len(t.tokens)-1].LnBefore = lnBefore
	t.lnBefore = lnBefore
}

func (t *Tokenizer) identifierLength(at int) int {
	i := at
	for i < t.end {
		r, size := utf8.DecodeRuneInString(t.source[i:t.end])
		if i == at && !isIdentifierStart(r) {
			break
		}
		if i > at && !isIdentifierPart(r) {
			break
		}
		i += size
	}
	return i - at
}

func (t *Tokenizer) number(start common.LineCol) error {
	i := t.offset
	digits := func(valid func(byte) bool) {
		for i < t.end && (valid(t.source[i]) || t.source[i] == '_') {
			i++
		}
	}
	if t.source[i] == '0' && i+1 < t.end && strings.IndexByte("xXoObB", t.source[i+1]) >= 0 {
		var valid func(byte) bool
		switch t.source[i+1] {
		case 'x', 'X':
			valid = isHexDigit
		case 'o', 'O':
			valid = func(c byte) bool { return c >= '0' && c <= '7' }
		default:
			valid = func(c byte) bool { return c == '0' || c == '1' }
		}
		i += 2
		mark := i
		digits(valid)
		if i == mark {
			return t.fail(start, i-t.offset, "missing digits after radix prefix")
		}
	} else {
		digits(isDecimalDigit)
		if i < t.end && t.source[i] == '.' {
			i++
			digits(isDecimalDigit)
		}
		if i < t.end && (t.source[i] == 'e' || t.source[i] == 'E') {
			j := i + 1
			if j < t.end && (t.source[j] == '+' || t.source[j] == '-') {
				j++
			}
			if j >= t.end || !isDecimalDigit(t.source[j]) {
				return t.fail(start, j-t.offset, "missing exponent digits")
			}
			i = j
			digits(isDecimalDigit)
		}
	}
	if i < t.end && t.source[i] == 'n' {
		i++
	}
	if r, _ := t.peekRune(i); isIdentifierStart(r) {
		return t.fail(start, i-t.offset+1, "identifier starts immediately after numeric literal")
	}
	t.consume(i - t.offset)
	t.emit(common.NumericLiteralTokenType, start)
	return nil
}

func (t *Tokenizer) stringLiteral(start common.LineCol, quote byte) error {
	n, err := t.stringLength(t.offset, quote)
	if err != nil {
		return t.fail(start, n, "%s", err.Error())
	}
	t.consume(n)
	t.emit(common.StringLiteralTokenType, start)
	return nil
}

// stringLength measures a quoted string starting at at. On error the length
// covers the text up to the point of failure.
func (t *Tokenizer) stringLength(at int, quote byte) (int, error) {
	i := at + 1
	for i < t.end {
		switch c := t.source[i]; c {
		case '\\':
			i += 2
			if i < t.end && t.source[i-1] == '\r' && t.source[i] == '\n' {
				i++
			}
		case '\n':
			return i - at, fmt.Errorf("unterminated string literal")
		case quote:
			return i + 1 - at, nil
		default:
			i++
		}
	}
	return t.end - at, fmt.Errorf("unterminated string literal")
}

// templateLength measures a template literal starting at at, including any
// nested templates inside substitutions.
func (t *Tokenizer) templateLength(at int) (int, error) {
	i := at + 1
	for i < t.end {
		switch t.source[i] {
		case '\\':
			i += 2
		case '`':
			return i + 1 - at, nil
		case '$':
			if i+1 < t.end && t.source[i+1] == '{' {
				n, err := t.substitutionLength(i + 2)
				if err != nil {
					return 0, err
				}
				i += 2 + n
			} else {
				i++
			}
		default:
			i++
		}
	}
	return 0, fmt.Errorf("unterminated template literal")
}

// substitutionLength measures the body of a ${...} substitution including
// its closing brace.
func (t *Tokenizer) substitutionLength(at int) (int, error) {
	depth := 1
	i := at
	for i < t.end {
		switch c := t.source[i]; c {
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
			if depth == 0 {
				return i - at, nil
			}
		case '"', '\'':
			n, err := t.stringLength(i, c)
			if err != nil {
				return 0, err
			}
			i += n
		case '`':
			n, err := t.templateLength(i)
			if err != nil {
				return 0, err
			}
			i += n
		default:
			i++
		}
	}
	return 0, fmt.Errorf("unterminated template literal")
}

// regexAllowed decides whether a slash starts a regular expression, based on
// the previous significant token.
func (t *Tokenizer) regexAllowed() bool {
	var prev *common.Token
	for i := len(t.tokens) - 1; i >= 0; i-- {
		if t.tokens[i].Type != common.CommentTokenType {
			prev = t.tokens[i]
			break
		}
	}
	if prev == nil {
		return true
	}
	switch prev.Type {
	case common.OperatorTokenType:
		return prev.Text != "++" && prev.Text != "--"
	case common.OpenDelimiterTokenType, common.MarkTokenType:
		return true
	case common.CloseDelimiterTokenType:
		return prev.Text == "}"
	case common.KeywordTokenType:
		switch prev.Text {
		case "this", "super", "null", "true", "false":
			return false
		}
		return true
	}
	return false
}

func (t *Tokenizer) regex(start common.LineCol) error {
	i := t.offset + 1
	inClass := false
	for {
		if i >= t.end || t.source[i] == '\n' {
			return t.fail(start, i-t.offset, "unterminated regular expression literal")
		}
		c := t.source[i]
		if c == '\\' {
			i += 2
			continue
		}
		i++
		if c == '[' {
			inClass = true
		} else if c == ']' {
			inClass = false
		} else if c == '/' && !inClass {
			break
		}
	}
	for i < t.end {
		r, size := utf8.DecodeRuneInString(t.source[i:t.end])
		if !isIdentifierPart(r) {
			break
		}
		i += size
	}
	t.consume(i - t.offset)
	t.emit(common.RegexTokenType, start)
	return nil
}

func isIdentifierStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r)
}

func isIdentifierPart(r rune) bool {
	return isIdentifierStart(r) || unicode.IsDigit(r) ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Pc) || r == '\u200c' || r == '\u200d'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isDecimalDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDecimalDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// TemplatePart is a piece of a template literal, either literal text or
// the body of a ${...} substitution. Start and End are source offsets.
type TemplatePart struct {
	Substitution bool
	Start        int
	End          int
}

// SplitTemplate breaks the template literal in source[start:end] into its
// text and substitution parts. The enclosing backticks and the ${ } markers
// are excluded from the parts.
func SplitTemplate(source string, start, end int) ([]TemplatePart, error) {
	t := &Tokenizer{source: source, end: end - 1}
	var parts []TemplatePart
	text := start + 1
	i := text
	for i < t.end {
		switch source[i] {
		case '\\':
			i += 2
		case '$':
			if i+1 < t.end && source[i+1] == '{' {
				n, err := t.substitutionLength(i + 2)
				if err != nil {
					return nil, err
				}
				parts = append(parts, TemplatePart{Start: text, End: i})
				parts = append(parts, TemplatePart{Substitution: true, Start: i + 2, End: i + 1 + n})
				i += 2 + n
				text = i
			} else {
				i++
			}
		default:
			i++
		}
	}
	return append(parts, TemplatePart{Start: text, End: t.end}), nil
}
