package tokenizer

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RulesFile represents the structure of a YAML rules file
type RulesFile struct {
	Keyword  []KeywordRule  `yaml:"keyword"`
	Operator []OperatorRule `yaml:"operator"`
	Mark     []MarkRule     `yaml:"mark"`
}

// KeywordRule adds (or with `remove: true` withdraws) a reserved word.
type KeywordRule struct {
	Text   string `yaml:"text"`
	Remove bool   `yaml:"remove,omitempty"`
}

// OperatorRule adds a punctuator recognised by longest match.
type OperatorRule struct {
	Text string `yaml:"text"`
}

type MarkRule struct {
	Text string `yaml:"text"`
}

// TokenizerRules holds all the rule maps that can be customized
type TokenizerRules struct {
	Keywords  map[string]bool
	Operators map[string]bool
	Marks     map[string]bool

	// Operators sorted longest first for maximal munch.
	ordered []string
}

// DefaultRules returns the default tokenizer rules
func DefaultRules() *TokenizerRules {
	rules := &TokenizerRules{
		Keywords:  getDefaultKeywords(),
		Operators: getDefaultOperators(),
		Marks:     map[string]bool{",": true, ";": true},
	}
	// Default rules should never have conflicts, so we panic if there's an error
	if err := rules.BuildTokenLookup(); err != nil {
		panic(fmt.Sprintf("Invalid default rules: %v", err))
	}
	return rules
}

// LoadRulesFile loads and parses a YAML rules file
func LoadRulesFile(filename string) (*RulesFile, error) {
	data, err := os.ReadFile(filename) // #nosec G304 - CLI tool reads user-specified config files
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file '%s': %w", filename, err)
	}
	return ParseRules(data, filename)
}

// ParseRules parses YAML rules text; name is only used in messages.
func ParseRules(data []byte, name string) (*RulesFile, error) {
	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in rules file '%s': %w", name, err)
	}
	return &rules, nil
}

// ApplyRulesToDefaults applies the rules from a RulesFile to create a new TokenizerRules.
// Returns an error if there are conflicting token definitions.
func ApplyRulesToDefaults(rules *RulesFile) (*TokenizerRules, error) {
	tokenizerRules := DefaultRules()

	for _, rule := range rules.Keyword {
		if rule.Text == "" || !isIdentifierStart(rune(rule.Text[0])) {
			return nil, fmt.Errorf("keyword '%s' is not a valid identifier", rule.Text)
		}
		if rule.Remove {
			delete(tokenizerRules.Keywords, rule.Text)
		} else {
			tokenizerRules.Keywords[rule.Text] = true
		}
	}

	if len(rules.Mark) > 0 {
		tokenizerRules.Marks = make(map[string]bool)
		for _, rule := range rules.Mark {
			tokenizerRules.Marks[rule.Text] = true
		}
	}

	for _, rule := range rules.Operator {
		tokenizerRules.Operators[rule.Text] = true
	}

	if err := tokenizerRules.BuildTokenLookup(); err != nil {
		return nil, err
	}
	return tokenizerRules, nil
}

// BuildTokenLookup prepares the operator table for longest-match scanning.
// Returns an error if a token is defined in multiple rules.
func (rules *TokenizerRules) BuildTokenLookup() error {
	rules.ordered = rules.ordered[:0]
	for op := range rules.Operators {
		if op == "" {
			return fmt.Errorf("empty operator")
		}
		if rules.Marks[op] {
			return fmt.Errorf("token '%s' is defined in both mark and operator rules", op)
		}
		if isDelimiter(op) {
			return fmt.Errorf("token '%s' is defined in both bracket and operator rules", op)
		}
		if isIdentifierStart(rune(op[0])) || isDigit(rune(op[0])) {
			return fmt.Errorf("operator '%s' must start with a punctuation character", op)
		}
		rules.ordered = append(rules.ordered, op)
	}
	sort.Slice(rules.ordered, func(i, j int) bool {
		if len(rules.ordered[i]) != len(rules.ordered[j]) {
			return len(rules.ordered[i]) > len(rules.ordered[j])
		}
		return rules.ordered[i] < rules.ordered[j]
	})
	return nil
}

func isDelimiter(text string) bool {
	switch text {
	case "(", ")", "[", "]", "{", "}":
		return true
	}
	return false
}

func getDefaultKeywords() map[string]bool {
	m := make(map[string]bool)
	for _, kw := range []string{
		"break", "case", "catch", "class", "const", "continue", "debugger",
		"default", "delete", "do", "else", "export", "extends", "false",
		"finally", "for", "function", "if", "import", "in", "instanceof",
		"let", "new", "null", "return", "super", "switch", "this", "throw",
		"true", "try", "typeof", "var", "void", "while", "with", "yield",
	} {
		m[kw] = true
	}
	return m
}

func getDefaultOperators() map[string]bool {
	m := make(map[string]bool)
	for _, op := range []string{
		">>>=", "...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
		"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
		"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
		"+", "-", "*", "/", "%", "=", "<", ">", "!", "&", "|", "^", "~", "?", ":", ".",
	} {
		m[op] = true
	}
	return m
}
