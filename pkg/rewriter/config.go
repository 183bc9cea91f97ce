package rewriter

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spicery/jsconvert/pkg/engine"
)

var ErrInvalidCatalog = errors.New("invalid rule catalog")

// CatalogConfig is the YAML form of a rule catalog.
type CatalogConfig struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Extends     string           `yaml:"extends,omitempty"`
	Extensions  ExtensionsConfig `yaml:"extensions,omitempty"`
	Remove      []string         `yaml:"remove,omitempty"`
	Rules       []RuleConfig     `yaml:"rules,omitempty"`
}

// ExtensionsConfig names the file extensions a catalog reads and writes.
type ExtensionsConfig struct {
	Input  string   `yaml:"input,omitempty"`
	Output string   `yaml:"output,omitempty"`
	Dump   string   `yaml:"dump,omitempty"`
	Skip   []string `yaml:"skip,omitempty"`
}

// RuleConfig represents a single rule with match conditions and the steps
// that produce its output.
type RuleConfig struct {
	Name       string     `yaml:"name"`
	Precedence int        `yaml:"precedence,omitempty"`
	Kinds      []string   `yaml:"kinds,omitempty"`
	Match      *Pattern   `yaml:"match,omitempty"`
	Emit       StepConfig `yaml:"emit"`
}

// StepConfig defines one emission step. Exactly one field may be set; it
// is converted to a concrete Step by ToStep.
type StepConfig struct {
	Text       *string         `yaml:"text,omitempty"`
	Attr       *string         `yaml:"attr,omitempty"`
	Lookup     *string         `yaml:"lookup,omitempty"`
	Child      *int            `yaml:"child,omitempty"`
	Children   *ChildrenConfig `yaml:"children,omitempty"`
	Raw        bool            `yaml:"raw,omitempty"`
	Splice     bool            `yaml:"splice,omitempty"`
	Statements *RangeConfig    `yaml:"statements,omitempty"`
	Block      *BlockConfig    `yaml:"block,omitempty"`
	Newline    bool            `yaml:"newline,omitempty"`
	Nest       []StepConfig    `yaml:"nest,omitempty"`
	Bind       *BindConfig     `yaml:"bind,omitempty"`
	Require    *RequireConfig  `yaml:"require,omitempty"`
	Warn       *string         `yaml:"warn,omitempty"`
	Sequence   []StepConfig    `yaml:"sequence,omitempty"`
}

type RangeConfig struct {
	From int  `yaml:"from,omitempty"`
	To   *int `yaml:"to,omitempty"`
}

type ChildrenConfig struct {
	From      int    `yaml:"from,omitempty"`
	To        *int   `yaml:"to,omitempty"`
	Separator string `yaml:"separator,omitempty"`
}

type BlockConfig struct {
	From  int    `yaml:"from,omitempty"`
	To    *int   `yaml:"to,omitempty"`
	Empty string `yaml:"empty,omitempty"`
}

type BindConfig struct {
	Key      string `yaml:"key,omitempty"`
	Name     string `yaml:"name,omitempty"`
	With     string `yaml:"with,omitempty"`
	WithAttr string `yaml:"withAttr,omitempty"`
}

type RequireConfig struct {
	Key  string `yaml:"key"`
	Line string `yaml:"line"`
}

func (sc StepConfig) Validate() error {
	// Options are mutually exclusive; only one should be set.
	count := 0
	for _, set := range []bool{
		sc.Text != nil, sc.Attr != nil, sc.Lookup != nil, sc.Child != nil,
		sc.Children != nil, sc.Raw, sc.Splice, sc.Statements != nil, sc.Block != nil,
		sc.Newline, len(sc.Nest) > 0, sc.Bind != nil, sc.Require != nil,
		sc.Warn != nil, len(sc.Sequence) > 0,
	} {
		if set {
			count++
		}
	}
	if count == 0 {
		return fmt.Errorf("no step specified in StepConfig: %+v", sc)
	}
	if count > 1 {
		return fmt.Errorf("multiple steps specified in StepConfig; only one allowed: %+v", sc)
	}
	if sc.Bind != nil {
		if (sc.Bind.Key == "") == (sc.Bind.Name == "") {
			return fmt.Errorf("invalid BindConfig: exactly one of 'key' and 'name' must be set")
		}
		if sc.Bind.With != "" && sc.Bind.WithAttr != "" {
			return fmt.Errorf("invalid BindConfig: 'with' and 'withAttr' are mutually exclusive")
		}
	}
	if sc.Require != nil && (sc.Require.Key == "" || sc.Require.Line == "") {
		return fmt.Errorf("invalid RequireConfig: 'key' and 'line' must be set")
	}
	return nil
}

// ToStep converts a StepConfig to a concrete Step implementation.
func (sc StepConfig) ToStep() (Step, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	switch {
	case sc.Text != nil:
		return &TextStep{Text: *sc.Text}, nil
	case sc.Attr != nil:
		return &AttrStep{Key: *sc.Attr}, nil
	case sc.Lookup != nil:
		return &LookupStep{Key: *sc.Lookup}, nil
	case sc.Child != nil:
		return &ChildStep{Index: *sc.Child}, nil
	case sc.Children != nil:
		return &ChildrenStep{Range: Range{From: sc.Children.From, To: sc.Children.To}, Separator: sc.Children.Separator}, nil
	case sc.Raw:
		return &RawStep{}, nil
	case sc.Splice:
		return &SpliceStep{}, nil
	case sc.Statements != nil:
		return &StatementsStep{Range: Range{From: sc.Statements.From, To: sc.Statements.To}}, nil
	case sc.Block != nil:
		return &BlockStep{Range: Range{From: sc.Block.From, To: sc.Block.To}, Empty: sc.Block.Empty}, nil
	case sc.Newline:
		return &NewlineStep{}, nil
	case len(sc.Nest) > 0:
		steps, err := toSteps(sc.Nest, "nest")
		if err != nil {
			return nil, err
		}
		return &NestStep{Steps: steps}, nil
	case sc.Bind != nil:
		return &BindStep{Key: sc.Bind.Key, Name: sc.Bind.Name, With: sc.Bind.With, WithAttr: sc.Bind.WithAttr}, nil
	case sc.Require != nil:
		return &RequireStep{Key: sc.Require.Key, Line: sc.Require.Line}, nil
	case sc.Warn != nil:
		return &WarnStep{Message: *sc.Warn}, nil
	case len(sc.Sequence) > 0:
		steps, err := toSteps(sc.Sequence, "sequence")
		if err != nil {
			return nil, err
		}
		return &SequenceStep{Steps: steps}, nil
	}
	return nil, fmt.Errorf("no valid step found in StepConfig: %+v", sc)
}

func toSteps(configs []StepConfig, label string) ([]Step, error) {
	steps := make([]Step, 0, len(configs))
	for i, config := range configs {
		step, err := config.ToStep()
		if err != nil {
			return nil, fmt.Errorf("error in nested %s step, position %d: %w", label, i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// LoadCatalogConfig loads and validates a catalog from a YAML file.
func LoadCatalogConfig(filename string) (*CatalogConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	config, err := ParseCatalogConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return config, nil
}

// LoadCatalogConfigFromString loads a CatalogConfig from a YAML string.
func LoadCatalogConfigFromString(yamlContent string) (*CatalogConfig, error) {
	return ParseCatalogConfig([]byte(yamlContent))
}

// ParseCatalogConfig checks the document against the catalog schema and
// decodes it.
func ParseCatalogConfig(data []byte) (*CatalogConfig, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var config CatalogConfig
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return &config, nil
}

// Compile turns the rules of a catalog into engine rules, in order.
func Compile(config *CatalogConfig) ([]engine.Rule, error) {
	rules := make([]engine.Rule, 0, len(config.Rules))
	seen := make(map[string]bool, len(config.Rules))
	for _, rc := range config.Rules {
		if rc.Name == "" {
			return nil, fmt.Errorf("%w: rule without a name in %s", ErrInvalidCatalog, config.Name)
		}
		if seen[rc.Name] {
			return nil, fmt.Errorf("%w: duplicate rule %q in %s", ErrInvalidCatalog, rc.Name, config.Name)
		}
		seen[rc.Name] = true
		rule, err := compileRule(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: error in rule \"%s/%s\": %w", ErrInvalidCatalog, config.Name, rc.Name, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
