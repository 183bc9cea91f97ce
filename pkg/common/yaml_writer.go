package common

import (
	"io"

	"gopkg.in/yaml.v3"
)

type yamlNode struct {
	Name     string            `yaml:"name"`
	Span     *Span             `yaml:"span,omitempty"`
	Options  map[string]string `yaml:"options,omitempty"`
	Raw      string            `yaml:"raw,omitempty"`
	Children []*yamlNode       `yaml:"children,omitempty"`
}

func toYAMLNode(n *Node, options *PrintOptions) *yamlNode {
	y := &yamlNode{Name: n.Name}
	if len(n.Options) > 0 {
		y.Options = make(map[string]string, len(n.Options))
		for key, value := range n.Options {
			y.Options[key] = TrimValue(key, value, options.TrimTokenOnOutput)
		}
	}
	if options.IncludeSpans {
		span := n.Span
		y.Span = &span
	}
	if options.IncludeRaw {
		y.Raw = n.Raw
	}
	for _, child := range n.Children {
		y.Children = append(y.Children, toYAMLNode(child, options))
	}
	return y
}

func PrintASTYAML(root *Node, indentDelta string, output io.Writer, options *PrintOptions) error {
	if options == nil {
		options = DefaultPrintOptions()
	}
	encoder := yaml.NewEncoder(output)
	indent := options.Indent
	if indent <= 0 {
		indent = 2
	}
	encoder.SetIndent(indent)
	if err := encoder.Encode(toYAMLNode(root, options)); err != nil {
		return err
	}
	return encoder.Close()
}
