package common

import (
	"encoding/json"
	"io"
)

// PrintASTJSON writes the tree as a single JSON document that ReadASTJSON can
// load back. Raw text is always included so the dump is self-contained.
func PrintASTJSON(root *Node, indentDelta string, output io.Writer, options *PrintOptions) error {
	encoder := json.NewEncoder(output)
	if options != nil && options.Indent > 0 {
		encoder.SetIndent("", indentDelta)
	}
	return encoder.Encode(root)
}

func ReadASTJSON(input io.Reader) (*Node, error) {
	var root Node
	decoder := json.NewDecoder(input)
	err := decoder.Decode(&root)
	if err != nil {
		return nil, err
	}
	return &root, nil
}
