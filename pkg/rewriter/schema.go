package rewriter

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var catalogSchema []byte

// Schema returns the JSON schema rule catalogs are validated against.
func Schema() []byte {
	return catalogSchema
}

// ValidateDocument checks a YAML catalog document against the schema.
func ValidateDocument(data []byte) error {
	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if document == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidCatalog)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(catalogSchema), gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
}
