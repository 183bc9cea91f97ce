package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/spicery/jsconvert/pkg/catalog"
	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/transpiler"
)

const (
	ToolNameConvert  = "jsconvert_convert"
	ToolNameTree     = "jsconvert_tree"
	ToolNameCatalogs = "jsconvert_catalogs"
)

// MaxCodeInputBytes bounds the source accepted by a single tool call.
const MaxCodeInputBytes = 1 << 20

var (
	ErrEmptyCode     = errors.New("code is required")
	ErrCodeTooLarge  = errors.New("code exceeds maximum size")
	ErrUnknownFormat = errors.New("unknown tree format")
)

type ConvertInput struct {
	Code    string `json:"code"              jsonschema:"JavaScript source to convert"`
	Catalog string `json:"catalog,omitempty" jsonschema:"rule catalog name, defaults to python"`
}

type TreeInput struct {
	Code   string `json:"code"             jsonschema:"JavaScript source to parse"`
	Format string `json:"format,omitempty" jsonschema:"ASCIITREE, DOM, DOT, JSON or YAML; defaults to JSON"`
}

type CatalogsInput struct{}

// ToolOutput is the structured output shared by every tool.
type ToolOutput struct {
	Data any `json:"data"`
}

// ConvertOutput is the payload of a successful conversion.
type ConvertOutput struct {
	Text        string              `json:"text"`
	Catalog     string              `json:"catalog"`
	Imports     map[string]string   `json:"imports,omitempty"`
	Diagnostics []engine.Diagnostic `json:"diagnostics,omitempty"`
}

type CatalogInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Extensions  catalog.Extensions `json:"extensions"`
}

type toolset struct {
	transpiler *transpiler.Transpiler
}

func newToolset(t *transpiler.Transpiler) *toolset {
	return &toolset{transpiler: t}
}

func validateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrEmptyCode
	}
	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}
	return nil
}

func (ts *toolset) convert(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ConvertInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateCode(input.Code); err != nil {
		return errorResult(err)
	}

	result, err := ts.transpiler.Convert(ctx, transpiler.Request{
		Name:    "<mcp>",
		Source:  input.Code,
		Catalog: input.Catalog,
	})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(ConvertOutput{
		Text:        result.Text,
		Catalog:     result.Catalog,
		Imports:     result.Imports,
		Diagnostics: result.Diagnostics,
	})
}

func (ts *toolset) tree(
	_ context.Context, _ *mcpsdk.CallToolRequest, input TreeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateCode(input.Code); err != nil {
		return errorResult(err)
	}

	format := strings.ToUpper(input.Format)
	if format == "" {
		format = transpiler.DefaultDumpFormat
	}
	if !slices.Contains(common.Formats(), format) {
		return errorResult(fmt.Errorf("%w: %q", ErrUnknownFormat, input.Format))
	}

	dump, err := ts.transpiler.DumpTree(input.Code, format)
	if err != nil {
		return errorResult(err)
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: dump}},
	}, ToolOutput{Data: dump}, nil
}

func (ts *toolset) catalogs(
	_ context.Context, _ *mcpsdk.CallToolRequest, _ CatalogsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	var infos []CatalogInfo
	for _, c := range ts.transpiler.Registry().Catalogs() {
		infos = append(infos, CatalogInfo{
			Name:        c.Name(),
			Description: c.Description(),
			Extensions:  c.Extensions(),
		})
	}
	return jsonResult(infos)
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
	}, ToolOutput{}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("marshal result: %w", err))
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}
