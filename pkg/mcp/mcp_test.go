package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/spicery/jsconvert/pkg/mcp"
	"github.com/spicery/jsconvert/pkg/observability"
)

func connect(t *testing.T, deps mcp.ServerDeps) *mcpsdk.ClientSession {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	srv := mcp.NewServer(deps)
	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-serverDone
	})

	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) (*mcpsdk.CallToolResult, string) {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return result, text.Text
}

func TestNewServer_ToolsRegistered(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{})
	assert.Equal(t,
		[]string{mcp.ToolNameCatalogs, mcp.ToolNameConvert, mcp.ToolNameTree},
		srv.ListToolNames(),
	)
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{})

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"jsconvert_convert", "jsconvert_tree", "jsconvert_catalogs"}, names)
}

func TestConvertTool(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{})

	result, text := callTool(t, session, mcp.ToolNameConvert, map[string]any{"code": "var x = 1;"})
	require.False(t, result.IsError, text)

	var out mcp.ConvertOutput
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, "x = 1", out.Text)
	assert.Equal(t, "python", out.Catalog)
	assert.Empty(t, out.Diagnostics)
}

func TestConvertTool_PassThroughDiagnostic(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{})

	result, text := callTool(t, session, mcp.ToolNameConvert, map[string]any{"code": "c = a ?? b;"})
	require.False(t, result.IsError, text)

	var out mcp.ConvertOutput
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, "c = a ?? b", out.Text)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, "binary", out.Diagnostics[0].NodeKind)
}

func TestConvertTool_Errors(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{})

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "empty", args: map[string]any{"code": "  "}, want: "code is required"},
		{name: "syntax", args: map[string]any{"code": "var a = (1;"}, want: "("},
		{name: "catalog", args: map[string]any{"code": "x;", "catalog": "cobol"}, want: "cobol"},
	}

	for _, tt := range tests {
		result, text := callTool(t, session, mcp.ToolNameConvert, tt.args)
		assert.True(t, result.IsError, tt.name)
		assert.Contains(t, text, tt.want, tt.name)
	}
}

func TestTreeTool(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{})

	result, text := callTool(t, session, mcp.ToolNameTree, map[string]any{"code": "var x = 1;", "format": "yaml"})
	require.False(t, result.IsError, text)
	assert.Contains(t, text, "module")

	result, text = callTool(t, session, mcp.ToolNameTree, map[string]any{"code": "x;", "format": "png"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "unknown tree format")
}

func TestCatalogsTool(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.ServerDeps{})

	result, text := callTool(t, session, mcp.ToolNameCatalogs, map[string]any{})
	require.False(t, result.IsError, text)

	var infos []mcp.CatalogInfo
	require.NoError(t, json.Unmarshal([]byte(text), &infos))

	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"es5", "identity", "javascript", "python"}, names)
	assert.Equal(t, ".py", infos[3].Extensions.Output)
}

func TestServer_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	red, err := observability.NewREDMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	session := connect(t, mcp.ServerDeps{Metrics: red})
	callTool(t, session, mcp.ToolNameConvert, map[string]any{"code": "  "})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var names []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	assert.Contains(t, names, "jsconvert.requests.total")
	assert.Contains(t, names, "jsconvert.errors.total")
}
