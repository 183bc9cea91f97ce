// Package mcp exposes jsconvert as a Model Context Protocol server so that
// editors and agents can convert snippets over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/spicery/jsconvert/pkg/observability"
	"github.com/spicery/jsconvert/pkg/transpiler"
)

const (
	serverName    = "jsconvert"
	serverVersion = "1.0.0"

	opPrefix = "mcp."
)

// ServerDeps holds the optional dependencies of a Server.
type ServerDeps struct {
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Metrics    *observability.REDMetrics
	Transpiler *transpiler.Transpiler
}

// Server wraps the SDK server and the registered tool names.
type Server struct {
	inner *mcpsdk.Server
	tools []string
}

func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Tracer == nil {
		deps.Tracer = nooptrace.NewTracerProvider().Tracer(serverName)
	}
	if deps.Transpiler == nil {
		deps.Transpiler = transpiler.New(nil, transpiler.WithLogger(deps.Logger))
	}

	s := &Server{
		inner: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    serverName,
			Version: serverVersion,
		}, nil),
	}

	tools := newToolset(deps.Transpiler)

	addTool(s, deps, &mcpsdk.Tool{
		Name:        ToolNameConvert,
		Description: "Convert JavaScript source with a named rule catalog and return the converted text with diagnostics.",
	}, tools.convert)
	addTool(s, deps, &mcpsdk.Tool{
		Name:        ToolNameTree,
		Description: "Parse JavaScript source and return its syntax tree as JSON, YAML, ASCIITREE, DOM or DOT.",
	}, tools.tree)
	addTool(s, deps, &mcpsdk.Tool{
		Name:        ToolNameCatalogs,
		Description: "List the available rule catalogs and their file extensions.",
	}, tools.catalogs)

	return s
}

func addTool[In any](s *Server, deps ServerDeps, tool *mcpsdk.Tool, handler mcpsdk.ToolHandlerFor[In, ToolOutput]) {
	handler = withTracing(deps.Tracer, tool.Name, handler)
	handler = withMetrics(deps.Metrics, tool.Name, handler)
	handler = withLogging(deps.Logger, tool.Name, handler)
	mcpsdk.AddTool(s.inner, tool, handler)
	s.tools = append(s.tools, tool.Name)
}

// Run serves over stdin and stdout until ctx is done or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// ListToolNames returns the registered tool names, sorted.
func (s *Server) ListToolNames() []string {
	names := append([]string(nil), s.tools...)
	sort.Strings(names)
	return names
}

func withTracing[In any](
	tracer trace.Tracer, name string, handler mcpsdk.ToolHandlerFor[In, ToolOutput],
) mcpsdk.ToolHandlerFor[In, ToolOutput] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, opPrefix+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", name)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case result != nil && result.IsError:
			span.SetStatus(codes.Error, "tool error")
		}
		return result, output, err
	}
}

func withMetrics[In any](
	metrics *observability.REDMetrics, name string, handler mcpsdk.ToolHandlerFor[In, ToolOutput],
) mcpsdk.ToolHandlerFor[In, ToolOutput] {
	if metrics == nil {
		return handler
	}
	op := opPrefix + name
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, ToolOutput, error) {
		done := metrics.TrackInflight(ctx, op)
		defer done()

		start := time.Now()
		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}
		metrics.RecordRequest(ctx, op, status, time.Since(start))
		return result, output, err
	}
}

func withLogging[In any](
	logger *slog.Logger, name string, handler mcpsdk.ToolHandlerFor[In, ToolOutput],
) mcpsdk.ToolHandlerFor[In, ToolOutput] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()
		result, output, err := handler(ctx, req, input)
		failed := err != nil || (result != nil && result.IsError)
		logger.DebugContext(ctx, "tool call", "tool", name, "failed", failed, "duration", time.Since(start))
		return result, output, err
	}
}
