// Package transpiler is the front door of jsconvert: it parses source text,
// runs the rewrite engine with a named catalog and, for files, writes the
// converted output next to (or away from) the input.
package transpiler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/spicery/jsconvert/pkg/catalog"
	"github.com/spicery/jsconvert/pkg/checker"
	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
	"github.com/spicery/jsconvert/pkg/observability"
	"github.com/spicery/jsconvert/pkg/parser"
	"github.com/spicery/jsconvert/pkg/tokenizer"
)

// DefaultCatalog is used when a request names no catalog.
const DefaultCatalog = "python"

// DefaultDumpFormat is the tree format written when a dump is requested
// without a format.
const DefaultDumpFormat = "JSON"

// noEditMarker in a leading comment protects a file from conversion.
const noEditMarker = "no-edit"

// Transpiler converts source units. It is safe for concurrent use; every
// conversion builds its own engine context.
type Transpiler struct {
	registry       *catalog.Registry
	tokenRules     *tokenizer.TokenizerRules
	logger         *slog.Logger
	tracer         trace.Tracer
	metrics        *observability.ConversionMetrics
	history        History
	indent         string
	defaultCatalog string
	checkTree      bool
}

type Option func(*Transpiler)

// WithTokenRules replaces the default tokenizer rules.
func WithTokenRules(rules *tokenizer.TokenizerRules) Option {
	return func(t *Transpiler) {
		t.tokenRules = rules
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Transpiler) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithTracer opens one span per converted unit on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(t *Transpiler) {
		if tracer != nil {
			t.tracer = tracer
		}
	}
}

func WithMetrics(metrics *observability.ConversionMetrics) Option {
	return func(t *Transpiler) {
		t.metrics = metrics
	}
}

// WithIndent sets the indentation unit handed to the engine.
func WithIndent(unit string) Option {
	return func(t *Transpiler) {
		if unit != "" {
			t.indent = unit
		}
	}
}

func WithDefaultCatalog(name string) Option {
	return func(t *Transpiler) {
		if name != "" {
			t.defaultCatalog = name
		}
	}
}

// WithCheckTree validates every parsed tree before it is emitted.
func WithCheckTree(check bool) Option {
	return func(t *Transpiler) {
		t.checkTree = check
	}
}

// WithHistory enables incremental file conversion: a file whose source is
// unchanged since its last successful conversion is not converted again.
func WithHistory(history History) Option {
	return func(t *Transpiler) {
		t.history = history
	}
}

// History reports the source hash of the last successful conversion of a
// file with a catalog.
type History interface {
	SourceHash(path, catalog string) (hash string, ok bool, err error)
}

func New(registry *catalog.Registry, opts ...Option) *Transpiler {
	t := &Transpiler{
		registry:       registry,
		logger:         slog.New(slog.DiscardHandler),
		tracer:         nooptrace.NewTracerProvider().Tracer("jsconvert"),
		indent:         engine.DefaultIndent,
		defaultCatalog: DefaultCatalog,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.registry == nil {
		t.registry = catalog.Builtin()
	}
	return t
}

func (t *Transpiler) Registry() *catalog.Registry { return t.registry }

// Request is a conversion of in-memory source.
type Request struct {
	// Name identifies the unit in results and logs.
	Name       string
	Source     string
	Catalog    string
	Dump       bool
	DumpFormat string
}

// ConvertString converts source with the named catalog. It never touches
// the file system.
func (t *Transpiler) ConvertString(ctx context.Context, source, catalogName string) (string, error) {
	result, err := t.Convert(ctx, Request{Source: source, Catalog: catalogName})
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Convert converts one in-memory unit. An unknown catalog fails before
// anything is parsed and yields a nil Result. Otherwise the Result is
// always returned and the error is its Err.
func (t *Transpiler) Convert(ctx context.Context, req Request) (*Result, error) {
	cat, rules, err := t.resolve(req.Catalog)
	if err != nil {
		return nil, err
	}
	result := t.convertSource(ctx, unit{
		name:       req.Name,
		source:     req.Source,
		catalog:    cat,
		rules:      rules,
		dump:       req.Dump,
		dumpFormat: req.DumpFormat,
	})
	return result, result.Err
}

// ParseTree parses source with the transpiler's tokenizer rules, checking
// it when tree checking is enabled.
func (t *Transpiler) ParseTree(source string) (*common.Node, error) {
	root, err := parser.ParseSource(source, t.tokenRules)
	if err != nil {
		return nil, err
	}
	if t.checkTree {
		if err := checkTree(root, source); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// DumpTree renders the parse tree of source in one of common.Formats.
func (t *Transpiler) DumpTree(source, format string) (string, error) {
	root, err := t.ParseTree(source)
	if err != nil {
		return "", err
	}
	return dumpTree(root, format)
}

func (t *Transpiler) resolve(name string) (catalog.Catalog, *engine.RuleSet, error) {
	if name == "" {
		name = t.defaultCatalog
	}
	cat, err := t.registry.Lookup(name)
	if err != nil {
		return nil, nil, err
	}
	rules, err := t.registry.Load(name)
	if err != nil {
		return nil, nil, err
	}
	return cat, rules, nil
}

type unit struct {
	name       string
	input      string
	source     string
	catalog    catalog.Catalog
	rules      *engine.RuleSet
	dump       bool
	dumpFormat string
}

func (t *Transpiler) convertSource(ctx context.Context, u unit) *Result {
	start := time.Now()
	result := &Result{
		Name:       u.name,
		Input:      u.input,
		Catalog:    u.catalog.Name(),
		InputBytes: len(u.source),
		SourceHash: sourceHash(u.source),
	}

	ctx, span := t.tracer.Start(ctx, "jsconvert.unit", trace.WithAttributes(
		attribute.String("unit.name", u.name),
		attribute.String("catalog", result.Catalog),
		attribute.Int("unit.bytes", len(u.source)),
	))
	defer span.End()

	if t.metrics != nil {
		defer t.metrics.TrackInflight(ctx, result.Catalog)()
	}

	out, dump, err := t.transform(ctx, u)
	result.Duration = time.Since(start)
	result.Dump = dump
	if err != nil {
		result.fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		result.Status = StatusOK
		result.Text = out.Text
		result.Diagnostics = out.Diagnostics
		result.Imports = out.Imports
		result.OutputBytes = len(out.Text)
		span.SetAttributes(attribute.Int("unit.passthroughs", out.PassThroughs()))
	}

	t.record(ctx, result)
	return result
}

func (t *Transpiler) transform(ctx context.Context, u unit) (*engine.Output, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	root, err := t.ParseTree(u.source)
	if err != nil {
		return nil, "", err
	}
	if hasNoEditComment(root) {
		return nil, "", ErrNoEdit
	}

	var dump string
	if u.dump {
		dump, err = dumpTree(root, u.dumpFormat)
		if err != nil {
			return nil, "", err
		}
	}

	e := engine.New(u.rules, engine.WithIndent(t.indent), engine.WithLogger(t.logger))
	out, err := e.Transform(ctx, root, u.source)
	if err != nil {
		return nil, dump, err
	}
	return out, dump, nil
}

func (t *Transpiler) record(ctx context.Context, result *Result) {
	attrs := []any{
		"unit", result.Name,
		"catalog", result.Catalog,
		"status", result.Status,
		"duration", result.Duration,
	}
	switch result.Status {
	case StatusFailed:
		t.logger.WarnContext(ctx, "conversion failed", append(attrs, "error", result.Err)...)
	default:
		t.logger.DebugContext(ctx, "conversion finished", append(attrs, "passthroughs", result.PassThroughs())...)
	}

	if t.metrics == nil {
		return
	}
	t.metrics.RecordUnit(ctx, result.Catalog, string(result.Status), result.Duration)
	for _, d := range result.Diagnostics {
		if d.Kind == engine.UnsupportedConstruct {
			t.metrics.RecordPassThrough(ctx, result.Catalog, d.NodeKind)
		}
	}
}

// ErrMalformedTree is returned when tree checking finds a parser bug.
var ErrMalformedTree = errors.New("malformed parse tree")

func checkTree(root *common.Node, source string) error {
	c := checker.NewChecker(source)
	if c.Check(root) {
		return nil
	}
	messages := make([]string, 0, len(c.Bugs))
	for _, bug := range c.Bugs {
		messages = append(messages, bug.Message)
	}
	return fmt.Errorf("%w: %s", ErrMalformedTree, strings.Join(messages, "; "))
}

func dumpTree(root *common.Node, format string) (string, error) {
	if format == "" {
		format = DefaultDumpFormat
	}
	write, err := common.PickPrintFunc(format)
	if err != nil {
		return "", err
	}
	options := common.DefaultPrintOptions()
	options.Format = format
	var buf bytes.Buffer
	if err := write(root, "  ", &buf, options); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// hasNoEditComment reports whether a leading comment of the unit carries
// the no-edit marker as a word of its own.
func hasNoEditComment(root *common.Node) bool {
	for _, child := range root.Children {
		if !child.Is(common.NameComment) {
			return false
		}
		if slices.Contains(strings.Fields(child.Option(common.OptionText)), noEditMarker) {
			return true
		}
	}
	return false
}

func sourceHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
