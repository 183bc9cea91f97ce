package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricUnitsTotal       = "jsconvert.units.total"
	metricUnitDuration     = "jsconvert.unit.duration.seconds"
	metricPassThroughTotal = "jsconvert.passthrough.total"
	metricInflightUnits    = "jsconvert.inflight.units"

	attrCatalog = "catalog"
	attrStatus  = "status"
	attrNode    = "node"
)

// durationBucketBoundaries covers single small files up to large bundles.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// ConversionMetrics holds the instruments recorded per converted unit.
type ConversionMetrics struct {
	unitsTotal       metric.Int64Counter
	unitDuration     metric.Float64Histogram
	passThroughTotal metric.Int64Counter
	inflightUnits    metric.Int64UpDownCounter
}

// NewConversionMetrics creates the conversion instruments from mt.
func NewConversionMetrics(mt metric.Meter) (*ConversionMetrics, error) {
	units, err := mt.Int64Counter(metricUnitsTotal,
		metric.WithDescription("Converted units by catalog and status"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricUnitsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricUnitDuration,
		metric.WithDescription("Unit conversion duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricUnitDuration, err)
	}

	passThrough, err := mt.Int64Counter(metricPassThroughTotal,
		metric.WithDescription("Nodes emitted verbatim because no rule applied"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPassThroughTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightUnits,
		metric.WithDescription("Units currently being converted"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightUnits, err)
	}

	return &ConversionMetrics{
		unitsTotal:       units,
		unitDuration:     duration,
		passThroughTotal: passThrough,
		inflightUnits:    inflight,
	}, nil
}

// RecordUnit records one finished unit.
func (cm *ConversionMetrics) RecordUnit(ctx context.Context, catalog, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrCatalog, catalog),
		attribute.String(attrStatus, status),
	)

	cm.unitsTotal.Add(ctx, 1, attrs)
	cm.unitDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordPassThrough counts one verbatim node of the given kind.
func (cm *ConversionMetrics) RecordPassThrough(ctx context.Context, catalog, nodeKind string) {
	cm.passThroughTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrCatalog, catalog),
		attribute.String(attrNode, nodeKind),
	))
}

// TrackInflight increments the in-flight gauge and returns its decrement.
func (cm *ConversionMetrics) TrackInflight(ctx context.Context, catalog string) func() {
	attrs := metric.WithAttributes(attribute.String(attrCatalog, catalog))
	cm.inflightUnits.Add(ctx, 1, attrs)

	return func() {
		cm.inflightUnits.Add(ctx, -1, attrs)
	}
}

const (
	metricRequestsTotal    = "jsconvert.requests.total"
	metricRequestDuration  = "jsconvert.request.duration.seconds"
	metricErrorsTotal      = "jsconvert.errors.total"
	metricInflightRequests = "jsconvert.inflight.requests"

	attrOp = "op"

	// StatusError marks a failed request.
	StatusError = "error"
	// StatusOK marks a successful request.
	StatusOK = "ok"
)

// REDMetrics holds the Rate, Error, Duration instruments of tool requests.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records a completed request.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}
