// Package telemetry carries the router's observation sink: counters for
// processed messages and routing errors, and a histogram of batch sizes.
package telemetry

import (
	"context"
	"fmt"

	"github.com/aura-studio/mskrouter/route"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/aura-studio/mskrouter"
	metricKeyPrefix     = "router."
)

// ErrorKind discriminates routing errors.
type ErrorKind string

const (
	KindParseError            ErrorKind = "parse_error"
	KindSQSBatchFailure       ErrorKind = "sqs_batch_failure"
	KindSQSSendError          ErrorKind = "sqs_send_error"
	KindConcurrentSendError   ErrorKind = "concurrent_send_error"
	KindUndeterminedQueueType ErrorKind = "undetermined_queue_type"
	KindHandlerError          ErrorKind = "handler_error"
)

// Recorder receives routing observations. Implementations must be safe for
// concurrent use.
type Recorder interface {
	MessageProcessed(ctx context.Context, c route.Category)
	RoutingError(ctx context.Context, kind ErrorKind)
	BatchSent(ctx context.Context, c route.Category, size int)
}

type noopRecorder struct{}

func (noopRecorder) MessageProcessed(context.Context, route.Category) {}
func (noopRecorder) RoutingError(context.Context, ErrorKind)         {}
func (noopRecorder) BatchSent(context.Context, route.Category, int)  {}

// Noop returns a Recorder that drops everything.
func Noop() Recorder { return noopRecorder{} }

type meterRecorder struct {
	processed metric.Int64Counter
	errors    metric.Int64Counter
	batchSize metric.Int64Histogram
}

// NewRecorder builds a Recorder on top of an OpenTelemetry meter provider,
// or on the global provider when nil.
func NewRecorder(provider metric.MeterProvider) (Recorder, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter(instrumentationName)

	processed, err := meter.Int64Counter(
		metricKeyPrefix+"messages.processed",
		metric.WithDescription("Messages classified and queued for dispatch"),
		metric.WithUnit("{messages}"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: messages.processed: %w", err)
	}

	routingErrors, err := meter.Int64Counter(
		metricKeyPrefix+"routing.errors",
		metric.WithDescription("Routing failures by kind"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: routing.errors: %w", err)
	}

	batchSize, err := meter.Int64Histogram(
		metricKeyPrefix+"batch.size",
		metric.WithDescription("Messages per successfully sent batch"),
		metric.WithUnit("{messages}"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: batch.size: %w", err)
	}

	return &meterRecorder{
		processed: processed,
		errors:    routingErrors,
		batchSize: batchSize,
	}, nil
}

func (r *meterRecorder) MessageProcessed(ctx context.Context, c route.Category) {
	r.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("queue_type", c.String())))
}

func (r *meterRecorder) RoutingError(ctx context.Context, kind ErrorKind) {
	r.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error_type", string(kind))))
}

func (r *meterRecorder) BatchSent(ctx context.Context, c route.Category, size int) {
	r.batchSize.Record(ctx, int64(size), metric.WithAttributes(attribute.String("queue_type", c.String())))
}
