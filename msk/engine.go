package msk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync/atomic"

	"github.com/aura-studio/mskrouter/dispatch"
	"github.com/aura-studio/mskrouter/route"
	"github.com/aura-studio/mskrouter/sqs"
	"github.com/aura-studio/mskrouter/telemetry"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEngineStopped = errors.New("msk: engine is stopped")
	ErrInvalidEvent  = errors.New("msk: invalid event payload")
)

// Engine routes MSK event batches to the per-category SQS queues. It holds
// no per-invocation state; one Engine serves every invocation of the process.
type Engine struct {
	*Options
	running    atomic.Int32
	dispatcher *dispatch.Dispatcher
	recorder   telemetry.Recorder
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewEngine resolves the routing table and the SQS client. It panics when
// a queue URL is missing.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		Options: NewOptions(opts...),
	}
	e.logger = e.newLogger()

	table, err := route.NewTable(e.SmallQueueURL, e.MediumQueueURL, e.LargeQueueURL)
	if err != nil {
		panic(fmt.Errorf("msk: %w", err))
	}

	sender, err := sqs.NewSender(context.Background(),
		sqs.WithSQSClient(e.SQSClient),
		sqs.WithLogger(e.logger),
		sqs.WithDebugMode(e.DebugMode),
	)
	if err != nil {
		panic(fmt.Errorf("msk: %w", err))
	}

	e.recorder, err = telemetry.NewRecorder(e.MeterProvider)
	if err != nil {
		panic(fmt.Errorf("msk: %w", err))
	}
	e.tracer = telemetry.Tracer(e.TracerProvider)

	e.dispatcher = dispatch.New(sender, table,
		dispatch.WithMaxWorkers(e.MaxWorkers),
		dispatch.WithBatchSize(e.BatchSize),
		dispatch.WithSendTimeout(e.SendTimeout),
		dispatch.WithRecorder(e.recorder),
		dispatch.WithTracerProvider(e.TracerProvider),
		dispatch.WithLogger(e.logger),
	)

	e.running.Store(1)
	return e
}

func (e *Engine) newLogger() zerolog.Logger {
	var logger zerolog.Logger
	if e.Logger != nil {
		logger = *e.Logger
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		level, err := zerolog.ParseLevel(e.LogLevel)
		if err != nil || level == zerolog.NoLevel {
			level = zerolog.InfoLevel
		}
		if e.DebugMode {
			level = zerolog.DebugLevel
		}
		logger = logger.Level(level)
	}
	return logger.With().Str("component", "msk").Logger()
}

func (e *Engine) Start() {
	e.running.Store(1)
}

func (e *Engine) Stop() {
	e.running.Store(0)
}

func (e *Engine) IsRunning() bool {
	return e.running.Load() == 1
}

// Invoke implements lambda.Handler. Every outcome, including a malformed
// payload, is reported in the returned response; the error is always nil.
func (e *Engine) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	var resp Response
	ev, err := ParseEvent(payload)
	if err != nil {
		resp = e.fault(ctx, e.requestLogger(ctx), err)
	} else {
		resp = e.Handle(ctx, ev)
	}

	e.flush(ctx)

	b, err := json.Marshal(resp)
	if err != nil {
		b, _ = json.Marshal(faultResponse(err))
	}
	return b, nil
}

type flusher interface {
	ForceFlush(ctx context.Context) error
}

// flush pushes buffered observations out before the runtime freezes the
// process.
func (e *Engine) flush(ctx context.Context) {
	for _, p := range []any{e.MeterProvider, e.TracerProvider} {
		f, ok := p.(flusher)
		if !ok {
			continue
		}
		if err := f.ForceFlush(ctx); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}
}

// ParseEvent decodes a raw MSK event. The payload must be a JSON object.
func ParseEvent(payload []byte) (events.KafkaEvent, error) {
	var ev events.KafkaEvent
	if !gjson.ValidBytes(payload) || !gjson.ParseBytes(payload).IsObject() {
		return ev, ErrInvalidEvent
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return ev, nil
}

// Handle runs decode, group and dispatch for one event. Panics are turned
// into a failure response.
func (e *Engine) Handle(ctx context.Context, ev events.KafkaEvent) (resp Response) {
	logger := e.requestLogger(ctx)
	defer func() {
		if r := recover(); r != nil {
			resp = e.fault(ctx, logger, fmt.Errorf("msk: panic: %v", r))
		}
	}()

	if !e.IsRunning() {
		return e.fault(ctx, logger, ErrEngineStopped)
	}

	ctx, span := e.tracer.Start(ctx, "msk.handle", trace.WithAttributes(
		attribute.String("event_source", ev.EventSource),
		attribute.Int("partition_count", len(ev.Records)),
	))
	defer span.End()

	logger.Info().
		Str("event_source", ev.EventSource).
		Int("record_count", len(ev.Records)).
		Msg("Processing MSK event")

	messages := e.decodeAll(ctx, logger, ev)
	if len(messages) == 0 {
		logger.Warn().Msg("No valid messages to process")
		return newResponse(route.NewGroups(), true)
	}

	groups, rejected := route.Group(messages, nil)
	for _, m := range messages {
		if c, ok := m.Category(); ok {
			e.recorder.MessageProcessed(ctx, c)
		}
	}
	for _, r := range rejected {
		logger.Warn().Err(r.Err).RawJSON("message", r.Message.Body()).Msg("Unable to determine queue type")
		e.recorder.RoutingError(ctx, telemetry.KindUndeterminedQueueType)
	}

	dist := distributionOf(groups)
	logger.Info().
		Int("small_count", dist.Small).
		Int("medium_count", dist.Medium).
		Int("large_count", dist.Large).
		Msg("Grouped messages by queue type")

	result := e.dispatcher.DispatchAll(ctx, groups)
	resp = newResponse(groups, result.OK())

	logger.Info().
		Int("status_code", resp.StatusCode).
		Int("processed_messages", resp.ProcessedMessages).
		Int("failed_batches", len(result.Failed())).
		Interface("queue_distribution", resp.QueueDistribution).
		Msg("Completed message routing")
	return resp
}

func (e *Engine) decodeAll(ctx context.Context, logger zerolog.Logger, ev events.KafkaEvent) []*route.Message {
	var (
		messages []*route.Message
		total    int
	)
	partitions := make([]string, 0, len(ev.Records))
	for partition := range ev.Records {
		partitions = append(partitions, partition)
	}
	slices.Sort(partitions)
	for _, partition := range partitions {
		records := ev.Records[partition]
		total += len(records)
		logger.Debug().
			Str("topic_partition", partition).
			Int("record_count", len(records)).
			Msg("Processing partition")

		for _, record := range records {
			m, err := Decode(record)
			if err != nil {
				e.decodeFailed(ctx, logger, partition, record, err)
				continue
			}
			if _, ok := m.ApplicationCount(); !ok {
				logger.Debug().
					Str("topic_partition", partition).
					Int64("offset", record.Offset).
					Msg("Non-numeric application count treated as 0")
			}
			messages = append(messages, m)
		}
	}

	logger.Info().
		Int("total_records", total).
		Int("parsed_messages", len(messages)).
		Msg("Parsed messages from MSK")
	return messages
}

func (e *Engine) decodeFailed(ctx context.Context, logger zerolog.Logger, partition string, record events.KafkaRecord, err error) {
	var ev *zerolog.Event
	if errors.Is(err, ErrEmptyPayload) {
		ev = logger.Warn()
	} else {
		ev = logger.Error()
	}
	ev.Err(err).
		Str("topic_partition", partition).
		Str("topic", record.Topic).
		Int64("partition", record.Partition).
		Int64("offset", record.Offset).
		Msg("Failed to parse Kafka message")
	e.recorder.RoutingError(ctx, telemetry.KindParseError)
}

func (e *Engine) fault(ctx context.Context, logger zerolog.Logger, err error) Response {
	logger.Error().Err(err).Msg("Lambda handler error")
	e.recorder.RoutingError(ctx, telemetry.KindHandlerError)
	return faultResponse(err)
}

func (e *Engine) requestLogger(ctx context.Context) zerolog.Logger {
	id := ""
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		id = lc.AwsRequestID
	}
	if id == "" {
		id = uuid.NewString()
	}
	return e.logger.With().Str("request_id", id).Logger()
}
