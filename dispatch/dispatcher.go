package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/aura-studio/mskrouter/route"
	"github.com/aura-studio/mskrouter/sqs"
	"github.com/aura-studio/mskrouter/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	ErrDestinationBatchFailure = errors.New("dispatch: destination rejected items")
	ErrDestinationSend         = errors.New("dispatch: destination send failed")
	ErrTaskTimeout             = errors.New("dispatch: send task timed out")
	ErrTaskPanic               = errors.New("dispatch: send task panicked")
)

// Sender is the destination queueing service.
type Sender interface {
	SendBatch(ctx context.Context, queueURL string, entries []sqs.Entry) (*sqs.BatchResult, error)
}

// Outcome is the result of one send task.
type Outcome struct {
	ID       string
	Category route.Category
	QueueURL string
	Size     int
	Err      error
}

func (o Outcome) OK() bool { return o.Err == nil }

// Result aggregates every task of one DispatchAll call.
type Result struct {
	Outcomes []Outcome
}

// OK is true iff every task succeeded.
func (r Result) OK() bool {
	for _, o := range r.Outcomes {
		if !o.OK() {
			return false
		}
	}
	return true
}

// Failed returns the failed outcomes.
func (r Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Dispatcher fans batches out to their destinations over a bounded pool.
type Dispatcher struct {
	*Options
	sender Sender
	table  route.Table
	logger zerolog.Logger
	tracer trace.Tracer

	// inflight counts sends that have not returned, including ones whose
	// task already timed out. It is shared by every DispatchAll call.
	inflight *semaphore.Weighted
}

func New(sender Sender, table route.Table, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		Options: NewOptions(opts...),
		sender:  sender,
		table:   table,
	}
	d.inflight = semaphore.NewWeighted(int64(d.MaxWorkers))
	logger := zerolog.Nop()
	if d.Logger != nil {
		logger = *d.Logger
	}
	d.logger = logger.With().Str("component", "dispatch").Logger()
	d.tracer = telemetry.Tracer(d.TracerProvider)
	return d
}

type task struct {
	id       string
	category route.Category
	queueURL string
	batch    []*route.Message
}

// DispatchAll chunks every non-empty group and sends the chunks with at most
// MaxWorkers sends in flight. It returns once every task has completed or
// timed out. A failed task never cancels its siblings.
func (d *Dispatcher) DispatchAll(ctx context.Context, groups route.Groups) Result {
	var (
		tasks    []task
		outcomes []Outcome
	)
	for _, c := range route.Categories {
		msgs := groups[c]
		if len(msgs) == 0 {
			continue
		}
		queueURL, ok := d.table.Lookup(c)
		if !ok {
			err := fmt.Errorf("%w: no destination for %s", route.ErrUndeterminedCategory, c)
			d.logger.Error().Err(err).Int("message_count", len(msgs)).Msg("Unable to resolve destination")
			d.Recorder.RoutingError(ctx, telemetry.KindUndeterminedQueueType)
			outcomes = append(outcomes, Outcome{Category: c, Size: len(msgs), Err: err})
			continue
		}
		for _, batch := range route.Chunk(msgs, d.BatchSize) {
			tasks = append(tasks, task{
				id:       uuid.NewString(),
				category: c,
				queueURL: queueURL,
				batch:    batch,
			})
		}
	}

	results := make([]Outcome, len(tasks))
	var g errgroup.Group
	g.SetLimit(d.MaxWorkers)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			results[i] = d.run(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range results {
		if o.OK() {
			d.Recorder.BatchSent(ctx, o.Category, o.Size)
			continue
		}
		d.Recorder.RoutingError(ctx, kindOf(o.Err))
	}
	return Result{Outcomes: append(outcomes, results...)}
}

// run bounds one send by SendTimeout. The deadline covers waiting for an
// inflight slot. A send that outlives its deadline keeps the slot until it
// returns, so at most MaxWorkers sends run at once even when a sender
// ignores ctx; its result is discarded.
func (d *Dispatcher) run(ctx context.Context, t task) Outcome {
	ctx, span := d.tracer.Start(ctx, "dispatch.send_batch", trace.WithAttributes(
		attribute.String("queue_type", t.category.String()),
		attribute.Int("batch_size", len(t.batch)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, d.SendTimeout)
	defer cancel()

	var err error
	if acquireErr := d.inflight.Acquire(ctx, 1); acquireErr != nil {
		err = fmt.Errorf("%w waiting for a send slot: %w", ErrTaskTimeout, acquireErr)
	} else {
		done := make(chan error, 1)
		go func() {
			defer d.inflight.Release(1)
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("%w: %v", ErrTaskPanic, r)
				}
			}()
			done <- d.send(ctx, t)
		}()

		select {
		case err = <-done:
		case <-ctx.Done():
			err = fmt.Errorf("%w after %s: %w", ErrTaskTimeout, d.SendTimeout, ctx.Err())
		}
	}

	logger := d.logger.With().
		Str("batch_id", t.id).
		Str("queue_type", t.category.String()).
		Str("queue_url", t.queueURL).
		Int("message_count", len(t.batch)).
		Logger()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Msg("Batch send failed")
	} else {
		logger.Info().Msg("Successfully sent batch to SQS")
	}

	return Outcome{
		ID:       t.id,
		Category: t.category,
		QueueURL: t.queueURL,
		Size:     len(t.batch),
		Err:      err,
	}
}

func (d *Dispatcher) send(ctx context.Context, t task) error {
	entries := make([]sqs.Entry, len(t.batch))
	for i, m := range t.batch {
		entries[i] = sqs.Entry{
			Body:     m.Body(),
			Category: t.category.String(),
			ItemID:   m.ProductID(),
		}
	}

	res, err := d.sender.SendBatch(ctx, t.queueURL, entries)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDestinationSend, err)
	}
	if res != nil && !res.OK() {
		return fmt.Errorf("%w: %d of %d failed (first: %s %s)", ErrDestinationBatchFailure,
			len(res.Failed), len(entries), res.Failed[0].Code, res.Failed[0].Message)
	}
	return nil
}

func kindOf(err error) telemetry.ErrorKind {
	switch {
	case errors.Is(err, ErrDestinationBatchFailure):
		return telemetry.KindSQSBatchFailure
	case errors.Is(err, ErrDestinationSend):
		return telemetry.KindSQSSendError
	case errors.Is(err, route.ErrUndeterminedCategory):
		return telemetry.KindUndeterminedQueueType
	default:
		return telemetry.KindConcurrentSendError
	}
}
