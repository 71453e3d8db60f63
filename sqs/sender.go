package sqs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
)

// MaxBatchEntries is the SendMessageBatch entry limit.
const MaxBatchEntries = 10

const (
	AttributeQueueType = "queueType"
	AttributeProductID = "productId"
)

var ErrTooManyEntries = errors.New("sqs: too many entries in batch")

type SQSClient interface {
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
}

// Entry is one message of a batch. Category and ItemID travel as message
// attributes so that consumers can filter without parsing the body.
type Entry struct {
	Body     []byte
	Category string
	ItemID   string
}

// FailedEntry is an entry the queue rejected.
type FailedEntry struct {
	Index       int
	Code        string
	Message     string
	SenderFault bool
}

type BatchResult struct {
	Sent   int
	Failed []FailedEntry
}

func (r *BatchResult) OK() bool { return len(r.Failed) == 0 }

// Sender writes batches to SQS queues. One Sender is built per process and
// shared by every invocation.
type Sender struct {
	*Options
	client SQSClient
	logger zerolog.Logger
}

// NewSender uses the configured client, or loads the default AWS config
// when none is set.
func NewSender(ctx context.Context, opts ...Option) (*Sender, error) {
	s := &Sender{Options: NewOptions(opts...)}
	if s.SQSClient != nil {
		s.client = s.SQSClient
	} else {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("sqs: load aws config: %w", err)
		}
		s.client = sqs.NewFromConfig(cfg)
	}
	logger := zerolog.Nop()
	if s.Logger != nil {
		logger = *s.Logger
	}
	s.logger = logger.With().Str("component", "sqs").Logger()
	return s, nil
}

// SendBatch sends up to MaxBatchEntries entries to queueURL in one call.
// Entry ids are the entry's index in the batch.
func (s *Sender) SendBatch(ctx context.Context, queueURL string, entries []Entry) (*BatchResult, error) {
	if len(entries) > MaxBatchEntries {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyEntries, len(entries), MaxBatchEntries)
	}
	if len(entries) == 0 {
		return &BatchResult{}, nil
	}

	input := &sqs.SendMessageBatchInput{
		QueueUrl: aws.String(queueURL),
		Entries:  make([]types.SendMessageBatchRequestEntry, len(entries)),
	}
	for i, e := range entries {
		input.Entries[i] = types.SendMessageBatchRequestEntry{
			Id:          aws.String(strconv.Itoa(i)),
			MessageBody: aws.String(string(e.Body)),
			MessageAttributes: map[string]types.MessageAttributeValue{
				AttributeQueueType: stringAttribute(e.Category),
				AttributeProductID: stringAttribute(e.ItemID),
			},
		}
	}

	output, err := s.client.SendMessageBatch(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("sqs: send message batch to %s: %w", queueURL, err)
	}

	result := &BatchResult{Sent: len(output.Successful)}
	for _, f := range output.Failed {
		idx, err := strconv.Atoi(aws.ToString(f.Id))
		if err != nil {
			idx = -1
		}
		result.Failed = append(result.Failed, FailedEntry{
			Index:       idx,
			Code:        aws.ToString(f.Code),
			Message:     aws.ToString(f.Message),
			SenderFault: f.SenderFault,
		})
	}

	if s.DebugMode {
		s.logger.Debug().
			Str("queue_url", queueURL).
			Int("entries", len(entries)).
			Int("failed", len(result.Failed)).
			Msg("SendMessageBatch returned")
	}
	return result, nil
}

func stringAttribute(v string) types.MessageAttributeValue {
	if v == "" {
		v = "UNKNOWN"
	}
	return types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(v),
	}
}
