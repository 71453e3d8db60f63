package msk

import (
	"os"
	"time"

	"github.com/aura-studio/mskrouter/sqs"
	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

type Options struct {
	SmallQueueURL  string
	MediumQueueURL string
	LargeQueueURL  string

	MaxWorkers  int
	BatchSize   int
	SendTimeout time.Duration

	LogLevel  string
	DebugMode bool

	SQSClient      sqs.SQSClient
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
	Logger         *zerolog.Logger
}

var defaultOptions = &Options{
	MaxWorkers:  10,
	BatchSize:   10,
	SendTimeout: 30 * time.Second,
	LogLevel:    "info",
	DebugMode:   false,
}

func NewOptions(opts ...Option) *Options {
	options := deepcopy.Copy(defaultOptions).(*Options)
	options.init(opts...)
	return options
}

func (o *Options) init(opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(o)
		}
	}
}

func WithQueueURLs(small, medium, large string) Option {
	return OptionFunc(func(o *Options) {
		o.SmallQueueURL = small
		o.MediumQueueURL = medium
		o.LargeQueueURL = large
	})
}

// WithEnv reads SMALL_QUEUE_URL, MEDIUM_QUEUE_URL and LARGE_QUEUE_URL.
// Unset variables leave the current value alone.
func WithEnv() Option {
	return OptionFunc(func(o *Options) {
		if v := os.Getenv("SMALL_QUEUE_URL"); v != "" {
			o.SmallQueueURL = v
		}
		if v := os.Getenv("MEDIUM_QUEUE_URL"); v != "" {
			o.MediumQueueURL = v
		}
		if v := os.Getenv("LARGE_QUEUE_URL"); v != "" {
			o.LargeQueueURL = v
		}
	})
}

func WithMaxWorkers(n int) Option {
	return OptionFunc(func(o *Options) {
		o.MaxWorkers = n
	})
}

func WithBatchSize(n int) Option {
	return OptionFunc(func(o *Options) {
		o.BatchSize = n
	})
}

func WithSendTimeout(d time.Duration) Option {
	return OptionFunc(func(o *Options) {
		o.SendTimeout = d
	})
}

func WithLogLevel(level string) Option {
	return OptionFunc(func(o *Options) {
		o.LogLevel = level
	})
}

func WithDebugMode(debug bool) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = debug
	})
}

func WithSQSClient(client sqs.SQSClient) Option {
	return OptionFunc(func(o *Options) {
		o.SQSClient = client
	})
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(o *Options) {
		o.MeterProvider = provider
	})
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return OptionFunc(func(o *Options) {
		o.TracerProvider = provider
	})
}

func WithLogger(logger zerolog.Logger) Option {
	return OptionFunc(func(o *Options) {
		o.Logger = &logger
	})
}
