package dispatch

import (
	"time"

	"github.com/aura-studio/mskrouter/route"
	"github.com/aura-studio/mskrouter/telemetry"
	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

type Options struct {
	MaxWorkers     int
	BatchSize      int
	SendTimeout    time.Duration
	Recorder       telemetry.Recorder
	TracerProvider trace.TracerProvider
	Logger         *zerolog.Logger
}

var defaultOptions = &Options{
	MaxWorkers:  10,
	BatchSize:   route.MaxBatchSize,
	SendTimeout: 30 * time.Second,
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
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = defaultOptions.MaxWorkers
	}
	if o.BatchSize <= 0 || o.BatchSize > route.MaxBatchSize {
		o.BatchSize = route.MaxBatchSize
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = defaultOptions.SendTimeout
	}
	if o.Recorder == nil {
		o.Recorder = telemetry.Noop()
	}
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

func WithRecorder(r telemetry.Recorder) Option {
	return OptionFunc(func(o *Options) {
		o.Recorder = r
	})
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return OptionFunc(func(o *Options) {
		o.TracerProvider = tp
	})
}

func WithLogger(logger zerolog.Logger) Option {
	return OptionFunc(func(o *Options) {
		o.Logger = &logger
	})
}
