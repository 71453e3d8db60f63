package sqs

import (
	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog"
)

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

type Options struct {
	SQSClient SQSClient
	Logger    *zerolog.Logger
	DebugMode bool
}

var defaultOptions = &Options{
	SQSClient: nil,
	Logger:    nil,
	DebugMode: false,
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

func WithSQSClient(client SQSClient) Option {
	return OptionFunc(func(o *Options) {
		o.SQSClient = client
	})
}

func WithLogger(logger zerolog.Logger) Option {
	return OptionFunc(func(o *Options) {
		o.Logger = &logger
	})
}

func WithDebugMode(debug bool) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = debug
	})
}
