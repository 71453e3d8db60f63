package httpserver

import (
	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog"
)

type Option interface {
	Apply(o *Options)
}

type HttpOption func(*Options)

func (f HttpOption) Apply(o *Options) { f(o) }

type Options struct {
	Address   string
	DebugMode bool
	Logger    *zerolog.Logger
}

var defaultOptions = &Options{
	Address:   ":8080",
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

func WithAddress(addr string) Option {
	return HttpOption(func(o *Options) {
		o.Address = addr
	})
}

func WithDebugMode() Option {
	return HttpOption(func(o *Options) {
		o.DebugMode = true
	})
}

func WithLogger(logger zerolog.Logger) Option {
	return HttpOption(func(o *Options) {
		o.Logger = &logger
	})
}
