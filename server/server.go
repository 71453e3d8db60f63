package server

import (
	"context"
	"fmt"

	"github.com/aura-studio/mskrouter/httpserver"
	"github.com/aura-studio/mskrouter/msk"
	"github.com/aura-studio/mskrouter/telemetry"
)

func NewOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(options)
		}
	}
	return options
}

// MskOptions returns the router options in apply order. The msk default
// config file comes first when the server config had no msk section, so
// explicit options still override it.
func (o *Options) MskOptions() []msk.Option {
	if o.MskConfigured {
		return o.Msk
	}
	return append([]msk.Option{msk.WithDefaultConfigFile()}, o.Msk...)
}

// Serve starts the router as an MSK Lambda handler, or as a local HTTP
// server when lambda is "http". Telemetry providers are installed first.
func Serve(opts ...Option) error {
	options := NewOptions(opts...)
	mskOpts := options.MskOptions()

	providers, err := telemetry.NewProviders(options.Telemetry)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if providers != nil {
		providers.Install()
		defer providers.Shutdown(context.Background())
		mskOpts = append(mskOpts,
			msk.WithMeterProvider(providers.MeterProvider),
			msk.WithTracerProvider(providers.TracerProvider),
		)
	}

	switch options.Lambda {
	case "http":
		return httpserver.Serve(msk.NewEngine(mskOpts...), options.Http...)
	case "msk":
		fallthrough
	default:
		msk.Serve(mskOpts...)
		return nil
	}
}

func Close() error {
	if err := httpserver.Close(); err != nil {
		return err
	}
	msk.Close()
	return nil
}
