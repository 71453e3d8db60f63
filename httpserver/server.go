package httpserver

import (
	"context"
	"net/http"
	"time"
)

var srv *http.Server

func Serve(invoker Invoker, opts ...Option) error {
	e := NewEngine(invoker, opts...)
	srv = &http.Server{
		Addr:    e.Address,
		Handler: e,
	}

	e.logger.Info().Str("addr", e.Address).Msg("Serving router over HTTP")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
