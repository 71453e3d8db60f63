package httpserver

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Invoker runs one raw MSK event payload and returns the encoded response.
type Invoker interface {
	Invoke(ctx context.Context, payload []byte) ([]byte, error)
}

// Engine is a local HTTP front for an Invoker, used to exercise the router
// without Lambda.
type Engine struct {
	*Options
	*gin.Engine
	invoker Invoker
	logger  zerolog.Logger
}

func NewEngine(invoker Invoker, opts ...Option) *Engine {
	options := NewOptions(opts...)
	if !options.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	e := &Engine{
		Options: options,
		Engine:  gin.New(),
		invoker: invoker,
	}
	if e.Logger != nil {
		e.logger = *e.Logger
	} else {
		e.logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	e.logger = e.logger.With().Str("component", "httpserver").Logger()

	e.Use(gin.Recovery(), e.AccessLog)
	e.InstallHandlers()

	return e
}
