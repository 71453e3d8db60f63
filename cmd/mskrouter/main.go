package main

import (
	"os"

	"github.com/aura-studio/mskrouter/msk"
	"github.com/aura-studio/mskrouter/server"
	"github.com/rs/zerolog"
)

func main() {
	err := server.Serve(
		server.WithDefaultServeConfigFile(),
		server.WithMskOptions(msk.WithEnv()),
	)
	if err != nil {
		logger := zerolog.New(os.Stderr)
		logger.Fatal().Err(err).Msg("mskrouter stopped")
	}
}
