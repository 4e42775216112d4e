package app

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"ietool.dev/backend-next/cmd/app/cli/runscript"
	"ietool.dev/backend-next/cmd/app/server"
	"ietool.dev/backend-next/internal/pkg/bininfo"
)

func Run() {
	app := &cli.App{
		Name:        "iebackend",
		Description: "Industrial engineering backend for line layouts, work plans and cycle-time line balancing. Built with Go, fiber, bun and go.uber.org/fx. Uses NATS JetStream for events and Redis for caching and locking.",
		Version:     bininfo.Version,
		Commands: []*cli.Command{
			server.Command(),
			runscript.Command(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
