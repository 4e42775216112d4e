package runscript

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	cliapp "ietool.dev/backend-next/cmd/app/cli"
	script_archive_line_balances "ietool.dev/backend-next/cmd/app/cli/runscript/scripts/archive_line_balances"
)

func depsFn[T any]() func() T {
	return func() T {
		var deps T
		if err := cliapp.Start(fx.Populate(&deps)); err != nil {
			log.Fatal().Err(err).Msg("failed to start dependencies")
		}
		return deps
	}
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "run-script",
		Description: "run maintenance go scripts",
		Subcommands: []*cli.Command{
			script_archive_line_balances.Command(depsFn[script_archive_line_balances.CommandDeps]()),
		},
	}
}
