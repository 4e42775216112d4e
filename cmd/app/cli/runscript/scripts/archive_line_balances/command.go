package script_archive_line_balances

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/service"
)

type CommandDeps struct {
	fx.In

	ArchiveService *service.Archive
}

func Command(depsFn func() CommandDeps) *cli.Command {
	return &cli.Command{
		Name:        "archive_line_balances",
		Description: "render one ISO week of line balances to workbooks and archive them to object storage",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "week",
				Usage:    "ISO week number",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "year",
				Usage: "ISO year of the week, defaults to the current one",
			},
		},
		Action: func(ctx *cli.Context) error {
			return run(ctx, depsFn(), ctx.Int("year"), ctx.Int("week"))
		},
	}
}
