package script_archive_line_balances

import (
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/felixge/fgprof"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func run(ctx *cli.Context, deps CommandDeps, year, week int) error {
	http.DefaultServeMux.Handle("/debug/fgprof", fgprof.Handler())
	go func() {
		log.Print(http.ListenAndServe("127.0.0.1:6060", nil))
	}()

	if year == 0 {
		year, _ = time.Now().ISOWeek()
	}

	log.Info().Int("year", year).Int("week", week).Msg("running script")

	result, err := deps.ArchiveService.ArchiveWeek(ctx.Context, year, week)
	if err != nil {
		return errors.Wrap(err, "failed to archive line balances")
	}

	log.Info().
		Str("runId", result.RunID).
		Int("workbooks", len(result.Entries)).
		Msg("script finished")

	return nil
}
