package logger

import (
	"bytes"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx/fxevent"
)

// fxWriter forwards fx's console event log into zerolog. Lifecycle chatter
// (PROVIDE, INVOKE, HOOK...) goes to debug and failures to error.
type fxWriter struct {
	l zerolog.Logger
}

var _ io.Writer = (*fxWriter)(nil)

func Fx() fxevent.Logger {
	return &fxevent.ConsoleLogger{
		W: fxWriter{
			l: log.Logger.
				With().
				Str("evt.name", "fx.lifecycle").
				Logger(),
		},
	}
}

func (w fxWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	p = bytes.TrimRight(p, "\n")
	if len(p) == 0 {
		return n, nil
	}

	evt := w.l.Debug()
	if bytes.Contains(p, []byte("ERROR")) || bytes.Contains(p, []byte("failed")) {
		evt = w.l.Error()
	}
	evt.CallerSkipFrame(0).Msg(string(bytes.TrimPrefix(p, []byte("[Fx] "))))
	return n, nil
}
