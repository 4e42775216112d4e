package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestFxWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	w := fxWriter{l: zerolog.New(&buf)}

	n, err := w.Write([]byte("[Fx] PROVIDE\t*bun.DB <= infra.Postgres()\n"))
	assert.NoError(t, err)
	assert.Equal(t, len("[Fx] PROVIDE\t*bun.DB <= infra.Postgres()\n"), n)

	line := gjson.Parse(buf.String())
	assert.Equal(t, "debug", line.Get("level").String())
	assert.Equal(t, "PROVIDE\t*bun.DB <= infra.Postgres()", line.Get("message").String())

	buf.Reset()
	_, _ = w.Write([]byte("[Fx] ERROR\t\tFailed to start: context deadline exceeded\n"))
	assert.Equal(t, "error", gjson.Get(buf.String(), "level").String())

	buf.Reset()
	_, _ = w.Write([]byte("\n"))
	assert.Empty(t, buf.String())
}
