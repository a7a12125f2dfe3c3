// Package logger builds the zerolog logger used for diagnostics.
package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w. Diagnostics at warn level and
// above are always shown; verbose enables debug progress messages.
func New(w io.Writer, verbose bool, runID string) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	l := zerolog.New(output).Level(level).With().Timestamp()
	if runID != "" {
		l = l.Str("run_id", runID)
	}
	return l.Logger()
}
