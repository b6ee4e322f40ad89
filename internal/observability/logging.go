package observability

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger writing to w.
// format "json" emits one JSON object per line; anything else uses the
// human-friendly console writer. verbose lowers the level to debug.
func NewLogger(w io.Writer, format string, verbose bool) zerolog.Logger {
	var l zerolog.Logger
	if format == "json" {
		l = zerolog.New(w).With().Timestamp().Logger()
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return l.Level(level)
}
