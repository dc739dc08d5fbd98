// Package logging builds the zerolog logger shared by the pipeline.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the log level and output format.
type Options struct {
	Level string // trace, debug, info, warn, error
	Debug bool   // overrides Level
	JSON  bool
	Out   io.Writer // defaults to os.Stderr
}

// New returns a logger with pretty console output, or structured JSON when
// opts.JSON is set.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	if opts.JSON {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		return zerolog.New(out).
			Level(level).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: out}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
