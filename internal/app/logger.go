package app

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Unknown levels fall back to info.
// Development output is human-readable, everything else is JSON.
func NewLogger(service, version, level, environment string) zerolog.Logger {
	return newLogger(os.Stdout, service, version, level, environment)
}

func newLogger(w io.Writer, service, version, level, environment string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if environment == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}
