// Package logger builds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger for the given environment and level name. The dev
// environment gets a human readable console writer; everything else logs
// JSON lines to stdout. Unknown levels fall back to info.
func New(env, level string) zerolog.Logger {
	var w io.Writer = os.Stdout
	if env == "dev" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(w, level).With().Str("env", env).Logger()
}

// NewWithWriter is New without the environment switch.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// TokenRef shortens a secret token to a prefix that is safe to log.
func TokenRef(token string) string {
	if len(token) <= 6 {
		return "***"
	}
	return token[:6] + "..."
}
