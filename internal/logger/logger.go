// Package logger provides a configured zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a zerolog.Logger tagged with the service name.  In the dev
// environment output is human readable; elsewhere it is JSON on stdout.
// Unknown level names fall back to info.
func New(serviceName, env, level string) zerolog.Logger {
	var w io.Writer = os.Stdout
	if strings.EqualFold(env, "dev") {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
