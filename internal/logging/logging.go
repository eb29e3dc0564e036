// Package logging wires zerolog the way the rest of the corpus does:
// one logger built at startup, carried on a context.Context.
package logging

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a console-friendly zerolog.Logger at the given level, falling
// back to info on an unrecognized level string.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(lvl)
}

// WithContext attaches logger to ctx for retrieval via zerolog.Ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}
