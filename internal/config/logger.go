package config

import (
	"io"
	"log/slog"
	"os"
)

const serviceName = "faceverify"

// NewLogger writes to stdout: JSON in production, text with source
// locations in development.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: env == EnvDevelopment,
		Level:     slog.LevelDebug,
	}

	var handler slog.Handler
	if env == EnvProduction {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("service", serviceName), slog.String("env", env))
}
