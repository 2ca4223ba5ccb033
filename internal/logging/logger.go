package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New builds the process logger: colorized tint output in the dev
// environment, JSON in prod. APP_ENV is the validated knob that picks
// the handler; the build version only shows up as a JSON attribute.
func New(level slog.Level, appEnv string, version string, appName string) *slog.Logger {
	logger := slog.New(handlerFor(os.Stdout, level, appEnv))
	if appEnv == "dev" {
		return logger.With("app", appName)
	}
	return logger.With(
		"app", appName,
		"version", version,
		"env", appEnv,
	)
}

func handlerFor(w io.Writer, level slog.Level, appEnv string) slog.Handler {
	if appEnv == "dev" {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// ParseLevel maps a LOG_LEVEL string to a slog level.
func ParseLevel(s string) (slog.Level, bool) {
	switch s {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
