package logging

import (
	"log/slog"
	"os"
)

// Init installs the default slog logger. Level comes from LOG_LEVEL unless
// an explicit level string is given.
func Init(level string) {
	if level == "" {
		level, _ = os.LookupEnv("LOG_LEVEL")
	}

	l := slog.LevelInfo
	switch level {
	case "dev", "development", "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error", "production", "prod":
		l = slog.LevelError
	}

	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: l,
		}),
	)
	slog.SetDefault(logger)
}
