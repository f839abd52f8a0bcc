package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the default slog logger. JSON when LOG_FORMAT=json, text otherwise.
func Init(service string) *slog.Logger {
	json := strings.ToLower(os.Getenv("LOG_FORMAT")) == "json"
	opts := &slog.HandlerOptions{Level: levelFromEnv()}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
}

func levelFromEnv() slog.Leveler {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
