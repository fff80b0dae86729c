package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const serviceName = "eventreservation"

// NewLogger returns the process logger, configured from GO_ENV and LOG_LEVEL.
// Production writes JSON to stdout; any other environment writes text.
func NewLogger() *slog.Logger {
	return newLogger(os.Stdout, os.Getenv("GO_ENV"), os.Getenv("LOG_LEVEL"))
}

func newLogger(w io.Writer, env, levelName string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(levelName)}
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", serviceName)
}

// parseLogLevel accepts debug, info, warn and error in any case, with an optional
// offset such as "info+2". Anything else is info.
func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
