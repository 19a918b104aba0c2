// Package logging builds the root slog.Logger every bootstrap-built app
// hands down to its modules, so every "module"/"layer"/"event" structured
// log line across the repo shares one handler configuration.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"wayfinder/internal/platform/config"
)

// New builds a slog.Logger from cfg, defaulting to JSON output at info
// level when either field is unset or unrecognized.
func New(cfg config.LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
