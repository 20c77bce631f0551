// Package logging builds the slog loggers handed to async runtimes.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/emberfall/async/config"
)

// FromConfig creates the logger described by cfg, writing to w. Records
// carry the configured backend. A level slog cannot parse falls back to
// info; "warning" is accepted for warn.
func FromConfig(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level(cfg.LogLevel)}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("backend", cfg.Backend)
}

func level(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
