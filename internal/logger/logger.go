package logger

import (
	"io"
	"log/slog"
)

// New builds the process logger. format is "pretty" (colored, the default),
// "json" or "text".
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts))
	case "text":
		return slog.New(slog.NewTextHandler(w, opts))
	default:
		return slog.New(NewPrettyHandler(w, opts))
	}
}
