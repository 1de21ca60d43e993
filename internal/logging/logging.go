// Package logging sets up the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is warn, which keeps a CLI's stderr quiet by default.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Init builds the logger and installs it as the slog default. An empty level
// falls back to SEV_LOG_LEVEL. SEV_LOG_SINK=file:/path sends output to a
// file instead of stderr.
func Init(level string) *slog.Logger {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv("SEV_LOG_LEVEL")
	}

	var w io.Writer = os.Stderr
	if sink := os.Getenv("SEV_LOG_SINK"); strings.HasPrefix(sink, "file:") {
		path := strings.TrimPrefix(sink, "file:")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err == nil {
			w = f
		} else {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
		}
	}

	log := New(w, level)
	slog.SetDefault(log)
	return log
}
