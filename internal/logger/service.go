package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Initialize installs the process-wide JSON logger. Logs go to stderr so that
// stdout only carries the deployment report.
func Initialize(level slog.Level) {
	InitializeWithWriter(os.Stderr, level)
}

func InitializeWithWriter(w io.Writer, level slog.Level) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))

	slog.SetDefault(logger)
}

// ParseLevel maps a config value (debug, info, warn, error) to a slog level.
// Unknown values fall back to info.
func ParseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo
	}

	return level
}

func Named(name string) *slog.Logger {
	logger := slog.Default()
	if logger == nil {
		return nil
	}

	return logger.With("name", name)
}
