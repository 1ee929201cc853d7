package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Services receive it via
// constructor injection; tests swap in a discard handler.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
