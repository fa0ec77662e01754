// Package observability configures the process-wide structured logger.
package observability

import (
	"fmt"
	"log/slog"
	"os"
)

// Instrument installs the default slog logger with the given level and
// format ("text" or "json"). Output goes to stderr: stdout carries the MCP
// protocol stream and must stay clean.
func Instrument(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unsupported log format: %s", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
