package app

import (
	"fmt"
	"io"
	"log/slog"
)

// newLogger builds the session logger writing to outW. Unknown levels and
// formats are rejected rather than replaced by a default, so a mistyped
// flag never hides debug output the experimenter asked for.
func newLogger(levelStr, formatStr string, outW io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch formatStr {
	case "text":
		return slog.New(slog.NewTextHandler(outW, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(outW, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: want text or json", formatStr)
	}
}
