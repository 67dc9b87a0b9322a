package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New creates the application logger: text on stderr, so it never mixes
// with command output or JSON-RPC on stdout.
func New(level slog.Level) *slog.Logger {
	return slog.New(NewHandler(os.Stderr, level, FormatText))
}

// NewHandler builds a handler that reports "error" attributes under "err".
func NewHandler(w io.Writer, level slog.Level, format Format) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps a level name to a slog.Level. An empty name means info;
// "off" and "none" report enabled=false.
func ParseLevel(name string) (level slog.Level, enabled bool, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "off", "none":
		return 0, false, nil
	case "":
		return slog.LevelInfo, true, nil
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, false, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, true, nil
}

// ParseFormat accepts "text", "json" or empty (text).
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("invalid log format %q", name)
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
