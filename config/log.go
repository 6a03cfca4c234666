package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sarchlab/chronal/core"
)

// Log configures the structured logger.
type Log struct {
	// Level is one of debug, trace, info, warn or error. Trace sits
	// between info and warn and enables per-tick records.
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// SlogLevel converts the configured level.
func (l Log) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "trace":
		return core.LevelTrace, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", l.Level)
	}
}

// Validate checks the level and the format.
func (l Log) Validate() error {
	if _, err := l.SlogLevel(); err != nil {
		return err
	}

	switch strings.ToLower(l.Format) {
	case "text", "json", "":
		return nil
	default:
		return fmt.Errorf("unknown log format %q", l.Format)
	}
}

// NewHandler creates a handler writing to w.
func (l Log) NewHandler(w io.Writer) (slog.Handler, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(l.Format) == "json" {
		return slog.NewJSONHandler(w, opts), nil
	}

	return slog.NewTextHandler(w, opts), nil
}
