// Package applog provides general-purpose application logging.
//
// The TUI owns the terminal, so logs are written to a file
// ($XDG_STATE_HOME/chatdb/logs/app.log unless log.file says otherwise).
// Covers: app start/stop, connections, question cycles and AI calls.
// Anything that may carry credentials goes through Mask first.
package applog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/DachengChen/chatdb/config"
)

// Open creates the log file named by cfg and returns a logger writing to
// it. The returned closer must be closed on shutdown.
func Open(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, cfg.Level), f, nil
}

// New returns a text logger on w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.DateTime,
		NoColor:    true,
	}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel converts a level name to a slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
