// Package logging provides the process-wide slog backend: subsystem loggers
// writing to stdout and, optionally, a rotated log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// LogConfig configures the backend.
type LogConfig struct {
	// LogFile is the path of the rotated log file. Empty disables file
	// logging; messages still go to stdout.
	LogFile string

	// DebugLevel is the level applied to every subsystem logger
	// (trace, debug, info, warn, error, critical). Defaults to info.
	DebugLevel string

	// MaxLogRolls is how many rotated files to keep. Defaults to 3.
	MaxLogRolls int
}

// LogBackend hands out subsystem loggers sharing one writer and level.
type LogBackend struct {
	backend *slog.Backend
	rotator *rotator.Rotator
	level   slog.Level

	mu      sync.Mutex
	loggers map[string]slog.Logger
}

// logWriter fans log output out to stdout and the rotator.
type logWriter struct {
	r *rotator.Rotator
}

func (w *logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if w.r != nil {
		return w.r.Write(p)
	}
	return len(p), nil
}

// NewLogBackend creates the backend, opening the rotated log file when one
// is configured.
func NewLogBackend(cfg LogConfig) (*LogBackend, error) {
	level := slog.LevelInfo
	if cfg.DebugLevel != "" {
		parsed, ok := slog.LevelFromString(cfg.DebugLevel)
		if !ok {
			return nil, fmt.Errorf("invalid debug level %q", cfg.DebugLevel)
		}
		level = parsed
	}

	b := &LogBackend{
		level:   level,
		loggers: make(map[string]slog.Logger),
	}

	var w io.Writer = &logWriter{}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		maxRolls := cfg.MaxLogRolls
		if maxRolls == 0 {
			maxRolls = 3
		}
		r, err := rotator.New(cfg.LogFile, 10*1024, false, maxRolls)
		if err != nil {
			return nil, fmt.Errorf("open log rotator: %w", err)
		}
		b.rotator = r
		w = &logWriter{r: r}
	}

	b.backend = slog.NewBackend(w)
	return b, nil
}

// Logger returns the logger for a subsystem tag, creating it on first use.
func (b *LogBackend) Logger(subsystem string) slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()

	if logger, ok := b.loggers[subsystem]; ok {
		return logger
	}
	logger := b.backend.Logger(subsystem)
	logger.SetLevel(b.level)
	b.loggers[subsystem] = logger
	return logger
}

// Close flushes and closes the rotated log file, if any.
func (b *LogBackend) Close() error {
	if b.rotator != nil {
		return b.rotator.Close()
	}
	return nil
}
