// Package logging provides the process-wide zap logger. The terminal belongs to
// the TUI, so logs go to a file (or nowhere) rather than stdout or stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
	base  = zap.NewNop()
)

// Options controls where logs go.
type Options struct {
	// Path is the log file. Empty disables logging.
	Path string
	// Debug lowers the level from info to debug.
	Debug bool
	// JSON selects the production JSON encoder instead of the console encoder.
	JSON bool
}

// Init replaces the global logger. It is safe to call more than once; the
// previous logger is flushed first.
func Init(opts Options) error {
	if opts.Path == "" {
		set(zap.NewNop())
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	var cfg zap.Config
	if opts.JSON {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{opts.Path}
	cfg.ErrorOutputPaths = []string{opts.Path}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	set(l)
	return nil
}

func set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	base = l
	sugar = l.Sugar()
}

// Get returns the global sugared logger. Before Init it discards everything.
func Get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// L returns the global structured logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Named returns a child logger tagged with the component name.
func Named(component string) *zap.SugaredLogger {
	return Get().Named(component)
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
