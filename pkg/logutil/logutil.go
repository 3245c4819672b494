// Package logutil provides component-scoped structured logging over log/slog.
package logutil

import (
	"log/slog"
	"os"
	"sync"
)

var (
	mu     sync.Mutex
	root   *slog.Logger
	levelV = new(slog.LevelVar)
)

// Init configures the process-wide logger. Safe to call more than once; the
// last call wins. Verbose enables debug-level output, as does the
// PREVIEWD_DEBUG environment variable.
func Init(verbose bool) {
	mu.Lock()
	defer mu.Unlock()

	if verbose || os.Getenv("PREVIEWD_DEBUG") != "" {
		levelV.Set(slog.LevelDebug)
	} else {
		levelV.Set(slog.LevelWarn)
	}

	root = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelV}))
}

// Logger returns the process-wide logger, initializing defaults if needed.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if root == nil {
		root = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelV}))
	}
	return root
}

// NewLogger returns a logger scoped to a named component.
func NewLogger(component string) *slog.Logger {
	return Logger().With("component", component)
}
