// Package watcher triggers preview reloads when source files under a served
// directory change. Dev servers with their own HMR do not need it; it exists
// for static previews.
package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"previewd/pkg/config"
	"previewd/pkg/logutil"
)

// skipDirs are never watched. Watching node_modules would exhaust inotify
// limits on large projects.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".next":        true,
	".nuxt":        true,
	".svelte-kit":  true,
	".output":      true,
	"coverage":     true,
	".cache":       true,
	"__pycache__":  true,
	"vendor":       true,
}

// watchedExts limits reloads to file types that affect what the preview
// renders.
var watchedExts = map[string]bool{
	".html": true, ".htm": true,
	".js": true, ".mjs": true, ".cjs": true,
	".ts": true, ".tsx": true, ".jsx": true,
	".css": true, ".scss": true, ".less": true,
	".json": true, ".svg": true,
	".vue": true, ".svelte": true, ".astro": true,
	".md": true,
}

// Watcher debounces filesystem events under a root and invokes a reload
// callback. One Watcher watches one root; Watch replaces any prior root.
type Watcher struct {
	// Debounce is the quiet period required before the callback fires.
	Debounce time.Duration

	logger *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	stopped bool
}

func New() *Watcher {
	return &Watcher{
		Debounce: config.DefaultReloadDebounce,
		logger:   logutil.NewLogger("watcher"),
	}
}

// Watch begins watching root recursively, calling onChange after each
// debounced burst of relevant events. A previous watch is disposed first.
func (w *Watcher) Watch(root string, onChange func()) error {
	w.disposeCurrent()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := addRecursive(fsw, root); err != nil {
		_ = fsw.Close()
		return err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.stopped = false
	w.mu.Unlock()

	go w.loop(fsw, onChange)
	w.logger.Debug("watching for changes", "root", root)
	return nil
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, onChange func()) {
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, event, onChange)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event, onChange func()) {
	// New directories must be added to the watch set as they appear.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skipDirs[filepath.Base(event.Name)] {
				_ = addRecursive(fsw, event.Name)
			}
			return
		}
	}

	if !watchedExts[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.Debounce, func() {
		w.logger.Debug("change detected", "file", event.Name)
		onChange()
	})
}

// Stop ends the current watch. Safe to call multiple times and before Watch.
func (w *Watcher) Stop() {
	w.disposeCurrent()
}

func (w *Watcher) disposeCurrent() {
	w.mu.Lock()
	fsw := w.fsw
	w.fsw = nil
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if fsw != nil {
		_ = fsw.Close()
	}
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if skipDirs[name] || (p != root && strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		// Watch registration failures on individual subdirectories are
		// tolerated; the rest of the tree still reloads.
		_ = fsw.Add(p)
		return nil
	})
}

// CacheBust appends or replaces a cache-busting query parameter so an
// embedded preview frame cannot serve the page from cache after a reload.
func CacheBust(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := parsed.Query()
	q.Set("t", fmt.Sprintf("%d", time.Now().UnixMilli()))
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
