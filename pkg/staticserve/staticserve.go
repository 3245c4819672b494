// Package staticserve is the zero-dependency fallback preview: a loopback
// HTTP server rooted at a project directory, used when a candidate has no
// runnable dev command.
package staticserve

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"previewd/pkg/logutil"
)

// mimeTypes is a fixed table rather than the host OS registry, so previews
// behave the same on every machine. TypeScript and JSX sources are served
// as JavaScript because dev-tool clients request them that way.
var mimeTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".js":    "text/javascript; charset=utf-8",
	".mjs":   "text/javascript; charset=utf-8",
	".ts":    "text/javascript; charset=utf-8",
	".tsx":   "text/javascript; charset=utf-8",
	".jsx":   "text/javascript; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".json":  "application/json; charset=utf-8",
	".svg":   "image/svg+xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".ico":   "image/x-icon",
	".wasm":  "application/wasm",
	".txt":   "text/plain; charset=utf-8",
	".map":   "application/json; charset=utf-8",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// Server serves one project directory on an ephemeral loopback port.
type Server struct {
	root   string
	entry  string
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
	url      string
}

// New prepares a server rooted at dir. entry is the path (relative to dir)
// the base URL should land on; empty means the directory root.
func New(dir, entry string) *Server {
	return &Server{
		root:   dir,
		entry:  entry,
		logger: logutil.NewLogger("staticserve"),
	}
}

// Start binds 127.0.0.1 on an OS-assigned port and begins serving. Returns
// the base URL, with the entry path applied.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.url, nil
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("static server listen: %w", err)
	}

	s.listener = ln
	srv := &http.Server{Handler: s}
	s.httpSrv = srv
	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Debug("static server stopped", "error", serveErr)
		}
	}()

	base := fmt.Sprintf("http://%s/", ln.Addr().String())
	s.url = base
	if s.entry != "" {
		s.url = base + filepath.ToSlash(s.entry)
	}
	s.logger.Debug("static server ready", "root", s.root, "url", s.url)
	return s.url, nil
}

// Stop shuts the server down. Safe to call multiple times and before Start.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	_ = s.httpSrv.Shutdown(ctx)
	cancel()
	s.httpSrv = nil
	s.listener = nil
}

// ServeHTTP resolves the request path inside the root, refusing anything
// that escapes it, falling back to index.html for directory requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target, ok := s.resolve(r.URL.Path)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if info.IsDir() {
		target = filepath.Join(target, "index.html")
		info, err = os.Stat(target)
		if err != nil || info.IsDir() {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
	}

	file, err := os.Open(target)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	if ctype, known := mimeTypes[strings.ToLower(filepath.Ext(target))]; known {
		w.Header().Set("Content-Type", ctype)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Cache-Control", "no-store")

	// ServeContent handles HEAD, ranges, and If-Modified-Since uniformly.
	http.ServeContent(w, r, "", info.ModTime(), file)
}

// resolve maps a URL path to a filesystem path under root, rejecting
// traversal attempts.
func (s *Server) resolve(urlPath string) (string, bool) {
	cleaned := filepath.Clean("/" + strings.TrimPrefix(urlPath, "/"))
	target := filepath.Join(s.root, filepath.FromSlash(cleaned))

	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", false
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", false
	}
	if targetAbs != rootAbs && !strings.HasPrefix(targetAbs, rootAbs+string(filepath.Separator)) {
		return "", false
	}
	return targetAbs, true
}
