// Package scan discovers directories that look like runnable or servable
// frontend projects and ranks them by a deterministic confidence score.
package scan

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"previewd/pkg/config"
	"previewd/pkg/logutil"
	"previewd/pkg/metrics"
)

// noiseDirs are never descended into during walks or glob searches.
var noiseDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".next":        true,
	".nuxt":        true,
	".svelte-kit":  true,
	".output":      true,
	".astro":       true,
	"coverage":     true,
	".cache":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"vendor":       true,
	".turbo":       true,
}

// Options configures a scan.
type Options struct {
	// Roots are the directories to scan. Must be non-empty; resolving roots
	// from editor state is the caller's concern.
	Roots []string

	// Exclude lists directories (absolute) that must not reappear in the
	// result, typically because the user already rejected them.
	Exclude []string
}

// Scanner produces ranked candidate lists. Results are cached for a short
// TTL so rapid successive calls reuse one filesystem walk.
type Scanner struct {
	logger *slog.Logger
	cache  *lru.LRU[string, []Candidate]
}

// NewScanner creates a Scanner with the default cache TTL.
func NewScanner() *Scanner {
	return &Scanner{
		logger: logutil.NewLogger("scan"),
		cache:  lru.NewLRU[string, []Candidate](8, nil, config.DefaultScanCacheTTL),
	}
}

// Scan enumerates, scores, and ranks candidates under opts.Roots. Given an
// unchanged filesystem, two scans produce the same ordered list. Unreadable
// directories and malformed manifests skip the affected candidate only.
func (s *Scanner) Scan(opts Options) []Candidate {
	key := cacheKey(opts)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("scan cache hit", "roots", opts.Roots)
		return cached
	}
	metrics.ScansTotal.Inc()

	dirs := map[string]bool{}
	for _, root := range opts.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			s.logger.Debug("skipping unresolvable root", "root", root, "error", err)
			continue
		}
		for _, dir := range s.collectRoot(abs) {
			dirs[resolveDir(dir)] = true
		}
	}

	excluded := map[string]bool{}
	for _, dir := range opts.Exclude {
		excluded[resolveDir(dir)] = true
	}

	candidates := s.scoreAll(dirs, excluded)

	sort.SliceStable(candidates, func(i, j int) bool {
		return Less(&candidates[i], &candidates[j])
	})

	s.cache.Add(key, candidates)
	return candidates
}

// Rescore evaluates a single directory fresh, bypassing the cache. Used by
// the orchestrator to re-validate a remembered directory instead of
// trusting a stale score.
func (s *Scanner) Rescore(dir string) *Candidate {
	return ScoreDirectory(dir)
}

// collectRoot gathers candidate directories under one root: the root
// itself, its workspace packages, a bounded-depth walk, and a capped glob
// search for manifests and HTML documents.
func (s *Scanner) collectRoot(root string) []string {
	seen := map[string]bool{root: true}

	for _, dir := range EnumerateWorkspacePackages(root) {
		seen[dir] = true
	}

	s.walkForProjects(root, seen)
	s.globForProjects(root, seen)

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	return dirs
}

// walkForProjects performs the bounded-depth fallback walk that catches
// plain nested project folders with no monorepo manifest.
func (s *Scanner) walkForProjects(root string, seen map[string]bool) {
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if noiseDirs[d.Name()] || (p != root && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		if rel != "." && strings.Count(filepath.ToSlash(rel), "/") >= config.MaxScanDepth {
			return filepath.SkipDir
		}

		if hasManifest(p) || hasRootHTML(p) {
			seen[p] = true
		}
		return nil
	})
}

// globForProjects is the complementary fast path: bounded doublestar
// searches for manifests and HTML files under the root.
func (s *Scanner) globForProjects(root string, seen map[string]bool) {
	fsys := os.DirFS(root)

	manifests, err := doublestar.Glob(fsys, "**/package.json")
	if err == nil {
		if len(manifests) > config.MaxManifestResults {
			manifests = manifests[:config.MaxManifestResults]
		}
		for _, match := range manifests {
			if pathHasNoise(match) {
				continue
			}
			seen[filepath.Join(root, filepath.FromSlash(filepath.Dir(match)))] = true
		}
	}

	htmls, err := doublestar.Glob(fsys, "**/*.html")
	if err == nil {
		if len(htmls) > config.MaxHTMLResults {
			htmls = htmls[:config.MaxHTMLResults]
		}
		for _, match := range htmls {
			if pathHasNoise(match) {
				continue
			}
			// The candidate is the HTML file's directory; scoring decides
			// whether it carries enough signal to keep.
			seen[filepath.Join(root, filepath.FromSlash(filepath.Dir(match)))] = true
		}
	}
}

// scoreAll scores directories concurrently. Scoring is I/O bound (manifest
// and lockfile reads), so a small worker pool overlaps the reads.
func (s *Scanner) scoreAll(dirs map[string]bool, excluded map[string]bool) []Candidate {
	var (
		mu         sync.Mutex
		candidates []Candidate
	)

	g := new(errgroup.Group)
	g.SetLimit(8)

	for dir := range dirs {
		if excluded[resolveDir(dir)] {
			continue
		}
		g.Go(func() error {
			c := ScoreDirectory(dir)
			if c == nil || c.Excluded() {
				return nil
			}
			mu.Lock()
			candidates = append(candidates, *c)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return candidates
}

func cacheKey(opts Options) string {
	roots := append([]string(nil), opts.Roots...)
	sort.Strings(roots)
	excl := append([]string(nil), opts.Exclude...)
	sort.Strings(excl)
	return strings.Join(roots, "\x00") + "\x01" + strings.Join(excl, "\x00")
}

// resolveDir canonicalizes a directory for de-duplication.
func resolveDir(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func hasRootHTML(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".html") {
			return true
		}
	}
	return false
}

func pathHasNoise(rel string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if noiseDirs[seg] {
			return true
		}
	}
	return false
}
