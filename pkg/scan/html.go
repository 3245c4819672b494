package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"previewd/pkg/config"
)

// harnessSegments are path segments that usually hold demo or test pages
// rather than the application's real entry document.
var harnessSegments = map[string]bool{
	"src":      true,
	"test":     true,
	"tests":    true,
	"example":  true,
	"examples": true,
	"demo":     true,
	"demos":    true,
	"tools":    true,
	"scripts":  true,
}

// FindEntryHTML locates the best servable HTML document under dir and
// returns its slash-separated relative path. A root-level index.html always
// wins; otherwise every *.html outside noise directories is ranked and the
// best one returned.
func FindEntryHTML(dir string) (string, bool) {
	if fi, err := os.Stat(filepath.Join(dir, "index.html")); err == nil && !fi.IsDir() {
		return "index.html", true
	}

	best := ""
	bestScore := 0
	found := 0

	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if noiseDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			return nil
		}

		found++
		if found > config.MaxHTMLResults {
			return filepath.SkipAll
		}

		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if score := rankHTML(rel); best == "" || score > bestScore || (score == bestScore && shallower(rel, best)) {
			best = rel
			bestScore = score
		}
		return nil
	})

	if best == "" {
		return "", false
	}
	return best, true
}

// rankHTML scores a relative HTML path: index.html beats other names,
// shallower beats deeper, public/ gets a small bonus, and harness-like
// segments (src, tests, demos...) are penalized hard.
func rankHTML(rel string) int {
	segments := strings.Split(rel, "/")
	depth := len(segments) - 1
	name := segments[len(segments)-1]

	score := config.HTMLBaseScore - depth*config.HTMLDepthPenalty

	if strings.EqualFold(name, "index.html") {
		score += config.HTMLIndexBonus
	}

	for _, seg := range segments[:len(segments)-1] {
		lower := strings.ToLower(seg)
		if lower == "public" {
			score += config.HTMLPublicBonus
		}
		if harnessSegments[lower] {
			score += config.HTMLHarnessPenalty
			break
		}
	}

	return score
}

func shallower(a, b string) bool {
	da := strings.Count(a, "/")
	db := strings.Count(b, "/")
	if da != db {
		return da < db
	}
	return a < b
}
