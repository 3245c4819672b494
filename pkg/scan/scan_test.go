package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"previewd/pkg/metrics"
)

// createTestProject writes a fixture tree into a temp dir and returns its
// path. Keys are slash-separated relative paths.
func createTestProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestScanMonorepoRanking(t *testing.T) {
	root := createTestProject(t, map[string]string{
		"pnpm-workspace.yaml": "packages:\n  - \"packages/*\"\n",
		"package.json":        `{"name": "mono", "private": true}`,
		"pnpm-lock.yaml":      "",
		"packages/web/package.json": `{
			"name": "web",
			"scripts": {"dev": "vite"},
			"dependencies": {"react": "^18.0.0"},
			"devDependencies": {"vite": "^5.0.0"}
		}`,
		"packages/web/index.html":   "<html></html>",
		"packages/web/src/main.tsx": "export {}",
		"packages/api/package.json": `{
			"name": "api",
			"scripts": {"start": "node server.js"},
			"dependencies": {"express": "^4.0.0"}
		}`,
		"packages/ext/package.json": `{
			"name": "ext",
			"engines": {"vscode": "^1.80.0"},
			"scripts": {"dev": "vite"}
		}`,
		"node_modules/somepkg/package.json": `{"name": "somepkg", "scripts": {"dev": "vite"}}`,
	})

	candidates := NewScanner().Scan(Options{Roots: []string{root}})
	require.NotEmpty(t, candidates)

	dirs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		dirs = append(dirs, c.Directory)
	}

	web, _ := filepath.EvalSymlinks(filepath.Join(root, "packages", "web"))
	assert.Equal(t, web, mustResolve(t, candidates[0].Directory), "web app should rank first")
	assert.Equal(t, Pnpm, candidates[0].PackageManager)
	assert.Equal(t, "pnpm run dev", candidates[0].DevCommand)

	for _, dir := range dirs {
		assert.NotContains(t, dir, "node_modules")
		assert.NotContains(t, dir, string(filepath.Separator)+"ext")
	}
}

func TestScanDeterministicOrder(t *testing.T) {
	root := createTestProject(t, map[string]string{
		"a/package.json": `{"name": "a", "scripts": {"dev": "vite"}, "devDependencies": {"vite": "1"}}`,
		"a/index.html":   "<html></html>",
		"b/package.json": `{"name": "b", "scripts": {"dev": "vite"}, "devDependencies": {"vite": "1"}}`,
		"b/index.html":   "<html></html>",
	})

	first := NewScanner().Scan(Options{Roots: []string{root}})
	second := NewScanner().Scan(Options{Roots: []string{root}})

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Directory, second[i].Directory)
		assert.Equal(t, first[i].Confidence, second[i].Confidence)
	}
}

func TestScanExcludesRejectedDirectories(t *testing.T) {
	root := createTestProject(t, map[string]string{
		"web/package.json": `{"name": "web", "scripts": {"dev": "vite"}, "devDependencies": {"vite": "1"}}`,
		"web/index.html":   "<html></html>",
	})

	webDir := filepath.Join(root, "web")
	candidates := NewScanner().Scan(Options{
		Roots:   []string{root},
		Exclude: []string{webDir},
	})

	for _, c := range candidates {
		assert.NotEqual(t, mustResolve(t, webDir), mustResolve(t, c.Directory))
	}
}

func TestScanCacheReturnsSameSlice(t *testing.T) {
	root := createTestProject(t, map[string]string{
		"web/package.json": `{"name": "web", "scripts": {"dev": "vite"}}`,
	})

	s := NewScanner()
	first := s.Scan(Options{Roots: []string{root}})
	second := s.Scan(Options{Roots: []string{root}})
	assert.Equal(t, first, second)
}

func TestScanCounterSkipsCacheHits(t *testing.T) {
	root := createTestProject(t, map[string]string{
		"web/package.json": `{"name": "web", "scripts": {"dev": "vite"}}`,
	})

	s := NewScanner()
	before := testutil.ToFloat64(metrics.ScansTotal)

	s.Scan(Options{Roots: []string{root}})
	s.Scan(Options{Roots: []string{root}})

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ScansTotal))
}

func mustResolve(t *testing.T, dir string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return dir
	}
	return resolved
}
