package preview_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"previewd/pkg/config"
	"previewd/pkg/launch"
	"previewd/pkg/scan"
)

// writeTree writes a fixture workspace. Keys are slash-separated relative
// paths.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestScanToCommandPipeline(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pnpm-workspace.yaml": "packages:\n  - \"apps/*\"\n",
		"pnpm-lock.yaml":      "",
		"package.json":        `{"name": "workspace", "private": true}`,
		"apps/storefront/package.json": `{
			"name": "storefront",
			"scripts": {"dev": "next dev"},
			"dependencies": {"next": "^14.0.0", "react": "^18.0.0"}
		}`,
		"apps/storefront/next.config.js": "module.exports = {}",
		"apps/admin/package.json": `{
			"name": "admin",
			"scripts": {"dev": "vite"},
			"devDependencies": {"vite": "^5.0.0"}
		}`,
		"apps/admin/index.html": "<html></html>",
		"apps/worker/package.json": `{
			"name": "worker",
			"dependencies": {"express": "^4.0.0"}
		}`,
	})

	candidates := scan.NewScanner().Scan(scan.Options{Roots: []string{root}})
	require.GreaterOrEqual(t, len(candidates), 2)

	names := map[string]scan.Candidate{}
	for _, c := range candidates {
		names[c.PackageName] = c
	}

	storefront, ok := names["storefront"]
	require.True(t, ok, "storefront must be found")
	admin, ok := names["admin"]
	require.True(t, ok, "admin must be found")
	_, workerFound := names["worker"]
	assert.False(t, workerFound, "backend-only worker must be excluded")

	assert.Equal(t, scan.FrameworkNext, storefront.Framework)
	assert.Equal(t, scan.Pnpm, storefront.PackageManager)

	cmd, ok := launch.Select(&storefront)
	require.True(t, ok)
	assert.Equal(t, "pnpm run dev -- -p 0", cmd.Command)

	cmd, ok = launch.Select(&admin)
	require.True(t, ok)
	assert.Equal(t, "pnpm run dev -- --port 0", cmd.Command)
}

func TestStaticSiteFallsBackToServeCommand(t *testing.T) {
	root := writeTree(t, map[string]string{
		"landing/index.html": "<html>landing</html>",
		"landing/style.css":  "body{}",
	})

	candidates := scan.NewScanner().Scan(scan.Options{Roots: []string{root}})
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "index.html", c.EntryHTML)
	assert.Less(t, c.Confidence, config.AutoStartThreshold)

	cmd, ok := launch.Select(&c)
	require.True(t, ok)
	assert.Equal(t, "npx serve -l 0", cmd.Command)
	assert.Equal(t, "static file server fallback", cmd.Source)
}
