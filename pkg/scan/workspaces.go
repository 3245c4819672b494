package scan

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// EnumerateWorkspacePackages resolves monorepo package layouts under root:
// package.json workspace globs, pnpm-workspace.yaml patterns, lerna.json
// packages, and nx project roots. Returns absolute directories that contain
// a package.json. Malformed manifests contribute nothing; they never abort
// enumeration.
func EnumerateWorkspacePackages(root string) []string {
	var globs []string

	globs = append(globs, LoadManifest(root).WorkspaceGlobs()...)
	globs = append(globs, pnpmWorkspaceGlobs(root)...)
	globs = append(globs, lernaGlobs(root)...)

	dirs := resolvePackageGlobs(root, globs)
	dirs = append(dirs, nxProjectRoots(root)...)

	return dirs
}

func pnpmWorkspaceGlobs(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "pnpm-workspace.yaml"))
	if err != nil {
		return nil
	}

	var ws struct {
		Packages []string `yaml:"packages"`
	}
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil
	}
	return ws.Packages
}

func lernaGlobs(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "lerna.json"))
	if err != nil {
		return nil
	}

	var lerna struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &lerna); err != nil {
		return nil
	}
	return lerna.Packages
}

// nxProjectRoots reads nx.json or workspace.json project entries. Both
// formats map project names to either a root path string or an object with
// a "root" field.
func nxProjectRoots(root string) []string {
	var dirs []string

	for _, file := range []string{"workspace.json", "nx.json"} {
		data, err := os.ReadFile(filepath.Join(root, file))
		if err != nil {
			continue
		}

		var doc struct {
			Projects map[string]json.RawMessage `json:"projects"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}

		for _, raw := range doc.Projects {
			var path string
			if err := json.Unmarshal(raw, &path); err != nil {
				var obj struct {
					Root string `json:"root"`
				}
				if err := json.Unmarshal(raw, &obj); err != nil || obj.Root == "" {
					continue
				}
				path = obj.Root
			}

			abs := filepath.Join(root, filepath.FromSlash(path))
			if hasManifest(abs) {
				dirs = append(dirs, abs)
			}
		}
	}

	return dirs
}

// resolvePackageGlobs expands workspace patterns (e.g. "packages/*") to
// concrete directories containing a package.json. Negated patterns ("!...")
// are skipped.
func resolvePackageGlobs(root string, globs []string) []string {
	var dirs []string
	fsys := os.DirFS(root)

	for _, pattern := range globs {
		if pattern == "" || pattern[0] == '!' {
			continue
		}

		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern))
		if err != nil {
			continue
		}

		for _, match := range matches {
			abs := filepath.Join(root, filepath.FromSlash(match))
			if hasManifest(abs) {
				dirs = append(dirs, abs)
			}
		}
	}

	return dirs
}

func hasManifest(dir string) bool {
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, "package.json"))
	return err == nil
}
