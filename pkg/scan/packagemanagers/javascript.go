// Package packagemanagers infers the JavaScript package manager for a
// project directory and synthesizes manager-appropriate commands.
package packagemanagers

import (
	"os"
	"path/filepath"
)

// maxAncestorHops bounds the upward lockfile search for workspace packages
// whose lockfile lives at the monorepo root.
const maxAncestorHops = 5

// Detect infers the package manager from lockfile presence, checking the
// directory itself and then its ancestors. Returns "unknown" when no
// lockfile exists; callers typically fall back to npm semantics for command
// synthesis.
func Detect(root string) string {
	dir := root
	for hop := 0; hop <= maxAncestorHops; hop++ {
		if pm := detectIn(dir); pm != "unknown" {
			return pm
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "unknown"
}

func detectIn(dir string) string {
	fileExists := func(rel string) bool {
		_, err := os.Stat(filepath.Join(dir, rel))
		return err == nil
	}

	switch {
	case fileExists("bun.lockb") || fileExists("bun.lock"):
		return "bun"
	case fileExists("pnpm-lock.yaml"):
		return "pnpm"
	case fileExists(".yarnrc.yml") || fileExists("yarn.lock"):
		return "yarn"
	case fileExists("package-lock.json"):
		return "npm"
	default:
		return "unknown"
	}
}

// RunScriptCommand returns the command that runs a package.json script with
// the given package manager.
func RunScriptCommand(pm string, script string) string {
	switch pm {
	case "bun":
		return "bun run " + script
	case "pnpm":
		return "pnpm run " + script
	case "yarn":
		return "yarn " + script
	default:
		return "npm run " + script
	}
}

// ToolCommand returns the command that invokes a locally-installed tool
// binary (e.g. vite) with the given package manager.
func ToolCommand(pm string, tool string) string {
	switch pm {
	case "bun":
		return "bunx " + tool
	case "pnpm":
		return "pnpm exec " + tool
	case "yarn":
		return "yarn " + tool
	default:
		return "npx " + tool
	}
}
