package scan

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"previewd/pkg/config"
	"previewd/pkg/scan/packagemanagers"
)

const hardExclude = config.ScoreHardExclude

// devScriptNames are checked in order; the first present script becomes the
// candidate's dev command.
var devScriptNames = []string{"dev", "start", "serve", "preview"}

// knownDevServerPattern matches script command text that invokes a
// recognized dev-server tool.
var knownDevServerPattern = regexp.MustCompile(`(?i)\b(next|vite|nuxt|nuxi|svelte-kit|remix|solid-start|astro|webpack[- ]dev[- ]server|ng serve|storybook|expo)\b`)

// configHintFiles are framework config filenames recognized as strong
// signals that a directory is a frontend project.
var configHintFiles = []string{
	"vite.config.js", "vite.config.ts", "vite.config.mjs",
	"next.config.js", "next.config.mjs", "next.config.ts",
	"svelte.config.js", "svelte.config.ts",
	"nuxt.config.js", "nuxt.config.ts",
	"remix.config.js", "remix.config.ts",
	"solid.config.js", "solid.config.ts",
	"astro.config.mjs", "astro.config.js", "astro.config.ts",
	"angular.json",
	"webpack.config.js", "webpack.config.ts",
	".storybook/main.js", ".storybook/main.ts",
}

var frontendDeps = []string{
	"react", "vue", "nuxt", "next", "@angular/core", "@sveltejs/kit",
	"vite", "astro", "@remix-run/react", "solid-start", "@solidjs/start",
}

var backendDeps = []string{"express", "fastify", "koa", "@nestjs/core"}

// spaEntryFiles are typical SPA bootstrap files, used only as a scoring
// signal, never as a launch target.
var spaEntryFiles = []string{
	"src/main.tsx", "src/main.ts", "src/main.jsx", "src/main.js",
	"src/index.tsx", "src/index.ts", "src/index.jsx", "src/index.js",
	"src/App.tsx", "src/app.tsx",
}

var frontendDirNames = map[string]bool{"frontend": true, "web": true, "client": true, "app": true}

// ScoreDirectory evaluates a single directory and produces a scored
// Candidate. The result is a pure function of directory contents; a
// hard-excluded directory comes back with the sentinel confidence so the
// scanner can drop it.
func ScoreDirectory(dir string) *Candidate {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	c := &Candidate{
		Directory:      abs,
		PackageManager: Unknown,
		Framework:      FrameworkUnknown,
		Reasons:        []string{},
	}
	if fi, err := os.Stat(abs); err == nil {
		c.modTime = fi.ModTime()
	}

	m := LoadManifest(abs)
	c.PackageName = m.Name()

	// A directory that is itself an editor extension can never be previewed.
	if m.HasEngine("vscode") {
		c.Confidence = hardExclude
		c.Reasons = append(c.Reasons, "exclude:editor-extension")
		return c
	}

	score := 0
	add := func(points int, reason string) {
		score += points
		c.Reasons = append(c.Reasons, reason)
	}

	scriptName, scriptCmd, hasScript := m.FirstScript(devScriptNames...)
	if hasScript {
		add(config.ScoreDevScript, "script:"+scriptName)
		if knownDevServerPattern.MatchString(scriptCmd) {
			add(config.ScoreKnownDevServer, "script:known-devserver")
		}
	}

	hintPoints := 0
	for _, hint := range configHintFiles {
		if fi, err := os.Stat(filepath.Join(abs, hint)); err == nil && !fi.IsDir() {
			c.ConfigHints = append(c.ConfigHints, hint)
			c.Reasons = append(c.Reasons, "config:"+hint)
			hintPoints += config.ScoreConfigHint
		}
	}
	if hintPoints > config.ScoreConfigHintCap {
		hintPoints = config.ScoreConfigHintCap
	}
	score += hintPoints

	hasFrontendDeps := m.HasAnyDependency(frontendDeps...)
	if hasFrontendDeps {
		add(config.ScoreFrontendDeps, "deps:frontend")
		if fi, err := os.Stat(filepath.Join(abs, "node_modules")); err == nil && fi.IsDir() {
			add(config.ScoreInstalledDeps, "deps:installed")
		}
	}

	if entry, ok := FindEntryHTML(abs); ok {
		c.EntryHTML = entry
		if entry == "index.html" {
			add(config.ScoreRootIndexHTML, "html:root")
		} else {
			add(config.ScoreDeepHTML, "html:deep")
		}
	}

	for _, entry := range spaEntryFiles {
		if fi, err := os.Stat(filepath.Join(abs, entry)); err == nil && !fi.IsDir() {
			c.EntryFile = entry
			add(config.ScoreEntryFile, "entry:spa")
			break
		}
	}

	if frontendDirNames[strings.ToLower(filepath.Base(abs))] {
		add(config.ScoreFrontendName, "name:frontend")
	}

	if !hasFrontendDeps && m.HasAnyDependency(backendDeps...) {
		add(config.ScoreBackendOnly, "deps:backend-only")
	}

	if pathDepth(abs) > config.MaxPathDepth {
		add(config.ScoreDeepPath, "path:deep")
	}

	// No usable signal at all: exclude outright rather than offering a
	// zero-confidence candidate.
	if score <= 0 && c.EntryHTML == "" && !hasScript && len(c.ConfigHints) == 0 {
		c.Confidence = hardExclude
		c.Reasons = append(c.Reasons, "exclude:no-signal")
		return c
	}

	c.Confidence = score
	c.Framework = classifyFramework(m, c.ConfigHints)

	if pm := packagemanagers.Detect(abs); pm != "unknown" {
		c.PackageManager = PackageManager(pm)
	}

	buildLaunchCandidates(c, m, scriptName, hasScript)

	return c
}

// buildLaunchCandidates fills DevCommand and the ordered LaunchCandidates
// list, most-specific source first.
func buildLaunchCandidates(c *Candidate, m *Manifest, scriptName string, hasScript bool) {
	pm := string(c.PackageManager)
	if pm == string(Unknown) {
		pm = "npm"
	}

	if hasScript {
		cmd := packagemanagers.RunScriptCommand(pm, scriptName)
		c.DevCommand = cmd
		c.LaunchCandidates = append(c.LaunchCandidates, LaunchCandidate{
			Command: cmd,
			Source:  `package.json "` + scriptName + `" script`,
		})
	} else if tool := frameworkDevTool(c.Framework); tool != "" && len(c.ConfigHints) > 0 {
		c.LaunchCandidates = append(c.LaunchCandidates, LaunchCandidate{
			Command: packagemanagers.ToolCommand(pm, tool),
			Source:  string(c.Framework) + " config",
		})
	}

	if c.EntryHTML != "" {
		c.LaunchCandidates = append(c.LaunchCandidates, LaunchCandidate{
			Command: "npx serve",
			Source:  "static file server fallback",
		})
	}
}

// frameworkDevTool maps a framework tag to the tool invocation that starts
// its dev server when no package.json script exists.
func frameworkDevTool(f Framework) string {
	switch f {
	case FrameworkNext:
		return "next dev"
	case FrameworkVite, FrameworkSvelteKit, FrameworkVue, FrameworkReact:
		return "vite"
	case FrameworkAstro:
		return "astro dev"
	case FrameworkNuxt:
		return "nuxi dev"
	case FrameworkAngular:
		return "ng serve"
	default:
		return ""
	}
}

// classifyFramework derives the coarse framework tag from dependencies
// first, config hints second.
func classifyFramework(m *Manifest, hints []string) Framework {
	switch {
	case m.HasAnyDependency("next"):
		return FrameworkNext
	case m.HasAnyDependency("nuxt"):
		return FrameworkNuxt
	case m.HasAnyDependency("@sveltejs/kit"):
		return FrameworkSvelteKit
	case m.HasAnyDependency("@remix-run/react"):
		return FrameworkRemix
	case m.HasAnyDependency("astro"):
		return FrameworkAstro
	case m.HasAnyDependency("solid-start", "@solidjs/start"):
		return FrameworkSolid
	case m.HasAnyDependency("@angular/core"):
		return FrameworkAngular
	case m.HasAnyDependency("vue"):
		return FrameworkVue
	case m.HasAnyDependency("react") && m.HasAnyDependency("vite"):
		return FrameworkReact
	case m.HasAnyDependency("vite"):
		return FrameworkVite
	case m.HasAnyDependency("react"):
		return FrameworkReact
	}

	for _, hint := range hints {
		switch {
		case strings.HasPrefix(hint, "next.config"):
			return FrameworkNext
		case strings.HasPrefix(hint, "vite.config"):
			return FrameworkVite
		case strings.HasPrefix(hint, "svelte.config"):
			return FrameworkSvelteKit
		case strings.HasPrefix(hint, "nuxt.config"):
			return FrameworkNuxt
		case strings.HasPrefix(hint, "remix.config"):
			return FrameworkRemix
		case strings.HasPrefix(hint, "astro.config"):
			return FrameworkAstro
		case hint == "angular.json":
			return FrameworkAngular
		}
	}

	return FrameworkUnknown
}

func pathDepth(abs string) int {
	clean := filepath.ToSlash(filepath.Clean(abs))
	depth := 0
	for _, seg := range strings.Split(clean, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}

// Less is the stable ranking comparator between two scored candidates.
// Applied in order until a difference is found: confidence, root index.html,
// any dev command, frontend naming, path depth, directory mtime.
func Less(a, b *Candidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}

	aRoot, bRoot := a.EntryHTML == "index.html", b.EntryHTML == "index.html"
	if aRoot != bRoot {
		return aRoot
	}

	aCmd, bCmd := a.DevCommand != "", b.DevCommand != ""
	if aCmd != bCmd {
		return aCmd
	}

	aName := frontendDirNames[strings.ToLower(filepath.Base(a.Directory))]
	bName := frontendDirNames[strings.ToLower(filepath.Base(b.Directory))]
	if aName != bName {
		return aName
	}

	if da, db := pathDepth(a.Directory), pathDepth(b.Directory); da != db {
		return da < db
	}

	return a.modTime.After(b.modTime)
}
