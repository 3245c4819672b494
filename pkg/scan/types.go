package scan

import "time"

// PackageManager identifies the JavaScript package manager inferred from
// lockfile presence.
type PackageManager string

const (
	Pnpm    PackageManager = "pnpm"
	Yarn    PackageManager = "yarn"
	Bun     PackageManager = "bun"
	Npm     PackageManager = "npm"
	Unknown PackageManager = "unknown"
)

// Framework is a coarse classification tag derived from dependencies and
// config files. Informational: used for tie-breaking and command synthesis,
// never authoritative.
type Framework string

const (
	FrameworkNext      Framework = "next"
	FrameworkSvelteKit Framework = "sveltekit"
	FrameworkVite      Framework = "vite"
	FrameworkReact     Framework = "react"
	FrameworkVue       Framework = "vue"
	FrameworkAngular   Framework = "angular"
	FrameworkRemix     Framework = "remix"
	FrameworkSolid     Framework = "solid"
	FrameworkAstro     Framework = "astro"
	FrameworkNuxt      Framework = "nuxt"
	FrameworkUnknown   Framework = "unknown"
)

// LaunchCandidate is one way to start a preview for a candidate directory,
// paired with a description of where the command came from.
type LaunchCandidate struct {
	Command string `json:"command"`
	Source  string `json:"source"`
}

// Candidate is a directory judged potentially servable as a frontend
// preview. Identity key is Directory (absolute, resolved).
type Candidate struct {
	Directory        string            `json:"directory"`
	PackageManager   PackageManager    `json:"package_manager"`
	DevCommand       string            `json:"dev_command,omitempty"`
	Framework        Framework         `json:"framework"`
	Confidence       int               `json:"confidence"`
	Reasons          []string          `json:"reasons"`
	PackageName      string            `json:"package_name,omitempty"`
	EntryHTML        string            `json:"entry_html,omitempty"`
	EntryFile        string            `json:"entry_file,omitempty"`
	LaunchCandidates []LaunchCandidate `json:"launch_candidates,omitempty"`
	ConfigHints      []string          `json:"config_hints,omitempty"`

	// modTime is the directory's last modification time, used only as the
	// comparator's tie-break of last resort.
	modTime time.Time
}

// Excluded reports whether the candidate carries the hard-exclusion sentinel.
func (c *Candidate) Excluded() bool {
	return c.Confidence <= hardExclude
}
