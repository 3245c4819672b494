package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Manifest is a narrow accessor over a parsed package.json. Malformed or
// missing manifests degrade to "signal absent" rather than errors: a nil
// *Manifest is safe to call every method on.
type Manifest struct {
	name           string
	scripts        map[string]string
	deps           map[string]string
	engines        map[string]string
	workspaceGlobs []string
}

type manifestFile struct {
	Name             string            `json:"name"`
	Scripts          map[string]string `json:"scripts"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
	Engines          map[string]string `json:"engines"`
	Workspaces       json.RawMessage   `json:"workspaces"`
}

// LoadManifest reads dir/package.json. Returns nil when the file is absent
// or does not parse.
func LoadManifest(dir string) *Manifest {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil
	}

	var raw manifestFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	m := &Manifest{
		name:    raw.Name,
		scripts: raw.Scripts,
		deps:    map[string]string{},
		engines: raw.Engines,
	}

	for _, set := range []map[string]string{raw.Dependencies, raw.DevDependencies, raw.PeerDependencies} {
		for name, version := range set {
			m.deps[name] = version
		}
	}

	m.workspaceGlobs = parseWorkspacesField(raw.Workspaces)

	return m
}

// parseWorkspacesField handles both shapes of the workspaces field:
// ["packages/*"] and {"packages": ["packages/*"]}.
func parseWorkspacesField(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Packages
	}

	return nil
}

// Name returns the package name, or "" when unavailable.
func (m *Manifest) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Script returns the named script's command text, or "".
func (m *Manifest) Script(name string) string {
	if m == nil {
		return ""
	}
	return m.scripts[name]
}

// FirstScript returns the first present script among names, along with its
// command text.
func (m *Manifest) FirstScript(names ...string) (name, command string, ok bool) {
	if m == nil {
		return "", "", false
	}
	for _, n := range names {
		if cmd, present := m.scripts[n]; present && cmd != "" {
			return n, cmd, true
		}
	}
	return "", "", false
}

// HasAnyDependency reports whether any of names appears in the combined
// dependencies, devDependencies, or peerDependencies.
func (m *Manifest) HasAnyDependency(names ...string) bool {
	if m == nil {
		return false
	}
	for _, n := range names {
		if _, ok := m.deps[n]; ok {
			return true
		}
	}
	return false
}

// HasEngine reports whether the manifest declares an engine constraint with
// the given name (e.g. "vscode" marks an editor extension package).
func (m *Manifest) HasEngine(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.engines[name]
	return ok
}

// WorkspaceGlobs returns the workspace patterns declared in the manifest.
func (m *Manifest) WorkspaceGlobs() []string {
	if m == nil {
		return nil
	}
	return m.workspaceGlobs
}
