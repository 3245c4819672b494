package scan

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/ini.v1"
)

var (
	scriptPortPattern = regexp.MustCompile(`(?:^|\s)(?:-p|--port|-l|--listen)[ =](\d{2,5})`)
	configPortPattern = regexp.MustCompile(`port\s*:\s*(\d{2,5})`)
)

// PortHints extracts likely dev-server ports for a candidate directory from
// package.json scripts, .env files, and vite/next config. Best effort only:
// hints are tried ahead of the common-port defaults during URL discovery,
// never trusted as authoritative.
func PortHints(dir string) []int {
	var hints []int
	seen := map[int]bool{}
	add := func(port int) {
		if port > 0 && port < 65536 && !seen[port] {
			seen[port] = true
			hints = append(hints, port)
		}
	}

	m := LoadManifest(dir)
	for _, name := range devScriptNames {
		if match := scriptPortPattern.FindStringSubmatch(m.Script(name)); match != nil {
			if port, err := strconv.Atoi(match[1]); err == nil {
				add(port)
			}
		}
	}

	for _, envFile := range []string{".env", ".env.local", ".env.development"} {
		path := filepath.Join(dir, envFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		file, err := ini.LoadSources(ini.LoadOptions{Loose: true, AllowBooleanKeys: true}, path)
		if err != nil {
			continue
		}
		if port, err := file.Section("").Key("PORT").Int(); err == nil {
			add(port)
		}
	}

	for _, cfg := range []string{
		"vite.config.js", "vite.config.ts", "vite.config.mjs",
		"next.config.js", "next.config.mjs",
	} {
		data, err := os.ReadFile(filepath.Join(dir, cfg))
		if err != nil {
			continue
		}
		if match := configPortPattern.FindSubmatch(data); match != nil {
			if port, err := strconv.Atoi(string(match[1])); err == nil {
				add(port)
			}
		}
	}

	return hints
}
