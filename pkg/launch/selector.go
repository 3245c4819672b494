// Package launch decides the single shell command used to preview a
// candidate, normalizing port flags so the OS always assigns a free port.
package launch

import (
	"regexp"
	"strings"

	"previewd/pkg/scan"
)

// Command is the selected launch command plus a description of its source.
type Command struct {
	Command string
	Source  string
}

// explicitPortPattern matches a command that already carries a port flag
// with a concrete value; such commands are never rewritten.
var explicitPortPattern = regexp.MustCompile(`(?:^|\s)(?:-p|--port|-l|--listen)[ =]\d`)

// staticToolPattern matches generic static-file-serving tools whose port
// flag is rewritten (or appended) to request port 0.
var staticToolPattern = regexp.MustCompile(`(?:^|\s|/)(serve|http-server|sirv|live-server)(\s|$)`)

var staticToolPortFlag = map[string]string{
	"serve":       "-l 0",
	"http-server": "-p 0",
	"sirv":        "--port 0",
	"live-server": "--port=0",
}

// frameworkTool maps a recognized dev-server tool token appearing in the
// command text to the flag that requests an ephemeral port.
var frameworkPortFlags = []struct {
	token *regexp.Regexp
	flag  string
}{
	{regexp.MustCompile(`(?:^|\s|/)next(\s|$)`), "-p 0"},
	{regexp.MustCompile(`(?:^|\s|/)vite(\s|$)`), "--port 0"},
	{regexp.MustCompile(`(?:^|\s|/)astro(\s|$)`), "--port 0"},
	{regexp.MustCompile(`(?:^|\s|/)remix(\s|$)`), "--port 0"},
	{regexp.MustCompile(`(?:^|\s|/)solid-start(\s|$)`), "--port 0"},
	{regexp.MustCompile(`(?:^|\s|/)(nuxt|nuxi)(\s|$)`), "--port 0"},
	{regexp.MustCompile(`(?:^|\s)webpack[- ]dev[- ]server(\s|$)`), "--port 0"},
	{regexp.MustCompile(`(?:^|\s)ng serve(\s|$)`), "--port 0"},
	{regexp.MustCompile(`(?:^|\s|/)storybook(\s|$)`), "-p 0"},
}

// pmRunPattern matches a package-manager script invocation, which needs a
// "--" separator before pass-through flags.
var pmRunPattern = regexp.MustCompile(`^(?:npm|pnpm|bun) run |^yarn `)

// Select resolves the one command to attempt for a candidate: the chosen
// dev command if present, else the first launch candidate. Returns false
// when nothing resolves; the caller falls back to inline static serving.
func Select(c *scan.Candidate) (Command, bool) {
	var cmd Command
	switch {
	case c.DevCommand != "":
		cmd = Command{Command: c.DevCommand, Source: "dev script"}
	case len(c.LaunchCandidates) > 0:
		first := c.LaunchCandidates[0]
		cmd = Command{Command: first.Command, Source: first.Source}
	default:
		return Command{}, false
	}

	cmd.Command = NormalizePort(cmd.Command, c.Framework)
	return cmd, true
}

// NormalizePort rewrites or appends a port flag so the command requests an
// OS-assigned port. Commands that already specify a port explicitly are
// returned unchanged.
func NormalizePort(command string, framework scan.Framework) string {
	if explicitPortPattern.MatchString(command) {
		return command
	}

	// Framework tokens first: "ng serve" must not be mistaken for the
	// generic "serve" static tool.
	for _, entry := range frameworkPortFlags {
		if entry.token.MatchString(command) {
			return appendFlag(command, entry.flag)
		}
	}

	if m := staticToolPattern.FindStringSubmatch(command); m != nil {
		return appendFlag(command, staticToolPortFlag[m[1]])
	}

	// Script invocations hide the underlying tool; use the framework tag to
	// pick a pass-through flag when the framework is recognized.
	if pmRunPattern.MatchString(command) {
		if flag := frameworkFlag(framework); flag != "" {
			return appendFlag(command, flag)
		}
	}

	return command
}

func frameworkFlag(f scan.Framework) string {
	switch f {
	case scan.FrameworkNext:
		return "-p 0"
	case scan.FrameworkVite, scan.FrameworkSvelteKit, scan.FrameworkVue,
		scan.FrameworkReact, scan.FrameworkAstro, scan.FrameworkRemix,
		scan.FrameworkSolid, scan.FrameworkNuxt, scan.FrameworkAngular:
		return "--port 0"
	default:
		return ""
	}
}

// appendFlag appends a flag to a command, inserting the "--" separator when
// the command is a package-manager script invocation.
func appendFlag(command, flag string) string {
	if pmRunPattern.MatchString(command) && !strings.Contains(command, " -- ") {
		return command + " -- " + flag
	}
	return command + " " + flag
}
