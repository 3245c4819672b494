package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"previewd/pkg/scan"
)

func TestNormalizePort(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		framework scan.Framework
		expected  string
	}{
		{
			name:      "explicit port is never rewritten",
			command:   "vite --port 3000",
			framework: scan.FrameworkVite,
			expected:  "vite --port 3000",
		},
		{
			name:      "explicit short port flag is never rewritten",
			command:   "next dev -p 4000",
			framework: scan.FrameworkNext,
			expected:  "next dev -p 4000",
		},
		{
			name:      "bare vite gets ephemeral port",
			command:   "vite",
			framework: scan.FrameworkVite,
			expected:  "vite --port 0",
		},
		{
			name:      "bare next gets ephemeral port",
			command:   "next dev",
			framework: scan.FrameworkNext,
			expected:  "next dev -p 0",
		},
		{
			name:      "npm script gets pass-through separator",
			command:   "npm run dev",
			framework: scan.FrameworkVite,
			expected:  "npm run dev -- --port 0",
		},
		{
			name:      "pnpm script for next",
			command:   "pnpm run dev",
			framework: scan.FrameworkNext,
			expected:  "pnpm run dev -- -p 0",
		},
		{
			name:      "yarn invocation",
			command:   "yarn dev",
			framework: scan.FrameworkVite,
			expected:  "yarn dev -- --port 0",
		},
		{
			name:      "static serve tool",
			command:   "npx serve",
			framework: scan.FrameworkUnknown,
			expected:  "npx serve -l 0",
		},
		{
			name:      "http-server tool",
			command:   "http-server public",
			framework: scan.FrameworkUnknown,
			expected:  "http-server public -p 0",
		},
		{
			name:      "unknown command untouched",
			command:   "npm run dev",
			framework: scan.FrameworkUnknown,
			expected:  "npm run dev",
		},
		{
			name:      "ng serve",
			command:   "ng serve",
			framework: scan.FrameworkAngular,
			expected:  "ng serve --port 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePort(tt.command, tt.framework))
		})
	}
}

func TestSelectPrefersDevCommand(t *testing.T) {
	c := &scan.Candidate{
		DevCommand: "npm run dev",
		Framework:  scan.FrameworkVite,
		LaunchCandidates: []scan.LaunchCandidate{
			{Command: "npx serve", Source: "static file server fallback"},
		},
	}

	cmd, ok := Select(c)
	require.True(t, ok)
	assert.Equal(t, "npm run dev -- --port 0", cmd.Command)
	assert.Equal(t, "dev script", cmd.Source)
}

func TestSelectFallsBackToLaunchCandidates(t *testing.T) {
	c := &scan.Candidate{
		Framework: scan.FrameworkUnknown,
		LaunchCandidates: []scan.LaunchCandidate{
			{Command: "npx serve", Source: "static file server fallback"},
		},
	}

	cmd, ok := Select(c)
	require.True(t, ok)
	assert.Equal(t, "npx serve -l 0", cmd.Command)
	assert.Equal(t, "static file server fallback", cmd.Source)
}

func TestSelectNothingResolvable(t *testing.T) {
	_, ok := Select(&scan.Candidate{})
	assert.False(t, ok)
}
