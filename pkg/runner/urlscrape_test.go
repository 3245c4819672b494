package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractURL(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected string
		found    bool
	}{
		{
			name:     "vite banner",
			output:   "  ➜  Local:   http://localhost:5173/",
			expected: "http://localhost:5173/",
			found:    true,
		},
		{
			name:     "next 12 banner",
			output:   "ready - started server on 0.0.0.0:3000, url: http://localhost:3000",
			expected: "http://localhost:3000",
			found:    true,
		},
		{
			name:     "next 13 banner",
			output:   "- Local:        http://localhost:3000",
			expected: "http://localhost:3000",
			found:    true,
		},
		{
			name:     "generic listening",
			output:   "Server listening on http://127.0.0.1:8080",
			expected: "http://127.0.0.1:8080",
			found:    true,
		},
		{
			name:     "listening at with colon",
			output:   "webpack dev server listening at: http://localhost:8081/",
			expected: "http://localhost:8081/",
			found:    true,
		},
		{
			name:     "bare loopback url in noise",
			output:   "some log line http://localhost:4321/app mentioned",
			expected: "http://localhost:4321/app",
			found:    true,
		},
		{
			name:     "trailing punctuation trimmed",
			output:   "running at http://localhost:3000.",
			expected: "http://localhost:3000",
			found:    true,
		},
		{
			name:   "no url",
			output: "compiling 53 modules...",
			found:  false,
		},
		{
			name:   "non-local url ignored by generic pattern",
			output: "fetching https://registry.npmjs.org/react",
			found:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, ok := ExtractURL(tt.output)
			require.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expected, url)
			}
		})
	}
}

func TestNormalizeLocalURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "zero address rewritten",
			input:    "http://0.0.0.0:3000",
			expected: "http://127.0.0.1:3000/",
		},
		{
			name:     "localhost rewritten",
			input:    "http://localhost:5173/",
			expected: "http://127.0.0.1:5173/",
		},
		{
			name:     "ipv6 loopback rewritten",
			input:    "http://[::1]:8080",
			expected: "http://127.0.0.1:8080/",
		},
		{
			name:     "loopback literal kept",
			input:    "http://127.0.0.1:4321",
			expected: "http://127.0.0.1:4321/",
		},
		{
			name:     "path preserved with trailing slash",
			input:    "http://localhost:3000/app",
			expected: "http://127.0.0.1:3000/app/",
		},
		{
			name:    "non-http scheme rejected",
			input:   "ftp://localhost:21",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLocalURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
