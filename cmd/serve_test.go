package cmd

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartStaticPreview(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>hi</html>"), 0644))

	reloads := make(chan string, 8)
	srv, w, url, err := startStaticPreview(dir, func(u string) {
		select {
		case reloads <- u:
		default:
		}
	})
	require.NoError(t, err)
	defer srv.Stop()
	defer w.Stop()

	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:"))
	assert.True(t, strings.HasSuffix(url, "index.html"))

	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0644))

	select {
	case busted := <-reloads:
		assert.Contains(t, busted, "t=")
	case <-time.After(3 * time.Second):
		t.Fatal("no reload notification after file change")
	}
}

func TestStartStaticPreviewRejectsMissingDir(t *testing.T) {
	_, _, _, err := startStaticPreview(filepath.Join(t.TempDir(), "nope"), func(string) {})
	require.Error(t, err)
}
