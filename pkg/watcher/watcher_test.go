package watcher

import (
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	w := New()
	w.Debounce = 100 * time.Millisecond

	var fired atomic.Int32
	require.NoError(t, w.Watch(dir, func() { fired.Add(1) }))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "file"+string(rune('a'+i))+".css")
		require.NoError(t, os.WriteFile(name, []byte("body{}"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return fired.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.LessOrEqual(t, fired.Load(), int32(2), "burst should coalesce")
}

func TestWatchIgnoresIrrelevantExtensions(t *testing.T) {
	dir := t.TempDir()

	w := New()
	w.Debounce = 50 * time.Millisecond

	var fired atomic.Int32
	require.NoError(t, w.Watch(dir, func() { fired.Add(1) }))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dump.log"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.sqlite"), []byte("x"), 0644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestWatchPicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()

	w := New()
	w.Debounce = 50 * time.Millisecond

	var fired atomic.Int32
	require.NoError(t, w.Watch(dir, func() { fired.Add(1) }))
	defer w.Stop()

	sub := filepath.Join(dir, "src")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "main.ts"), []byte("export {}"), 0644))

	assert.Eventually(t, func() bool { return fired.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestWatchReplacesPreviousRoot(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	w := New()
	w.Debounce = 50 * time.Millisecond

	var fired atomic.Int32
	require.NoError(t, w.Watch(first, func() { fired.Add(100) }))
	require.NoError(t, w.Watch(second, func() { fired.Add(1) }))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(first, "a.css"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(second, "b.css"), []byte("x"), 0644))

	assert.Eventually(t, func() bool { return fired.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Less(t, fired.Load(), int32(100), "first root must be disposed")
}

func TestStopIdempotent(t *testing.T) {
	w := New()
	w.Stop()

	require.NoError(t, w.Watch(t.TempDir(), func() {}))
	w.Stop()
	w.Stop()
}

func TestCacheBust(t *testing.T) {
	busted := CacheBust("http://127.0.0.1:5173/")
	parsed, err := url.Parse(busted)
	require.NoError(t, err)
	assert.NotEmpty(t, parsed.Query().Get("t"))

	// Re-busting replaces the token rather than stacking parameters.
	time.Sleep(2 * time.Millisecond)
	again := CacheBust(busted)
	reparsed, err := url.Parse(again)
	require.NoError(t, err)
	assert.NotEmpty(t, reparsed.Query().Get("t"))
	assert.Len(t, reparsed.Query()["t"], 1)
	assert.NotEqual(t, parsed.Query().Get("t"), reparsed.Query().Get("t"))
}

func TestCacheBustPreservesExistingQuery(t *testing.T) {
	busted := CacheBust("http://127.0.0.1:5173/app?mode=dev")
	parsed, err := url.Parse(busted)
	require.NoError(t, err)
	assert.Equal(t, "dev", parsed.Query().Get("mode"))
	assert.NotEmpty(t, parsed.Query().Get("t"))
}
