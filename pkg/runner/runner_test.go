package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner() *Runner {
	r := New()
	r.DiscoveryTimeout = 5 * time.Second
	r.ReachTimeout = 5 * time.Second
	return r
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process tests use /bin/sh")
	}
}

func TestStartDiscoversURLFromOutput(t *testing.T) {
	requireShell(t)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	r := newTestRunner()
	command := fmt.Sprintf("echo 'Local:   %s/'; sleep 30", backend.URL)

	handle, err := r.Start(context.Background(), t.TempDir(), command, nil)
	require.NoError(t, err)
	defer handle.Stop()

	assert.Equal(t, backend.URL+"/", handle.URL)
	assert.Equal(t, handle.URL, handle.ExternalURL)
	assert.Same(t, handle, r.Active())
}

func TestStartFailsWhenProcessExitsEarly(t *testing.T) {
	requireShell(t)

	r := newTestRunner()
	_, err := r.Start(context.Background(), t.TempDir(), "echo 'boom'; exit 3", nil)
	require.Error(t, err)

	var startErr *StartError
	require.True(t, errors.As(err, &startErr))
	assert.Equal(t, "spawn", startErr.Stage)
	assert.Contains(t, startErr.LogTail, "boom")
	assert.Nil(t, r.Active())
}

func TestStartFailsOnDiscoveryTimeout(t *testing.T) {
	requireShell(t)

	r := newTestRunner()
	r.DiscoveryTimeout = 500 * time.Millisecond

	_, err := r.Start(context.Background(), t.TempDir(), "sleep 30", nil)
	require.Error(t, err)

	var startErr *StartError
	require.True(t, errors.As(err, &startErr))
	assert.Equal(t, "discover-url", startErr.Stage)
	assert.Nil(t, r.Active())
}

func TestStartFailsWhenURLUnreachable(t *testing.T) {
	requireShell(t)

	r := newTestRunner()
	r.ReachTimeout = time.Second

	// Port 1 on loopback is essentially never bound.
	_, err := r.Start(context.Background(), t.TempDir(), "echo 'Local: http://127.0.0.1:1/'; sleep 30", nil)
	require.Error(t, err)

	var startErr *StartError
	require.True(t, errors.As(err, &startErr))
	assert.Equal(t, "verify", startErr.Stage)
	assert.Nil(t, r.Active())
}

func TestStartStopsPreviousProcess(t *testing.T) {
	requireShell(t)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer backend.Close()

	r := newTestRunner()
	command := fmt.Sprintf("echo 'Local: %s/'; sleep 30", backend.URL)

	first, err := r.Start(context.Background(), t.TempDir(), command, nil)
	require.NoError(t, err)

	second, err := r.Start(context.Background(), t.TempDir(), command, nil)
	require.NoError(t, err)
	defer second.Stop()

	assert.NotSame(t, first, second)
	assert.Same(t, second, r.Active())
}

func TestHandleStopIdempotent(t *testing.T) {
	requireShell(t)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer backend.Close()

	r := newTestRunner()
	command := fmt.Sprintf("echo 'Local: %s/'; sleep 30", backend.URL)

	handle, err := r.Start(context.Background(), t.TempDir(), command, nil)
	require.NoError(t, err)

	handle.Stop()
	handle.Stop()
	r.StopActive()
	assert.Nil(t, r.Active())
}

func TestResolverMapsExternalURL(t *testing.T) {
	requireShell(t)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer backend.Close()

	r := newTestRunner()
	r.Resolver = func(localURL string) string { return "https://tunnel.example/" }

	handle, err := r.Start(context.Background(), t.TempDir(),
		fmt.Sprintf("echo 'Local: %s/'; sleep 30", backend.URL), nil)
	require.NoError(t, err)
	defer handle.Stop()

	assert.Equal(t, "https://tunnel.example/", handle.ExternalURL)
	assert.Equal(t, backend.URL+"/", handle.URL)
}

func TestPortList(t *testing.T) {
	ports := portList([]int{5200, 3000})
	require.NotEmpty(t, ports)
	assert.Equal(t, 5200, ports[0], "hints come first")
	assert.Equal(t, 3000, ports[1])

	seen := map[int]bool{}
	for _, p := range ports {
		assert.False(t, seen[p], "port %d duplicated", p)
		seen[p] = true
	}
}

func TestLogSinkTail(t *testing.T) {
	sink := newLogSink()
	for i := 0; i < 10; i++ {
		sink.Append(fmt.Sprintf("line %d", i))
	}

	tail := sink.Tail(3)
	assert.Equal(t, "line 7\nline 8\nline 9", tail)
	assert.Equal(t, "", newLogSink().Tail(5))
}
