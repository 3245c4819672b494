package bridge

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"previewd/pkg/orchestrator"
)

func startTestServer(t *testing.T) (*Server, *Hub, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	hub := NewHub()
	orch := orchestrator.New(orchestrator.Options{
		Roots:    []string{t.TempDir()},
		Notifier: hub,
	})
	srv := NewServer(hub, orch)
	addr, err := srv.Start("")
	require.NoError(t, err)
	t.Cleanup(func() {
		srv.Stop()
		orch.Stop()
	})
	return srv, hub, addr
}

func dialWS(t *testing.T, addr string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestHubBroadcast(t *testing.T) {
	_, hub, addr := startTestServer(t)

	conn := dialWS(t, addr)
	// Give the server a moment to register the client.
	time.Sleep(50 * time.Millisecond)

	hub.DevURL("http://127.0.0.1:5173/")

	event := readEvent(t, conn)
	assert.Equal(t, "devurl", event.Type)
	assert.Equal(t, "http://127.0.0.1:5173/", event.Payload)
}

func TestHubReplaysLastStateToLateClient(t *testing.T) {
	_, hub, addr := startTestServer(t)

	hub.Phase(orchestrator.PhaseDefault)
	hub.DevURL("http://127.0.0.1:3000/")

	conn := dialWS(t, addr)

	first := readEvent(t, conn)
	second := readEvent(t, conn)

	assert.Equal(t, "ui-phase", first.Type)
	assert.Equal(t, string(orchestrator.PhaseDefault), first.Payload)
	assert.Equal(t, "devurl", second.Type)
	assert.Equal(t, "http://127.0.0.1:3000/", second.Payload)
}

func TestHubDoesNotReplayErrors(t *testing.T) {
	_, hub, addr := startTestServer(t)

	hub.Error("launch failed")
	hub.Phase(orchestrator.PhaseOnboarding)

	conn := dialWS(t, addr)
	event := readEvent(t, conn)
	assert.Equal(t, "ui-phase", event.Type)
}

func TestStatusEndpoint(t *testing.T) {
	_, _, addr := startTestServer(t)

	resp, err := http.Get("http://" + addr + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status orchestrator.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Nil(t, status.Current)
}

func TestCandidatesEndpoint(t *testing.T) {
	_, _, addr := startTestServer(t)

	resp, err := http.Get("http://" + addr + "/candidates")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChooseEndpointRejectsBadBody(t *testing.T) {
	_, _, addr := startTestServer(t)

	resp, err := http.Post("http://"+addr+"/choose", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/choose")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, addr := startTestServer(t)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
