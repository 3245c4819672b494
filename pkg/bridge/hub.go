package bridge

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"previewd/pkg/logutil"
	"previewd/pkg/metrics"
	"previewd/pkg/orchestrator"
)

// Event is the wire format pushed to connected clients.
type Event struct {
	Type    string `json:"type"` // "devurl", "ui-phase", "ui-error"
	Payload string `json:"payload"`
}

// Hub fans orchestrator events out to websocket clients. It remembers the
// last devurl and phase so a client that connects late still learns the
// current state.
type Hub struct {
	logger *slog.Logger

	mu        sync.Mutex
	clients   map[*websocket.Conn]string
	lastURL   *Event
	lastPhase *Event
}

var _ orchestrator.Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		logger:  logutil.NewLogger("bridge"),
		clients: map[*websocket.Conn]string{},
	}
}

// DevURL implements orchestrator.Notifier.
func (h *Hub) DevURL(url string) {
	h.broadcast(Event{Type: "devurl", Payload: url}, true)
}

// Phase implements orchestrator.Notifier.
func (h *Hub) Phase(phase orchestrator.UIPhase) {
	h.broadcast(Event{Type: "ui-phase", Payload: string(phase)}, true)
}

// Error implements orchestrator.Notifier. Errors are not replayed; a client
// connecting later sees the resulting phase instead.
func (h *Hub) Error(message string) {
	h.broadcast(Event{Type: "ui-error", Payload: message}, false)
}

func (h *Hub) broadcast(event Event, remember bool) {
	h.mu.Lock()
	if remember {
		e := event
		switch event.Type {
		case "devurl":
			h.lastURL = &e
		case "ui-phase":
			h.lastPhase = &e
		}
	}
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Debug("dropping client", "error", err)
			h.remove(conn)
		}
	}
}

// add registers a client and replays the last known state to it.
func (h *Hub) add(conn *websocket.Conn) {
	id := uuid.NewString()

	h.mu.Lock()
	h.clients[conn] = id
	replay := make([]Event, 0, 2)
	if h.lastPhase != nil {
		replay = append(replay, *h.lastPhase)
	}
	if h.lastURL != nil {
		replay = append(replay, *h.lastURL)
	}
	h.mu.Unlock()

	metrics.BridgeClients.Inc()
	h.logger.Debug("client connected", "client", id)
	for _, event := range replay {
		if err := conn.WriteJSON(event); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	id, present := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if present {
		metrics.BridgeClients.Dec()
		h.logger.Debug("client disconnected", "client", id)
		_ = conn.Close()
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		h.remove(conn)
	}
}
