// Package bridge exposes the local control surface: a loopback HTTP server
// with websocket notifications, status and candidate queries, an explicit
// choose endpoint, and Prometheus metrics.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"previewd/pkg/config"
	"previewd/pkg/logutil"
	"previewd/pkg/orchestrator"
)

// upgrader only accepts local clients; the server never binds beyond
// loopback, so cross-origin checks reduce to a loopback host check.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return strings.Contains(origin, "127.0.0.1") ||
			strings.Contains(origin, "localhost") ||
			strings.HasPrefix(origin, "vscode-webview://")
	},
}

// Server is the previewd control server.
type Server struct {
	hub    *Hub
	orch   *orchestrator.Orchestrator
	logger *slog.Logger

	mu      sync.Mutex
	httpSrv *http.Server
	addr    string
}

func NewServer(hub *Hub, orch *orchestrator.Orchestrator) *Server {
	return &Server{
		hub:    hub,
		orch:   orch,
		logger: logutil.NewLogger("bridge"),
	}
}

// Start binds the configured loopback address and serves until Stop.
// Returns the bound address.
func (s *Server) Start(addr string) (string, error) {
	if addr == "" {
		addr = config.DefaultBridgeAddr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("bridge listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/candidates", s.handleCandidates)
	mux.HandleFunc("/choose", s.handleChoose)
	mux.Handle("/metrics", promhttp.Handler())

	s.mu.Lock()
	s.httpSrv = &http.Server{Handler: mux}
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if serveErr := s.httpSrv.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Debug("bridge server stopped", "error", serveErr)
		}
	}()

	s.logger.Debug("bridge listening", "addr", s.addr)
	return s.addr, nil
}

// Addr returns the bound address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop shuts the server down and disconnects all clients.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.httpSrv
	s.httpSrv = nil
	s.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(ctx)
		cancel()
	}
	s.hub.Close()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	s.hub.add(conn)

	// Drain the read side so pings and close frames are processed; the hub
	// removes the client when a write fails.
	go func() {
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				s.hub.remove(conn)
				return
			}
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.orch.Status())
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.orch.Candidates())
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Directory string `json:"directory"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Directory == "" {
		http.Error(w, "body must be {\"directory\": \"...\"}", http.StatusBadRequest)
		return
	}

	if err := s.orch.Choose(r.Context(), req.Directory); err != nil {
		writeJSONStatus(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, s.orch.Status())
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
