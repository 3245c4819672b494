package staticserve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

const placeholderPage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Starting preview</title>
<style>
  body { font-family: system-ui, sans-serif; display: flex; align-items: center;
         justify-content: center; height: 100vh; margin: 0; color: #555; }
  .box { text-align: center; }
  .dot { animation: pulse 1.2s infinite ease-in-out; display: inline-block; }
  @keyframes pulse { 0%, 100% { opacity: .2 } 50% { opacity: 1 } }
</style>
</head>
<body>
<div class="box">
  <h1>Starting preview<span class="dot">&hellip;</span></h1>
  <p>The dev server is warming up. This page refreshes automatically.</p>
</div>
<script>setTimeout(function () { location.reload(); }, 2000);</script>
</body>
</html>
`

// Placeholder serves a minimal auto-refreshing holding page on a loopback
// port while a dev server is still starting.
type Placeholder struct {
	mu      sync.Mutex
	httpSrv *http.Server
	url     string
}

// Start binds an ephemeral port and returns the placeholder URL.
func (p *Placeholder) Start() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.httpSrv != nil {
		return p.url, nil
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("placeholder listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		fmt.Fprint(w, placeholderPage)
	})

	srv := &http.Server{Handler: mux}
	p.httpSrv = srv
	go func() { _ = srv.Serve(ln) }()

	p.url = fmt.Sprintf("http://%s/", ln.Addr().String())
	return p.url, nil
}

// Stop shuts the placeholder down. Safe to call multiple times.
func (p *Placeholder) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.httpSrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	_ = p.httpSrv.Shutdown(ctx)
	cancel()
	p.httpSrv = nil
}
