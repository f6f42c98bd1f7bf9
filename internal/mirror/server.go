package mirror

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skyward/skytrack/internal/httputil"
	"github.com/skyward/skytrack/internal/metrics"
)

const (
	maxConnsPerIP = 4
	maxConnsTotal = 100

	pushInterval = time.Second
	writeTimeout = 5 * time.Second
)

// pageTemplate renders the last frame verbatim inside <pre>. The script
// upgrades to the websocket feed; without script support the meta refresh
// keeps the page live.
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="2">
<title>skytrack mirror</title>
<style>body{background:#111;color:#0f0;margin:12px}pre{font:12px/1.3 monospace;white-space:pre}</style>
</head>
<body>
<pre id="frame">%s</pre>
<script>
(function(){
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function(ev) { document.getElementById("frame").textContent = ev.data; };
  ws.onopen = function() {
    // Websocket is live; stop the meta refresh fallback.
    var m = document.querySelector("meta[http-equiv=refresh]");
    if (m) m.remove();
  };
})();
</script>
</body>
</html>
`

// connLimiter tracks concurrent websocket connections per IP and globally.
type connLimiter struct {
	mu    sync.Mutex
	byIP  map[string]int
	total int
}

func newConnLimiter() *connLimiter {
	return &connLimiter{byIP: make(map[string]int)}
}

func (l *connLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.total >= maxConnsTotal || l.byIP[ip] >= maxConnsPerIP {
		return false
	}
	l.byIP[ip]++
	l.total++
	return true
}

func (l *connLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byIP[ip]--
	l.total--
	if l.byIP[ip] <= 0 {
		delete(l.byIP, ip)
	}
}

// Server is the terminal-mirror HTTP server.
type Server struct {
	httpServer *http.Server
	frames     *FrameStore
	limiter    *connLimiter
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewServer creates a mirror server on addr backed by the frame store.
func NewServer(addr string, frames *FrameStore, logger *slog.Logger) *Server {
	s := &Server{
		frames:  frames,
		limiter: newConnLimiter(),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			// The mirror is a same-origin convenience page.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handlePage)
	mux.HandleFunc("GET /ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           metrics.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying server for shutdown control.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the mirror server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	frame, _ := s.frames.Get()
	if frame == "" {
		frame = "waiting for first frame..."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	fmt.Fprintf(w, pageTemplate, html.EscapeString(frame))
}

// handleWS pushes the current frame once a second until the client goes
// away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := httputil.ClientIP(r)
	if !s.limiter.acquire(ip) {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}
	defer s.limiter.release(ip)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "remote_ip", ip, "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("mirror client connected", "remote_ip", ip)

	// Reader goroutine: drain control frames and detect disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()

	var lastSent time.Time
	for {
		select {
		case <-done:
			s.logger.Info("mirror client disconnected", "remote_ip", ip)
			return
		case <-ticker.C:
			frame, updated := s.frames.Get()
			if frame == "" || !updated.After(lastSent) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				s.logger.Debug("mirror push failed", "remote_ip", ip, "error", err)
				return
			}
			lastSent = updated
		}
	}
}
