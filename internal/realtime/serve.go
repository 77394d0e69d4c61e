package realtime

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// ServeWS upgrades an HTTP GET /ws request to a WebSocket connection and
// spawns the read/write pumps for the new session. No authentication is
// performed; the endpoint is meant for a trusted workshop network.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader already wrote the error response.
		return
	}

	s := NewSession(h, conn)
	h.Register(s)

	go s.WritePump()
	go s.ReadPump()
}

// checkOrigin validates the Origin header of an incoming request against the
// configured allow list. An empty list permits same-origin and non-browser
// clients only; a single "*" entry permits everything.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header means a same-origin request or non-browser client.
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}
