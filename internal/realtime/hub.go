package realtime

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/toolroom-io/scanbridge/internal/pkg/metrics"
	"github.com/toolroom-io/scanbridge/pkg/log"
)

var _ Notifier = (*Hub)(nil)

// Hub manages the lifecycle of WebSocket sessions and fans events out to
// them. It is safe for concurrent use; all session bookkeeping happens on the
// Run goroutine.
type Hub struct {
	cfg    *Config
	logger log.Logger

	sessions   map[string]*Session
	register   chan *Session
	unregister chan *Session
	broadcast  chan broadcastMsg

	count atomic.Int64
	done  chan struct{}
}

type broadcastMsg struct {
	room string
	data []byte
}

// NewHub allocates a Hub. Call Run in a goroutine to start the event loop.
func NewHub(cfg *Config) *Hub {
	return &Hub{
		cfg:        cfg,
		logger:     log.WithName("realtime"),
		sessions:   make(map[string]*Session),
		register:   make(chan *Session, 16),
		unregister: make(chan *Session, 16),
		broadcast:  make(chan broadcastMsg, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main event loop. It must be executed in a dedicated
// goroutine and stops when ctx is cancelled, closing every session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case s := <-h.register:
			h.sessions[s.ID] = s
			h.count.Store(int64(len(h.sessions)))
			metrics.LiveSessions.Set(float64(len(h.sessions)))
			h.logger.Info("session registered", "session", s.ID, "remote", s.remoteAddr)

		case s := <-h.unregister:
			h.drop(s, "closed")

		case msg := <-h.broadcast:
			for _, s := range h.sessions {
				if msg.room != "" && !s.InRoom(msg.room) {
					continue
				}
				select {
				case s.send <- msg.data:
				default:
					// Slow consumer. Dropping the session here keeps one
					// stalled browser from holding up everyone else.
					metrics.BroadcastFailuresTotal.Inc()
					h.drop(s, "send queue full")
				}
			}

		case <-ctx.Done():
			for _, s := range h.sessions {
				h.drop(s, "hub shutting down")
			}
			return
		}
	}
}

// drop removes a session from the hub. Must be called from the Run goroutine.
func (h *Hub) drop(s *Session, reason string) {
	if _, ok := h.sessions[s.ID]; !ok {
		return
	}
	delete(h.sessions, s.ID)
	close(s.send)
	h.count.Store(int64(len(h.sessions)))
	metrics.LiveSessions.Set(float64(len(h.sessions)))
	h.logger.Info("session unregistered", "session", s.ID, "reason", reason)
}

// Broadcast implements Notifier. The payload is serialized once and shared by
// every session.
func (h *Hub) Broadcast(event EventType, data any) {
	h.enqueue("", event, data)
}

// BroadcastRoom implements Notifier.
func (h *Hub) BroadcastRoom(room string, event EventType, data any) {
	h.enqueue(room, event, data)
}

func (h *Hub) enqueue(room string, event EventType, data any) {
	raw, err := json.Marshal(Payload{Event: event, Data: data})
	if err != nil {
		h.logger.Error(err, "marshal broadcast payload", "event", event)
		return
	}
	metrics.BroadcastsTotal.WithLabelValues(string(event)).Inc()

	select {
	case h.broadcast <- broadcastMsg{room: room, data: raw}:
	case <-h.done:
	}
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	return int(h.count.Load())
}

// Register hands a new session to the event loop.
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

// Unregister hands a session back for removal.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}
