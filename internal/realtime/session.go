package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// maxMessageSize is the maximum inbound message size in bytes. Browsers only
// send small join/leave control frames.
const maxMessageSize = 4096

// controlMessage is the JSON envelope sent by the frontend to join or leave
// a room.
type controlMessage struct {
	Action string `json:"action"` // "join" | "leave"
	Room   string `json:"room"`   // e.g. "readers", "sensors"
}

// Session represents a single WebSocket connection.
type Session struct {
	ID         string
	remoteAddr string

	conn   *websocket.Conn
	rooms  map[string]bool
	roomMu sync.RWMutex
	send   chan []byte
	hub    *Hub
}

// NewSession creates a Session bound to the hub. The caller still has to
// Register it and start both pumps.
func NewSession(hub *Hub, conn *websocket.Conn) *Session {
	return &Session{
		ID:         uuid.New().String(),
		remoteAddr: conn.RemoteAddr().String(),
		conn:       conn,
		rooms:      make(map[string]bool),
		send:       make(chan []byte, hub.cfg.SendBufferSize),
		hub:        hub,
	}
}

// InRoom reports whether this session joined room.
func (s *Session) InRoom(room string) bool {
	s.roomMu.RLock()
	defer s.roomMu.RUnlock()
	return s.rooms[room]
}

// ReadPump pumps control messages from the WebSocket connection to the hub.
// It runs in its own goroutine per session.
func (s *Session) ReadPump() {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongTimeout))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.logger.Warn("session read error", "session", s.ID, "err", err)
			}
			break
		}

		var cm controlMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			s.hub.logger.Warn("invalid control message", "session", s.ID, "err", err)
			continue
		}

		switch cm.Action {
		case "join":
			s.roomMu.Lock()
			s.rooms[cm.Room] = true
			s.roomMu.Unlock()
		case "leave":
			s.roomMu.Lock()
			delete(s.rooms, cm.Room)
			s.roomMu.Unlock()
		default:
			s.hub.logger.Warn("unknown control action", "session", s.ID, "action", cm.Action)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection. It runs
// in its own goroutine per session.
func (s *Session) WritePump() {
	ticker := time.NewTicker(s.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if !ok {
				// Hub closed the channel.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
