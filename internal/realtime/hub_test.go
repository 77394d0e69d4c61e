package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	cfg := &Config{Enabled: true}
	cfg.setDefaults()
	h := NewHub(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func newTestSession(id string, buffer int) *Session {
	return &Session{
		ID:    id,
		rooms: make(map[string]bool),
		send:  make(chan []byte, buffer),
	}
}

func waitForSessions(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.SessionCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session count never reached %d, got %d", want, h.SessionCount())
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := newTestHub(t)

	s := newTestSession("session-1", 4)
	h.Register(s)
	waitForSessions(t, h, 1)

	h.Unregister(s)
	waitForSessions(t, h, 0)

	// The hub closes the send channel on removal.
	_, open := <-s.send
	assert.False(t, open)
}

func TestHub_BroadcastReachesEverySession(t *testing.T) {
	h := newTestHub(t)

	a := newTestSession("a", 4)
	b := newTestSession("b", 4)
	h.Register(a)
	h.Register(b)
	waitForSessions(t, h, 2)

	h.Broadcast(EventScanResult, map[string]string{"tag_uid": "ABC123"})

	for _, s := range []*Session{a, b} {
		select {
		case raw := <-s.send:
			var p Payload
			require.NoError(t, json.Unmarshal(raw, &p))
			assert.Equal(t, EventScanResult, p.Event)
		case <-time.After(2 * time.Second):
			t.Fatalf("session %s never received the broadcast", s.ID)
		}
	}
}

func TestHub_BroadcastRoomFiltersSessions(t *testing.T) {
	h := newTestHub(t)

	in := newTestSession("in-room", 4)
	in.rooms["sensors"] = true
	out := newTestSession("out-of-room", 4)
	h.Register(in)
	h.Register(out)
	waitForSessions(t, h, 2)

	h.BroadcastRoom("sensors", EventSensorData, map[string]float64{"temperature": 21.5})

	select {
	case raw := <-in.send:
		var p Payload
		require.NoError(t, json.Unmarshal(raw, &p))
		assert.Equal(t, EventSensorData, p.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("room member never received the broadcast")
	}

	select {
	case <-out.send:
		t.Fatal("session outside the room received a room broadcast")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_SlowConsumerDoesNotBlockOthers(t *testing.T) {
	h := newTestHub(t)

	slow := newTestSession("slow", 1)
	fast := newTestSession("fast", 8)
	h.Register(slow)
	h.Register(fast)
	waitForSessions(t, h, 2)

	// Fill the slow session's queue; nobody drains it.
	for i := 0; i < 3; i++ {
		h.Broadcast(EventToolStatus, map[string]int{"seq": i})
	}

	// The slow session gets dropped, the fast one keeps receiving.
	waitForSessions(t, h, 1)
	received := 0
	for received < 3 {
		select {
		case <-fast.send:
			received++
		case <-time.After(2 * time.Second):
			t.Fatalf("fast session stalled after %d messages", received)
		}
	}
}

func TestHub_ShutdownClosesSessions(t *testing.T) {
	cfg := &Config{Enabled: true}
	cfg.setDefaults()
	h := NewHub(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	s := newTestSession("s", 4)
	h.Register(s)
	waitForSessions(t, h, 1)

	cancel()
	select {
	case _, open := <-s.send:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("send channel was not closed on shutdown")
	}

	// Broadcasting after shutdown must not block.
	done := make(chan struct{})
	go func() {
		h.Broadcast(EventScanResult, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked after shutdown")
	}
}

func TestNew_SelectsVariantByFlag(t *testing.T) {
	n := New(&Config{Enabled: false})
	_, ok := n.(*Recorder)
	assert.True(t, ok)

	n = New(&Config{Enabled: true})
	_, ok = n.(*Hub)
	assert.True(t, ok)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Broadcast(EventScanResult, "x")
	r.BroadcastRoom("sensors", EventSensorData, "y")

	events := r.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventScanResult, events[0].Event)
	assert.Equal(t, "sensors", events[1].Room)

	r.Reset()
	assert.Empty(t, r.Events())
}
