package realtime

import "sync"

var _ Notifier = (*Recorder)(nil)

// Recorded is one captured broadcast.
type Recorded struct {
	Room  string
	Event EventType
	Data  any
}

// Recorder is the mock notifier. It stores every broadcast in memory so the
// mock wiring and tests can assert on what would have reached the browser.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Broadcast implements Notifier.
func (r *Recorder) Broadcast(event EventType, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Event: event, Data: data})
}

// BroadcastRoom implements Notifier.
func (r *Recorder) BroadcastRoom(room string, event EventType, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Room: room, Event: event, Data: data})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
