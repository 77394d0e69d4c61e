// Package realtime fans events out to connected browser sessions.
package realtime

import "time"

// EventType names a browser-facing event.
type EventType string

// Event names shared with the frontend. Changing these values breaks
// deployed dashboards.
const (
	EventScanResult        EventType = "scan_result"
	EventTransactionUpdate EventType = "transaction_update"
	EventToolStatus        EventType = "tool_status"
	EventSensorData        EventType = "sensor_data"
	EventBridgeStatus      EventType = "bridge_status"
)

// Payload is the JSON envelope delivered to every session.
type Payload struct {
	Event EventType `json:"event"`
	Data  any       `json:"data"`
}

// Notifier delivers events to connected sessions. Implementations must never
// let one failing session affect delivery to the others.
type Notifier interface {
	// Broadcast delivers the event to every connected session.
	Broadcast(event EventType, data any)

	// BroadcastRoom delivers the event only to sessions that joined room.
	BroadcastRoom(room string, event EventType, data any)
}

// Config carries the hub settings. The app layer builds it from flags.
type Config struct {
	Enabled        bool
	SendBufferSize int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	PongTimeout    time.Duration
	AllowedOrigins []string
}

func (c *Config) setDefaults() {
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = 64
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongTimeout {
		c.PingInterval = c.PongTimeout * 9 / 10
	}
}

// New selects the notifier variant. The choice is made once at startup; with
// Enabled false broadcasts land in an in-process recorder that tests and the
// mock wiring can inspect.
func New(cfg *Config) Notifier {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if !cfg.Enabled {
		return NewRecorder()
	}
	return NewHub(cfg)
}
