package bus

import (
	"context"
	"errors"
	"fmt"
)

// QoS is the MQTT delivery guarantee level for a message.
type QoS byte

const (
	// AtMostOnce is fire-and-forget delivery (QoS 0).
	AtMostOnce QoS = iota
	// AtLeastOnce guarantees delivery but may duplicate (QoS 1).
	AtLeastOnce
	// ExactlyOnce guarantees delivery without duplication (QoS 2).
	ExactlyOnce
)

// Message is a single inbound or outbound bus message. It is immutable once
// received; the router and handlers must not mutate it.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      QoS
	Retained bool
}

// HandlerFunc processes one inbound message. A returned error is logged by
// the router and never stops delivery to other matching subscriptions.
type HandlerFunc func(ctx context.Context, topic string, payload []byte) error

// Client is the message bus abstraction. Two implementations exist: a mock
// variant that never touches the network and loops published messages back
// through the router, and a real variant backed by an MQTT broker. The
// variant is chosen once at construction time and never swapped.
type Client interface {
	// Connect establishes the broker connection. It is bounded by the
	// configured connect timeout and returns ErrBrokerUnreachable when the
	// handshake cannot complete in time.
	Connect(ctx context.Context) error

	// Disconnect closes the connection. It is idempotent: calling it twice,
	// or before Connect was ever called, is not an error.
	Disconnect(ctx context.Context) error

	// Publish sends a message to the given topic. It returns ErrNotConnected
	// when called while the client is disconnected.
	Publish(ctx context.Context, topic string, payload []byte, qos QoS, retained bool) error

	// Subscribe registers a handler for a topic filter ('+' and '#'
	// wildcards supported). Registration before Connect is allowed; the real
	// client sends the SUBSCRIBE packet once connected and re-sends it after
	// every reconnect.
	Subscribe(ctx context.Context, filter string, qos QoS, handler HandlerFunc) error

	// IsConnected reports whether the client currently holds a live
	// connection. The mock variant reports true after Connect.
	IsConnected() bool
}

// New creates a bus client for the given configuration. Enabled=false yields
// the mock variant; Enabled=true yields the MQTT-backed variant. All inbound
// messages from either variant flow through the supplied router.
func New(cfg *Config, router *Router) (Client, error) {
	if cfg == nil {
		return nil, errors.New("bus config is required")
	}
	if router == nil {
		return nil, errors.New("bus router is required")
	}

	cfg.setDefaults()

	if !cfg.Enabled {
		return NewMock(router), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bus config: %w", err)
	}

	return newPahoClient(cfg, router), nil
}
