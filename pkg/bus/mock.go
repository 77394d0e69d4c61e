package bus

import (
	"context"
	"sync"

	"github.com/toolroom-io/scanbridge/pkg/log"
)

// MockClient is the hardware-free bus variant. It never opens a network
// connection: Connect always succeeds, Publish records the call for test
// inspection and immediately echoes the message back through the router, so
// end-to-end scan flows can be exercised without a broker.
type MockClient struct {
	mu        sync.Mutex
	connected bool
	published []Message

	router *Router
	logger log.Logger
}

var _ Client = (*MockClient)(nil)

// NewMock creates a mock bus client wired to the given router.
func NewMock(router *Router) *MockClient {
	return &MockClient{
		router: router,
		logger: log.WithName("bus.mock"),
	}
}

// Connect succeeds immediately.
func (c *MockClient) Connect(_ context.Context) error {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.logger.Info("Mock bus connected")
	return nil
}

// Disconnect is idempotent and safe to call before Connect.
func (c *MockClient) Disconnect(_ context.Context) error {
	c.mu.Lock()
	was := c.connected
	c.connected = false
	c.mu.Unlock()
	if was {
		c.logger.Info("Mock bus disconnected")
	}
	return nil
}

// Publish records the message and loops it back synchronously to every
// locally registered subscription that matches the topic.
func (c *MockClient) Publish(ctx context.Context, topic string, payload []byte, qos QoS, retained bool) error {
	msg := Message{Topic: topic, Payload: payload, QoS: qos, Retained: retained}

	c.mu.Lock()
	c.published = append(c.published, msg)
	c.mu.Unlock()

	c.logger.Debug("Mock publish", "topic", topic, "qos", uint8(qos), "retained", retained)
	c.router.DispatchSync(ctx, msg)
	return nil
}

// Subscribe stores the pattern/handler pair in the shared router registry.
func (c *MockClient) Subscribe(_ context.Context, filter string, qos QoS, handler HandlerFunc) error {
	c.router.Add(filter, qos, handler)
	c.logger.Info("Mock subscribed", "filter", filter, "qos", uint8(qos))
	return nil
}

// IsConnected reports the mock connection flag.
func (c *MockClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Published returns a copy of every message published so far.
func (c *MockClient) Published() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.published))
	copy(out, c.published)
	return out
}

// SimulateMessage injects an inbound message as if the broker had delivered
// it, bypassing the publish record. Useful for simulating hardware readers.
func (c *MockClient) SimulateMessage(ctx context.Context, topic string, payload []byte) {
	c.logger.Debug("Simulating inbound message", "topic", topic)
	c.router.DispatchSync(ctx, Message{Topic: topic, Payload: payload})
}
