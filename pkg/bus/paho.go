package bus

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/toolroom-io/scanbridge/pkg/log"
)

// pahoClient is the real bus variant. Automatic reconnection is disabled on
// purpose: the lifecycle manager owns the reconnect policy and drives it
// through the OnConnectionLost callback, so backoff behaviour stays in one
// place instead of being split between this client and the paho internals.
type pahoClient struct {
	cfg    *Config
	router *Router
	logger log.Logger

	mu     sync.Mutex
	client mqtt.Client
}

var _ Client = (*pahoClient)(nil)

func newPahoClient(cfg *Config, router *Router) *pahoClient {
	return &pahoClient{
		cfg:    cfg,
		router: router,
		logger: log.WithName("bus.mqtt"),
	}
}

// subscribeTimeout bounds the wait for a SUBACK per filter.
const subscribeTimeout = 5 * time.Second

func (c *pahoClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.client == nil {
		c.client = mqtt.NewClient(c.options())
	}
	client := c.client
	c.mu.Unlock()

	if client.IsConnected() {
		return nil
	}

	c.logger.Info("Connecting to broker", "broker", c.cfg.BrokerURL, "clientID", c.cfg.ClientID)

	token := client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("%w: handshake timed out after %s", ErrBrokerUnreachable, c.cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrBrokerUnreachable, err)
	}

	return nil
}

// Disconnect is idempotent; it is a no-op when the client never connected.
func (c *pahoClient) Disconnect(_ context.Context) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return nil
	}

	// Quiesce long enough for in-flight QoS 1 acks to complete.
	client.Disconnect(uint(500))
	c.logger.Info("Disconnected from broker")
	return nil
}

func (c *pahoClient) Publish(ctx context.Context, topic string, payload []byte, qos QoS, retained bool) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	token := client.Publish(topic, byte(qos), retained, payload)
	if qos == AtMostOnce {
		// Fire and forget; the transport gives no acknowledgement to await.
		return nil
	}

	if !token.WaitTimeout(c.cfg.PublishTimeout) {
		return fmt.Errorf("bus: publish to %q not acknowledged within %s", topic, c.cfg.PublishTimeout)
	}
	return token.Error()
}

// Subscribe registers the handler in the router and, when connected, sends
// the SUBSCRIBE packet immediately. When offline the packet is deferred to
// the on-connect handler, which re-issues every registered subscription.
func (c *pahoClient) Subscribe(_ context.Context, filter string, qos QoS, handler HandlerFunc) error {
	c.router.Add(filter, qos, handler)

	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return nil
	}

	token := client.Subscribe(filter, byte(qos), nil)
	if !token.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("bus: subscribe to %q not acknowledged within %s", filter, subscribeTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("bus: failed to subscribe to %q: %w", filter, err)
	}

	c.logger.Info("Subscribed", "filter", filter, "qos", uint8(qos))
	return nil
}

func (c *pahoClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil && c.client.IsConnected()
}

func (c *pahoClient) options() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetUsername(c.cfg.Username).
		SetPassword(c.cfg.Password).
		SetKeepAlive(c.cfg.KeepAlive).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetCleanSession(c.cfg.CleanSession).
		SetAutoReconnect(false).
		SetOrderMatters(false)

	// Every inbound message funnels through the router; per-filter callbacks
	// are never registered with paho directly.
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		payload := make([]byte, len(msg.Payload()))
		copy(payload, msg.Payload())
		c.router.Dispatch(Message{
			Topic:    msg.Topic(),
			Payload:  payload,
			QoS:      QoS(msg.Qos()),
			Retained: msg.Retained(),
		})
	})

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		c.logger.Info("Broker connection established")
		c.resubscribe(client)
		if c.cfg.OnConnectionUp != nil {
			c.cfg.OnConnectionUp()
		}
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.logger.Error(err, "Broker connection lost")
		if c.cfg.OnConnectionLost != nil {
			c.cfg.OnConnectionLost(err)
		}
	})

	if c.cfg.WillTopic != "" {
		opts.SetBinaryWill(c.cfg.WillTopic, c.cfg.WillPayload, byte(c.cfg.WillQoS), c.cfg.WillRetain)
	}

	scheme := strings.ToLower(c.cfg.BrokerURL)
	if strings.HasPrefix(scheme, "tls://") || strings.HasPrefix(scheme, "ssl://") {
		tlsConfig, err := c.newTLSConfig()
		if err != nil {
			c.logger.Error(err, "Failed to build TLS config, proceeding without it")
		} else {
			opts.SetTLSConfig(tlsConfig)
		}
	}

	return opts
}

// resubscribe re-issues every registered subscription after a (re)connect,
// so handlers keep receiving messages without the business layer noticing
// the link ever dropped.
func (c *pahoClient) resubscribe(client mqtt.Client) {
	for _, sub := range c.router.Subscriptions() {
		token := client.Subscribe(sub.Filter, byte(sub.QoS), nil)
		go func(filter string, t mqtt.Token) {
			if t.WaitTimeout(subscribeTimeout) && t.Error() != nil {
				c.logger.Error(t.Error(), "Failed to re-subscribe", "filter", filter)
			} else {
				c.logger.Info("Subscribed", "filter", filter)
			}
		}(sub.Filter, token)
	}
}

func (c *pahoClient) newTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: c.cfg.InsecureSkipVerify}
	if c.cfg.CACertFile != "" {
		caCert, err := os.ReadFile(c.cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert file %s: %w", c.cfg.CACertFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to append CA cert from %s", c.cfg.CACertFile)
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}
