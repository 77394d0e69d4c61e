package bus

import (
	"errors"
	"net/url"
	"time"
)

// Config holds the configuration for creating a bus Client. It is read once
// at startup; the bridge never re-reads configuration at runtime.
type Config struct {
	// Enabled selects the real MQTT client. When false the mock variant is
	// used and no field below is consulted except ClientID (for logging).
	Enabled bool

	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	// KeepAlive is the MQTT keep-alive interval. Default 60s.
	KeepAlive time.Duration

	// ConnectTimeout bounds the initial connection handshake. Default 5s.
	ConnectTimeout time.Duration

	// PublishTimeout bounds the wait for a broker acknowledgement of a
	// QoS >= 1 publish. Default 5s.
	PublishTimeout time.Duration

	// CleanSession requests a clean broker session. Defaults to true; readers
	// that must receive missed scans while offline set it to false.
	CleanSession bool

	// CACertFile is an optional path to a CA certificate for broker
	// verification when connecting over tls://.
	CACertFile string

	// InsecureSkipVerify disables TLS certificate verification. Only for
	// self-signed development brokers.
	InsecureSkipVerify bool

	// Will configures the last-will message announcing an unclean exit.
	WillTopic   string
	WillPayload []byte
	WillQoS     QoS
	WillRetain  bool

	// OnConnectionUp is invoked after each successful connect or reconnect,
	// once subscriptions have been re-established.
	OnConnectionUp func()

	// OnConnectionLost is invoked when an established connection drops.
	// The lifecycle manager uses it to drive reconnection with backoff.
	OnConnectionLost func(err error)
}

func (c *Config) setDefaults() {
	if c.KeepAlive == 0 {
		c.KeepAlive = 60 * time.Second
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.PublishTimeout == 0 {
		c.PublishTimeout = 5 * time.Second
	}
	if c.ClientID == "" {
		c.ClientID = "scanbridge"
	}
}

// Validate checks that the configuration can produce a working real client.
func (c *Config) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker url is required")
	}
	if _, err := url.Parse(c.BrokerURL); err != nil {
		return err
	}
	return nil
}
