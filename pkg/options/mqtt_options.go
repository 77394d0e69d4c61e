package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"

	"github.com/toolroom-io/scanbridge/pkg/bus"
	"github.com/toolroom-io/scanbridge/pkg/bus/topic"
)

var _ IOptions = (*MqttOptions)(nil)

// MqttOptions contains configuration for the MQTT client and topics.
type MqttOptions struct {
	// Enabled selects the real broker-backed client. When false the bridge
	// runs against the in-process mock bus.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	Broker   string `json:"broker" mapstructure:"broker"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	ClientID string `json:"client-id" mapstructure:"client-id"`

	// Client behavior
	KeepAlive      time.Duration `json:"keep-alive" mapstructure:"keep-alive"`
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	PublishTimeout time.Duration `json:"publish-timeout" mapstructure:"publish-timeout"`
	CleanSession   bool          `json:"clean-session" mapstructure:"clean-session"`

	// CACertFile is the path to a PEM bundle used to verify the broker when
	// connecting over TLS.
	CACertFile string `json:"ca-cert-file" mapstructure:"ca-cert-file"`

	// InsecureSkipVerify controls whether the client verifies the broker's
	// certificate chain and host name. In this mode, TLS is susceptible to
	// man-in-the-middle attacks. This should be used only for testing.
	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`

	// Reconnect policy
	ReconnectBaseDelay time.Duration `json:"reconnect-base-delay" mapstructure:"reconnect-base-delay"`
	ReconnectMaxDelay  time.Duration `json:"reconnect-max-delay" mapstructure:"reconnect-max-delay"`

	// Topic topology. All topics are constructed as {TopicRoot}/{suffix}.
	TopicRoot string `json:"topic-root" mapstructure:"topic-root"`

	// RouterWorkers sets how many dispatch workers drain inbound messages.
	RouterWorkers int `json:"router-workers" mapstructure:"router-workers"`
}

// NewMqttOptions creates a new MqttOptions with default values.
func NewMqttOptions() *MqttOptions {
	return &MqttOptions{
		Enabled:            false,
		Broker:             "tcp://localhost:1883",
		KeepAlive:          60 * time.Second,
		ConnectTimeout:     5 * time.Second,
		PublishTimeout:     5 * time.Second,
		CleanSession:       true,
		ReconnectBaseDelay: 1 * time.Second,
		ReconnectMaxDelay:  60 * time.Second,
		TopicRoot:          topic.DefaultRoot,
		RouterWorkers:      4,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MqttOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Enabled {
		if o.Broker == "" {
			errors = append(errors, fmt.Errorf("mqtt.broker must be set when mqtt is enabled"))
		} else if _, err := url.Parse(o.Broker); err != nil {
			errors = append(errors, fmt.Errorf("invalid mqtt.broker %q: %w", o.Broker, err))
		}
	}
	if o.ReconnectBaseDelay <= 0 {
		errors = append(errors, fmt.Errorf("mqtt.reconnect-base-delay must be positive"))
	}
	if o.ReconnectMaxDelay < o.ReconnectBaseDelay {
		errors = append(errors, fmt.Errorf("mqtt.reconnect-max-delay must be >= mqtt.reconnect-base-delay"))
	}
	if o.RouterWorkers < 1 {
		errors = append(errors, fmt.Errorf("mqtt.router-workers must be at least 1"))
	}

	return errors
}

// AddFlags adds flags for MqttOptions to the specified FlagSet.
func (o *MqttOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "mqtt.enabled", o.Enabled, "Connect to a real MQTT broker instead of the in-process mock bus.")
	fs.StringVar(&o.Broker, "mqtt.broker", o.Broker, "The URL of the MQTT broker.")
	fs.StringVar(&o.Username, "mqtt.username", o.Username, "The username for MQTT authentication.")
	fs.StringVar(&o.Password, "mqtt.password", o.Password, "The password for MQTT authentication.")
	fs.StringVar(&o.ClientID, "mqtt.client-id", o.ClientID, "Explicit Client ID (optional, usually generated).")

	fs.DurationVar(&o.KeepAlive, "mqtt.keep-alive", o.KeepAlive, "MQTT Keep Alive interval.")
	fs.DurationVar(&o.ConnectTimeout, "mqtt.connect-timeout", o.ConnectTimeout, "Timeout for establishing the MQTT connection.")
	fs.DurationVar(&o.PublishTimeout, "mqtt.publish-timeout", o.PublishTimeout, "Timeout for broker publish acknowledgements.")
	fs.BoolVar(&o.CleanSession, "mqtt.clean-session", o.CleanSession, "Start each connection with a clean broker session.")
	fs.StringVar(&o.CACertFile, "mqtt.ca-cert-file", o.CACertFile, "Path to a CA bundle used to verify the broker certificate.")
	fs.BoolVar(&o.InsecureSkipVerify, "mqtt.insecure-skip-verify", o.InsecureSkipVerify, "If true, skips the TLS certificate verification.")

	fs.DurationVar(&o.ReconnectBaseDelay, "mqtt.reconnect-base-delay", o.ReconnectBaseDelay, "Initial delay before the first reconnect attempt.")
	fs.DurationVar(&o.ReconnectMaxDelay, "mqtt.reconnect-max-delay", o.ReconnectMaxDelay, "Upper bound for the reconnect backoff delay.")

	// Topics
	fs.StringVar(&o.TopicRoot, "mqtt.topic-root", o.TopicRoot, "Namespace prefix for all bridge topics.")
	fs.IntVar(&o.RouterWorkers, "mqtt.router-workers", o.RouterWorkers, "Number of workers draining inbound messages.")
}

// ToBusConfig converts the options into the bus client configuration.
// Lifecycle callbacks are left nil and wired up by the bridge.
func (o *MqttOptions) ToBusConfig() *bus.Config {
	return &bus.Config{
		Enabled:            o.Enabled,
		BrokerURL:          o.Broker,
		ClientID:           o.ClientID,
		Username:           o.Username,
		Password:           o.Password,
		KeepAlive:          o.KeepAlive,
		ConnectTimeout:     o.ConnectTimeout,
		PublishTimeout:     o.PublishTimeout,
		CleanSession:       o.CleanSession,
		CACertFile:         o.CACertFile,
		InsecureSkipVerify: o.InsecureSkipVerify,
	}
}
