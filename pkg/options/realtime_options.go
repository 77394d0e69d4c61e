package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RealtimeOptions)(nil)

// RealtimeOptions contains configuration for the WebSocket fan-out layer.
type RealtimeOptions struct {
	// Enabled selects the real WebSocket hub. When false broadcasts go to an
	// in-process recorder instead of live sessions.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// SendBufferSize is the per-session outbound queue depth. A session whose
	// queue is full when a broadcast arrives is dropped.
	SendBufferSize int `json:"send-buffer-size" mapstructure:"send-buffer-size"`

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`

	// PingInterval is how often the hub pings idle sessions. It must be
	// shorter than PongTimeout.
	PingInterval time.Duration `json:"ping-interval" mapstructure:"ping-interval"`

	// PongTimeout is how long a session may go without answering a ping.
	PongTimeout time.Duration `json:"pong-timeout" mapstructure:"pong-timeout"`

	// AllowedOrigins lists the Origin header values accepted during the
	// WebSocket upgrade. Empty means same-origin only; "*" accepts all.
	AllowedOrigins []string `json:"allowed-origins" mapstructure:"allowed-origins"`
}

// NewRealtimeOptions creates a RealtimeOptions object with default parameters.
func NewRealtimeOptions() *RealtimeOptions {
	return &RealtimeOptions{
		Enabled:        true,
		SendBufferSize: 64,
		WriteTimeout:   10 * time.Second,
		PingInterval:   54 * time.Second,
		PongTimeout:    60 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *RealtimeOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.SendBufferSize < 1 {
		errors = append(errors, fmt.Errorf("realtime.send-buffer-size must be at least 1"))
	}
	if o.PingInterval >= o.PongTimeout {
		errors = append(errors, fmt.Errorf("realtime.ping-interval must be shorter than realtime.pong-timeout"))
	}

	return errors
}

// AddFlags adds flags for RealtimeOptions to the specified FlagSet.
func (o *RealtimeOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "realtime.enabled", o.Enabled, "Serve live WebSocket sessions instead of the in-process recorder.")
	fs.IntVar(&o.SendBufferSize, "realtime.send-buffer-size", o.SendBufferSize, "Per-session outbound queue depth.")
	fs.DurationVar(&o.WriteTimeout, "realtime.write-timeout", o.WriteTimeout, "Deadline for each WebSocket write.")
	fs.DurationVar(&o.PingInterval, "realtime.ping-interval", o.PingInterval, "How often idle sessions are pinged.")
	fs.DurationVar(&o.PongTimeout, "realtime.pong-timeout", o.PongTimeout, "How long a session may go without answering a ping.")
	fs.StringSliceVar(&o.AllowedOrigins, "realtime.allowed-origins", o.AllowedOrigins, "Origin header values accepted during the WebSocket upgrade.")
}
