package options

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/toolroom-io/scanbridge/internal/lookup"
	"github.com/toolroom-io/scanbridge/pkg/log"
	"github.com/toolroom-io/scanbridge/pkg/options"
)

// envPrefix is the prefix for environment overrides, e.g.
// SCANBRIDGE_MQTT_BROKER maps to mqtt.broker.
const envPrefix = "SCANBRIDGE"

// BridgeOptions aggregates every option group of the scanbridge command.
type BridgeOptions struct {
	MqttOptions     *options.MqttOptions     `json:"mqtt" mapstructure:"mqtt"`
	RealtimeOptions *options.RealtimeOptions `json:"realtime" mapstructure:"realtime"`
	HttpOptions     *options.HttpOptions     `json:"http" mapstructure:"http"`
	Log             *log.Options             `json:"log" mapstructure:"log"`

	// Tools seeds the in-memory tag registry. Only settable through the
	// config file; real deployments swap in their own resolver.
	Tools []lookup.Record `json:"tools" mapstructure:"tools"`
}

// NewBridgeOptions creates a BridgeOptions with default values.
func NewBridgeOptions() *BridgeOptions {
	return &BridgeOptions{
		MqttOptions:     options.NewMqttOptions(),
		RealtimeOptions: options.NewRealtimeOptions(),
		HttpOptions:     options.NewHttpOptions(),
		Log:             log.NewOptions(),
	}
}

// AddFlags binds every option group to the command's FlagSet.
func (o *BridgeOptions) AddFlags(fs *pflag.FlagSet) {
	o.MqttOptions.AddFlags(fs)
	o.RealtimeOptions.AddFlags(fs)
	o.HttpOptions.AddFlags(fs)
	o.Log.AddFlags(fs)
}

// Load merges a YAML config file and SCANBRIDGE_* environment variables with
// the parsed flags. Precedence: explicitly set flags, then environment, then
// config file, then defaults. Configuration is read once at startup and never
// re-read.
func (o *BridgeOptions) Load(cfgFile string, fs *pflag.FlagSet) error {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(o)
}

// Validate aggregates the validation of every option group.
func (o *BridgeOptions) Validate() error {
	var errs []error
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.RealtimeOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}
