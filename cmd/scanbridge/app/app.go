// Package app assembles the scanbridge command.
package app

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/toolroom-io/scanbridge/cmd/scanbridge/app/options"
	"github.com/toolroom-io/scanbridge/internal/bridge"
	"github.com/toolroom-io/scanbridge/internal/lookup"
	"github.com/toolroom-io/scanbridge/internal/realtime"
	"github.com/toolroom-io/scanbridge/internal/server"
	"github.com/toolroom-io/scanbridge/pkg/log"
)

const commandDesc = `The scanbridge daemon routes RFID scan events from MQTT-attached readers
to browser dashboards over WebSocket. Both the broker connection and the
WebSocket fan-out can be switched to in-process mocks, so the whole pipeline
runs without hardware.`

// NewScanBridgeCommand builds the root cobra command.
func NewScanBridgeCommand(ctx context.Context) *cobra.Command {
	opts := options.NewBridgeOptions()
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "scanbridge",
		Short:        "Bridge RFID scan events from MQTT to browser sessions",
		Long:         commandDesc,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Load(cfgFile, cmd.Flags()); err != nil {
				return err
			}
			return opts.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Init(opts.Log)
			return run(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "Path to a YAML config file. Flags override its values.")
	opts.AddFlags(cmd.Flags())

	return cmd
}

func run(ctx context.Context, opts *options.BridgeOptions) error {
	notifier := realtime.New(&realtime.Config{
		Enabled:        opts.RealtimeOptions.Enabled,
		SendBufferSize: opts.RealtimeOptions.SendBufferSize,
		WriteTimeout:   opts.RealtimeOptions.WriteTimeout,
		PingInterval:   opts.RealtimeOptions.PingInterval,
		PongTimeout:    opts.RealtimeOptions.PongTimeout,
		AllowedOrigins: opts.RealtimeOptions.AllowedOrigins,
	})

	b, err := bridge.New(&bridge.Config{
		Bus:                opts.MqttOptions.ToBusConfig(),
		TopicRoot:          opts.MqttOptions.TopicRoot,
		RouterWorkers:      opts.MqttOptions.RouterWorkers,
		ReconnectBaseDelay: opts.MqttOptions.ReconnectBaseDelay,
		ReconnectMaxDelay:  opts.MqttOptions.ReconnectMaxDelay,
	}, lookup.NewStatic(opts.Tools), notifier)
	if err != nil {
		return err
	}

	hub, _ := notifier.(*realtime.Hub)
	srv := server.New(&server.Config{
		Network:         opts.HttpOptions.Network,
		Addr:            opts.HttpOptions.Addr,
		ReadTimeout:     opts.HttpOptions.ReadTimeout,
		ShutdownTimeout: opts.HttpOptions.ShutdownTimeout,
	}, b.Ready, hub)

	g, ctx := errgroup.WithContext(ctx)
	if hub != nil {
		g.Go(func() error {
			hub.Run(ctx)
			return nil
		})
	}
	g.Go(func() error {
		return b.Run(ctx)
	})
	g.Go(func() error {
		return srv.Run(ctx)
	})

	log.Info("scanbridge started",
		"mqtt_enabled", opts.MqttOptions.Enabled,
		"realtime_enabled", opts.RealtimeOptions.Enabled,
		"http_addr", opts.HttpOptions.Addr)

	return g.Wait()
}
