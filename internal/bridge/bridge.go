// Package bridge owns the scan-event pipeline: it constructs the bus client
// and the realtime fan-out, registers subscriptions, connects, and keeps the
// connection alive until shutdown.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/toolroom-io/scanbridge/internal/lookup"
	"github.com/toolroom-io/scanbridge/internal/pkg/metrics"
	"github.com/toolroom-io/scanbridge/internal/realtime"
	"github.com/toolroom-io/scanbridge/internal/scan"
	"github.com/toolroom-io/scanbridge/pkg/bus"
	"github.com/toolroom-io/scanbridge/pkg/bus/topic"
	"github.com/toolroom-io/scanbridge/pkg/log"
)

// Config carries everything the bridge needs at construction time. The app
// layer builds it from flags; it is read once and never mutated afterwards.
type Config struct {
	Bus       *bus.Config
	TopicRoot string

	RouterWorkers      int
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration

	// DrainTimeout bounds how long shutdown waits for in-flight handlers.
	DrainTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.RouterWorkers <= 0 {
		c.RouterWorkers = 4
	}
	if c.ReconnectBaseDelay <= 0 {
		c.ReconnectBaseDelay = time.Second
	}
	if c.ReconnectMaxDelay < c.ReconnectBaseDelay {
		c.ReconnectMaxDelay = 60 * time.Second
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 10 * time.Second
	}
}

// statusPayload is the bridge_status event body pushed to sessions when the
// broker link degrades or recovers.
type statusPayload struct {
	Status  string `json:"status"` // "connected" | "degraded"
	Message string `json:"message,omitempty"`
}

// Bridge is the process-wide lifecycle owner. Construct it once with New and
// drive it with Run.
type Bridge struct {
	cfg    *Config
	logger log.Logger

	topics   *topic.Builder
	router   *bus.Router
	client   bus.Client
	notifier realtime.Notifier
	handler  *scan.Handler

	state   *connState
	backoff *Backoff

	// lost wakes the reconnect loop; capacity 1 so repeated loss
	// notifications collapse into one pending reconnect.
	lost     chan struct{}
	stopping atomic.Bool
}

// New wires the bridge. The bus client and the fan-out variants were already
// decided by the configuration; nothing switches after startup.
func New(cfg *Config, resolver lookup.Resolver, notifier realtime.Notifier) (*Bridge, error) {
	if cfg == nil || cfg.Bus == nil {
		return nil, errors.New("bridge: config is required")
	}
	if resolver == nil || notifier == nil {
		return nil, errors.New("bridge: resolver and notifier are required")
	}
	cfg.setDefaults()

	logger := log.WithName("bridge")

	b := &Bridge{
		cfg:      cfg,
		logger:   logger,
		topics:   topic.NewBuilder(cfg.TopicRoot),
		router:   bus.NewRouter(cfg.RouterWorkers),
		notifier: notifier,
		handler:  scan.NewHandler(resolver, notifier),
		state:    newConnState(cfg.Bus.Enabled, logger),
		backoff:  NewBackoff(cfg.ReconnectBaseDelay, cfg.ReconnectMaxDelay),
		lost:     make(chan struct{}, 1),
	}

	cfg.Bus.OnConnectionLost = b.onConnectionLost

	// Announce unclean exits: the broker publishes this will if the bridge
	// drops without a clean disconnect.
	if cfg.Bus.WillTopic == "" {
		cfg.Bus.WillTopic = b.topics.BridgeStatus()
		cfg.Bus.WillPayload = []byte(`{"status":"offline"}`)
		cfg.Bus.WillQoS = bus.AtLeastOnce
		cfg.Bus.WillRetain = true
	}

	client, err := bus.New(cfg.Bus, b.router)
	if err != nil {
		return nil, err
	}
	b.client = client
	return b, nil
}

// Start registers all subscriptions and then connects, in that order, so no
// message can ever be dispatched to an unregistered handler. A real broker
// being unreachable is not fatal: the reconnect loop keeps trying with
// backoff while the bridge serves sessions in degraded mode.
func (b *Bridge) Start(ctx context.Context) error {
	scanHandler := b.instrument("scan", bus.JSONHandler(b.handler.HandleScan))
	if err := b.client.Subscribe(ctx, b.topics.ScanWildcard(), bus.AtLeastOnce, scanHandler); err != nil {
		return err
	}

	sensorHandler := b.instrument("sensor", bus.JSONHandler(b.handler.HandleSensor))
	if err := b.client.Subscribe(ctx, b.topics.SensorWildcard(), bus.AtMostOnce, sensorHandler); err != nil {
		return err
	}

	if !b.cfg.Bus.Enabled {
		// The mock variant never touches a network; it simply is connected.
		if err := b.client.Connect(ctx); err != nil {
			return err
		}
		b.logger.Info("bridge started with mock bus", "root", b.topics.Root())
		return nil
	}

	b.state.fire(ctx, eventConnect)
	if err := b.client.Connect(ctx); err != nil {
		b.state.fire(ctx, eventConnectFailed)
		b.logger.Error(err, "initial connect failed, will retry", "broker", b.cfg.Bus.BrokerURL)
		b.notifyDegraded("broker unreachable")
		b.signalLost()
		return nil
	}
	b.connected(ctx)
	return nil
}

// Run starts the bridge and blocks, reconnecting as needed, until ctx is
// cancelled. It then performs the orderly teardown: stop intake, drain
// in-flight handlers with a bounded grace period, disconnect.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return b.Shutdown()
		case <-b.lost:
			b.reconnect(ctx)
		}
	}
}

// reconnect retries the connection with exponential backoff until it
// succeeds or ctx is cancelled.
func (b *Bridge) reconnect(ctx context.Context) {
	for {
		delay := b.backoff.Next()
		b.logger.Info("reconnect scheduled", "delay", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if b.stopping.Load() {
			return
		}

		metrics.ReconnectAttemptsTotal.Inc()
		b.state.fire(ctx, eventConnect)
		if err := b.client.Connect(ctx); err != nil {
			b.state.fire(ctx, eventConnectFailed)
			b.logger.Error(err, "reconnect attempt failed", "broker", b.cfg.Bus.BrokerURL)
			continue
		}
		b.connected(ctx)
		return
	}
}

// connected records a successful connection: state transition, backoff reset,
// recovery broadcast.
func (b *Bridge) connected(ctx context.Context) {
	b.state.fire(ctx, eventConnected)
	b.backoff.Reset()
	b.logger.Info("connected to broker", "broker", b.cfg.Bus.BrokerURL)
	b.notifier.Broadcast(realtime.EventBridgeStatus, statusPayload{Status: "connected"})

	// Retained counterpart of the last will.
	if err := b.client.Publish(ctx, b.topics.BridgeStatus(), []byte(`{"status":"online"}`), bus.AtLeastOnce, true); err != nil {
		b.logger.Warn("failed to announce online status", "err", err)
	}
}

// onConnectionLost runs on the bus client's network goroutine.
func (b *Bridge) onConnectionLost(err error) {
	if b.stopping.Load() {
		return
	}
	b.state.fire(context.Background(), eventLost)
	b.logger.Error(err, "broker connection lost")
	b.notifyDegraded("broker connection lost")
	b.signalLost()
}

func (b *Bridge) notifyDegraded(msg string) {
	b.notifier.Broadcast(realtime.EventBridgeStatus, statusPayload{Status: "degraded", Message: msg})
}

func (b *Bridge) signalLost() {
	select {
	case b.lost <- struct{}{}:
	default:
	}
}

// Shutdown tears the bridge down. It is idempotent: every step tolerates
// being run after the bridge already stopped.
func (b *Bridge) Shutdown() error {
	b.stopping.Store(true)

	drainCtx, cancel := context.WithTimeout(context.Background(), b.cfg.DrainTimeout)
	defer cancel()
	if err := b.router.Close(drainCtx); err != nil {
		b.logger.Warn("router drain exceeded grace period", "err", err)
	}

	if b.cfg.Bus.Enabled && b.client.IsConnected() {
		// Clean exits overwrite the retained online announcement themselves;
		// the will only covers unclean ones.
		if err := b.client.Publish(context.Background(), b.topics.BridgeStatus(), []byte(`{"status":"offline"}`), bus.AtLeastOnce, true); err != nil {
			b.logger.Warn("failed to announce offline status", "err", err)
		}
	}

	if err := b.client.Disconnect(context.Background()); err != nil {
		return err
	}
	b.state.fire(context.Background(), eventStop)
	b.logger.Info("bridge stopped")
	return nil
}

// instrument wraps a handler with the inbound-message counters.
func (b *Bridge) instrument(name string, h bus.HandlerFunc) bus.HandlerFunc {
	return func(ctx context.Context, t string, payload []byte) error {
		metrics.MessagesReceivedTotal.WithLabelValues(name).Inc()
		err := h(ctx, t, payload)
		if errors.Is(err, bus.ErrMalformedPayload) {
			metrics.HandlerErrorsTotal.WithLabelValues("malformed").Inc()
		}
		return err
	}
}

// State returns the current connection state name.
func (b *Bridge) State() string {
	return b.state.Current()
}

// Ready reports whether the bridge can usefully serve scans: either the mock
// bus is in play or the real connection is up.
func (b *Bridge) Ready() bool {
	if !b.cfg.Bus.Enabled {
		return true
	}
	return b.state.Current() == StateConnected
}

// Client exposes the bus client for collaborators that publish outbound
// business events.
func (b *Bridge) Client() bus.Client {
	return b.client
}

// PublishTransactionUpdate publishes a transaction state change on the bus
// and pushes it to connected sessions. Session delivery happens even when the
// bus publish fails so dashboards stay current while the broker is down.
func (b *Bridge) PublishTransactionUpdate(ctx context.Context, data any) error {
	return b.publishAndBroadcast(ctx, b.topics.TransactionUpdate(), realtime.EventTransactionUpdate, data)
}

// PublishToolStatus publishes a tool availability change on the bus and
// pushes it to connected sessions.
func (b *Bridge) PublishToolStatus(ctx context.Context, data any) error {
	return b.publishAndBroadcast(ctx, b.topics.ToolStatus(), realtime.EventToolStatus, data)
}

func (b *Bridge) publishAndBroadcast(ctx context.Context, t string, event realtime.EventType, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	pubErr := b.client.Publish(ctx, t, payload, bus.AtLeastOnce, false)
	if pubErr != nil {
		b.logger.Error(pubErr, "bus publish failed", "topic", t)
	}
	b.notifier.Broadcast(event, data)
	return pubErr
}
