// Package metrics holds the Prometheus instruments exported by the bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ConnectionState records the bus connection state
	// (0=Disabled, 1=Disconnected, 2=Connecting, 3=Connected).
	ConnectionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanbridge_bus_connection_state",
			Help: "Current bus connection state (0=Disabled, 1=Disconnected, 2=Connecting, 3=Connected).",
		},
	)

	// ReconnectAttemptsTotal counts reconnect attempts against the broker.
	ReconnectAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scanbridge_bus_reconnect_attempts_total",
			Help: "Total number of reconnect attempts against the MQTT broker.",
		},
	)

	// MessagesReceivedTotal counts inbound bus messages by topic suffix.
	MessagesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanbridge_bus_messages_received_total",
			Help: "Total number of messages received from the bus.",
		},
		[]string{"topic"},
	)

	// HandlerErrorsTotal counts handler failures by reason.
	HandlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanbridge_handler_errors_total",
			Help: "Total number of message handler failures.",
		},
		[]string{"reason"}, // reason: malformed/lookup/internal
	)

	// BroadcastsTotal counts realtime broadcasts by event name.
	BroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanbridge_broadcasts_total",
			Help: "Total number of realtime broadcasts by event.",
		},
		[]string{"event"}, // event: scan_result/transaction_update/tool_status/sensor_data
	)

	// BroadcastFailuresTotal counts sessions dropped while broadcasting.
	BroadcastFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scanbridge_broadcast_failures_total",
			Help: "Total number of sessions dropped during a broadcast.",
		},
	)

	// LiveSessions records the number of connected WebSocket sessions.
	LiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanbridge_realtime_sessions",
			Help: "Number of currently connected WebSocket sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(ConnectionState)
	prometheus.MustRegister(ReconnectAttemptsTotal)
	prometheus.MustRegister(MessagesReceivedTotal)
	prometheus.MustRegister(HandlerErrorsTotal)
	prometheus.MustRegister(BroadcastsTotal)
	prometheus.MustRegister(BroadcastFailuresTotal)
	prometheus.MustRegister(LiveSessions)
}
