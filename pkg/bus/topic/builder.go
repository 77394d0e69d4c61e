package topic

import (
	"fmt"
)

// Constants defining the standard topic segments.
// These act as the protocol contract between readers (ESP32) and the bridge.
// Changing these values will break compatibility with deployed readers.
const (
	// SuffixScan represents the upstream RFID scan topic (Reader -> Bridge).
	// Structure: {root}/rfid/scan/{readerID}
	SuffixScan = "rfid/scan"

	// SuffixTransaction represents the downstream transaction notification
	// topic (Bridge -> Readers/Displays).
	// Structure: {root}/transaction/update
	SuffixTransaction = "transaction/update"

	// SuffixToolStatus represents the downstream tool availability topic.
	// Structure: {root}/tool/status
	SuffixToolStatus = "tool/status"

	// SuffixSensor represents the upstream environmental sensor topic.
	// Structure: {root}/sensor/{kind}
	SuffixSensor = "sensor"

	// SuffixBridgeStatus is where the bridge announces its own liveness,
	// including the last-will message on an unclean exit.
	// Structure: {root}/bridge/status
	SuffixBridgeStatus = "bridge/status"
)

// DefaultRoot is the namespace used when no root is configured.
const DefaultRoot = "workshop/v1"

// Builder encapsulates the logic for constructing MQTT topic strings.
// It ensures consistency of the topic namespace across the entire project.
type Builder struct {
	// root is the base namespace for all topics (e.g., "workshop/v1").
	root string
}

// NewBuilder creates a new instance of Builder with the specified root
// namespace. An empty root falls back to DefaultRoot.
func NewBuilder(root string) *Builder {
	if root == "" {
		root = DefaultRoot
	}
	return &Builder{root: root}
}

// Root returns the configured namespace.
func (b *Builder) Root() string {
	return b.root
}

// Scan returns the topic string a specific reader publishes scans to.
// Direction: Reader -> Bridge
func (b *Builder) Scan(readerID string) string {
	return b.build(SuffixScan, readerID)
}

// ScanWildcard returns the wildcard topic used by the bridge to subscribe
// to scans from ALL readers.
// Result: {root}/rfid/scan/+
func (b *Builder) ScanWildcard() string {
	return b.build(SuffixScan, "+")
}

// TransactionUpdate returns the topic string for transaction notifications.
// Direction: Bridge -> Readers/Displays
func (b *Builder) TransactionUpdate() string {
	return fmt.Sprintf("%s/%s", b.root, SuffixTransaction)
}

// ToolStatus returns the topic string for tool availability changes.
// Direction: Bridge -> Readers/Displays
func (b *Builder) ToolStatus() string {
	return fmt.Sprintf("%s/%s", b.root, SuffixToolStatus)
}

// Sensor returns the topic string for a specific sensor kind,
// e.g. Sensor("temperature") -> {root}/sensor/temperature.
// Direction: Sensor -> Bridge
func (b *Builder) Sensor(kind string) string {
	return b.build(SuffixSensor, kind)
}

// SensorWildcard returns the multi-level wildcard topic used by the bridge
// to subscribe to ALL sensor readings.
// Result: {root}/sensor/#
func (b *Builder) SensorWildcard() string {
	return b.build(SuffixSensor, "#")
}

// BridgeStatus returns the topic string for bridge liveness announcements.
// Direction: Bridge -> Readers/Displays
func (b *Builder) BridgeStatus() string {
	return fmt.Sprintf("%s/%s", b.root, SuffixBridgeStatus)
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{suffix}/{identifier}
func (b *Builder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
