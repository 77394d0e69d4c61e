// Package scan turns raw reader messages into browser-facing events.
package scan

import (
	"time"

	"github.com/toolroom-io/scanbridge/internal/lookup"
)

// ScanEvent is the wire shape published by ESP32 readers on rfid/scan/+.
type ScanEvent struct {
	TagUID    string `json:"tag_uid"`
	ReaderID  string `json:"reader_id"`
	Timestamp string `json:"timestamp"`

	// ReceivedAt is stamped by the bridge, not the reader.
	ReceivedAt time.Time `json:"-"`
}

// SensorReading is the wire shape published on sensor/{kind}.
type SensorReading struct {
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// Scan outcome statuses carried in the scan_result event.
const (
	StatusFound    = "found"
	StatusNotFound = "not_found"
	StatusInvalid  = "invalid"
	StatusDegraded = "degraded"
)

// Result is the scan_result payload delivered to sessions. Exactly one is
// broadcast per scan, whatever the outcome.
type Result struct {
	Status     string         `json:"status"`
	TagUID     string         `json:"tag_uid"`
	ReaderID   string         `json:"reader_id"`
	Timestamp  string         `json:"timestamp,omitempty"`
	Tool       *lookup.Record `json:"tool,omitempty"`
	Message    string         `json:"message,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}
