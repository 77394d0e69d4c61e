package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolroom-io/scanbridge/internal/lookup"
	"github.com/toolroom-io/scanbridge/internal/realtime"
)

func newTestHandler(records []lookup.Record) (*Handler, *lookup.Static, *realtime.Recorder) {
	resolver := lookup.NewStatic(records)
	recorder := realtime.NewRecorder()
	h := NewHandler(resolver, recorder)
	h.now = func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }
	return h, resolver, recorder
}

func singleResult(t *testing.T, rec *realtime.Recorder) Result {
	t.Helper()
	events := rec.Events()
	require.Len(t, events, 1, "exactly one broadcast per scan")
	require.Equal(t, realtime.EventScanResult, events[0].Event)
	res, ok := events[0].Data.(Result)
	require.True(t, ok)
	return res
}

func TestHandleScanFound(t *testing.T) {
	h, _, rec := newTestHandler([]lookup.Record{
		{ID: "tool-1", Name: "Impact Driver", TagUID: "04A3B2C1"},
	})

	err := h.HandleScan(context.Background(), "workshop/v1/rfid/scan/esp32_01", &ScanEvent{
		TagUID:    "04a3b2c1",
		ReaderID:  "esp32_01",
		Timestamp: "2026-08-26T11:59:58Z",
	})
	require.NoError(t, err)

	res := singleResult(t, rec)
	assert.Equal(t, StatusFound, res.Status)
	require.NotNil(t, res.Tool)
	assert.Equal(t, "tool-1", res.Tool.ID)
	assert.Equal(t, "esp32_01", res.ReaderID)
	assert.Equal(t, "2026-08-26T11:59:58Z", res.Timestamp)
}

func TestHandleScanNotFound(t *testing.T) {
	h, _, rec := newTestHandler(nil)

	err := h.HandleScan(context.Background(), "workshop/v1/rfid/scan/esp32_01", &ScanEvent{
		TagUID:   "deadbeef",
		ReaderID: "esp32_01",
	})
	require.NoError(t, err)

	res := singleResult(t, rec)
	assert.Equal(t, StatusNotFound, res.Status)
	assert.Nil(t, res.Tool)
	assert.NotEmpty(t, res.Message)
}

func TestHandleScanEmptyTagSkipsLookup(t *testing.T) {
	h, resolver, rec := newTestHandler(nil)
	resolver.SetHealthy(false) // a lookup attempt would error

	err := h.HandleScan(context.Background(), "workshop/v1/rfid/scan/esp32_01", &ScanEvent{
		TagUID:   "   ",
		ReaderID: "esp32_01",
	})
	require.NoError(t, err)

	res := singleResult(t, rec)
	assert.Equal(t, StatusInvalid, res.Status)
}

func TestHandleScanDegradedLookup(t *testing.T) {
	h, resolver, rec := newTestHandler([]lookup.Record{
		{ID: "tool-1", Name: "Impact Driver", TagUID: "04A3B2C1"},
	})
	resolver.SetHealthy(false)

	err := h.HandleScan(context.Background(), "workshop/v1/rfid/scan/esp32_01", &ScanEvent{
		TagUID:   "04a3b2c1",
		ReaderID: "esp32_01",
	})
	assert.ErrorIs(t, err, lookup.ErrUnavailable)

	// The outcome still reached the sessions.
	res := singleResult(t, rec)
	assert.Equal(t, StatusDegraded, res.Status)
}

func TestHandleSensor(t *testing.T) {
	h, _, rec := newTestHandler(nil)

	err := h.HandleSensor(context.Background(), "workshop/v1/sensor/temperature", &SensorReading{
		Type:  "temperature",
		Value: 21.5,
		Unit:  "C",
	})
	require.NoError(t, err)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventSensorData, events[0].Event)
	reading, ok := events[0].Data.(*SensorReading)
	require.True(t, ok)
	assert.Equal(t, 21.5, reading.Value)
}
