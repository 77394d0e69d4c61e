package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolroom-io/scanbridge/internal/lookup"
	"github.com/toolroom-io/scanbridge/internal/realtime"
	"github.com/toolroom-io/scanbridge/internal/scan"
	"github.com/toolroom-io/scanbridge/pkg/bus"
	"github.com/toolroom-io/scanbridge/pkg/log"
)

func testLogger() log.Logger {
	return log.NewNopLogger()
}

func newMockBridge(t *testing.T, records []lookup.Record) (*Bridge, *bus.MockClient, *realtime.Recorder) {
	t.Helper()

	recorder := realtime.NewRecorder()
	b, err := New(&Config{Bus: &bus.Config{Enabled: false}}, lookup.NewStatic(records), recorder)
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Shutdown() })

	mock, ok := b.Client().(*bus.MockClient)
	require.True(t, ok)
	return b, mock, recorder
}

func TestBridgeScanNotFoundEndToEnd(t *testing.T) {
	_, mock, recorder := newMockBridge(t, nil)

	mock.SimulateMessage(context.Background(), "workshop/v1/rfid/scan/esp32_01",
		[]byte(`{"tag_uid":"ABC123","reader_id":"esp32_01"}`))

	events := recorder.Events()
	require.Len(t, events, 1, "exactly one broadcast per scan")
	assert.Equal(t, realtime.EventScanResult, events[0].Event)

	res, ok := events[0].Data.(scan.Result)
	require.True(t, ok)
	assert.Equal(t, scan.StatusNotFound, res.Status)
	assert.Equal(t, "ABC123", res.TagUID)

	// Nothing was published back to the bus.
	assert.Empty(t, mock.Published())
}

func TestBridgeScanFoundEndToEnd(t *testing.T) {
	_, mock, recorder := newMockBridge(t, []lookup.Record{
		{ID: "tool-7", Name: "Angle Grinder", TagUID: "ABC123"},
	})

	mock.SimulateMessage(context.Background(), "workshop/v1/rfid/scan/esp32_02",
		[]byte(`{"tag_uid":"abc123","reader_id":"esp32_02","timestamp":"2026-08-26T12:00:00Z"}`))

	events := recorder.Events()
	require.Len(t, events, 1)
	res, ok := events[0].Data.(scan.Result)
	require.True(t, ok)
	assert.Equal(t, scan.StatusFound, res.Status)
	require.NotNil(t, res.Tool)
	assert.Equal(t, "tool-7", res.Tool.ID)
}

func TestBridgeMalformedScanProducesNoBroadcast(t *testing.T) {
	_, mock, recorder := newMockBridge(t, nil)

	mock.SimulateMessage(context.Background(), "workshop/v1/rfid/scan/esp32_01",
		[]byte(`{not json`))

	assert.Empty(t, recorder.Events())
}

func TestBridgeSensorRebroadcast(t *testing.T) {
	_, mock, recorder := newMockBridge(t, nil)

	mock.SimulateMessage(context.Background(), "workshop/v1/sensor/temperature",
		[]byte(`{"type":"temperature","value":21.5,"unit":"C"}`))

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventSensorData, events[0].Event)
}

func TestBridgeShutdownIdempotent(t *testing.T) {
	b, _, _ := newMockBridge(t, nil)

	require.NoError(t, b.Shutdown())
	require.NoError(t, b.Shutdown())
	assert.False(t, b.Client().IsConnected())
}

func TestBridgePublishHelpers(t *testing.T) {
	b, mock, recorder := newMockBridge(t, nil)
	ctx := context.Background()

	require.NoError(t, b.PublishTransactionUpdate(ctx, map[string]string{"id": "tx-1", "status": "borrowed"}))
	require.NoError(t, b.PublishToolStatus(ctx, map[string]string{"id": "tool-7", "status": "in_use"}))

	published := mock.Published()
	require.Len(t, published, 2)
	assert.Equal(t, "workshop/v1/transaction/update", published[0].Topic)
	assert.Equal(t, bus.AtLeastOnce, published[0].QoS)
	assert.Equal(t, "workshop/v1/tool/status", published[1].Topic)

	var sawTx, sawTool bool
	for _, e := range recorder.Events() {
		switch e.Event {
		case realtime.EventTransactionUpdate:
			sawTx = true
		case realtime.EventToolStatus:
			sawTool = true
		}
	}
	assert.True(t, sawTx)
	assert.True(t, sawTool)
}

func TestBridgeMockIsReadyAndDisabled(t *testing.T) {
	b, _, _ := newMockBridge(t, nil)

	assert.True(t, b.Ready())
	assert.Equal(t, StateDisabled, b.State())
}

func TestConnStateLifecycle(t *testing.T) {
	s := newConnState(true, testLogger())
	ctx := context.Background()

	assert.Equal(t, StateDisconnected, s.Current())

	s.fire(ctx, eventConnect)
	assert.Equal(t, StateConnecting, s.Current())

	s.fire(ctx, eventConnected)
	assert.Equal(t, StateConnected, s.Current())

	s.fire(ctx, eventLost)
	assert.Equal(t, StateDisconnected, s.Current())

	// Stopping an already-stopped bridge leaves the state untouched.
	s.fire(ctx, eventStop)
	s.fire(ctx, eventStop)
	assert.Equal(t, StateDisconnected, s.Current())
}

func TestConnStateDisabledIsTerminal(t *testing.T) {
	s := newConnState(false, testLogger())
	ctx := context.Background()

	s.fire(ctx, eventConnect)
	s.fire(ctx, eventStop)
	assert.Equal(t, StateDisabled, s.Current())
}
