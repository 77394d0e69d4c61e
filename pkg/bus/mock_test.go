package bus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_PublishLoopback(t *testing.T) {
	r := NewRouter(1)
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	client := NewMock(r)
	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))

	var gotTopic string
	var gotPayload []byte
	require.NoError(t, client.Subscribe(ctx, "rfid/scan", AtLeastOnce, func(_ context.Context, topic string, payload []byte) error {
		gotTopic = topic
		gotPayload = payload
		return nil
	}))

	payload := []byte(`{"tag_uid":"ABC123","reader_id":"esp32_01"}`)
	require.NoError(t, client.Publish(ctx, "rfid/scan", payload, AtLeastOnce, false))

	// Loopback is synchronous; the handler has already run.
	assert.Equal(t, "rfid/scan", gotTopic)
	assert.Equal(t, payload, gotPayload)

	published := client.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "rfid/scan", published[0].Topic)
	assert.Equal(t, AtLeastOnce, published[0].QoS)
}

func TestMockClient_DisconnectIdempotent(t *testing.T) {
	r := NewRouter(1)
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	client := NewMock(r)
	ctx := context.Background()

	// Disconnect before Connect was ever called.
	require.NoError(t, client.Disconnect(ctx))
	assert.False(t, client.IsConnected())

	require.NoError(t, client.Connect(ctx))
	assert.True(t, client.IsConnected())

	require.NoError(t, client.Disconnect(ctx))
	require.NoError(t, client.Disconnect(ctx))
	assert.False(t, client.IsConnected())
}

func TestMockClient_SimulateMessage(t *testing.T) {
	r := NewRouter(1)
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	client := NewMock(r)
	ctx := context.Background()

	var got []byte
	require.NoError(t, client.Subscribe(ctx, "sensor/+", AtMostOnce, func(_ context.Context, _ string, payload []byte) error {
		got = payload
		return nil
	}))

	client.SimulateMessage(ctx, "sensor/temperature", []byte(`{"value":21.5}`))
	assert.JSONEq(t, `{"value":21.5}`, string(got))

	// Simulated inbound traffic is not a publish and is not recorded.
	assert.Empty(t, client.Published())
}

func TestNew_SelectsVariantByFlag(t *testing.T) {
	r := NewRouter(1)
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	mock, err := New(&Config{Enabled: false}, r)
	require.NoError(t, err)
	_, ok := mock.(*MockClient)
	assert.True(t, ok)

	real, err := New(&Config{Enabled: true, BrokerURL: "tcp://localhost:1883"}, r)
	require.NoError(t, err)
	_, ok = real.(*pahoClient)
	assert.True(t, ok)

	_, err = New(&Config{Enabled: true}, r)
	assert.Error(t, err, "real variant requires a broker url")

	_, err = New(nil, r)
	assert.Error(t, err)
}
