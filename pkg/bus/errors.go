package bus

import "errors"

var (
	// ErrBrokerUnreachable is returned by Connect when the broker handshake
	// cannot complete within the configured timeout.
	ErrBrokerUnreachable = errors.New("bus: broker unreachable")

	// ErrNotConnected is returned by Publish when the client is not
	// currently connected to the broker.
	ErrNotConnected = errors.New("bus: not connected")

	// ErrMalformedPayload is returned by typed handlers when an inbound
	// payload fails to parse against the expected schema. The router logs it
	// and continues with other matching subscriptions.
	ErrMalformedPayload = errors.New("bus: malformed payload")
)
