package bus

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONHandler adapts a typed handler to a HandlerFunc. The payload is
// unmarshalled before the handler runs, so business logic receives a parsed
// domain object rather than raw bytes. Unparseable payloads yield
// ErrMalformedPayload, which the router logs without invoking the handler.
func JSONHandler[T any](handler func(ctx context.Context, topic string, msg *T) error) HandlerFunc {
	return func(ctx context.Context, topic string, payload []byte) error {
		msg := new(T)
		if err := json.Unmarshal(payload, msg); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return handler(ctx, topic, msg)
	}
}
