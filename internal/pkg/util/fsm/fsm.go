// Package fsm adapts error-returning callbacks to the looplab/fsm callback
// signature.
package fsm

import (
	"context"

	"github.com/looplab/fsm"
)

// WrapEvent lifts a callback that returns an error into an fsm.Callback,
// surfacing the error through the event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}
