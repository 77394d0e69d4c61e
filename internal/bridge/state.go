package bridge

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/toolroom-io/scanbridge/internal/pkg/metrics"
	fsmutil "github.com/toolroom-io/scanbridge/internal/pkg/util/fsm"
	"github.com/toolroom-io/scanbridge/pkg/log"
)

// Connection states. Disabled is terminal: a bridge constructed with the bus
// turned off never leaves it.
const (
	StateDisabled     = "disabled"
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
)

const (
	eventConnect       = "event_connect"
	eventConnected     = "event_connected"
	eventConnectFailed = "event_connect_failed"
	eventLost          = "event_lost"
	eventStop          = "event_stop"
)

// stateGauge maps each state to the value exported on the connection gauge.
var stateGauge = map[string]float64{
	StateDisabled:     0,
	StateDisconnected: 1,
	StateConnecting:   2,
	StateConnected:    3,
}

// connState tracks the bus connection through its lifecycle. Transitions are
// serialized by the fsm's internal lock; both the lifecycle goroutine and the
// client's connection-lost callback fire events on it.
type connState struct {
	*fsm.FSM
	logger log.Logger
}

func newConnState(enabled bool, logger log.Logger) *connState {
	initial := StateDisabled
	if enabled {
		initial = StateDisconnected
	}

	s := &connState{logger: logger}

	events := fsm.Events{
		{Name: eventConnect, Src: []string{StateDisconnected}, Dst: StateConnecting},
		{Name: eventConnected, Src: []string{StateConnecting}, Dst: StateConnected},
		{Name: eventConnectFailed, Src: []string{StateConnecting}, Dst: StateDisconnected},
		{Name: eventLost, Src: []string{StateConnected}, Dst: StateDisconnected},
		{Name: eventStop, Src: []string{StateConnecting, StateConnected, StateDisconnected}, Dst: StateDisconnected},
	}

	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(s.actionEnterState),
	}

	s.FSM = fsm.NewFSM(initial, events, callbacks)
	metrics.ConnectionState.Set(stateGauge[initial])
	return s
}

func (s *connState) actionEnterState(_ context.Context, e *fsm.Event) error {
	metrics.ConnectionState.Set(stateGauge[e.Dst])
	s.logger.Info("connection state changed", "from", e.Src, "to", e.Dst)
	return nil
}

// fire triggers an event and swallows the self-transition case, which the
// fsm reports as NoTransitionError. Disabled stays terminal: events against
// it fail and are logged at debug.
func (s *connState) fire(ctx context.Context, event string) {
	err := s.Event(ctx, event)
	if err == nil {
		return
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return
	}
	s.logger.Debug("connection state event ignored", "event", event, "state", s.Current(), "err", err)
}
