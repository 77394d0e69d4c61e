package bus

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/toolroom-io/scanbridge/pkg/log"
)

// Subscription pairs a topic filter with the handler invoked for matching
// messages. Subscriptions are append-only for the process lifetime.
type Subscription struct {
	Filter  string
	QoS     QoS
	Handler HandlerFunc
}

// Router matches inbound messages against registered subscriptions and
// dispatches them to every matching handler. Dispatch runs on a sharded
// worker pool: all messages for one topic land on the same worker, so
// ordering is FIFO per topic while unrelated topics proceed in parallel.
type Router struct {
	mu   sync.RWMutex
	subs []Subscription

	dispatchMu sync.RWMutex
	queues     []chan Message
	wg         sync.WaitGroup
	closed     atomic.Bool
	baseCtx    context.Context
	cancel     context.CancelFunc

	logger log.Logger
}

const defaultQueueDepth = 64

// NewRouter creates a router with the given number of dispatch workers.
// workers < 1 falls back to a single worker (strict global FIFO).
func NewRouter(workers int) *Router {
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		queues:  make([]chan Message, workers),
		baseCtx: ctx,
		cancel:  cancel,
		logger:  log.WithName("router"),
	}

	for i := range r.queues {
		q := make(chan Message, defaultQueueDepth)
		r.queues[i] = q
		r.wg.Add(1)
		go r.worker(q)
	}

	return r
}

// Add registers a subscription. There is no dynamic unsubscribe; the
// registry only grows until shutdown.
func (r *Router) Add(filter string, qos QoS, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, Subscription{Filter: filter, QoS: qos, Handler: handler})
}

// Subscriptions returns a snapshot of the registered subscriptions. The real
// client uses it to re-issue SUBSCRIBE packets after a reconnect.
func (r *Router) Subscriptions() []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscription, len(r.subs))
	copy(out, r.subs)
	return out
}

// Dispatch enqueues a message for asynchronous delivery. Messages arriving
// after Close are dropped. A full worker queue blocks the caller, which
// backpressures the bus receive loop rather than dropping scans.
func (r *Router) Dispatch(msg Message) {
	r.dispatchMu.RLock()
	defer r.dispatchMu.RUnlock()

	if r.closed.Load() {
		r.logger.Warn("Dropping message, router closed", "topic", msg.Topic)
		return
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(msg.Topic))
	idx := int(h.Sum32() % uint32(len(r.queues)))
	r.queues[idx] <- msg
}

// DispatchSync delivers a message inline on the calling goroutine. The mock
// client uses it for its loopback echo so tests observe handler effects
// deterministically.
func (r *Router) DispatchSync(ctx context.Context, msg Message) {
	r.deliver(ctx, msg)
}

// Close stops accepting new messages, drains in-flight work, and waits for
// the workers to finish, bounded by ctx.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	// Block until no Dispatch holds the read lock, so closing the queues
	// cannot race with an in-flight send.
	r.dispatchMu.Lock()
	for _, q := range r.queues {
		close(q)
	}
	r.dispatchMu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		// Give up on the drain; workers exit once their queues empty.
		r.cancel()
		return ctx.Err()
	}
}

func (r *Router) worker(queue <-chan Message) {
	defer r.wg.Done()
	for msg := range queue {
		r.deliver(r.baseCtx, msg)
	}
}

// deliver invokes every matching subscription handler. A handler error
// (malformed payload included) skips only that handler; independently
// matching subscriptions are still attempted, and the receive loop is never
// interrupted.
func (r *Router) deliver(ctx context.Context, msg Message) {
	matched := false
	for _, sub := range r.Subscriptions() {
		if !Match(sub.Filter, msg.Topic) {
			continue
		}
		matched = true
		if err := sub.Handler(ctx, msg.Topic, msg.Payload); err != nil {
			r.logger.Error(err, "Handler failed", "topic", msg.Topic, "filter", sub.Filter)
		}
	}

	if !matched {
		r.logger.Debug("Message on unhandled topic", "topic", msg.Topic)
	}
}
