package bus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Bus is the typed, filterable publish/subscribe dispatch engine. It is the
// only channel through which plugins and host services exchange information.
//
// Delivery is either broadcast (fan-out to every matching subscriber, errors
// isolated per handler) or point-to-point (first successful responder wins).
// The bus is in-memory only and holds no state beyond the subscription table.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]*subscription

	log *slog.Logger

	// Stats
	published     atomic.Uint64
	delivered     atomic.Uint64
	handlerErrors atomic.Uint64
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for handler failure reporting.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bus) {
		b.log = log.With("component", "bus")
	}
}

// New creates an isolated message bus. Every host (and every test) constructs
// its own; there is no shared instance.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs: make(map[string][]*subscription),
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for a message type and returns a disposer
// that removes exactly that subscription. Calling the disposer a second time
// is a no-op. Two Subscribe calls never share a disposer, even for the same
// handler and type.
func (b *Bus) Subscribe(msgType string, handler Handler, opts ...SubscribeOption) (func(), error) {
	if msgType == "" {
		return nil, ErrInvalidType
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	sub := &subscription{
		id:      uuid.NewString(),
		msgType: msgType,
		handler: handler,
	}
	for _, opt := range opts {
		opt(sub)
	}

	b.mu.Lock()
	b.subs[msgType] = append(b.subs[msgType], sub)
	b.mu.Unlock()

	return func() {
		b.remove(msgType, sub.id)
	}, nil
}

// remove deletes a subscription by ID. The last removal for a type deletes
// the type entry entirely, keeping the lookup table sparse.
func (b *Bus) remove(msgType, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[msgType]
	for i, s := range subs {
		if s.id == subID {
			b.subs[msgType] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[msgType]) == 0 {
		delete(b.subs, msgType)
	}
}

// sendConfig collects the optional parts of a Send call.
type sendConfig struct {
	target    string
	metadata  map[string]string
	broadcast bool
}

// SendOption configures a Send call.
type SendOption func(*sendConfig)

// WithTarget addresses the message to a recipient identity or channel.
func WithTarget(target string) SendOption {
	return func(c *sendConfig) {
		c.target = target
	}
}

// WithMetadata attaches metadata to the message.
func WithMetadata(md map[string]string) SendOption {
	return func(c *sendConfig) {
		c.metadata = md
	}
}

// WithBroadcast switches the call to fan-out delivery. Broadcast is
// fire-and-forget: the returned response always reports success and carries
// no data.
func WithBroadcast() SendOption {
	return func(c *sendConfig) {
		c.broadcast = true
	}
}

// Send builds a message envelope, dispatches it, and returns a response
// synthesized from the dispatch result. A message with zero matching
// subscribers is the normal "nobody is listening" outcome, reported as an
// unsuccessful response, never as a panic or error.
func (b *Bus) Send(ctx context.Context, msgType, source string, payload any, opts ...SendOption) Response {
	var cfg sendConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	msg := NewMessage(msgType, source, payload)
	msg.Target = cfg.target
	msg.Metadata = cfg.metadata

	b.published.Add(1)

	matched := b.match(msg)
	if len(matched) == 0 {
		return Failure("no handler found for message type: " + msgType)
	}

	if cfg.broadcast {
		return b.dispatchBroadcast(ctx, msg, matched)
	}
	return b.dispatchFirst(ctx, msg, matched)
}

// match snapshots the matching-handler set at dispatch start. Dispatch then
// iterates the snapshot, so concurrent subscribe/unsubscribe cannot disturb
// an in-flight delivery.
func (b *Bus) match(msg Message) []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.subs[msg.Type]
	if len(subs) == 0 {
		return nil
	}

	matched := make([]*subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.filter.Matches(msg) {
			matched = append(matched, sub)
		}
	}
	return matched
}

// dispatchBroadcast invokes every matching handler. Handler failures are
// logged and isolated; they never stop delivery to the remaining handlers
// and never surface to the sender.
func (b *Bus) dispatchBroadcast(ctx context.Context, msg Message, subs []*subscription) Response {
	for _, sub := range subs {
		if _, err := sub.handler(ctx, msg); err != nil {
			b.handlerErrors.Add(1)
			b.log.Warn("broadcast handler failed",
				"type", msg.Type, "source", msg.Source, "error", err)
			continue
		}
		b.delivered.Add(1)
	}
	return OK(nil)
}

// dispatchFirst invokes matching handlers in subscription order until one
// answers. A handler error means "this handler declined"; dispatch moves on
// to the next candidate. If every handler fails the call reports failure.
func (b *Bus) dispatchFirst(ctx context.Context, msg Message, subs []*subscription) Response {
	for _, sub := range subs {
		resp, err := sub.handler(ctx, msg)
		if err != nil {
			b.handlerErrors.Add(1)
			b.log.Warn("handler failed, trying next",
				"type", msg.Type, "source", msg.Source, "error", err)
			continue
		}
		b.delivered.Add(1)
		if resp.IsNoReply() {
			return OK(nil)
		}
		return resp
	}
	return Failure("all handlers failed for message type: " + msg.Type)
}

// HasHandlers reports whether any subscription exists for the type.
func (b *Bus) HasHandlers(msgType string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[msgType]) > 0
}

// HandlerCount returns the number of subscriptions for the type.
func (b *Bus) HandlerCount(msgType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[msgType])
}

// TargetedHandlerCount returns the number of subscriptions for the type
// whose target clause accepts the given target.
func (b *Bus) TargetedHandlerCount(msgType, target string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, sub := range b.subs[msgType] {
		if sub.filter != nil && sub.filter.Target != nil && sub.filter.Target.Matches(target) {
			count++
		}
	}
	return count
}

// ClearHandlers removes every subscription for the type. Used only during
// host shutdown and test reset.
func (b *Bus) ClearHandlers(msgType string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, msgType)
}

// ClearAllHandlers removes every subscription on the bus.
func (b *Bus) ClearAllHandlers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]*subscription)
}

// Stats contains bus counters for host diagnostics.
type Stats struct {
	// Published is the total number of Send calls.
	Published uint64

	// Delivered is the number of successful handler invocations.
	Delivered uint64

	// HandlerErrors is the number of handler invocations that failed.
	HandlerErrors uint64

	// Subscriptions is the current number of live subscriptions.
	Subscriptions int

	// Types is the current number of message types with subscribers.
	Types int
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	subs := 0
	for _, list := range b.subs {
		subs += len(list)
	}
	types := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		HandlerErrors: b.handlerErrors.Load(),
		Subscriptions: subs,
		Types:         types,
	}
}
