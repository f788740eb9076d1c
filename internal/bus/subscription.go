package bus

import "context"

// Handler processes a message and returns a response. A non-nil error means
// the handler failed; the bus logs it and, depending on the dispatch mode,
// either isolates it (broadcast) or moves on to the next candidate
// (point-to-point).
type Handler func(ctx context.Context, msg Message) (Response, error)

// subscription ties a handler to a message type with an optional filter.
// Subscriptions are owned exclusively by the bus; the same handler may be
// registered any number of times with different filters.
type subscription struct {
	id      string
	msgType string
	handler Handler
	filter  *Filter
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscription)

// WithFilter narrows the subscription to messages matching the filter.
func WithFilter(f *Filter) SubscribeOption {
	return func(s *subscription) {
		s.filter = f
	}
}
