package bus

import (
	"time"

	"github.com/google/uuid"
)

// Message is the envelope carried by every dispatch. Messages are immutable
// once created: the bus never modifies one and handlers receive it by value.
type Message struct {
	// ID is a unique identifier for this message instance.
	ID string

	// Timestamp is when the message was created by the sender.
	Timestamp time.Time

	// Type is the dispatch key (e.g. "entity:created", "host:info").
	// The namespace is flat; the colon is convention only.
	Type string

	// Source identifies the sender.
	Source string

	// Target optionally names the intended recipient identity or channel.
	// Empty means untargeted.
	Target string

	// Metadata is an optional open key/value map.
	Metadata map[string]string

	// Payload is the opaque message body.
	Payload any
}

// NewMessage creates a message with a fresh ID and timestamp.
func NewMessage(msgType, source string, payload any) Message {
	return Message{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      msgType,
		Source:    source,
		Payload:   payload,
	}
}

// Response is the result of handling a message. Exactly one of Data/Error is
// meaningful: Data when Success is true, Error when it is false.
type Response struct {
	// Success reports whether the handler answered the message.
	Success bool

	// Data is the handler's answer, if any.
	Data any

	// Error describes the failure when Success is false.
	Error string

	// noReply marks a handler that explicitly declined to answer.
	noReply bool
}

// OK returns a successful response carrying data.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Failure returns an unsuccessful response with an error description.
func Failure(err string) Response {
	return Response{Success: false, Error: err}
}

// NoReply returns the sentinel response for broadcast handlers that have
// nothing to say. In point-to-point dispatch it is treated as success with
// empty data.
func NoReply() Response {
	return Response{Success: true, noReply: true}
}

// IsNoReply reports whether the response is the no-reply sentinel.
func (r Response) IsNoReply() bool {
	return r.noReply
}
