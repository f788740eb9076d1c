package bus

import "errors"

// Sentinel errors for the message bus.
var (
	// ErrNilHandler is returned when a nil handler is subscribed.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrInvalidType is returned when a message type is empty.
	ErrInvalidType = errors.New("message type cannot be empty")
)
