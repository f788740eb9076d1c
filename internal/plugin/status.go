package plugin

// Status is the lifecycle status of a registered plugin.
type Status int

// Plugin statuses.
const (
	// StatusUnknown - No plugin with the queried ID is registered.
	StatusUnknown Status = iota

	// StatusRegistered - Plugin is registered but not yet initialized.
	StatusRegistered

	// StatusInitialized - Plugin's registration callback completed.
	StatusInitialized

	// StatusError - Plugin failed to initialize, or a dependency did.
	StatusError

	// StatusDisabled - Plugin was initialized and then disabled.
	StatusDisabled
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusRegistered:
		return "registered"
	case StatusInitialized:
		return "initialized"
	case StatusError:
		return "error"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}
