package plugin

import "errors"

// Sentinel errors for the plugin manager. Configuration errors (duplicate
// IDs, unknown dependencies, cycles) indicate the host is mis-wired and are
// returned synchronously; runtime plugin failures are reported only through
// statuses and lifecycle events.
var (
	// ErrMissingID is returned when a plugin has an empty ID.
	ErrMissingID = errors.New("plugin id is required")

	// ErrNilRegister is returned when a plugin has no registration callback.
	ErrNilRegister = errors.New("plugin registration callback is required")

	// ErrDuplicatePlugin is returned when a plugin ID is registered twice.
	ErrDuplicatePlugin = errors.New("plugin already registered")

	// ErrPluginNotFound is returned when an operation names an unknown plugin.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrUnknownDependency is returned when a plugin depends on an
	// unregistered ID.
	ErrUnknownDependency = errors.New("dependency on unregistered plugin")

	// ErrDependencyCycle is returned when the dependency graph has a cycle.
	ErrDependencyCycle = errors.New("dependency cycle detected")

	// ErrDependencyFailed marks a plugin forced into error status because a
	// dependency failed; its own registration callback never ran.
	ErrDependencyFailed = errors.New("dependency failed to initialize")

	// ErrAlreadyInitialized is returned when Initialize is called twice.
	ErrAlreadyInitialized = errors.New("plugins already initialized")

	// ErrNotInitialized is returned when disabling a plugin that is not
	// initialized.
	ErrNotInitialized = errors.New("plugin is not initialized")

	// ErrNotDisabled is returned when enabling a plugin that is not disabled.
	ErrNotDisabled = errors.New("plugin is not disabled")
)
