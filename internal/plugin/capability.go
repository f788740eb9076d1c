package plugin

import (
	"errors"
	"fmt"
)

// Capabilities is the closed set of contributions a plugin may return from
// its registration callback. One field per capability kind; anything else a
// plugin wants to expose goes through the bus, not through capabilities.
type Capabilities struct {
	// Tools are callable operations offered to the host's agents.
	Tools []Tool

	// Resources are addressable pieces of content the plugin serves.
	Resources []Resource

	// Commands are user-invocable actions.
	Commands []Command
}

// Tool declares a callable operation.
type Tool struct {
	ID          string
	Description string

	// MessageType is the bus type the tool answers on (point-to-point).
	MessageType string
}

// Resource declares addressable content.
type Resource struct {
	ID          string
	URI         string
	Description string
}

// Command declares a user-invocable action.
type Command struct {
	ID          string
	Title       string
	Description string
}

// Capability validation errors.
var (
	ErrMissingCapabilityID = errors.New("capability id is required")
	ErrDuplicateCapability = errors.New("duplicate capability id")
	ErrMissingCommandTitle = errors.New("command title is required")
)

// Validate checks the contribution set. Capabilities are validated when the
// registration callback returns, never trusted as opaque data.
func (c *Capabilities) Validate() error {
	if c == nil {
		return nil
	}

	seen := make(map[string]string)
	record := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("%w (%s)", ErrMissingCapabilityID, kind)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q declared as %s and %s", ErrDuplicateCapability, id, prev, kind)
		}
		seen[id] = kind
		return nil
	}

	for _, tool := range c.Tools {
		if err := record("tool", tool.ID); err != nil {
			return err
		}
	}
	for _, res := range c.Resources {
		if err := record("resource", res.ID); err != nil {
			return err
		}
	}
	for _, cmd := range c.Commands {
		if err := record("command", cmd.ID); err != nil {
			return err
		}
		if cmd.Title == "" {
			return fmt.Errorf("%w (id: %s)", ErrMissingCommandTitle, cmd.ID)
		}
	}

	return nil
}

// Count returns the total number of declared capabilities.
func (c *Capabilities) Count() int {
	if c == nil {
		return 0
	}
	return len(c.Tools) + len(c.Resources) + len(c.Commands)
}
