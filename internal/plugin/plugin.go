package plugin

import (
	"context"
	"fmt"
	"slices"
)

// RegisterFunc is a plugin's registration callback. It runs once, during
// Manager.Initialize, with a context exposing the messaging primitives and
// host services. The returned capabilities may be nil.
type RegisterFunc func(ctx context.Context, pctx *Context) (*Capabilities, error)

// Plugin is a unit of host-extending functionality: an ID, the IDs of the
// plugins it requires, and a registration callback. Immutable after
// registration; dependencies cannot change.
type Plugin struct {
	// ID uniquely identifies the plugin.
	ID string

	// Dependencies lists plugin IDs that must initialize before this one.
	Dependencies []string

	// Register is invoked during initialization, in dependency order.
	Register RegisterFunc
}

// Validate checks the plugin record before registration.
func (p Plugin) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}
	if p.Register == nil {
		return fmt.Errorf("%w (plugin %q)", ErrNilRegister, p.ID)
	}
	if slices.Contains(p.Dependencies, p.ID) {
		return fmt.Errorf("%w: %q depends on itself", ErrDependencyCycle, p.ID)
	}
	return nil
}
