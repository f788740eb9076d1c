// Package plugin provides Hearth's plugin manager - the orchestration half
// of the kernel next to the message bus.
//
// A plugin is a record: an ID, the IDs of the plugins it requires, and a
// registration callback. Registration is pure bookkeeping; nothing runs until
// Initialize walks the dependency graph in topological order and invokes
// each callback with a Context exposing the bus and host services.
//
// # Failure Isolation
//
// A plugin that fails during registration is marked StatusError and reported
// through the ERROR lifecycle event; the initialization loop continues. Its
// dependents are forced into StatusError without their callbacks ever
// running, with an error that says the failure was propagated. Plugins on
// independent branches of the graph come up normally - a host with five
// independent plugins and one broken one still brings up the other four.
//
// # Lifecycle Events
//
// The manager emits INITIALIZED, ERROR, DISABLED, and ENABLED events through
// a small typed observer, deliberately separate from the message bus:
//
//	off := mgr.On(plugin.EventError, func(ev plugin.Event) {
//	    log.Warn("plugin failed", "plugin", ev.Plugin, "error", ev.Err)
//	})
//	defer off()
//
// Configuration errors - duplicate IDs, dependencies on unregistered
// plugins, dependency cycles - are returned synchronously from Register and
// Initialize, since they mean the host is mis-wired rather than that a
// plugin misbehaved.
package plugin
