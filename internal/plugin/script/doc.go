// Package script loads Lua plugins and adapts them to the plugin manager.
//
// A script plugin is a Lua file that declares a global plugin table with its
// id and dependencies and defines a register() function. At load time the
// file's top level runs once to collect the declaration; register() runs
// later, when the manager initializes the plugin, with the host API installed
// as the global hearth table:
//
//	hearth.send(type, payload[, opts])   -- returns {success, data, error}
//	hearth.subscribe(type, fn)           -- returns a disposer function
//	hearth.log(level, message)
//
// # Concurrency
//
// Each script owns one Lua state, which is not safe for concurrent use. All
// entries into the state (register, message handlers) are serialized by a
// mutex. A handler must therefore not send a message that dispatches back
// into the same script; that would deadlock.
package script
