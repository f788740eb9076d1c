// Package bus provides Hearth's message bus - the single channel through
// which plugins and host services exchange information without direct
// references to one another.
//
// # Delivery Modes
//
// A Send call is either a broadcast or point-to-point:
//
//   - Broadcast models domain events ("entity:created"). Every matching
//     subscriber is invoked; handler failures are logged and isolated, and
//     the sender always gets a success response with no data.
//   - Point-to-point models request/response ("who can answer this").
//     Matching handlers are tried in subscription order; the first one that
//     answers wins and the rest are skipped.
//
// # Filters
//
// Subscriptions may narrow interest along the sender, recipient, and
// metadata axes instead of encoding that information into the type string:
//
//	dispose, err := b.Subscribe("chat:message", handler,
//	    bus.WithFilter(&bus.Filter{
//	        Target:   bus.MatchString("matrix:*"),
//	        Metadata: map[string]string{"kind": "text"},
//	    }))
//
// Source and target clauses accept exact strings, "*"-globs, or regular
// expressions. All declared clauses must pass for a message to match.
//
// # Concurrency
//
// The subscription table is safe for concurrent use. Dispatch iterates a
// snapshot of the matching-handler set taken at dispatch start, so handlers
// may subscribe and unsubscribe freely while a Send is in flight. The bus
// imposes no timeouts; a hung handler blocks only its own dispatch.
package bus
