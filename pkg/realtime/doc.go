// Package realtime tracks live push connections and fans events out to them.
//
// A connection moves through Open -> Authenticated -> Active -> Closed. The
// credential presented at connect time is verified once through the
// TokenVerifier collaborator; unauthenticated attempts are rejected and
// never admitted. Every admitted connection is implicitly joined to its
// user topic ("user:<id>") and may join further topics, typically one per
// watched resource.
//
// # Delivery contract
//
// Publish is at-most-once and best-effort by design. Events are not
// persisted and never replayed: a connection that left a topic before a
// publish receives nothing, one that joins afterwards receives nothing
// retroactively, and an offline user discovers missed events through the
// notification center's durable listing, not through this package. Slow
// consumers lose events rather than block publishers.
//
// # Rate limiting
//
// Each (user, event name) pair is capped by a rolling-window counter stored
// in the cache store, so the ceiling holds across registry instances with a
// shared Redis backend. Events over the ceiling are dropped silently.
//
// # Reconciliation
//
// Registry.Reconcile purges membership entries whose connection is gone.
// It is scheduled on a fixed interval as a self-healing measure for missed
// disconnect notifications and is not required for correctness of the
// delivery contract.
package realtime
