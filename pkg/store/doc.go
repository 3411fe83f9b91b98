// Package store holds the canonical ownership graph and its view state.
//
// # Overview
//
// A [Store] owns the node and edge sequences, the selection, the
// highlighted ancestor path, the active [Filters] and the sandbox state.
// Everything else reads from it:
//
//	s := store.New(store.WithLogger(logger))
//	if err := s.Load(payload); err != nil {
//	    // validation or cycle error; previous graph is unchanged
//	}
//	s.SelectNode("opco")
//	path := s.HighlightedPath() // ancestors of opco
//
// # Mutations
//
// Loads replace the graph atomically after validation and clear the
// selection. A flat entity list has its edges synthesized and effective
// ownership computed before it becomes visible. Graphs containing an
// ownership cycle are rejected.
//
// Mutations that may find nothing to act on return an [Outcome]: [Applied],
// [NotFound] or [Ignored]. These are not errors; they are logged at debug
// level and reported to observability hooks so callers can tell races from
// bugs. Removing a node cascades to every edge touching it.
//
// Effective ownership is not kept up to date automatically after edits.
// Call [Store.Propagate] when refreshed values are needed.
//
// # Sandbox
//
// [Store.StartSandbox] records a rollback point. Edits keep going to the
// live graph; new nodes and edges are marked as drafts.
// [Store.CommitSandbox] clears the draft flags and [Store.DiscardSandbox]
// restores the rollback point verbatim.
//
// # Reads and Notifications
//
// Every read returns a deep copy. Derived views ([Store.Filtered],
// [Store.Legend], [Store.HighlightedPath]) reflect the state at the time of
// the call. [Store.Subscribe] delivers an [Event] after each change so a
// hosting layer can re-derive whatever it displays. Consumers that only
// read should depend on the [View] interface.
package store
