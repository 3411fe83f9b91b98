// Package ownership computes effective ownership percentages.
//
// # Model
//
// An edge A→B with ownershipPercentage D says A holds D% of B directly.
// Nodes that are never the target of an edge are roots and are owned 100%.
// Every other node receives, for each incoming edge from a parent with
// effective ownership E, a contribution of E*D/100. Contributions are summed,
// so a joint venture held 50/50 by two wholly owned parents ends at 100.
//
//	R (100) ──60%──▶ A (60) ──50%──▶ C (30 + 20 = 50)
//	R (100) ──40%──▶ B (40) ──50%──▶ C
//
// # Algorithm
//
// [Compute] runs a single topological pass (Kahn's algorithm) over the
// graph, so every node is finalized only after all its parents. Nodes that
// never reach in-degree zero sit on a cycle; Compute then returns an
// OWNERSHIP_CYCLE error naming one cycle (see [FindCycle]) and no values.
//
// Edges whose source or target is not a node are ignored. A node reachable
// only through such edges, or only from other unvalued nodes, gets no value
// and is listed in [Result.Unreached].
//
// # Applying Results
//
// [Apply] writes the computed values into a graph's nodes in place and
// clears stale values on unreached nodes. On error the graph is untouched.
package ownership
