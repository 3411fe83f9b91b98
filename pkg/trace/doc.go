// Package trace computes highlighted ancestor paths.
//
// [Ancestors] walks incoming ownership edges breadth-first from a starting
// node toward the roots. Each node is visited at most once, so diamonds and
// cycles terminate. The resulting [Path] lists the visited nodes and every
// incoming edge of a visited node, in discovery order:
//
//	A ──e1──▶ B ──e2──▶ C
//
//	Ancestors(g, "C") → nodes [C B A], edges [e2 e1]
//	Ancestors(g, "A") → nodes [A], edges []
package trace
