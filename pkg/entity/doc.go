// Package entity defines the data model of an entity-ownership diagram.
//
// # Overview
//
// A [Graph] holds legal entities ([Node]) and directed ownership
// relationships ([Edge]). An edge from A to B with ownershipPercentage 60
// means A directly holds 60% of B. Nodes carry optional tax and compliance
// metadata used by overlays and filters; their EffectiveOwnership is filled
// in by the ownership package.
//
// All types are closed structs with a fixed set of optional fields, so the
// JSON form is stable and field order in exports is deterministic:
//
//	{
//	  "nodes": [
//	    {"id": "holdco", "label": "HoldCo Ltd", "region": "EMEA"},
//	    {"id": "opco", "label": "OpCo GmbH", "complianceStatus": "pending"}
//	  ],
//	  "edges": [
//	    {"id": "e1", "source": "holdco", "target": "opco", "ownershipPercentage": 100}
//	  ]
//	}
//
// # Flat Entity Lists
//
// Many spreadsheets describe structures as a flat list where each record
// names its parent. [SynthesizeGraph] converts such a list into a graph,
// deriving edge IDs with [EdgeID] so repeated imports are stable.
//
// # Copies
//
// [Graph.Clone] and [Node.Clone] produce deep copies. Code that hands graph
// data across ownership boundaries (store reads, sandbox snapshots) always
// clones.
package entity
