// Package io provides canonical JSON export and JSON/YAML import for
// ownership graphs.
//
// # JSON Format
//
// The canonical form has two top-level arrays, always present:
//
//	{
//	  "nodes": [
//	    {
//	      "id": "holdco",
//	      "label": "HoldCo Ltd",
//	      "region": "EMEA",
//	      "effectiveOwnership": 100
//	    },
//	    {
//	      "id": "opco",
//	      "label": "OpCo GmbH"
//	    }
//	  ],
//	  "edges": [
//	    {
//	      "id": "e1",
//	      "source": "holdco",
//	      "target": "opco",
//	      "ownershipPercentage": 60
//	    }
//	  ]
//	}
//
// Output is indented with two spaces. Node and edge fields appear in the
// order they are declared on [entity.Node] and [entity.Edge], and absent
// optional fields are omitted, so identical graphs always export to
// identical bytes.
//
// # Import
//
// [Decode] reads JSON or YAML into the untyped form accepted by the
// validate package and by store.Load. Both the {nodes, edges} form and the
// flat entity list form are supported. [ReadGraph] and [ImportFile] go one
// step further and return a validated [entity.Graph]; flat lists have their
// edges synthesized and effective ownership computed.
//
// # Round Trip
//
// Loading the output of [WriteJSON] reproduces the same node and edge IDs,
// labels, relationships and metadata.
package io
