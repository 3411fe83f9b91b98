// Package validate checks externally supplied diagram payloads before they
// replace the live graph.
//
// Payloads arrive as the untyped result of decoding JSON or YAML. [Graph]
// accepts the {nodes, edges} form and [FlatList] accepts a flat list of
// parent-referencing records. Both walk the whole payload and report every
// violated field path in a single *errors.ValidationError instead of stopping
// at the first problem:
//
//	g, err := validate.Graph(payload)
//	if err != nil {
//	    fmt.Println(errors.UserMessage(err))
//	    // payload rejected: 2 invalid fields
//	    //   - nodes[1].label: required string is missing
//	    //   - edges[0].target: references unknown node "ghost"
//	}
//
// Validation is pure: nothing is mutated and no partial result is returned
// on failure.
package validate
