// Package pkg provides the core libraries for stakegraph ownership modelling.
//
// # Overview
//
// Stakegraph models a corporate group as a directed graph: nodes are legal
// entities, edges say that one entity holds a percentage stake in another.
// The pkg directory is organized into these areas:
//
//  1. [entity] - Data model (nodes, edges, flat entity records, patches)
//  2. [validate] - Payload validation with per-field error paths
//  3. [store] - The graph store: mutations, selection, filters and views
//  4. [ownership], [trace], [sandbox] - Algorithms the store builds on
//  5. [io], [snapshot], [sample] - Serialization, persistence and demo data
//
// # Architecture
//
// The typical data flow:
//
//	JSON/YAML payload
//	         ↓
//	    [io] package (decode)
//	         ↓
//	    [validate] package (reject invalid input with every field path)
//	         ↓
//	    [store] package (state + mutations)
//	         ↓
//	    [ownership] / [trace] (effective ownership, ancestor paths)
//	         ↓
//	    canonical JSON export, snapshots, HTTP API
//
// # Quick Start
//
//	st := store.New()
//	payload, err := io.ImportFile("group.json")
//	if err != nil {
//	    return err
//	}
//	if err := st.Load(payload); err != nil {
//	    fmt.Println(errors.UserMessage(err))
//	    return err
//	}
//	st.SelectNode("opco-de")
//	fmt.Println(st.HighlightedPath().Nodes)
//
// [entity]: https://pkg.go.dev/github.com/matzehuels/stakegraph/pkg/entity
// [validate]: https://pkg.go.dev/github.com/matzehuels/stakegraph/pkg/validate
// [store]: https://pkg.go.dev/github.com/matzehuels/stakegraph/pkg/store
// [ownership]: https://pkg.go.dev/github.com/matzehuels/stakegraph/pkg/ownership
// [trace]: https://pkg.go.dev/github.com/matzehuels/stakegraph/pkg/trace
// [sandbox]: https://pkg.go.dev/github.com/matzehuels/stakegraph/pkg/sandbox
// [io]: https://pkg.go.dev/github.com/matzehuels/stakegraph/pkg/io
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/stakegraph/pkg/snapshot
// [sample]: https://pkg.go.dev/github.com/matzehuels/stakegraph/pkg/sample
package pkg
