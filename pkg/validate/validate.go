package validate

import (
	"fmt"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
)

// IsFlatList reports whether payload has the flat parent-reference form
// (a top-level array) rather than the {nodes, edges} form.
func IsFlatList(payload any) bool {
	_, ok := payload.([]any)
	return ok
}

// Graph validates an untyped {nodes, edges} payload and returns the
// normalized graph.
//
// The payload is the result of decoding JSON or YAML into an empty
// interface. Every node must have a non-empty string id and a string label;
// every edge a non-empty string id, source and target. Optional fields must
// match their declared types when present. Node and edge ids must be unique
// and edge endpoints must reference declared nodes. Unknown keys are ignored.
//
// On failure Graph returns an *errors.ValidationError listing every violated
// field path; the returned graph is then the zero value and must not be used.
func Graph(payload any) (entity.Graph, error) {
	c := &checker{}

	root, ok := payload.(map[string]any)
	if !ok {
		c.add("", "payload must be an object with \"nodes\" and \"edges\" arrays, got %s", typeName(payload))
		return entity.Graph{}, c.err()
	}

	rawNodes, okNodes := c.array(root, "nodes", "nodes")
	rawEdges, okEdges := c.array(root, "edges", "edges")

	g := entity.Graph{
		Nodes: make([]entity.Node, 0, len(rawNodes)),
		Edges: make([]entity.Edge, 0, len(rawEdges)),
	}
	seenNodes := make(map[string]string, len(rawNodes))
	for i, raw := range rawNodes {
		path := fmt.Sprintf("nodes[%d]", i)
		obj, ok := c.object(raw, path)
		if !ok {
			continue
		}
		n := c.node(obj, path, true)
		c.unique(seenNodes, n.ID, path+".id", "node")
		g.Nodes = append(g.Nodes, n)
	}

	seenEdges := make(map[string]string, len(rawEdges))
	for i, raw := range rawEdges {
		path := fmt.Sprintf("edges[%d]", i)
		obj, ok := c.object(raw, path)
		if !ok {
			continue
		}
		e := c.edge(obj, path)
		c.unique(seenEdges, e.ID, path+".id", "edge")
		if okNodes {
			c.endpoint(seenNodes, e.Source, path+".source")
			c.endpoint(seenNodes, e.Target, path+".target")
		}
		g.Edges = append(g.Edges, e)
	}

	if !okNodes || !okEdges {
		return entity.Graph{}, c.err()
	}
	if err := c.err(); err != nil {
		return entity.Graph{}, err
	}
	return g, nil
}

// FlatList validates an untyped flat entity list: an array of records of
// the form {id, parentId?, ownershipPercentage?, ...node fields}.
//
// Labels are optional and default to the id. Every parentId must reference
// another record in the list. All violations are reported together as an
// *errors.ValidationError.
func FlatList(payload any) ([]entity.FlatEntity, error) {
	c := &checker{}

	list, ok := payload.([]any)
	if !ok {
		c.add("", "flat entity list must be an array, got %s", typeName(payload))
		return nil, c.err()
	}

	records := make([]entity.FlatEntity, 0, len(list))
	seen := make(map[string]string, len(list))
	for i, raw := range list {
		path := fmt.Sprintf("[%d]", i)
		obj, ok := c.object(raw, path)
		if !ok {
			continue
		}
		r := entity.FlatEntity{Node: c.node(obj, path, false)}
		r.ParentID, _ = c.optString(obj, "parentId", path)
		r.OwnershipPercentage = c.optNumber(obj, "ownershipPercentage", path)
		c.unique(seen, r.ID, path+".id", "entity")
		records = append(records, r)
	}

	for i, r := range records {
		if r.ParentID != "" {
			c.endpoint(seen, r.ParentID, fmt.Sprintf("[%d].parentId", i))
		}
	}

	if err := c.err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Typed re-checks a graph that was built in-process rather than decoded:
// identifiers, uniqueness, edge endpoints and enumerated fields.
func Typed(g entity.Graph) error {
	c := &checker{}
	nodes := make(map[string]string, len(g.Nodes))
	for i, n := range g.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		c.id(n.ID, path+".id")
		c.unique(nodes, n.ID, path+".id", "node")
		if n.ComplianceStatus != "" && !n.ComplianceStatus.Valid() {
			c.add(path+".complianceStatus", "unknown compliance status %q", n.ComplianceStatus)
		}
		if n.PillarTwoStatus != "" && !n.PillarTwoStatus.Valid() {
			c.add(path+".pillarTwoStatus", "unknown Pillar Two status %q", n.PillarTwoStatus)
		}
	}
	edges := make(map[string]string, len(g.Edges))
	for i, e := range g.Edges {
		path := fmt.Sprintf("edges[%d]", i)
		c.id(e.ID, path+".id")
		c.unique(edges, e.ID, path+".id", "edge")
		c.endpoint(nodes, e.Source, path+".source")
		c.endpoint(nodes, e.Target, path+".target")
	}
	return c.err()
}

// Node checks a single typed node for insertion into an existing graph.
func Node(n entity.Node) error {
	c := &checker{}
	c.id(n.ID, "id")
	if n.ComplianceStatus != "" && !n.ComplianceStatus.Valid() {
		c.add("complianceStatus", "unknown compliance status %q", n.ComplianceStatus)
	}
	if n.PillarTwoStatus != "" && !n.PillarTwoStatus.Valid() {
		c.add("pillarTwoStatus", "unknown Pillar Two status %q", n.PillarTwoStatus)
	}
	return c.err()
}

// Patch checks the enumerated fields of a node patch.
func Patch(p entity.NodePatch) error {
	c := &checker{}
	if p.ComplianceStatus != nil && !p.ComplianceStatus.Valid() {
		c.add("complianceStatus", "unknown compliance status %q", *p.ComplianceStatus)
	}
	if p.PillarTwoStatus != nil && !p.PillarTwoStatus.Valid() {
		c.add("pillarTwoStatus", "unknown Pillar Two status %q", *p.PillarTwoStatus)
	}
	return c.err()
}

// Fields returns the field errors of a validation failure, or nil if err is
// not one.
func Fields(err error) []errors.FieldError {
	var v *errors.ValidationError
	if ok := asValidation(err, &v); ok {
		return v.Fields
	}
	return nil
}
