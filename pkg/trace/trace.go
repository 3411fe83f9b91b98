package trace

import (
	"slices"

	"github.com/matzehuels/stakegraph/pkg/entity"
)

// Path is the set of node and edge IDs on every ownership path from a
// starting node back to its roots.
type Path struct {
	Nodes []string `json:"nodes"`
	Edges []string `json:"edges"`
}

// IDs returns node IDs followed by edge IDs.
func (p Path) IDs() []string {
	return append(slices.Clone(p.Nodes), p.Edges...)
}

// Contains reports whether id is a node or edge on the path.
func (p Path) Contains(id string) bool {
	return slices.Contains(p.Nodes, id) || slices.Contains(p.Edges, id)
}

// Len returns the total number of IDs on the path.
func (p Path) Len() int { return len(p.Nodes) + len(p.Edges) }

// Empty reports whether the path holds no IDs.
func (p Path) Empty() bool { return p.Len() == 0 }

// Clone returns a copy that shares no memory with p.
func (p Path) Clone() Path {
	return Path{Nodes: slices.Clone(p.Nodes), Edges: slices.Clone(p.Edges)}
}

// Ancestors returns the ancestor path of start. If start is not a node of g
// the path is empty. Edges whose source is not a node still join the path but
// are not followed.
func Ancestors(g entity.Graph, start string) Path {
	p := Path{Nodes: []string{}, Edges: []string{}}
	if !g.HasNode(start) {
		return p
	}

	incoming := make(map[string][]entity.Edge, len(g.Nodes))
	for _, e := range g.Edges {
		incoming[e.Target] = append(incoming[e.Target], e)
	}
	exists := g.NodeIndex()

	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		p.Nodes = append(p.Nodes, curr)

		for _, e := range incoming[curr] {
			p.Edges = append(p.Edges, e.ID)
			if _, ok := exists[e.Source]; !ok || visited[e.Source] {
				continue
			}
			visited[e.Source] = true
			queue = append(queue, e.Source)
		}
	}
	return p
}
