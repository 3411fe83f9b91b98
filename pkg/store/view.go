package store

import (
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/sandbox"
	"github.com/matzehuels/stakegraph/pkg/trace"
)

// Filters holds optional match criteria for the filtered views. Empty
// fields match everything; set fields combine with AND.
type Filters struct {
	Region     string                  `json:"region,omitempty" toml:"region"`
	EntityType string                  `json:"entityType,omitempty" toml:"entity_type"`
	Compliance entity.ComplianceStatus `json:"compliance,omitempty" toml:"compliance"`
}

// Empty reports whether no criterion is set.
func (f Filters) Empty() bool { return f == Filters{} }

// Match reports whether n satisfies every set criterion.
func (f Filters) Match(n entity.Node) bool {
	if f.Region != "" && !strings.EqualFold(n.Region, f.Region) {
		return false
	}
	if f.EntityType != "" && !strings.EqualFold(n.EntityType, f.EntityType) {
		return false
	}
	if f.Compliance != "" && n.ComplianceStatus != f.Compliance {
		return false
	}
	return true
}

// Apply returns the nodes of g matching f and the edges whose endpoints
// are both among them.
func (f Filters) Apply(g entity.Graph) entity.Graph {
	out := entity.Graph{Nodes: []entity.Node{}, Edges: []entity.Edge{}}
	keep := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if f.Match(n) {
			keep[n.ID] = true
			out.Nodes = append(out.Nodes, n.Clone())
		}
	}
	for _, e := range g.Edges {
		if keep[e.Source] && keep[e.Target] {
			out.Edges = append(out.Edges, e.Clone())
		}
	}
	return out
}

// LegendEntry describes one entity type present in the filtered view.
type LegendEntry struct {
	EntityType string `json:"entityType"`
	Color      string `json:"color,omitempty"` // Color of the first node of this type
	Count      int    `json:"count"`
}

// BuildLegend summarizes the entity types of nodes, sorted by type. Nodes
// without an entity type are not listed.
func BuildLegend(nodes []entity.Node) []LegendEntry {
	byType := make(map[string]int)
	var legend []LegendEntry
	for _, n := range nodes {
		if n.EntityType == "" {
			continue
		}
		i, ok := byType[n.EntityType]
		if !ok {
			i = len(legend)
			byType[n.EntityType] = i
			legend = append(legend, LegendEntry{EntityType: n.EntityType, Color: n.Color})
		}
		if legend[i].Color == "" {
			legend[i].Color = n.Color
		}
		legend[i].Count++
	}
	slices.SortFunc(legend, func(a, b LegendEntry) int { return strings.Compare(a.EntityType, b.EntityType) })
	return legend
}

// View is the read-only surface of a [Store]. Consumers that only render
// or inspect state should depend on View rather than *Store.
type View interface {
	Graph() entity.Graph
	Nodes() []entity.Node
	Edges() []entity.Edge
	Node(id string) (entity.Node, bool)
	FilteredNodes() []entity.Node
	FilteredEdges() []entity.Edge
	Filtered() entity.Graph
	Selection() (string, bool)
	HighlightedPath() trace.Path
	Sandboxed() bool
	Filters() Filters
	Legend() []LegendEntry
	Status() Status
	Revision() uint64
	Subscribe(fn func(Event)) (unsubscribe func())
}

var _ View = (*Store)(nil)

// Status is a summary of the store's state.
type Status struct {
	Revision         uint64        `json:"revision"`
	Nodes            int           `json:"nodes"`
	Edges            int           `json:"edges"`
	Selection        string        `json:"selection,omitempty"`
	Sandbox          sandbox.State `json:"sandbox"`
	SandboxStartedAt *time.Time    `json:"sandboxStartedAt,omitempty"`
	Filters          Filters       `json:"filters"`
}

// Graph returns a deep copy of the full graph.
func (s *Store) Graph() entity.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Clone()
}

// Nodes returns a copy of all nodes in insertion order.
func (s *Store) Nodes() []entity.Node { return s.Graph().Nodes }

// Edges returns a copy of all edges in insertion order.
func (s *Store) Edges() []entity.Edge { return s.Graph().Edges }

// Node returns a copy of the node with the given ID.
func (s *Store) Node(id string) (entity.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.graph.Nodes {
		if n.ID == id {
			return n.Clone(), true
		}
	}
	return entity.Node{}, false
}

// Filtered returns the nodes matching the active filters and the edges
// between them.
func (s *Store) Filtered() entity.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.Apply(s.graph)
}

// FilteredNodes returns the nodes matching the active filters.
func (s *Store) FilteredNodes() []entity.Node { return s.Filtered().Nodes }

// FilteredEdges returns the edges whose endpoints both match the active
// filters.
func (s *Store) FilteredEdges() []entity.Edge { return s.Filtered().Edges }

// Selection returns the selected node ID, if any.
func (s *Store) Selection() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection, s.selection != ""
}

// HighlightedPath returns the ancestor path of the selection. It is empty
// when nothing is selected.
func (s *Store) HighlightedPath() trace.Path {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path.Clone()
}

// Sandboxed reports whether sandbox mode is active.
func (s *Store) Sandboxed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sandbox.Active()
}

// Filters returns the active filters.
func (s *Store) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// Legend returns the entity-type legend of the filtered view.
func (s *Store) Legend() []LegendEntry { return BuildLegend(s.FilteredNodes()) }

// Revision returns a counter that increases with every state change.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Status returns a summary of the store's state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		Revision:  s.revision,
		Nodes:     len(s.graph.Nodes),
		Edges:     len(s.graph.Edges),
		Selection: s.selection,
		Sandbox:   s.sandbox.State(),
		Filters:   s.filters,
	}
	if t := s.sandbox.StartedAt(); !t.IsZero() {
		st.SandboxStartedAt = &t
	}
	return st
}
