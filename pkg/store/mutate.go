package store

import (
	"slices"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
	"github.com/matzehuels/stakegraph/pkg/ownership"
	"github.com/matzehuels/stakegraph/pkg/validate"
)

// AddNode appends n to the node sequence. Nodes added while sandboxed are
// marked as drafts. It returns a DUPLICATE_ID error if the ID is taken.
func (s *Store) AddNode(n entity.Node) error {
	if err := validate.Node(n); err != nil {
		return err
	}
	n = n.Clone()
	n.Normalize()

	s.mu.Lock()
	if s.graph.HasNode(n.ID) {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeDuplicateID, "node %q already exists", n.ID)
	}
	if s.sandbox.Active() {
		n.IsDraft = true
	}
	s.graph.Nodes = append(s.graph.Nodes, n)
	s.bump(EventNodeAdded, n.ID)
	s.report("add_node", n.ID, Applied)
	s.mu.Unlock()

	s.flush()
	return nil
}

// RemoveNode deletes the node with the given ID together with every edge
// that starts or ends at it. If the node was selected, the selection is
// cleared.
func (s *Store) RemoveNode(id string) Outcome {
	s.mu.Lock()
	i := slices.IndexFunc(s.graph.Nodes, func(n entity.Node) bool { return n.ID == id })
	if i < 0 {
		defer s.mu.Unlock()
		return s.report("remove_node", id, NotFound)
	}
	s.graph.Nodes = slices.Delete(s.graph.Nodes, i, i+1)
	s.graph.Edges = slices.DeleteFunc(s.graph.Edges, func(e entity.Edge) bool {
		return e.Source == id || e.Target == id
	})
	s.retrace()
	s.bump(EventNodeRemoved, id)
	o := s.report("remove_node", id, Applied)
	s.mu.Unlock()

	s.flush()
	return o
}

// UpdateNode merges the set fields of patch into the node with the given ID.
// An unknown ID yields NotFound and changes nothing.
func (s *Store) UpdateNode(id string, patch entity.NodePatch) (Outcome, error) {
	if err := validate.Patch(patch); err != nil {
		return Ignored, err
	}

	s.mu.Lock()
	i := slices.IndexFunc(s.graph.Nodes, func(n entity.Node) bool { return n.ID == id })
	if i < 0 {
		defer s.mu.Unlock()
		return s.report("update_node", id, NotFound), nil
	}
	patch.Apply(&s.graph.Nodes[i])
	s.bump(EventNodeUpdated, id)
	o := s.report("update_node", id, Applied)
	s.mu.Unlock()

	s.flush()
	return o, nil
}

// AddEdge appends e to the edge sequence. Both endpoints must exist;
// otherwise nothing is inserted and the outcome is NotFound. An edge that
// would close an ownership cycle is not inserted; AddEdge returns Ignored
// and an OWNERSHIP_CYCLE error. Edges added while sandboxed are marked as
// drafts.
func (s *Store) AddEdge(e entity.Edge) (Outcome, error) {
	if err := errors.ValidateID(e.ID); err != nil {
		return Ignored, err
	}
	e = e.Clone()

	s.mu.Lock()
	if slices.ContainsFunc(s.graph.Edges, func(x entity.Edge) bool { return x.ID == e.ID }) {
		s.mu.Unlock()
		return Ignored, errors.New(errors.ErrCodeDuplicateID, "edge %q already exists", e.ID)
	}
	if !s.graph.HasNode(e.Source) || !s.graph.HasNode(e.Target) {
		defer s.mu.Unlock()
		s.log.Debug("edge endpoint missing", "edge", e.ID, "source", e.Source, "target", e.Target)
		return s.report("add_edge", e.ID, NotFound), nil
	}
	candidate := s.graph
	candidate.Edges = append(slices.Clip(s.graph.Edges), e)
	if err := ownership.Check(candidate); err != nil {
		defer s.mu.Unlock()
		s.log.Debug("edge closes an ownership cycle", "edge", e.ID, "source", e.Source, "target", e.Target)
		s.report("add_edge", e.ID, Ignored)
		return Ignored, err
	}
	if s.sandbox.Active() {
		e.IsDraft = true
	}
	s.graph.Edges = append(s.graph.Edges, e)
	s.retrace()
	s.bump(EventEdgeAdded, e.ID)
	o := s.report("add_edge", e.ID, Applied)
	s.mu.Unlock()

	s.flush()
	return o, nil
}

// RemoveEdge deletes the edge with the given ID.
func (s *Store) RemoveEdge(id string) Outcome {
	s.mu.Lock()
	i := slices.IndexFunc(s.graph.Edges, func(e entity.Edge) bool { return e.ID == id })
	if i < 0 {
		defer s.mu.Unlock()
		return s.report("remove_edge", id, NotFound)
	}
	s.graph.Edges = slices.Delete(s.graph.Edges, i, i+1)
	s.retrace()
	s.bump(EventEdgeRemoved, id)
	o := s.report("remove_edge", id, Applied)
	s.mu.Unlock()

	s.flush()
	return o
}

// SelectNode sets the selection and recomputes the highlighted path.
// An empty id clears both. An unknown id yields NotFound and leaves the
// current selection in place.
func (s *Store) SelectNode(id string) Outcome {
	s.mu.Lock()
	if id != "" && !s.graph.HasNode(id) {
		defer s.mu.Unlock()
		return s.report("select_node", id, NotFound)
	}
	s.selection = id
	s.retrace()
	s.bump(EventSelection, id)
	o := s.report("select_node", id, Applied)
	s.mu.Unlock()

	s.flush()
	return o
}

// SetFilters replaces the active filters. Stored nodes and edges are not
// affected, only the filtered views.
func (s *Store) SetFilters(f Filters) {
	s.mu.Lock()
	s.filters = f
	s.bump(EventFilters, "")
	s.report("set_filters", "", Applied)
	s.mu.Unlock()

	s.flush()
}

// StartSandbox snapshots the graph and enters sandbox mode.
// It is Ignored if already sandboxed.
func (s *Store) StartSandbox() Outcome {
	return s.transition("start_sandbox", func() bool { return s.sandbox.Start(s.graph) })
}

// CommitSandbox keeps all sandbox edits, clears every draft flag and leaves
// sandbox mode. It is Ignored if not sandboxed.
func (s *Store) CommitSandbox() Outcome {
	return s.transition("commit_sandbox", func() bool { return s.sandbox.Commit(&s.graph) })
}

// DiscardSandbox restores the graph captured by StartSandbox and leaves
// sandbox mode. It is Ignored if not sandboxed.
func (s *Store) DiscardSandbox() Outcome {
	return s.transition("discard_sandbox", func() bool {
		if !s.sandbox.Discard(&s.graph) {
			return false
		}
		s.retrace()
		return true
	})
}

func (s *Store) transition(op string, fn func() bool) Outcome {
	s.mu.Lock()
	if !fn() {
		defer s.mu.Unlock()
		return s.report(op, "", Ignored)
	}
	s.bump(EventSandbox, "")
	o := s.report(op, "", Applied)
	s.log.Debug("sandbox transition", "op", op, "state", s.sandbox.State())
	s.mu.Unlock()

	s.flush()
	return o
}
