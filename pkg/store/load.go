package store

import (
	"time"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
	"github.com/matzehuels/stakegraph/pkg/observability"
	"github.com/matzehuels/stakegraph/pkg/ownership"
	"github.com/matzehuels/stakegraph/pkg/validate"
)

// Load validates an untyped payload and replaces the graph with it.
//
// A top-level array is treated as a flat entity list (see
// [Store.LoadFlatEntityList]); anything else must be a {nodes, edges}
// object. On any error the current graph, selection and filters are left
// untouched.
func (s *Store) Load(payload any) error {
	if validate.IsFlatList(payload) {
		return s.LoadFlatEntityList(payload)
	}
	start := time.Now()
	g, err := validate.Graph(payload)
	if err != nil {
		return s.rejected("graph", start, err)
	}
	return s.replace(g, false, start)
}

// LoadGraph replaces the graph with an already-typed graph. The graph is
// checked like a decoded payload and copied.
func (s *Store) LoadGraph(g entity.Graph) error {
	start := time.Now()
	if err := validate.Typed(g); err != nil {
		return s.rejected("graph", start, err)
	}
	g = g.Clone()
	for i := range g.Nodes {
		g.Nodes[i].Normalize()
	}
	return s.replace(g, false, start)
}

// LoadFlatEntityList validates a flat list of parent-referencing records,
// synthesizes one edge per parent reference and replaces the graph.
// Effective ownership is computed before the new graph is published.
func (s *Store) LoadFlatEntityList(payload any) error {
	start := time.Now()
	records, err := validate.FlatList(payload)
	if err != nil {
		return s.rejected("flat list", start, err)
	}
	g := entity.SynthesizeGraph(records)
	if err := validate.Typed(g); err != nil {
		return s.rejected("flat list", start, err)
	}
	return s.replace(g, true, start)
}

func (s *Store) rejected(form string, start time.Time, err error) error {
	observability.Store().OnLoad(0, 0, time.Since(start), err)
	s.log.Warn("load rejected", "form", form, "err", errors.UserMessage(err))
	return err
}

// replace publishes g as the new graph. Cycles are rejected. When propagate
// is set, effective ownership is recomputed first.
func (s *Store) replace(g entity.Graph, propagate bool, start time.Time) error {
	if propagate {
		if _, err := ownership.Apply(&g); err != nil {
			return s.rejected("flat list", start, err)
		}
	} else if err := ownership.Check(g); err != nil {
		return s.rejected("graph", start, err)
	}

	s.mu.Lock()
	s.graph = g
	s.selection = ""
	s.path = emptyPath()
	rev := s.bump(EventLoaded, "")
	s.mu.Unlock()

	observability.Store().OnLoad(len(g.Nodes), len(g.Edges), time.Since(start), nil)
	s.log.Debug("graph loaded", "nodes", len(g.Nodes), "edges", len(g.Edges), "revision", rev)
	s.flush()
	return nil
}

// Propagate recomputes effective ownership for the current graph. Edits do
// not trigger propagation on their own; call Propagate after editing.
//
// If the graph contains an ownership cycle, Propagate returns an
// OWNERSHIP_CYCLE error and leaves all values unchanged.
func (s *Store) Propagate() (ownership.Result, error) {
	start := time.Now()
	s.mu.Lock()
	res, err := ownership.Apply(&s.graph)
	n := len(s.graph.Nodes)
	if err == nil {
		s.bump(EventPropagated, "")
	}
	s.mu.Unlock()

	observability.Store().OnPropagate(n, time.Since(start), err)
	if err != nil {
		s.log.Warn("propagation failed", "err", err)
		return ownership.Result{}, err
	}
	if len(res.Unreached) > 0 {
		s.log.Debug("nodes without effective ownership", "ids", res.Unreached)
	}
	s.flush()
	return res, nil
}
