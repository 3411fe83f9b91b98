// Package sandbox implements all-or-nothing speculative editing over a graph.
//
// A [Manager] moves between two states. [Manager.Start] takes a deep copy
// of the graph as the rollback point. Edits then happen on the live graph
// as usual. [Manager.Commit] drops the rollback point and clears every draft
// flag. [Manager.Discard] restores the graph verbatim from the rollback point.
// Calls that are invalid in the current state are no-ops that return false.
//
// Manager holds no lock; the owning store serializes access.
package sandbox

import (
	"fmt"
	"time"

	"github.com/matzehuels/stakegraph/pkg/entity"
)

// State is the transaction state of a [Manager].
type State int

const (
	Live State = iota
	Sandboxed
)

// String returns "live" or "sandboxed".
func (s State) String() string {
	if s == Sandboxed {
		return "sandboxed"
	}
	return "live"
}

// MarshalText encodes the state as its string form.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes "live" or "sandboxed".
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "live":
		*s = Live
	case "sandboxed":
		*s = Sandboxed
	default:
		return fmt.Errorf("unknown sandbox state %q", text)
	}
	return nil
}

// Manager tracks sandbox state and the rollback snapshot.
// The zero value is a Manager in the Live state.
type Manager struct {
	state    State
	snapshot *entity.Graph
	started  time.Time
	now      func() time.Time
}

// State returns the current state.
func (m *Manager) State() State { return m.state }

// Active reports whether the manager is Sandboxed.
func (m *Manager) Active() bool { return m.state == Sandboxed }

// StartedAt returns when the current sandbox was entered, or the zero time.
func (m *Manager) StartedAt() time.Time { return m.started }

// Snapshot returns a copy of the rollback point, if any.
func (m *Manager) Snapshot() (entity.Graph, bool) {
	if m.snapshot == nil {
		return entity.Graph{}, false
	}
	return m.snapshot.Clone(), true
}

// Start enters the Sandboxed state with a deep copy of g as rollback point.
// It returns false if already Sandboxed.
func (m *Manager) Start(g entity.Graph) bool {
	if m.state == Sandboxed {
		return false
	}
	snap := g.Clone()
	m.snapshot = &snap
	m.state = Sandboxed
	m.started = m.clock()
	return true
}

// Commit makes all sandbox edits permanent: the rollback point is dropped
// and every draft flag in g is cleared. It returns false if not Sandboxed.
func (m *Manager) Commit(g *entity.Graph) bool {
	if m.state != Sandboxed {
		return false
	}
	ClearDrafts(g)
	m.reset()
	return true
}

// Discard replaces g with the rollback point and returns to Live.
// It returns false if not Sandboxed or if no rollback point exists.
func (m *Manager) Discard(g *entity.Graph) bool {
	if m.state != Sandboxed || m.snapshot == nil {
		return false
	}
	*g = m.snapshot.Clone()
	m.reset()
	return true
}

func (m *Manager) reset() {
	m.state = Live
	m.snapshot = nil
	m.started = time.Time{}
}

func (m *Manager) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

// ClearDrafts sets IsDraft to false on every node and edge of g and returns
// how many flags were cleared.
func ClearDrafts(g *entity.Graph) int {
	n := 0
	for i := range g.Nodes {
		if g.Nodes[i].IsDraft {
			g.Nodes[i].IsDraft = false
			n++
		}
	}
	for i := range g.Edges {
		if g.Edges[i].IsDraft {
			g.Edges[i].IsDraft = false
			n++
		}
	}
	return n
}
