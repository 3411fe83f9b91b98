package store

import (
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/observability"
	"github.com/matzehuels/stakegraph/pkg/sandbox"
	"github.com/matzehuels/stakegraph/pkg/trace"
)

// Outcome names the result of a mutation that can legitimately do nothing.
type Outcome int

const (
	// Applied means the mutation changed the store.
	Applied Outcome = iota
	// NotFound means the referenced node or edge does not exist.
	NotFound
	// Ignored means the mutation is not valid in the current state,
	// such as committing while not sandboxed.
	Ignored
)

var outcomeNames = [...]string{Applied: "applied", NotFound: "not_found", Ignored: "ignored"}

// String returns "applied", "not_found" or "ignored".
func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// MarshalText encodes the outcome as its string form.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// EventKind identifies what changed in an [Event].
type EventKind string

const (
	EventLoaded      EventKind = "loaded"
	EventNodeAdded   EventKind = "node_added"
	EventNodeRemoved EventKind = "node_removed"
	EventNodeUpdated EventKind = "node_updated"
	EventEdgeAdded   EventKind = "edge_added"
	EventEdgeRemoved EventKind = "edge_removed"
	EventSelection   EventKind = "selection"
	EventFilters     EventKind = "filters"
	EventSandbox     EventKind = "sandbox"
	EventPropagated  EventKind = "propagated"
)

// Event is delivered to subscribers after every state change.
type Event struct {
	Kind     EventKind `json:"kind"`
	ID       string    `json:"id,omitempty"` // Affected node or edge, if any
	Revision uint64    `json:"revision"`
}

// Store is the canonical holder of an ownership graph and its view state.
//
// All methods are safe for concurrent use. Reads return deep copies, so
// callers never hold references into the live graph.
type Store struct {
	mu        sync.RWMutex
	graph     entity.Graph
	selection string
	path      trace.Path
	filters   Filters
	sandbox   sandbox.Manager
	revision  uint64

	pending    []Event // queued for delivery, in revision order
	delivering bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	log *log.Logger
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger used for rejected loads and no-op outcomes.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithGraph sets the initial graph. The graph is copied and labels are
// normalized; it is not validated.
func WithGraph(g entity.Graph) Option {
	return func(s *Store) {
		s.graph = g.Clone()
		for i := range s.graph.Nodes {
			s.graph.Nodes[i].Normalize()
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		graph: entity.Graph{Nodes: []entity.Node{}, Edges: []entity.Edge{}},
		path:  emptyPath(),
		subs:  make(map[int]func(Event)),
		log:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to be called after every state change and returns
// a function that removes the subscription. Events reach every subscriber
// in Revision order, one at a time, after the store lock is released, so
// callbacks may read from and mutate the store. Under concurrent mutation
// an event may be delivered by another mutating goroutine.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// bump advances the revision and queues the change event. Callers must
// hold mu and call flush after releasing it.
func (s *Store) bump(kind EventKind, id string) uint64 {
	s.revision++
	s.pending = append(s.pending, Event{Kind: kind, ID: id, Revision: s.revision})
	return s.revision
}

// flush delivers queued events in revision order. Only one goroutine
// delivers at a time; a flush that finds delivery in progress returns at
// once and its events are delivered by the running flush. Events raised by
// a subscriber are delivered after the current one.
func (s *Store) flush() {
	s.mu.Lock()
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()
		for _, ev := range batch {
			s.deliver(ev)
		}
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

func (s *Store) deliver(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, id := range slices.Sorted(maps.Keys(s.subs)) {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// report logs and records the outcome of a mutation.
func (s *Store) report(op, id string, o Outcome) Outcome {
	observability.Store().OnMutation(op, o.String())
	switch o {
	case NotFound:
		s.log.Debug("no such element", "op", op, "id", id)
	case Ignored:
		s.log.Debug("mutation ignored", "op", op, "sandbox", s.sandbox.State())
	}
	return o
}

// retrace recomputes the highlighted path from scratch. It clears the
// selection when the selected node no longer exists. Callers must hold mu.
func (s *Store) retrace() {
	if s.selection == "" {
		s.path = emptyPath()
		return
	}
	if !s.graph.HasNode(s.selection) {
		s.selection = ""
		s.path = emptyPath()
		return
	}
	s.path = trace.Ancestors(s.graph, s.selection)
}

func emptyPath() trace.Path {
	return trace.Path{Nodes: []string{}, Edges: []string{}}
}
