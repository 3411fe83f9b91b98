package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stakegraph/pkg/buildinfo"
	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
	graphio "github.com/matzehuels/stakegraph/pkg/io"
	"github.com/matzehuels/stakegraph/pkg/sandbox"
	"github.com/matzehuels/stakegraph/pkg/store"
	"github.com/matzehuels/stakegraph/pkg/trace"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Status())
}

// Graph

func (s *Server) writeGraph(w http.ResponseWriter, r *http.Request, g entity.Graph) {
	data, err := graphio.MarshalJSON(g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	s.writeGraph(w, r, s.store.Graph())
}

func (s *Server) handleFiltered(w http.ResponseWriter, r *http.Request) {
	s.writeGraph(w, r, s.store.Filtered())
}

func (s *Server) handlePutGraph(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Load(payload); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Status())
}

type propagateResponse struct {
	Values    map[string]float64 `json:"values"`
	Roots     []string           `json:"roots"`
	Unreached []string           `json:"unreached"`
}

func (s *Server) handlePropagate(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.Propagate()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := propagateResponse{Values: res.Values, Roots: res.Roots, Unreached: res.Unreached}
	if resp.Roots == nil {
		resp.Roots = []string{}
	}
	if resp.Unreached == nil {
		resp.Unreached = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLegend(w http.ResponseWriter, _ *http.Request) {
	legend := s.store.Legend()
	if legend == nil {
		legend = []store.LegendEntry{}
	}
	writeJSON(w, http.StatusOK, legend)
}

// Nodes

func (s *Server) handleListNodes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Nodes())
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, ok := s.store.Node(id)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var n entity.Node
	if err := decodeJSON(r, &n); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.AddNode(n); err != nil {
		s.writeError(w, r, err)
		return
	}
	added, _ := s.store.Node(n.ID)
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p entity.NodePatch
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.store.UpdateNode(id, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if o == store.NotFound {
		s.writeOutcome(w, r, o, id, errors.ErrCodeNodeNotFound)
		return
	}
	n, _ := s.store.Node(id)
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.writeOutcome(w, r, s.store.RemoveNode(id), id, errors.ErrCodeNodeNotFound)
}

func (s *Server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g := s.store.Graph()
	if !g.HasNode(id) {
		s.writeError(w, r, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, trace.Ancestors(g, id))
}

// Edges

func (s *Server) handleListEdges(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Edges())
}

func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	var e entity.Edge
	if err := decodeJSON(r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.store.AddEdge(e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if o == store.NotFound {
		s.writeError(w, r, errors.New(errors.ErrCodeNodeNotFound,
			"edge %q references a missing node (%s -> %s)", e.ID, e.Source, e.Target))
		return
	}
	writeJSON(w, http.StatusCreated, outcomeResponse{Outcome: o, ID: e.ID})
}

func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.writeOutcome(w, r, s.store.RemoveEdge(id), id, errors.ErrCodeEdgeNotFound)
}

// Selection

type selectionResponse struct {
	Selection string     `json:"selection"`
	Path      trace.Path `json:"path"`
}

func (s *Server) selection() selectionResponse {
	id, _ := s.store.Selection()
	return selectionResponse{Selection: id, Path: s.store.HighlightedPath()}
}

func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.selection())
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.store.SelectNode(req.ID) == store.NotFound {
		s.writeError(w, r, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", req.ID))
		return
	}
	writeJSON(w, http.StatusOK, s.selection())
}

func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.store.SelectNode("")
	writeJSON(w, http.StatusOK, s.selection())
}

// Filters

func (s *Server) handleGetFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Filters())
}

func (s *Server) handlePutFilters(w http.ResponseWriter, r *http.Request) {
	var f store.Filters
	if err := decodeJSON(r, &f); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.Compliance != "" && !f.Compliance.Valid() {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "unknown compliance status %q", f.Compliance))
		return
	}
	s.store.SetFilters(f)
	writeJSON(w, http.StatusOK, f)
}

// Sandbox

type sandboxResponse struct {
	Outcome   string        `json:"outcome,omitempty"`
	State     sandbox.State `json:"state"`
	StartedAt *time.Time    `json:"startedAt,omitempty"`
}

func (s *Server) sandboxState() sandboxResponse {
	st := s.store.Status()
	return sandboxResponse{State: st.Sandbox, StartedAt: st.SandboxStartedAt}
}

func (s *Server) handleSandbox(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sandboxState())
}

func (s *Server) handleSandboxOp(op func() store.Outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		o := op()
		resp := s.sandboxState()
		resp.Outcome = o.String()
		writeJSON(w, http.StatusOK, resp)
	}
}
