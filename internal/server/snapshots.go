package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stakegraph/pkg/snapshot"
)

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := s.snaps.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if infos == nil {
		infos = []snapshot.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	snap := snapshot.New(req.Name, s.store.Graph())
	if err := s.snaps.Save(r.Context(), snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("snapshot saved", "id", snap.ID, "name", snap.Name, "backend", s.snaps.Backend())
	writeJSON(w, http.StatusCreated, snap.Info())
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snaps.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snaps.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.LoadGraph(snap.Graph); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("snapshot restored", "id", snap.ID, "name", snap.Name)
	writeJSON(w, http.StatusOK, s.store.Status())
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.snaps.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
