package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

// PutPackingList handles PUT /api/packing. The body is the full next state
// of the shared list; the engine infers adds, removes, and check toggles
// from the diff against the current one.
func (s *Server) PutPackingList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []domain.PackingItem `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.SetPackingList(req.Items); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}

// PostPersonalItem handles POST /api/packing/personal.
func (s *Server) PostPersonalItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Item string `json:"item"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.AddPersonalItem(req.Item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sync.State())
}

// PutPersonalItem handles PUT /api/packing/personal/{itemID}: toggle packed.
func (s *Server) PutPersonalItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Packed bool `json:"packed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.TogglePersonalItem(chi.URLParam(r, "itemID"), req.Packed); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}

// DeletePersonalItem handles DELETE /api/packing/personal/{itemID}.
func (s *Server) DeletePersonalItem(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.DeletePersonalItem(chi.URLParam(r, "itemID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}
