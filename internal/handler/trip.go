package handler

import (
	"net/http"

	"github.com/wellsfam/tripsync/internal/engine"
)

// PostTrip handles POST /api/trip: create a trip with the caller as admin.
func (s *Server) PostTrip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.CreateTrip(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sync.State())
}

// PutTripNotes handles PUT /api/trip/notes.
func (s *Server) PutTripNotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.UpdateNotes(req.Notes); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}

// PutProfile handles PUT /api/profile: edit the caller's display identity.
func (s *Server) PutProfile(w http.ResponseWriter, r *http.Request) {
	var req engine.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.UpdateProfile(req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}
