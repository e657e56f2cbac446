package handler

import "net/http"

// GetState handles GET /api/state.
// It returns the full session state: status, last error, and the assembled
// trip view when one is loaded. This is the single read endpoint; the UI
// renders everything from it.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sync.State())
}

// PostRefetch handles POST /api/refetch: a forced full re-hydrate.
func (s *Server) PostRefetch(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.Refetch(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}

// PostLogout handles POST /api/logout. It tears the session down; the
// response confirms the engine is back in the no-trip state.
func (s *Server) PostLogout(w http.ResponseWriter, r *http.Request) {
	s.sync.Stop()
	writeJSON(w, http.StatusOK, s.sync.State())
}
