package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

// PutBudget handles PUT /api/budget. The body is the full next expense
// collection with usernames; the engine validates splits, resolves
// usernames to user ids, and infers the remote calls from the diff.
func (s *Server) PutBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []domain.BudgetItem `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.SetBudgetItems(req.Items); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}

// PutResponse handles PUT /api/questionnaires/{questionnaireID}/response:
// upsert the caller's answers.
func (s *Server) PutResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers   map[string]any `json:"answers"`
		Completed bool           `json:"completed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.SaveResponse(chi.URLParam(r, "questionnaireID"), req.Answers, req.Completed); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}
