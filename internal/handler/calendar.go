package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wellsfam/tripsync/internal/domain"
	"github.com/wellsfam/tripsync/internal/engine"
)

// PostDay handles POST /api/days. The date is a "2006-01-02" string.
func (s *Server) PostDay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
		Park string `json:"park"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		requestError(w, "date must be YYYY-MM-DD")
		return
	}

	if err := s.sync.AddDay(date, req.Park); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sync.State())
}

// PostBlock handles POST /api/blocks.
func (s *Server) PostBlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DayID string `json:"day_id"`
		engine.BlockInput
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}
	if req.DayID == "" {
		requestError(w, "day_id is required")
		return
	}

	if err := s.sync.AddBlock(req.DayID, req.BlockInput); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sync.State())
}

// PutBlock handles PUT /api/blocks/{blockID}.
func (s *Server) PutBlock(w http.ResponseWriter, r *http.Request) {
	var req engine.BlockInput
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.UpdateBlock(chi.URLParam(r, "blockID"), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}

// DeleteBlock handles DELETE /api/blocks/{blockID}.
func (s *Server) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.DeleteBlock(chi.URLParam(r, "blockID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}

// PostRSVP handles POST /api/blocks/{blockID}/rsvp.
func (s *Server) PostRSVP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.RSVPStatus `json:"status"`
		Quip   string            `json:"quip"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.RSVP(chi.URLParam(r, "blockID"), req.Status, req.Quip); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.State())
}

// PostTripMessage handles POST /api/messages: trip-level chat.
func (s *Server) PostTripMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.SendTripMessage(req.Message); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sync.State())
}

// PostBlockMessage handles POST /api/blocks/{blockID}/messages.
func (s *Server) PostBlockMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, "invalid request body")
		return
	}

	if err := s.sync.SendBlockMessage(chi.URLParam(r, "blockID"), req.Message); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sync.State())
}
