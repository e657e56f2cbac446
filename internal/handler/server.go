// Package handler implements the HTTP facade over the sync engine.
// All handlers are methods on Server. Methods are split into domain-specific
// files (state.go, calendar.go, etc.) but all share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wellsfam/tripsync/internal/domain"
	"github.com/wellsfam/tripsync/internal/engine"
)

// Syncer defines the session operations the facade depends on. Defining the
// interface here (in the consumer package) follows the Go convention:
// "accept interfaces, return concrete types". It lets handler tests inject
// a fake without a database or realtime channel.
type Syncer interface {
	State() engine.State
	CreateTrip(ctx context.Context, name string) error
	Refetch(ctx context.Context) error
	Stop()

	SendTripMessage(text string) error
	SendBlockMessage(blockID, text string) error
	RSVP(blockID string, status domain.RSVPStatus, quip string) error
	AddDay(date time.Time, park string) error
	AddBlock(dayID string, in engine.BlockInput) error
	UpdateBlock(blockID string, in engine.BlockInput) error
	DeleteBlock(blockID string) error
	SetPackingList(next []domain.PackingItem) error
	SetBudgetItems(next []domain.BudgetItem) error
	AddPersonalItem(item string) error
	TogglePersonalItem(id string, packed bool) error
	DeletePersonalItem(id string) error
	SaveResponse(questionnaireID string, answers map[string]any, completed bool) error
	UpdateNotes(notes string) error
	UpdateProfile(in engine.ProfileInput) error
}

// Server holds the facade's dependencies.
type Server struct {
	sync Syncer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(sync Syncer) *Server {
	return &Server{sync: sync}
}

// Routes mounts every endpoint on a fresh chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.GetState)
		r.Post("/refetch", s.PostRefetch)
		r.Post("/logout", s.PostLogout)

		r.Post("/trip", s.PostTrip)
		r.Put("/trip/notes", s.PutTripNotes)
		r.Put("/profile", s.PutProfile)

		r.Post("/days", s.PostDay)
		r.Post("/blocks", s.PostBlock)
		r.Put("/blocks/{blockID}", s.PutBlock)
		r.Delete("/blocks/{blockID}", s.DeleteBlock)
		r.Post("/blocks/{blockID}/rsvp", s.PostRSVP)
		r.Post("/blocks/{blockID}/messages", s.PostBlockMessage)
		r.Post("/messages", s.PostTripMessage)

		r.Put("/packing", s.PutPackingList)
		r.Post("/packing/personal", s.PostPersonalItem)
		r.Put("/packing/personal/{itemID}", s.PutPersonalItem)
		r.Delete("/packing/personal/{itemID}", s.DeletePersonalItem)

		r.Put("/budget", s.PutBudget)

		r.Put("/questionnaires/{questionnaireID}/response", s.PutResponse)
	})

	return r
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
