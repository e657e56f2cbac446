package domain

import (
	"time"

	"github.com/google/uuid"
)

// Questionnaire is a question pack attached to a trip. The question content
// itself ships with the client as static data; only the id and title live
// in the remote store.
type Questionnaire struct {
	ID     uuid.UUID `json:"id"`
	TripID uuid.UUID `json:"trip_id"`
	Title  string    `json:"title"`
}

// QuestionnaireResponse is one user's answers to one questionnaire.
// The (questionnaire_id, user_id) pair is the upsert key. Answers is an
// opaque key/value map; the engine never interprets it.
// SubmittedAt is set only when Completed is true.
type QuestionnaireResponse struct {
	ID              uuid.UUID      `json:"id"`
	QuestionnaireID uuid.UUID      `json:"questionnaire_id"`
	UserID          uuid.UUID      `json:"user_id"`
	Answers         map[string]any `json:"answers"`
	Completed       bool           `json:"completed"`
	SubmittedAt     *time.Time     `json:"submitted_at,omitempty"`
}
