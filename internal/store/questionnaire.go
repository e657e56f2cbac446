package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

// QuestionnairesByTrip returns the question packs attached to a trip.
func (s *Store) QuestionnairesByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Questionnaire, error) {
	const q = `
		SELECT id, trip_id, title
		FROM questionnaires
		WHERE trip_id = @trip_id
		ORDER BY id`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, classify("store.QuestionnairesByTrip", err)
	}
	defer rows.Close()

	var qs []domain.Questionnaire
	for rows.Next() {
		var item domain.Questionnaire
		if err := rows.Scan(&item.ID, &item.TripID, &item.Title); err != nil {
			return nil, classify("store.QuestionnairesByTrip: scan", err)
		}
		qs = append(qs, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("store.QuestionnairesByTrip: rows", err)
	}
	return qs, nil
}

// ResponsesByQuestionnaireIDs returns response rows for a set of
// questionnaire ids. Row policy limits visibility to the caller's own
// responses (or all of them, for admins); fewer rows than questionnaires
// is the normal case.
func (s *Store) ResponsesByQuestionnaireIDs(ctx context.Context, questionnaireIDs []uuid.UUID) ([]domain.QuestionnaireResponse, error) {
	if len(questionnaireIDs) == 0 {
		return []domain.QuestionnaireResponse{}, nil
	}

	const q = `
		SELECT id, questionnaire_id, user_id, answers, completed, submitted_at
		FROM questionnaire_responses
		WHERE questionnaire_id = ANY(@questionnaire_ids)`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"questionnaire_ids": questionnaireIDs})
	if err != nil {
		return nil, classify("store.ResponsesByQuestionnaireIDs", err)
	}
	defer rows.Close()

	var responses []domain.QuestionnaireResponse
	for rows.Next() {
		var r domain.QuestionnaireResponse
		if err := rows.Scan(&r.ID, &r.QuestionnaireID, &r.UserID, &r.Answers, &r.Completed, &r.SubmittedAt); err != nil {
			return nil, classify("store.ResponsesByQuestionnaireIDs: scan", err)
		}
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("store.ResponsesByQuestionnaireIDs: rows", err)
	}
	return responses, nil
}

// UpsertResponse saves a user's answers, keyed by (questionnaire_id,
// user_id). submitted_at is set only when the response is completed.
func (s *Store) UpsertResponse(ctx context.Context, r domain.QuestionnaireResponse) (domain.QuestionnaireResponse, error) {
	const q = `
		INSERT INTO questionnaire_responses (questionnaire_id, user_id, answers, completed, submitted_at)
		VALUES (@questionnaire_id, @user_id, @answers, @completed, @submitted_at)
		ON CONFLICT (questionnaire_id, user_id)
		DO UPDATE SET answers      = EXCLUDED.answers,
		              completed    = EXCLUDED.completed,
		              submitted_at = EXCLUDED.submitted_at
		RETURNING id, questionnaire_id, user_id, answers, completed, submitted_at`

	var submittedAt *time.Time
	if r.Completed {
		now := time.Now().UTC()
		submittedAt = &now
	}

	args := pgx.NamedArgs{
		"questionnaire_id": r.QuestionnaireID,
		"user_id":          r.UserID,
		"answers":          r.Answers,
		"completed":        r.Completed,
		"submitted_at":     submittedAt,
	}

	var out domain.QuestionnaireResponse
	row := s.db.QueryRow(ctx, q, args)
	if err := row.Scan(&out.ID, &out.QuestionnaireID, &out.UserID, &out.Answers, &out.Completed, &out.SubmittedAt); err != nil {
		return domain.QuestionnaireResponse{}, classify("store.UpsertResponse", err)
	}
	return out, nil
}
