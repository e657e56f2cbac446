package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

const messageColumns = `id, trip_id, block_id, user_id, message, created_at`

// TripMessages returns the trip-level chat (block_id IS NULL), oldest first.
func (s *Store) TripMessages(ctx context.Context, tripID uuid.UUID) ([]domain.Message, error) {
	const q = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE trip_id = @trip_id AND block_id IS NULL
		ORDER BY created_at`

	return s.queryMessages(ctx, "store.TripMessages", q, pgx.NamedArgs{"trip_id": tripID})
}

// BlockMessagesByBlockIDs returns the event-level chat for a set of block
// ids in one query, oldest first.
func (s *Store) BlockMessagesByBlockIDs(ctx context.Context, blockIDs []uuid.UUID) ([]domain.Message, error) {
	if len(blockIDs) == 0 {
		return []domain.Message{}, nil
	}

	const q = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE block_id = ANY(@block_ids)
		ORDER BY created_at`

	return s.queryMessages(ctx, "store.BlockMessagesByBlockIDs", q, pgx.NamedArgs{"block_ids": blockIDs})
}

// CreateMessage appends a chat message. Exactly one of m.TripID and
// m.BlockID must be set; the table constraint rejects anything else.
func (s *Store) CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	const q = `
		INSERT INTO messages (trip_id, block_id, user_id, message)
		VALUES (@trip_id, @block_id, @user_id, @message)
		RETURNING ` + messageColumns

	args := pgx.NamedArgs{
		"trip_id":  m.TripID,
		"block_id": m.BlockID,
		"user_id":  m.UserID,
		"message":  m.Body,
	}

	var out domain.Message
	row := s.db.QueryRow(ctx, q, args)
	if err := row.Scan(&out.ID, &out.TripID, &out.BlockID, &out.UserID, &out.Body, &out.CreatedAt); err != nil {
		return domain.Message{}, classify("store.CreateMessage", err)
	}
	return out, nil
}

func (s *Store) queryMessages(ctx context.Context, op, q string, args pgx.NamedArgs) ([]domain.Message, error) {
	rows, err := s.db.Query(ctx, q, args)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.TripID, &m.BlockID, &m.UserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, classify(op+": scan", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op+": rows", err)
	}
	return msgs, nil
}
