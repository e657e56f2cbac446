package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

// RSVPsByBlockIDs returns all RSVPs for a set of block ids in one query.
func (s *Store) RSVPsByBlockIDs(ctx context.Context, blockIDs []uuid.UUID) ([]domain.RSVP, error) {
	if len(blockIDs) == 0 {
		return []domain.RSVP{}, nil
	}

	const q = `
		SELECT id, block_id, user_id, trip_id, status, quip
		FROM rsvps
		WHERE block_id = ANY(@block_ids)`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"block_ids": blockIDs})
	if err != nil {
		return nil, classify("store.RSVPsByBlockIDs", err)
	}
	defer rows.Close()

	var rsvps []domain.RSVP
	for rows.Next() {
		var r domain.RSVP
		if err := rows.Scan(&r.ID, &r.BlockID, &r.UserID, &r.TripID, &r.Status, &r.Quip); err != nil {
			return nil, classify("store.RSVPsByBlockIDs: scan", err)
		}
		rsvps = append(rsvps, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("store.RSVPsByBlockIDs: rows", err)
	}
	return rsvps, nil
}

// UpsertRSVP inserts or updates the caller's RSVP for a block, keyed by
// (block_id, user_id). Calling it twice with the same pair leaves exactly
// one row carrying the latest status and quip.
func (s *Store) UpsertRSVP(ctx context.Context, r domain.RSVP) (domain.RSVP, error) {
	const q = `
		INSERT INTO rsvps (block_id, user_id, trip_id, status, quip)
		VALUES (@block_id, @user_id, @trip_id, @status, @quip)
		ON CONFLICT (block_id, user_id)
		DO UPDATE SET status = EXCLUDED.status, quip = EXCLUDED.quip
		RETURNING id, block_id, user_id, trip_id, status, quip`

	args := pgx.NamedArgs{
		"block_id": r.BlockID,
		"user_id":  r.UserID,
		"trip_id":  r.TripID,
		"status":   r.Status,
		"quip":     r.Quip,
	}

	var out domain.RSVP
	row := s.db.QueryRow(ctx, q, args)
	if err := row.Scan(&out.ID, &out.BlockID, &out.UserID, &out.TripID, &out.Status, &out.Quip); err != nil {
		return domain.RSVP{}, classify("store.UpsertRSVP", err)
	}
	return out, nil
}
