package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

// TripByID retrieves a single trip by its UUID primary key.
// Returns domain.ErrNotFound if the trip does not exist or the caller's
// row policy hides it — the hydrator treats both as "no active trip".
func (s *Store) TripByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT id, name, hotel_name, hotel_address, notes, created_by, created_at
		FROM trips
		WHERE id = @id`

	row := s.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	trip, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, classify("store.TripByID", err)
	}
	return trip, nil
}

// CreateTrip inserts a new trip and adds the creator as its admin member in
// one transaction-free pair of statements: the member insert is retried by
// the next hydrate if it raced a failure, so a partial create degrades to a
// visible-but-empty trip rather than an orphan membership.
func (s *Store) CreateTrip(ctx context.Context, name string, createdBy uuid.UUID) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (name, created_by)
		VALUES (@name, @created_by)
		RETURNING id, name, hotel_name, hotel_address, notes, created_by, created_at`

	row := s.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name, "created_by": createdBy})
	trip, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, classify("store.CreateTrip", err)
	}

	const qm = `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES (@trip_id, @user_id, 'admin')
		ON CONFLICT (trip_id, user_id) DO NOTHING`

	if _, err := s.db.Exec(ctx, qm, pgx.NamedArgs{"trip_id": trip.ID, "user_id": createdBy}); err != nil {
		return domain.Trip{}, classify("store.CreateTrip: member", err)
	}
	return trip, nil
}

// UpdateTripNotes overwrites the trip's free-text notes.
func (s *Store) UpdateTripNotes(ctx context.Context, id uuid.UUID, notes string) error {
	const q = `UPDATE trips SET notes = @notes WHERE id = @id`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "notes": notes})
	if err != nil {
		return classify("store.UpdateTripNotes", err)
	}
	if tag.RowsAffected() == 0 {
		return classify("store.UpdateTripNotes", pgx.ErrNoRows)
	}
	return nil
}

func scanTrip(s scanner) (domain.Trip, error) {
	var t domain.Trip
	err := s.Scan(&t.ID, &t.Name, &t.HotelName, &t.HotelAddress, &t.Notes, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return domain.Trip{}, err
	}
	return t, nil
}
