package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

// FirstMembership returns the earliest membership for a user, used to pick
// the session's active trip. The data model technically allows multiple
// memberships; the engine takes the first by joined_at, matching the
// one-trip-per-user assumption the rest of the design makes explicit.
// Returns domain.ErrNotFound if the user belongs to no trip.
func (s *Store) FirstMembership(ctx context.Context, userID uuid.UUID) (domain.TripMember, error) {
	const q = `
		SELECT id, trip_id, user_id, role, joined_at
		FROM trip_members
		WHERE user_id = @user_id
		ORDER BY joined_at
		LIMIT 1`

	var m domain.TripMember
	row := s.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err := row.Scan(&m.ID, &m.TripID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
		return domain.TripMember{}, classify("store.FirstMembership", err)
	}
	return m, nil
}

// MembersByTrip returns every membership of a trip joined with its profile.
func (s *Store) MembersByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.MemberRow, error) {
	const q = `
		SELECT m.id, m.trip_id, m.user_id, m.role, m.joined_at,
		       p.id, p.username, p.display_name, p.role, p.avatar_emoji,
		       p.color, p.custom_avatar_url, p.theme
		FROM trip_members m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.trip_id = @trip_id
		ORDER BY m.joined_at`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, classify("store.MembersByTrip", err)
	}
	defer rows.Close()

	var members []domain.MemberRow
	for rows.Next() {
		var m domain.MemberRow
		err := rows.Scan(
			&m.Membership.ID, &m.Membership.TripID, &m.Membership.UserID,
			&m.Membership.Role, &m.Membership.JoinedAt,
			&m.Profile.ID, &m.Profile.Username, &m.Profile.DisplayName, &m.Profile.Role,
			&m.Profile.AvatarEmoji, &m.Profile.Color, &m.Profile.CustomAvatarURL, &m.Profile.Theme,
		)
		if err != nil {
			return nil, classify("store.MembersByTrip: scan", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("store.MembersByTrip: rows", err)
	}
	return members, nil
}

// UpdateProfile overwrites the mutable display fields of the caller's own
// profile. Username is immutable and not part of the statement.
func (s *Store) UpdateProfile(ctx context.Context, p domain.Profile) error {
	const q = `
		UPDATE profiles
		SET display_name      = @display_name,
		    avatar_emoji      = @avatar_emoji,
		    color             = @color,
		    custom_avatar_url = @custom_avatar_url,
		    theme             = @theme
		WHERE id = @id`

	args := pgx.NamedArgs{
		"id":                p.ID,
		"display_name":      p.DisplayName,
		"avatar_emoji":      p.AvatarEmoji,
		"color":             p.Color,
		"custom_avatar_url": p.CustomAvatarURL,
		"theme":             p.Theme,
	}

	tag, err := s.db.Exec(ctx, q, args)
	if err != nil {
		return classify("store.UpdateProfile", err)
	}
	if tag.RowsAffected() == 0 {
		return classify("store.UpdateProfile", pgx.ErrNoRows)
	}
	return nil
}
