// Package domain contains the core data types for the trip sync engine.
// This package has no dependencies beyond uuid and is imported by every
// other internal package (store, hydrate, sync, cache, handler).
//
// Two families of types live here: flat row types mirroring the remote
// relational tables, and assembled view types that the UI boundary consumes.
// Row types are the source of truth; view types are always derived.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is the top-level aggregate: one family trip.
// A user session has at most one active trip (first membership found).
type Trip struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	HotelName    *string   `json:"hotel_name,omitempty"`
	HotelAddress *string   `json:"hotel_address,omitempty"`
	Notes        string    `json:"notes"`
	CreatedBy    uuid.UUID `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// MemberRole is the role of a user within a trip.
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// TripMember links a user to a trip. The (trip_id, user_id) pair is unique.
type TripMember struct {
	ID       uuid.UUID  `json:"id"`
	TripID   uuid.UUID  `json:"trip_id"`
	UserID   uuid.UUID  `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// ProfileRole is the application-wide role on a profile, distinct from the
// per-trip MemberRole.
type ProfileRole string

const (
	ProfileRoleAdmin ProfileRole = "admin"
	ProfileRoleUser  ProfileRole = "user"
)

// Profile is a user's display identity. Username is unique and immutable;
// everything else is editable by the owner.
type Profile struct {
	ID              uuid.UUID   `json:"id"`
	Username        string      `json:"username"`
	DisplayName     string      `json:"display_name"`
	Role            ProfileRole `json:"role"`
	AvatarEmoji     string      `json:"avatar_emoji"`
	Color           string      `json:"color"`
	CustomAvatarURL *string     `json:"custom_avatar_url,omitempty"`
	Theme           string      `json:"theme"`
}

// MemberRow is a membership joined with its profile, fetched in one query.
type MemberRow struct {
	Membership TripMember `json:"membership"`
	Profile    Profile    `json:"profile"`
}
