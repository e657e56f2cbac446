package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripDay is one calendar day of a trip, ordered by date.
// DayIndex is a denormalized ordinal matching that date order.
type TripDay struct {
	ID       uuid.UUID `json:"id"`
	TripID   uuid.UUID `json:"trip_id"`
	Date     time.Time `json:"date"`
	Park     *string   `json:"park,omitempty"`
	DayIndex int       `json:"day_index"`
}

// BlockType distinguishes whole-family events from personal ones.
type BlockType string

const (
	BlockFamily   BlockType = "FAMILY"
	BlockPersonal BlockType = "PERSONAL"
)

// TimeBlock is a scheduled event belonging to exactly one day.
// StartTime and EndTime are "HH:MM" strings; lexicographic order equals
// chronological order within a day, which the assembler relies on.
type TimeBlock struct {
	ID        uuid.UUID  `json:"id"`
	DayID     uuid.UUID  `json:"day_id"`
	Type      BlockType  `json:"type"`
	Title     string     `json:"title"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	Location  string     `json:"location"`
	Park      string     `json:"park"`
	Notes     string     `json:"notes"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
}

// RSVPStatus is a yes/no attendance answer.
type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "going"
	RSVPNotGoing RSVPStatus = "not-going"
)

// RSVP records one user's answer for one block. The (block_id, user_id)
// pair is the upsert key: at most one row exists per pair.
// TripID is denormalized onto the row so the realtime feed can filter it.
type RSVP struct {
	ID      uuid.UUID  `json:"id"`
	BlockID uuid.UUID  `json:"block_id"`
	UserID  uuid.UUID  `json:"user_id"`
	TripID  *uuid.UUID `json:"trip_id,omitempty"`
	Status  RSVPStatus `json:"status"`
	Quip    *string    `json:"quip,omitempty"`
}

// Message is a chat message. Exactly one of TripID and BlockID is set:
// TripID for trip-level chat, BlockID for event-level chat.
type Message struct {
	ID        uuid.UUID  `json:"id"`
	TripID    *uuid.UUID `json:"trip_id,omitempty"`
	BlockID   *uuid.UUID `json:"block_id,omitempty"`
	UserID    uuid.UUID  `json:"user_id"`
	Body      string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}
