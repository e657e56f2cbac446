// Package realtime delivers row-level change events for one trip over a
// Postgres LISTEN/NOTIFY channel. Triggers installed by the migrations emit
// a JSON payload per row change; the manager filters and forwards them.
package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Op is the row operation that produced an event.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Event is one row-level change notification.
// TripID is nil for DELETE events: the trigger only sees the deleted row's
// primary key, so a trip filter cannot apply — consumers must re-hydrate to
// find out whether the delete concerned the active trip.
type Event struct {
	Table  string     `json:"table"`
	Op     Op         `json:"op"`
	RowID  uuid.UUID  `json:"id"`
	TripID *uuid.UUID `json:"trip_id,omitempty"`
}

// tripFiltered lists the tables carrying a trip_id column. INSERT and
// UPDATE events on them are filtered to the active trip; DELETE events are
// always delivered (see Event.TripID).
var tripFiltered = map[string]bool{
	"trips":                  true,
	"trip_days":              true,
	"rsvps":                  true,
	"messages":               true,
	"budget_expenses":        true,
	"packing_base_items":     true,
	"personal_packing_items": true,
	"questionnaires":         true,
}

// rlsOnly lists the tables reachable only through a foreign-key chain.
// They are delivered unfiltered; the server's row policy already guarantees
// the caller never receives rows it has no right to see.
var rlsOnly = map[string]bool{
	"time_blocks":             true,
	"packing_checks":          true,
	"questionnaire_responses": true,
}

// shouldDeliver decides whether an event reaches the subscriber for the
// given active trip. Unknown tables are dropped.
func shouldDeliver(tripID uuid.UUID, ev Event) bool {
	switch {
	case rlsOnly[ev.Table]:
		return true
	case tripFiltered[ev.Table]:
		if ev.Op == OpDelete {
			// No trip id on the payload; deliver and let the consumer
			// re-check via a full re-hydrate.
			return true
		}
		return ev.TripID != nil && *ev.TripID == tripID
	default:
		return false
	}
}

// parseEvent decodes a notification payload.
func parseEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("realtime: parse payload: %w", err)
	}
	if ev.Table == "" || ev.Op == "" {
		return Event{}, fmt.Errorf("realtime: payload missing table or op")
	}
	return ev, nil
}
