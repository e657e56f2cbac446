package domain

import "github.com/google/uuid"

// PackingBaseItem is one entry on the shared packing list, visible to all
// trip members. Packed state is not stored here — each member tracks their
// own state via PackingCheck.
type PackingBaseItem struct {
	ID      uuid.UUID `json:"id"`
	TripID  uuid.UUID `json:"trip_id"`
	Item    string    `json:"item"`
	AddedBy uuid.UUID `json:"added_by"`
}

// PackingCheck is one user's packed/unpacked state for a shared item.
// The (base_item_id, user_id) pair is the upsert key. A missing row means
// unpacked.
type PackingCheck struct {
	ID         uuid.UUID `json:"id"`
	BaseItemID uuid.UUID `json:"base_item_id"`
	UserID     uuid.UUID `json:"user_id"`
	Packed     bool      `json:"packed"`
}

// PersonalPackingItem is private to its owning user; other members never
// see it (enforced server-side by row policy).
type PersonalPackingItem struct {
	ID     uuid.UUID `json:"id"`
	TripID uuid.UUID `json:"trip_id"`
	UserID uuid.UUID `json:"user_id"`
	Item   string    `json:"item"`
	Packed bool      `json:"packed"`
}

// PackingItem is the assembled, viewer-scoped view of a shared item: the
// Packed flag is always the viewing user's own check, never a merge of
// other members' states.
type PackingItem struct {
	ID      string `json:"id"`
	Item    string `json:"item"`
	Packed  bool   `json:"packed"`
	AddedBy string `json:"added_by"`
}

// PersonalItem is the assembled view of a private packing item.
type PersonalItem struct {
	ID     string `json:"id"`
	Item   string `json:"item"`
	Packed bool   `json:"packed"`
}
