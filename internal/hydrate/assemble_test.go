package hydrate_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellsfam/tripsync/internal/domain"
	"github.com/wellsfam/tripsync/internal/hydrate"
)

func profileFixture(username string) domain.Profile {
	return domain.Profile{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: username,
		Role:        domain.ProfileRoleUser,
	}
}

func memberRow(p domain.Profile, tripID uuid.UUID) domain.MemberRow {
	return domain.MemberRow{
		Membership: domain.TripMember{
			ID:     uuid.New(),
			TripID: tripID,
			UserID: p.ID,
			Role:   domain.MemberRoleMember,
		},
		Profile: p,
	}
}

// TestAssemble_emptyTrip verifies totality: a trip with no days, blocks,
// messages, expenses, or packing items assembles into a valid view with
// empty collections, never nils or panics.
func TestAssemble_emptyTrip(t *testing.T) {
	tripID := uuid.New()
	viewer := profileFixture("ben")
	snap := domain.Snapshot{
		Trip:    domain.Trip{ID: tripID, Name: "Disney 2026"},
		Members: []domain.MemberRow{memberRow(viewer, tripID)},
	}

	out := hydrate.Assemble(snap, viewer.ID)

	assert.Equal(t, tripID.String(), out.Trip.ID)
	assert.Equal(t, "Disney 2026", out.Trip.Name)
	assert.Nil(t, out.Trip.Hotel)
	require.NotNil(t, out.Trip.Days)
	assert.Empty(t, out.Trip.Days)
	assert.NotNil(t, out.ChatMessages)
	assert.Empty(t, out.ChatMessages)
	assert.NotNil(t, out.BudgetItems)
	assert.NotNil(t, out.PackingList)
	assert.NotNil(t, out.PersonalList)
	assert.NotNil(t, out.Responses)
	require.Len(t, out.Trip.Members, 1)
	assert.Equal(t, "ben", out.Trip.Members[0].Username)
}

// TestAssemble_blockSortStability verifies that blocks sort by start time
// with duplicates keeping their relative input order.
func TestAssemble_blockSortStability(t *testing.T) {
	tripID := uuid.New()
	dayID := uuid.New()
	viewer := profileFixture("ben")

	first := domain.TimeBlock{ID: uuid.New(), DayID: dayID, Title: "breakfast", StartTime: "09:00"}
	second := domain.TimeBlock{ID: uuid.New(), DayID: dayID, Title: "rope drop", StartTime: "08:30"}
	third := domain.TimeBlock{ID: uuid.New(), DayID: dayID, Title: "stroller pickup", StartTime: "08:30"}

	snap := domain.Snapshot{
		Trip:    domain.Trip{ID: tripID, Name: "Disney 2026"},
		Members: []domain.MemberRow{memberRow(viewer, tripID)},
		Days:    []domain.TripDay{{ID: dayID, TripID: tripID, Date: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)}},
		Blocks:  []domain.TimeBlock{first, second, third},
	}

	out := hydrate.Assemble(snap, viewer.ID)

	require.Len(t, out.Trip.Days, 1)
	blocks := out.Trip.Days[0].Blocks
	require.Len(t, blocks, 3)
	assert.Equal(t, "rope drop", blocks[0].Title)
	assert.Equal(t, "stroller pickup", blocks[1].Title)
	assert.Equal(t, "breakfast", blocks[2].Title)
}

// TestAssemble_daysSortedByDate verifies days come out date ascending
// regardless of fetch order.
func TestAssemble_daysSortedByDate(t *testing.T) {
	tripID := uuid.New()
	viewer := profileFixture("ben")

	snap := domain.Snapshot{
		Trip:    domain.Trip{ID: tripID},
		Members: []domain.MemberRow{memberRow(viewer, tripID)},
		Days: []domain.TripDay{
			{ID: uuid.New(), TripID: tripID, Date: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
			{ID: uuid.New(), TripID: tripID, Date: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
			{ID: uuid.New(), TripID: tripID, Date: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		},
	}

	out := hydrate.Assemble(snap, viewer.ID)

	require.Len(t, out.Trip.Days, 3)
	assert.True(t, out.Trip.Days[0].Date.Before(out.Trip.Days[1].Date))
	assert.True(t, out.Trip.Days[1].Date.Before(out.Trip.Days[2].Date))
}

// TestAssemble_unknownUserFallsBackToRawID verifies that a user id with no
// profile row resolves to the raw id string instead of failing.
func TestAssemble_unknownUserFallsBackToRawID(t *testing.T) {
	tripID := uuid.New()
	viewer := profileFixture("ben")
	ghost := uuid.New()

	snap := domain.Snapshot{
		Trip:    domain.Trip{ID: tripID},
		Members: []domain.MemberRow{memberRow(viewer, tripID)},
		TripMessages: []domain.Message{
			{ID: uuid.New(), TripID: &tripID, UserID: ghost, Body: "hi", CreatedAt: time.Now()},
		},
	}

	out := hydrate.Assemble(snap, viewer.ID)

	require.Len(t, out.ChatMessages, 1)
	assert.Equal(t, ghost.String(), out.ChatMessages[0].Username)
}

// TestAssemble_packingViewerScoped verifies the packed flag on a shared
// item is the viewer's own check, not another member's.
func TestAssemble_packingViewerScoped(t *testing.T) {
	tripID := uuid.New()
	viewer := profileFixture("ben")
	other := profileFixture("marie")
	itemID := uuid.New()

	snap := domain.Snapshot{
		Trip:    domain.Trip{ID: tripID},
		Members: []domain.MemberRow{memberRow(viewer, tripID), memberRow(other, tripID)},
		PackingBase: []domain.PackingBaseItem{
			{ID: itemID, TripID: tripID, Item: "sunscreen", AddedBy: other.ID},
		},
		PackingChecks: []domain.PackingCheck{
			{ID: uuid.New(), BaseItemID: itemID, UserID: other.ID, Packed: true},
		},
	}

	out := hydrate.Assemble(snap, viewer.ID)

	require.Len(t, out.PackingList, 1)
	assert.False(t, out.PackingList[0].Packed, "another member's check must not leak into the viewer's list")
	assert.Equal(t, "marie", out.PackingList[0].AddedBy)
}

// TestAssemble_personalItemsFiltered verifies only the viewer's own private
// items appear.
func TestAssemble_personalItemsFiltered(t *testing.T) {
	tripID := uuid.New()
	viewer := profileFixture("ben")
	other := profileFixture("marie")

	snap := domain.Snapshot{
		Trip:    domain.Trip{ID: tripID},
		Members: []domain.MemberRow{memberRow(viewer, tripID), memberRow(other, tripID)},
		PersonalItems: []domain.PersonalPackingItem{
			{ID: uuid.New(), TripID: tripID, UserID: viewer.ID, Item: "kindle"},
			{ID: uuid.New(), TripID: tripID, UserID: other.ID, Item: "meds"},
		},
	}

	out := hydrate.Assemble(snap, viewer.ID)

	require.Len(t, out.PersonalList, 1)
	assert.Equal(t, "kindle", out.PersonalList[0].Item)
}

// TestAssemble_rsvpQuipAndStatus verifies RSVPs attach to their block with
// usernames resolved.
func TestAssemble_rsvpQuipAndStatus(t *testing.T) {
	tripID := uuid.New()
	dayID := uuid.New()
	blockID := uuid.New()
	viewer := profileFixture("ben")
	quip := "wouldn't miss it"

	snap := domain.Snapshot{
		Trip:    domain.Trip{ID: tripID},
		Members: []domain.MemberRow{memberRow(viewer, tripID)},
		Days:    []domain.TripDay{{ID: dayID, TripID: tripID, Date: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)}},
		Blocks:  []domain.TimeBlock{{ID: blockID, DayID: dayID, Title: "fireworks", StartTime: "21:00"}},
		RSVPs: []domain.RSVP{
			{ID: uuid.New(), BlockID: blockID, UserID: viewer.ID, Status: domain.RSVPGoing, Quip: &quip},
		},
	}

	out := hydrate.Assemble(snap, viewer.ID)

	require.Len(t, out.Trip.Days, 1)
	require.Len(t, out.Trip.Days[0].Blocks, 1)
	rsvps := out.Trip.Days[0].Blocks[0].RSVPs
	require.Len(t, rsvps, 1)
	assert.Equal(t, "ben", rsvps[0].Username)
	assert.Equal(t, domain.RSVPGoing, rsvps[0].Status)
	assert.Equal(t, quip, rsvps[0].Quip)
}

// TestAssemble_hotelPresentOnlyWithName verifies the hotel view is derived
// from the optional hotel columns.
func TestAssemble_hotelPresentOnlyWithName(t *testing.T) {
	tripID := uuid.New()
	viewer := profileFixture("ben")
	name := "Polynesian"
	addr := "1600 Seven Seas Dr"

	snap := domain.Snapshot{
		Trip:    domain.Trip{ID: tripID, HotelName: &name, HotelAddress: &addr},
		Members: []domain.MemberRow{memberRow(viewer, tripID)},
	}

	out := hydrate.Assemble(snap, viewer.ID)

	require.NotNil(t, out.Trip.Hotel)
	assert.Equal(t, "Polynesian", out.Trip.Hotel.Name)
	assert.Equal(t, "1600 Seven Seas Dr", out.Trip.Hotel.Address)
}
