package cache_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellsfam/tripsync/internal/cache"
	"github.com/wellsfam/tripsync/internal/domain"
)

func openStore(t *testing.T) *cache.Store {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func snapshotFixture(tripID uuid.UUID) domain.Snapshot {
	userID := uuid.New()
	dayID := uuid.New()
	return domain.Snapshot{
		Trip: domain.Trip{ID: tripID, Name: "Disney 2026", CreatedBy: userID, CreatedAt: time.Now().UTC().Truncate(time.Second)},
		Members: []domain.MemberRow{{
			Membership: domain.TripMember{ID: uuid.New(), TripID: tripID, UserID: userID, Role: domain.MemberRoleAdmin},
			Profile:    domain.Profile{ID: userID, Username: "ben", DisplayName: "Ben"},
		}},
		Days: []domain.TripDay{
			{ID: dayID, TripID: tripID, Date: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
		},
		Blocks: []domain.TimeBlock{
			{ID: uuid.New(), DayID: dayID, Title: "fireworks", StartTime: "21:00"},
		},
		Expenses: []domain.BudgetExpense{
			{ID: uuid.New(), TripID: tripID, Description: "tickets", Amount: 90, PaidBy: userID, SplitWith: []uuid.UUID{userID}, CreatedBy: userID},
		},
	}
}

// TestWriteRead_roundTrip verifies a written snapshot reads back whole.
func TestWriteRead_roundTrip(t *testing.T) {
	s := openStore(t)
	tripID := uuid.New()
	snap := snapshotFixture(tripID)

	s.Write(tripID, snap)
	got, ok := s.Read(tripID)

	require.True(t, ok)
	assert.Equal(t, snap.Trip.ID, got.Trip.ID)
	assert.Equal(t, snap.Trip.Name, got.Trip.Name)
	require.Len(t, got.Members, 1)
	assert.Equal(t, "ben", got.Members[0].Profile.Username)
	require.Len(t, got.Days, 1)
	require.Len(t, got.Blocks, 1)
	assert.Equal(t, "fireworks", got.Blocks[0].Title)
	require.Len(t, got.Expenses, 1)
	assert.InDelta(t, 90, got.Expenses[0].Amount, 1e-9)
}

// TestRead_differentTripAbsent verifies the staleness guard: a cache
// populated for trip A reports absent for trip B even though the rows are
// still physically present.
func TestRead_differentTripAbsent(t *testing.T) {
	s := openStore(t)
	tripA := uuid.New()
	tripB := uuid.New()

	s.Write(tripA, snapshotFixture(tripA))

	_, ok := s.Read(tripB)
	assert.False(t, ok, "rows cached for another trip must never be served")

	_, ok = s.Read(tripA)
	assert.True(t, ok)
}

// TestRead_emptyCacheAbsent verifies a fresh cache reports absent.
func TestRead_emptyCacheAbsent(t *testing.T) {
	s := openStore(t)

	_, ok := s.Read(uuid.New())

	assert.False(t, ok)
}

// TestWrite_replacesWholesale verifies a second write fully replaces the
// first: rows absent from the newer snapshot do not linger.
func TestWrite_replacesWholesale(t *testing.T) {
	s := openStore(t)
	tripID := uuid.New()

	first := snapshotFixture(tripID)
	s.Write(tripID, first)

	second := snapshotFixture(tripID)
	second.Expenses = nil
	s.Write(tripID, second)

	got, ok := s.Read(tripID)
	require.True(t, ok)
	assert.Empty(t, got.Expenses, "rows from the previous write must not survive")
}

// TestClear verifies Clear drops both rows and the sync marker.
func TestClear(t *testing.T) {
	s := openStore(t)
	tripID := uuid.New()
	s.Write(tripID, snapshotFixture(tripID))

	s.Clear()

	_, ok := s.Read(tripID)
	assert.False(t, ok)
}

// TestWrite_lastWriterWinsMarker verifies that caching a second trip moves
// the marker so only the latest trip is readable.
func TestWrite_lastWriterWinsMarker(t *testing.T) {
	s := openStore(t)
	tripA := uuid.New()
	tripB := uuid.New()

	s.Write(tripA, snapshotFixture(tripA))
	s.Write(tripB, snapshotFixture(tripB))

	_, okA := s.Read(tripA)
	gotB, okB := s.Read(tripB)

	assert.False(t, okA)
	require.True(t, okB)
	assert.Equal(t, tripB, gotB.Trip.ID)
}
