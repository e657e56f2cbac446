package engine_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellsfam/tripsync/internal/domain"
	"github.com/wellsfam/tripsync/internal/engine"
	"github.com/wellsfam/tripsync/internal/hydrate"
	"github.com/wellsfam/tripsync/internal/realtime"
)

// fakeRemote is a test double for engine.RemoteStore. Every write is
// recorded under its operation name; override the membership fields to
// steer bootstrap.
type fakeRemote struct {
	mu    sync.Mutex
	calls []string

	membership    domain.TripMember
	membershipErr error
}

var _ engine.RemoteStore = (*fakeRemote)(nil)

func (f *fakeRemote) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeRemote) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeRemote) FirstMembership(_ context.Context, _ uuid.UUID) (domain.TripMember, error) {
	return f.membership, f.membershipErr
}
func (f *fakeRemote) CreateTrip(_ context.Context, name string, createdBy uuid.UUID) (domain.Trip, error) {
	f.record("CreateTrip")
	return domain.Trip{ID: uuid.New(), Name: name, CreatedBy: createdBy}, nil
}
func (f *fakeRemote) UpdateTripNotes(_ context.Context, _ uuid.UUID, _ string) error {
	f.record("UpdateTripNotes")
	return nil
}
func (f *fakeRemote) UpdateProfile(_ context.Context, _ domain.Profile) error {
	f.record("UpdateProfile")
	return nil
}
func (f *fakeRemote) CreateDay(_ context.Context, tripID uuid.UUID, date time.Time, park *string, dayIndex int) (domain.TripDay, error) {
	f.record("CreateDay")
	return domain.TripDay{ID: uuid.New(), TripID: tripID, Date: date, Park: park, DayIndex: dayIndex}, nil
}
func (f *fakeRemote) CreateBlock(_ context.Context, b domain.TimeBlock) (domain.TimeBlock, error) {
	f.record("CreateBlock")
	b.ID = uuid.New()
	return b, nil
}
func (f *fakeRemote) UpdateBlock(_ context.Context, b domain.TimeBlock) (domain.TimeBlock, error) {
	f.record("UpdateBlock")
	return b, nil
}
func (f *fakeRemote) DeleteBlock(_ context.Context, _ uuid.UUID) error {
	f.record("DeleteBlock")
	return nil
}
func (f *fakeRemote) UpsertRSVP(_ context.Context, r domain.RSVP) (domain.RSVP, error) {
	f.record("UpsertRSVP")
	return r, nil
}
func (f *fakeRemote) CreateMessage(_ context.Context, m domain.Message) (domain.Message, error) {
	f.record("CreateMessage")
	m.ID = uuid.New()
	return m, nil
}
func (f *fakeRemote) CreateExpense(_ context.Context, e domain.BudgetExpense) (domain.BudgetExpense, error) {
	f.record("CreateExpense")
	e.ID = uuid.New()
	return e, nil
}
func (f *fakeRemote) UpdateExpense(_ context.Context, e domain.BudgetExpense) (domain.BudgetExpense, error) {
	f.record("UpdateExpense")
	return e, nil
}
func (f *fakeRemote) DeleteExpense(_ context.Context, _ uuid.UUID) error {
	f.record("DeleteExpense")
	return nil
}
func (f *fakeRemote) CreatePackingBase(_ context.Context, tripID uuid.UUID, item string, addedBy uuid.UUID) (domain.PackingBaseItem, error) {
	f.record("CreatePackingBase")
	return domain.PackingBaseItem{ID: uuid.New(), TripID: tripID, Item: item, AddedBy: addedBy}, nil
}
func (f *fakeRemote) DeletePackingBase(_ context.Context, _ uuid.UUID) error {
	f.record("DeletePackingBase")
	return nil
}
func (f *fakeRemote) UpsertPackingCheck(_ context.Context, baseItemID, userID uuid.UUID, packed bool) (domain.PackingCheck, error) {
	f.record("UpsertPackingCheck")
	return domain.PackingCheck{ID: uuid.New(), BaseItemID: baseItemID, UserID: userID, Packed: packed}, nil
}
func (f *fakeRemote) CreatePersonalItem(_ context.Context, tripID, userID uuid.UUID, item string) (domain.PersonalPackingItem, error) {
	f.record("CreatePersonalItem")
	return domain.PersonalPackingItem{ID: uuid.New(), TripID: tripID, UserID: userID, Item: item}, nil
}
func (f *fakeRemote) SetPersonalItemPacked(_ context.Context, _ uuid.UUID, _ bool) error {
	f.record("SetPersonalItemPacked")
	return nil
}
func (f *fakeRemote) DeletePersonalItem(_ context.Context, _ uuid.UUID) error {
	f.record("DeletePersonalItem")
	return nil
}
func (f *fakeRemote) UpsertResponse(_ context.Context, r domain.QuestionnaireResponse) (domain.QuestionnaireResponse, error) {
	f.record("UpsertResponse")
	return r, nil
}

// fakeHydrator returns snapshots from a per-call function.
type fakeHydrator struct {
	mu      sync.Mutex
	calls   int
	hydrate func(call int) (domain.Snapshot, error)
}

func (f *fakeHydrator) Hydrate(_ context.Context, _ uuid.UUID) (domain.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.hydrate(call)
}

func (f *fakeHydrator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSubs captures the change callback so tests can inject events.
type fakeSubs struct {
	mu           sync.Mutex
	onChange     func(realtime.Event)
	unsubscribed int
}

func (f *fakeSubs) Subscribe(_ uuid.UUID, onChange func(realtime.Event)) func() {
	f.mu.Lock()
	f.onChange = onChange
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.unsubscribed++
		f.mu.Unlock()
	}
}

func (f *fakeSubs) fire(ev realtime.Event) {
	f.mu.Lock()
	cb := f.onChange
	f.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

// fakeCache is an in-memory engine.Cache.
type fakeCache struct {
	mu     sync.Mutex
	tripID uuid.UUID
	snap   domain.Snapshot
	ok     bool
}

func (f *fakeCache) Read(tripID uuid.UUID) (domain.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ok || f.tripID != tripID {
		return domain.Snapshot{}, false
	}
	return f.snap, true
}

func (f *fakeCache) Write(tripID uuid.UUID, snap domain.Snapshot) {
	f.mu.Lock()
	f.tripID, f.snap, f.ok = tripID, snap, true
	f.mu.Unlock()
}

// ---- fixtures --------------------------------------------------------------

var testLogger = slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func snapshotFixture(tripID uuid.UUID, name string, viewer domain.Profile) domain.Snapshot {
	return domain.Snapshot{
		Trip: domain.Trip{ID: tripID, Name: name},
		Members: []domain.MemberRow{{
			Membership: domain.TripMember{ID: uuid.New(), TripID: tripID, UserID: viewer.ID, Role: domain.MemberRoleAdmin},
			Profile:    viewer,
		}},
	}
}

// startedEngine boots an engine against a ready-made snapshot and returns
// the wired fakes alongside it.
func startedEngine(t *testing.T, snap domain.Snapshot, tripID, userID uuid.UUID) (*engine.Engine, *fakeRemote, *fakeSubs) {
	t.Helper()

	remote := &fakeRemote{membership: domain.TripMember{TripID: tripID, UserID: userID}}
	hydrator := &fakeHydrator{hydrate: func(int) (domain.Snapshot, error) { return snap, nil }}
	subs := &fakeSubs{}
	eng := engine.New(remote, hydrator, subs, &fakeCache{}, userID, testLogger)

	require.NoError(t, eng.Start(context.Background()))
	require.Equal(t, engine.StatusReady, eng.State().Status)
	return eng, remote, subs
}

// ---- tests -----------------------------------------------------------------

// TestStart_noMembership verifies a user with no trip lands in the no-trip
// state without error.
func TestStart_noMembership(t *testing.T) {
	remote := &fakeRemote{membershipErr: domain.ErrNotFound}
	eng := engine.New(remote, &fakeHydrator{}, &fakeSubs{}, &fakeCache{}, uuid.New(), testLogger)

	err := eng.Start(context.Background())

	require.NoError(t, err)
	state := eng.State()
	assert.Equal(t, engine.StatusNoTrip, state.Status)
	assert.Nil(t, state.Data)
}

// TestStart_hydratesAndSubscribes verifies the happy path: membership found,
// snapshot hydrated, view assembled, channel open.
func TestStart_hydratesAndSubscribes(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}
	snap := snapshotFixture(tripID, "Disney 2026", viewer)

	eng, _, subs := startedEngine(t, snap, tripID, viewer.ID)

	state := eng.State()
	require.NotNil(t, state.Data)
	assert.Equal(t, "Disney 2026", state.Data.Trip.Name)
	subs.mu.Lock()
	assert.NotNil(t, subs.onChange)
	subs.mu.Unlock()
}

// TestRehydrate_staleResultDiscarded verifies last-hydrate-wins: an older
// attempt resolving after a newer one has applied is discarded.
func TestRehydrate_staleResultDiscarded(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	hydrator := &fakeHydrator{hydrate: func(call int) (domain.Snapshot, error) {
		switch call {
		case 1:
			return snapshotFixture(tripID, "bootstrap", viewer), nil
		case 2:
			close(firstStarted)
			<-releaseFirst
			return snapshotFixture(tripID, "stale", viewer), nil
		default:
			return snapshotFixture(tripID, "fresh", viewer), nil
		}
	}}
	remote := &fakeRemote{membership: domain.TripMember{TripID: tripID, UserID: viewer.ID}}
	eng := engine.New(remote, hydrator, &fakeSubs{}, &fakeCache{}, viewer.ID, testLogger)
	require.NoError(t, eng.Start(context.Background()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = eng.Refetch(context.Background()) // attempt 2, resolves last
	}()

	<-firstStarted
	require.NoError(t, eng.Refetch(context.Background())) // attempt 3
	assert.Equal(t, "fresh", eng.State().Data.Trip.Name)

	close(releaseFirst)
	wg.Wait()

	assert.Equal(t, "fresh", eng.State().Data.Trip.Name, "stale hydrate must not overwrite a newer applied one")
}

// TestRealtimeDelete_triggersRehydrate verifies a DELETE event causes a full
// re-hydrate even though it carries no trip id.
func TestRealtimeDelete_triggersRehydrate(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}
	snap := snapshotFixture(tripID, "Disney 2026", viewer)

	remote := &fakeRemote{membership: domain.TripMember{TripID: tripID, UserID: viewer.ID}}
	hydrator := &fakeHydrator{hydrate: func(int) (domain.Snapshot, error) { return snap, nil }}
	subs := &fakeSubs{}
	eng := engine.New(remote, hydrator, subs, &fakeCache{}, viewer.ID, testLogger)
	require.NoError(t, eng.Start(context.Background()))
	before := hydrator.callCount()

	subs.fire(realtime.Event{Table: "trip_days", Op: realtime.OpDelete, RowID: uuid.New()})

	assert.Eventually(t, func() bool {
		return hydrator.callCount() > before
	}, 2*time.Second, 10*time.Millisecond, "a DELETE event must trigger a re-hydrate")
}

// TestStop_unsubscribesAndClears verifies logout tears the channel down and
// clears the session state.
func TestStop_unsubscribesAndClears(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}
	eng, _, subs := startedEngine(t, snapshotFixture(tripID, "Disney 2026", viewer), tripID, viewer.ID)

	eng.Stop()

	state := eng.State()
	assert.Equal(t, engine.StatusNoTrip, state.Status)
	assert.Nil(t, state.Data)
	subs.mu.Lock()
	assert.Equal(t, 1, subs.unsubscribed)
	subs.mu.Unlock()
}

// TestSendTripMessage_optimisticApply verifies the message appears in the
// view immediately and the remote write follows in the background.
func TestSendTripMessage_optimisticApply(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}
	eng, remote, _ := startedEngine(t, snapshotFixture(tripID, "Disney 2026", viewer), tripID, viewer.ID)

	require.NoError(t, eng.SendTripMessage("we're here!"))

	msgs := eng.State().Data.ChatMessages
	require.Len(t, msgs, 1)
	assert.Equal(t, "we're here!", msgs[0].Message)
	assert.Equal(t, "ben", msgs[0].Username)

	assert.Eventually(t, func() bool {
		return remote.callCount("CreateMessage") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

// TestRSVP_replacesExistingAnswer verifies the upsert semantics of the
// optimistic apply: answering twice leaves one RSVP with the latest status.
func TestRSVP_replacesExistingAnswer(t *testing.T) {
	tripID := uuid.New()
	dayID := uuid.New()
	blockID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}

	snap := snapshotFixture(tripID, "Disney 2026", viewer)
	snap.Days = []domain.TripDay{{ID: dayID, TripID: tripID, Date: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)}}
	snap.Blocks = []domain.TimeBlock{{ID: blockID, DayID: dayID, Title: "fireworks", StartTime: "21:00"}}

	eng, remote, _ := startedEngine(t, snap, tripID, viewer.ID)

	require.NoError(t, eng.RSVP(blockID.String(), domain.RSVPGoing, ""))
	require.NoError(t, eng.RSVP(blockID.String(), domain.RSVPNotGoing, "too tired"))

	rsvps := eng.State().Data.Trip.Days[0].Blocks[0].RSVPs
	require.Len(t, rsvps, 1, "same user answering twice must not duplicate")
	assert.Equal(t, domain.RSVPNotGoing, rsvps[0].Status)
	assert.Equal(t, "too tired", rsvps[0].Quip)

	assert.Eventually(t, func() bool {
		return remote.callCount("UpsertRSVP") == 2
	}, 2*time.Second, 10*time.Millisecond)
}

// TestRSVP_unknownStatusRejected verifies an invalid status never reaches
// the view or the remote store.
func TestRSVP_unknownStatusRejected(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}
	eng, remote, _ := startedEngine(t, snapshotFixture(tripID, "Disney 2026", viewer), tripID, viewer.ID)

	err := eng.RSVP(uuid.New().String(), domain.RSVPStatus("maybe"), "")

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, remote.callCount("UpsertRSVP"))
}

// TestSetBudgetItems_emptySplitRejected verifies the division-by-zero guard:
// an expense with no split list is rejected before any remote call and the
// view stays untouched.
func TestSetBudgetItems_emptySplitRejected(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}
	eng, remote, _ := startedEngine(t, snapshotFixture(tripID, "Disney 2026", viewer), tripID, viewer.ID)

	err := eng.SetBudgetItems([]domain.BudgetItem{
		{Description: "tickets", Amount: 90, PaidBy: "ben", SplitWith: nil},
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, eng.State().Data.BudgetItems)
	assert.Zero(t, remote.callCount("CreateExpense"))
}

// TestSetBudgetItems_unknownMemberRejected verifies a split naming someone
// outside the trip is rejected before publish.
func TestSetBudgetItems_unknownMemberRejected(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}
	eng, remote, _ := startedEngine(t, snapshotFixture(tripID, "Disney 2026", viewer), tripID, viewer.ID)

	err := eng.SetBudgetItems([]domain.BudgetItem{
		{Description: "tickets", Amount: 90, PaidBy: "ben", SplitWith: []string{"stranger"}},
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, eng.State().Data.BudgetItems)
	assert.Zero(t, remote.callCount("CreateExpense"))
}

// TestSetPackingList_flipIssuesSingleCheckUpdate verifies diff inference:
// flipping one packed flag issues exactly one check upsert and no
// structural writes.
func TestSetPackingList_flipIssuesSingleCheckUpdate(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}
	itemIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	snap := snapshotFixture(tripID, "Disney 2026", viewer)
	for i, id := range itemIDs {
		snap.PackingBase = append(snap.PackingBase, domain.PackingBaseItem{
			ID: id, TripID: tripID, Item: []string{"sunscreen", "chargers", "snacks"}[i], AddedBy: viewer.ID,
		})
	}

	eng, remote, _ := startedEngine(t, snap, tripID, viewer.ID)

	next := eng.State().Data.PackingList
	require.Len(t, next, 3)
	updated := make([]domain.PackingItem, len(next))
	copy(updated, next)
	updated[1].Packed = true

	require.NoError(t, eng.SetPackingList(updated))

	assert.True(t, eng.State().Data.PackingList[1].Packed)
	assert.Eventually(t, func() bool {
		return remote.callCount("UpsertPackingCheck") == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, remote.callCount("CreatePackingBase"))
	assert.Zero(t, remote.callCount("DeletePackingBase"))
}

// TestHydrateFailure_keepsPaintedView verifies a failed re-hydrate flags the
// error but never clears an already painted view.
func TestHydrateFailure_keepsPaintedView(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}

	hydrator := &fakeHydrator{hydrate: func(call int) (domain.Snapshot, error) {
		if call == 1 {
			return snapshotFixture(tripID, "Disney 2026", viewer), nil
		}
		return domain.Snapshot{}, domain.ErrUnavailable
	}}
	remote := &fakeRemote{membership: domain.TripMember{TripID: tripID, UserID: viewer.ID}}
	eng := engine.New(remote, hydrator, &fakeSubs{}, &fakeCache{}, viewer.ID, testLogger)
	require.NoError(t, eng.Start(context.Background()))

	err := eng.Refetch(context.Background())

	require.Error(t, err)
	state := eng.State()
	require.NotNil(t, state.Data, "a remote failure must not clear painted state")
	assert.Equal(t, engine.StatusReady, state.Status, "a painted view stays servable")
	assert.Equal(t, "Disney 2026", state.Data.Trip.Name)
	assert.NotEmpty(t, state.LastError)
}

// TestCreateTrip_remoteFirst verifies trip creation happens against the
// backend before the view exists.
func TestCreateTrip_remoteFirst(t *testing.T) {
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}
	remote := &fakeRemote{membershipErr: domain.ErrNotFound}
	hydrator := &fakeHydrator{hydrate: func(int) (domain.Snapshot, error) {
		return snapshotFixture(uuid.New(), "New Trip", viewer), nil
	}}
	eng := engine.New(remote, hydrator, &fakeSubs{}, &fakeCache{}, viewer.ID, testLogger)
	require.NoError(t, eng.Start(context.Background()))
	require.Equal(t, engine.StatusNoTrip, eng.State().Status)

	require.NoError(t, eng.CreateTrip(context.Background(), "New Trip"))

	assert.Equal(t, 1, remote.callCount("CreateTrip"))
	assert.Equal(t, engine.StatusReady, eng.State().Status)
	assert.Equal(t, "New Trip", eng.State().Data.Trip.Name)
}

// TestStart_cachePaintBeforeHydrate verifies a matching cache paints the
// view even when the authoritative hydrate then fails.
func TestStart_cachePaintBeforeHydrate(t *testing.T) {
	tripID := uuid.New()
	viewer := domain.Profile{ID: uuid.New(), Username: "ben"}

	cache := &fakeCache{}
	cache.Write(tripID, snapshotFixture(tripID, "Cached Trip", viewer))

	remote := &fakeRemote{membership: domain.TripMember{TripID: tripID, UserID: viewer.ID}}
	hydrator := &fakeHydrator{hydrate: func(int) (domain.Snapshot, error) {
		return domain.Snapshot{}, domain.ErrUnavailable
	}}
	eng := engine.New(remote, hydrator, &fakeSubs{}, cache, viewer.ID, testLogger)

	err := eng.Start(context.Background())

	require.Error(t, err)
	state := eng.State()
	require.NotNil(t, state.Data, "the cache paint must survive a failed hydrate")
	assert.Equal(t, engine.StatusReady, state.Status, "a cached paint must not look like a session still loading")
	assert.Equal(t, "Cached Trip", state.Data.Trip.Name)
	assert.NotEmpty(t, state.LastError)
}

// compile-time check: the real hydrator satisfies the engine's dependency.
var _ engine.Hydrator = (*hydrate.Hydrator)(nil)
