// Package engine owns the session lifecycle of the sync core: it discovers
// the user's active trip, paints from the local cache, runs the
// authoritative hydrate, subscribes to the realtime feed, applies optimistic
// mutations, and mirrors them to the remote store.
//
// Consistency model: eventually consistent, last-hydrate-wins. Optimistic
// local updates are applied synchronously; remote mirroring is best-effort
// and never rolled back — the next realtime-triggered re-hydrate is the
// backstop that repairs any divergence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wellsfam/tripsync/internal/domain"
	"github.com/wellsfam/tripsync/internal/hydrate"
	"github.com/wellsfam/tripsync/internal/realtime"
)

// Status is the session state exposed to the UI boundary.
type Status string

const (
	// StatusNoTrip: authenticated but no membership found — the UI shows
	// the trip-creation flow. An inaccessible trip degrades here too,
	// never to a blocking error screen.
	StatusNoTrip Status = "no-trip"
	// StatusLoading: a hydrate is in flight and nothing is painted yet.
	StatusLoading Status = "loading"
	// StatusReady: hydrated and subscribed.
	StatusReady Status = "ready"
	// StatusError: the initial hydrate failed with nothing to paint.
	// Once a view exists, remote failures keep it and only flag LastError.
	StatusError Status = "error"
)

// RemoteStore is the write-and-bootstrap surface the engine needs from the
// remote store. *store.Store satisfies it; tests supply a fake.
type RemoteStore interface {
	FirstMembership(ctx context.Context, userID uuid.UUID) (domain.TripMember, error)
	CreateTrip(ctx context.Context, name string, createdBy uuid.UUID) (domain.Trip, error)
	UpdateTripNotes(ctx context.Context, id uuid.UUID, notes string) error
	UpdateProfile(ctx context.Context, p domain.Profile) error
	CreateDay(ctx context.Context, tripID uuid.UUID, date time.Time, park *string, dayIndex int) (domain.TripDay, error)
	CreateBlock(ctx context.Context, b domain.TimeBlock) (domain.TimeBlock, error)
	UpdateBlock(ctx context.Context, b domain.TimeBlock) (domain.TimeBlock, error)
	DeleteBlock(ctx context.Context, id uuid.UUID) error
	UpsertRSVP(ctx context.Context, r domain.RSVP) (domain.RSVP, error)
	CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error)
	CreateExpense(ctx context.Context, e domain.BudgetExpense) (domain.BudgetExpense, error)
	UpdateExpense(ctx context.Context, e domain.BudgetExpense) (domain.BudgetExpense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	CreatePackingBase(ctx context.Context, tripID uuid.UUID, item string, addedBy uuid.UUID) (domain.PackingBaseItem, error)
	DeletePackingBase(ctx context.Context, id uuid.UUID) error
	UpsertPackingCheck(ctx context.Context, baseItemID, userID uuid.UUID, packed bool) (domain.PackingCheck, error)
	CreatePersonalItem(ctx context.Context, tripID, userID uuid.UUID, item string) (domain.PersonalPackingItem, error)
	SetPersonalItemPacked(ctx context.Context, id uuid.UUID, packed bool) error
	DeletePersonalItem(ctx context.Context, id uuid.UUID) error
	UpsertResponse(ctx context.Context, r domain.QuestionnaireResponse) (domain.QuestionnaireResponse, error)
}

// Hydrator fetches a full snapshot for a trip.
type Hydrator interface {
	Hydrate(ctx context.Context, tripID uuid.UUID) (domain.Snapshot, error)
}

// Subscriber opens the realtime channel for a trip. The returned function
// tears the channel down and must be idempotent.
type Subscriber interface {
	Subscribe(tripID uuid.UUID, onChange func(realtime.Event)) func()
}

// Cache is the best-effort local mirror. A nil-safe no-op implementation is
// acceptable; the engine never depends on it succeeding.
type Cache interface {
	Read(tripID uuid.UUID) (domain.Snapshot, bool)
	Write(tripID uuid.UUID, snap domain.Snapshot)
}

// State is the full session state handed to the UI boundary.
type State struct {
	Status    Status            `json:"status"`
	LastError string            `json:"last_error,omitempty"`
	Data      *domain.Assembled `json:"data,omitempty"`
}

// Engine coordinates one authenticated session. It is safe for concurrent
// use; the assembled view is published atomically — a reader sees either
// the previous complete view or the next one, never a partial update.
type Engine struct {
	store    RemoteStore
	hydrator Hydrator
	subs     Subscriber
	cache    Cache
	log      *slog.Logger
	userID   uuid.UUID

	mu          sync.Mutex
	status      Status
	tripID      uuid.UUID
	view        *domain.Assembled
	seq         uint64 // last hydrate attempt issued
	applied     uint64 // last hydrate attempt whose result was published
	session     uint64 // bumped on Stop; in-flight work from old sessions is ignored
	lastErr     string
	unsubscribe func()
}

// New constructs an Engine for the authenticated user.
func New(store RemoteStore, hydrator Hydrator, subs Subscriber, cache Cache, userID uuid.UUID, log *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		hydrator: hydrator,
		subs:     subs,
		cache:    cache,
		log:      log,
		userID:   userID,
		status:   StatusLoading,
	}
}

// Start bootstraps the session: find the active trip (first membership),
// paint from the cache if it matches, hydrate authoritatively, subscribe.
// A user with no membership lands in StatusNoTrip; an unreachable backend
// lands in StatusError with whatever the cache could paint.
func (e *Engine) Start(ctx context.Context) error {
	membership, err := e.store.FirstMembership(ctx, e.userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			e.setStatus(StatusNoTrip, "")
			return nil
		}
		e.setStatus(StatusError, err.Error())
		return fmt.Errorf("engine.Start: %w", err)
	}

	e.mu.Lock()
	e.tripID = membership.TripID
	e.status = StatusLoading
	e.mu.Unlock()

	// Cache paint: strictly an optimization for cold start. Published only
	// while nothing authoritative has been applied yet.
	if snap, ok := e.cache.Read(membership.TripID); ok {
		assembled := hydrate.Assemble(snap, e.userID)
		e.mu.Lock()
		if e.applied == 0 {
			e.view = &assembled
			e.log.Debug("painted from cache", "trip_id", membership.TripID)
		}
		e.mu.Unlock()
	}

	if err := e.rehydrate(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil // degraded to no-trip inside rehydrate
		}
		return fmt.Errorf("engine.Start: %w", err)
	}

	e.subscribe(membership.TripID)
	return nil
}

// CreateTrip creates a remote trip with the caller as admin member, then
// runs the normal bootstrap path against it. Unlike the other mutations
// this is remote-first: there is nothing to be optimistic about until the
// backend has assigned the trip its identity.
func (e *Engine) CreateTrip(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: trip name is required", domain.ErrValidation)
	}

	trip, err := e.store.CreateTrip(ctx, name, e.userID)
	if err != nil {
		return fmt.Errorf("engine.CreateTrip: %w", err)
	}

	e.mu.Lock()
	e.tripID = trip.ID
	e.status = StatusLoading
	e.mu.Unlock()

	if err := e.rehydrate(ctx); err != nil {
		return fmt.Errorf("engine.CreateTrip: %w", err)
	}
	e.subscribe(trip.ID)
	return nil
}

// Stop tears down the session: unsubscribe first, then clear local state,
// so no channel leaks across sessions. In-flight hydrates are not cancelled
// but their results are discarded via the session counter.
func (e *Engine) Stop() {
	e.mu.Lock()
	unsub := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	e.mu.Lock()
	e.session++
	e.status = StatusNoTrip
	e.tripID = uuid.Nil
	e.view = nil
	e.lastErr = ""
	e.applied = 0
	e.seq = 0
	e.mu.Unlock()
}

// State returns the current session state. The returned view pointer is
// shared but never mutated after publication; treat it as read-only.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{Status: e.status, LastError: e.lastErr, Data: e.view}
}

// Refetch forces a full re-hydrate, e.g. behind a pull-to-refresh intent.
func (e *Engine) Refetch(ctx context.Context) error {
	return e.rehydrate(ctx)
}

// subscribe opens the realtime channel. Policy for every delivered event is
// the same regardless of table or operation: a full re-hydrate. DELETE
// events in particular cannot be trusted to carry a trip id, so "re-hydrate
// to find out what changed" is the only safe reaction.
func (e *Engine) subscribe(tripID uuid.UUID) {
	unsub := e.subs.Subscribe(tripID, func(ev realtime.Event) {
		e.log.Debug("realtime change", "table", ev.Table, "op", ev.Op)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = e.rehydrate(ctx) // failures already logged and flagged
		}()
	})

	e.mu.Lock()
	e.unsubscribe = unsub
	e.mu.Unlock()
}

// rehydrate runs one hydrate attempt tagged with a monotonic sequence
// number. A result is published only if no newer attempt has been applied
// and the session has not been stopped since — late results are discarded,
// never applied out of order.
func (e *Engine) rehydrate(ctx context.Context) error {
	e.mu.Lock()
	e.seq++
	seq, session, tripID := e.seq, e.session, e.tripID
	e.mu.Unlock()

	if tripID == uuid.Nil {
		return nil
	}

	snap, err := e.hydrator.Hydrate(ctx, tripID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != session {
		return nil // logged out while in flight
	}

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Trip deleted or inaccessible: degrade to the creation flow.
			e.status = StatusNoTrip
			e.view = nil
			return err
		}
		// Retryable: keep previously loaded state, never clear a painted UI.
		// A painted view is servable even when the refresh failed, so it is
		// published as ready with the failure riding along in LastError.
		e.lastErr = err.Error()
		if e.view == nil {
			e.status = StatusError
		} else {
			e.status = StatusReady
		}
		e.log.Warn("hydrate failed", "trip_id", tripID, "error", err)
		return err
	}

	if seq <= e.applied {
		e.log.Debug("stale hydrate discarded", "seq", seq, "applied", e.applied)
		return nil
	}
	e.applied = seq

	assembled := hydrate.Assemble(snap, e.userID)
	e.view = &assembled
	e.status = StatusReady
	e.lastErr = ""

	// Cache refresh happens off the publish path and is best-effort.
	go e.cache.Write(tripID, snap)
	return nil
}

func (e *Engine) setStatus(s Status, lastErr string) {
	e.mu.Lock()
	e.status = s
	e.lastErr = lastErr
	e.mu.Unlock()
}

// mirror runs a remote write in the background. Failures never roll back
// the optimistic local change; they are logged, flagged on the session
// state, and repaired by the next hydrate.
func (e *Engine) mirror(op string, fn func(ctx context.Context) error) {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			e.log.Warn("remote mirror failed", "op", op, "error", err)
			e.mu.Lock()
			if e.session == session {
				e.lastErr = op + ": " + err.Error()
			}
			e.mu.Unlock()
		}
	}()
}
