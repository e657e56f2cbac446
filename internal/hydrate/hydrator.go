// Package hydrate fetches every row belonging to a trip in one coordinated
// batch and folds the flat rows into the nested trip model the UI consumes.
//
// Fetching is a staged fan-out: phase 1 gets the trip, members, and days;
// phase 2 gets everything keyed by the trip id or the day-id set; phase 3
// gets everything keyed by the block-id and base-item-id sets. Independent
// fetches within a phase run concurrently, so hydrate latency is bounded by
// three round-trip hops regardless of how many tables are involved.
package hydrate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wellsfam/tripsync/internal/domain"
)

// DataSource is the read surface the hydrator needs. *store.Store satisfies
// it; tests supply a fake.
type DataSource interface {
	TripByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	MembersByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.MemberRow, error)
	DaysByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripDay, error)
	BlocksByDayIDs(ctx context.Context, dayIDs []uuid.UUID) ([]domain.TimeBlock, error)
	RSVPsByBlockIDs(ctx context.Context, blockIDs []uuid.UUID) ([]domain.RSVP, error)
	TripMessages(ctx context.Context, tripID uuid.UUID) ([]domain.Message, error)
	BlockMessagesByBlockIDs(ctx context.Context, blockIDs []uuid.UUID) ([]domain.Message, error)
	ExpensesByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.BudgetExpense, error)
	PackingBaseByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.PackingBaseItem, error)
	PackingChecksByItemIDs(ctx context.Context, itemIDs []uuid.UUID) ([]domain.PackingCheck, error)
	PersonalItemsByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.PersonalPackingItem, error)
	QuestionnairesByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Questionnaire, error)
	ResponsesByQuestionnaireIDs(ctx context.Context, questionnaireIDs []uuid.UUID) ([]domain.QuestionnaireResponse, error)
}

// Hydrator fetches full trip snapshots.
type Hydrator struct {
	src DataSource
}

// New constructs a Hydrator reading from src.
func New(src DataSource) *Hydrator {
	return &Hydrator{src: src}
}

// Hydrate fetches every row set for tripID. The only hard failure exit is
// the trip row itself being missing or inaccessible — that surfaces as
// domain.ErrNotFound and the caller degrades to the no-trip state. Any
// other error aborts the whole hydrate so a partial snapshot is never
// returned.
func (h *Hydrator) Hydrate(ctx context.Context, tripID uuid.UUID) (domain.Snapshot, error) {
	var snap domain.Snapshot

	// Phase 1: trip, members, days.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		trip, err := h.src.TripByID(gctx, tripID)
		if err != nil {
			return err
		}
		snap.Trip = trip
		return nil
	})
	g.Go(func() error {
		members, err := h.src.MembersByTrip(gctx, tripID)
		if err != nil {
			return err
		}
		snap.Members = members
		return nil
	})
	g.Go(func() error {
		days, err := h.src.DaysByTrip(gctx, tripID)
		if err != nil {
			return err
		}
		snap.Days = days
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("hydrate.Hydrate: %w", err)
	}

	// Phase 2: everything keyed by the trip id or the day-id set.
	dayIDs := make([]uuid.UUID, len(snap.Days))
	for i, d := range snap.Days {
		dayIDs[i] = d.ID
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		blocks, err := h.src.BlocksByDayIDs(gctx, dayIDs)
		if err != nil {
			return err
		}
		snap.Blocks = blocks
		return nil
	})
	g.Go(func() error {
		msgs, err := h.src.TripMessages(gctx, tripID)
		if err != nil {
			return err
		}
		snap.TripMessages = msgs
		return nil
	})
	g.Go(func() error {
		expenses, err := h.src.ExpensesByTrip(gctx, tripID)
		if err != nil {
			return err
		}
		snap.Expenses = expenses
		return nil
	})
	g.Go(func() error {
		items, err := h.src.PackingBaseByTrip(gctx, tripID)
		if err != nil {
			return err
		}
		snap.PackingBase = items
		return nil
	})
	g.Go(func() error {
		items, err := h.src.PersonalItemsByTrip(gctx, tripID)
		if err != nil {
			return err
		}
		snap.PersonalItems = items
		return nil
	})
	g.Go(func() error {
		qs, err := h.src.QuestionnairesByTrip(gctx, tripID)
		if err != nil {
			return err
		}
		snap.Questionnaires = qs
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("hydrate.Hydrate: %w", err)
	}

	// Phase 3: everything keyed by the block-id, base-item-id, and
	// questionnaire-id sets.
	blockIDs := make([]uuid.UUID, len(snap.Blocks))
	for i, b := range snap.Blocks {
		blockIDs[i] = b.ID
	}
	itemIDs := make([]uuid.UUID, len(snap.PackingBase))
	for i, p := range snap.PackingBase {
		itemIDs[i] = p.ID
	}
	questionnaireIDs := make([]uuid.UUID, len(snap.Questionnaires))
	for i, q := range snap.Questionnaires {
		questionnaireIDs[i] = q.ID
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		rsvps, err := h.src.RSVPsByBlockIDs(gctx, blockIDs)
		if err != nil {
			return err
		}
		snap.RSVPs = rsvps
		return nil
	})
	g.Go(func() error {
		msgs, err := h.src.BlockMessagesByBlockIDs(gctx, blockIDs)
		if err != nil {
			return err
		}
		snap.BlockMessages = msgs
		return nil
	})
	g.Go(func() error {
		checks, err := h.src.PackingChecksByItemIDs(gctx, itemIDs)
		if err != nil {
			return err
		}
		snap.PackingChecks = checks
		return nil
	})
	g.Go(func() error {
		responses, err := h.src.ResponsesByQuestionnaireIDs(gctx, questionnaireIDs)
		if err != nil {
			return err
		}
		snap.Responses = responses
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("hydrate.Hydrate: %w", err)
	}

	return snap, nil
}
