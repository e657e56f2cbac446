package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wellsfam/tripsync/internal/domain"
)

// BlockInput carries the editable fields of a time block intent.
type BlockInput struct {
	Type      domain.BlockType `json:"type"`
	Title     string           `json:"title"`
	StartTime string           `json:"start_time"`
	EndTime   string           `json:"end_time"`
	Location  string           `json:"location"`
	Park      string           `json:"park"`
	Notes     string           `json:"notes"`
}

// ProfileInput carries the editable fields of the caller's own profile.
type ProfileInput struct {
	DisplayName     string  `json:"display_name"`
	AvatarEmoji     string  `json:"avatar_emoji"`
	Color           string  `json:"color"`
	Theme           string  `json:"theme"`
	CustomAvatarURL *string `json:"custom_avatar_url"`
}

// AddDay appends a calendar day. The day index is the position the date
// lands in after sorting, denormalized the way the backend stores it.
func (e *Engine) AddDay(date time.Time, park string) error {
	var parkPtr *string
	if park != "" {
		parkPtr = &park
	}

	var dayIndex int
	err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		days := make([]domain.DayView, 0, len(v.Trip.Days)+1)
		days = append(days, v.Trip.Days...)
		days = append(days, domain.DayView{
			ID:     tempID(),
			Date:   date,
			Park:   park,
			Blocks: []domain.BlockView{},
		})
		sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
		for i := range days {
			days[i].DayIndex = i
			if days[i].Date.Equal(date) {
				dayIndex = i
			}
		}
		v.Trip.Days = days
		return v
	})
	if err != nil {
		return err
	}

	tripID := e.currentTripID()
	e.mirror("add day", func(ctx context.Context) error {
		_, err := e.store.CreateDay(ctx, tripID, date, parkPtr, dayIndex)
		return err
	})
	return nil
}

// AddBlock schedules a new time block on a day.
func (e *Engine) AddBlock(dayID string, in BlockInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if in.Type == "" {
		in.Type = domain.BlockFamily
	}

	block := domain.BlockView{
		ID:        tempID(),
		Type:      in.Type,
		Title:     in.Title,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Location:  in.Location,
		Park:      in.Park,
		Notes:     in.Notes,
		RSVPs:     []domain.RSVPView{},
		Chats:     []domain.ChatMessage{},
	}
	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		return appendBlock(v, dayID, block)
	}); err != nil {
		return err
	}

	parsedDay, err := uuid.Parse(dayID)
	if err != nil {
		// Day only exists optimistically; the next hydrate reconciles.
		return nil
	}
	userID := e.userID
	e.mirror("add block", func(ctx context.Context) error {
		_, err := e.store.CreateBlock(ctx, domain.TimeBlock{
			DayID:     parsedDay,
			Type:      in.Type,
			Title:     in.Title,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			Location:  in.Location,
			Park:      in.Park,
			Notes:     in.Notes,
			CreatedBy: &userID,
		})
		return err
	})
	return nil
}

// UpdateBlock edits an existing block's fields.
func (e *Engine) UpdateBlock(blockID string, in BlockInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		return mapBlock(v, blockID, func(b domain.BlockView) domain.BlockView {
			b.Type = in.Type
			b.Title = in.Title
			b.StartTime = in.StartTime
			b.EndTime = in.EndTime
			b.Location = in.Location
			b.Park = in.Park
			b.Notes = in.Notes
			return b
		})
	}); err != nil {
		return err
	}

	parsed, err := uuid.Parse(blockID)
	if err != nil {
		return nil
	}
	e.mirror("update block", func(ctx context.Context) error {
		_, err := e.store.UpdateBlock(ctx, domain.TimeBlock{
			ID:        parsed,
			Type:      in.Type,
			Title:     in.Title,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			Location:  in.Location,
			Park:      in.Park,
			Notes:     in.Notes,
		})
		return err
	})
	return nil
}

// DeleteBlock removes a block.
func (e *Engine) DeleteBlock(blockID string) error {
	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		return dropBlock(v, blockID)
	}); err != nil {
		return err
	}

	parsed, err := uuid.Parse(blockID)
	if err != nil {
		return nil
	}
	e.mirror("delete block", func(ctx context.Context) error {
		return e.store.DeleteBlock(ctx, parsed)
	})
	return nil
}

// RSVP records the caller's attendance answer for a block: always an
// upsert keyed by (block, user), applied optimistically and mirrored
// without a diff step.
func (e *Engine) RSVP(blockID string, status domain.RSVPStatus, quip string) error {
	if status != domain.RSVPGoing && status != domain.RSVPNotGoing {
		return fmt.Errorf("%w: unknown rsvp status %q", domain.ErrValidation, status)
	}

	username := e.currentUsername()
	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		return mapBlock(v, blockID, func(b domain.BlockView) domain.BlockView {
			rsvps := make([]domain.RSVPView, 0, len(b.RSVPs)+1)
			replaced := false
			for _, r := range b.RSVPs {
				if r.Username == username {
					rsvps = append(rsvps, domain.RSVPView{Username: username, Status: status, Quip: quip})
					replaced = true
					continue
				}
				rsvps = append(rsvps, r)
			}
			if !replaced {
				rsvps = append(rsvps, domain.RSVPView{Username: username, Status: status, Quip: quip})
			}
			b.RSVPs = rsvps
			return b
		})
	}); err != nil {
		return err
	}

	parsed, err := uuid.Parse(blockID)
	if err != nil {
		return nil
	}
	tripID := e.currentTripID()
	var quipPtr *string
	if quip != "" {
		quipPtr = &quip
	}
	e.mirror("rsvp", func(ctx context.Context) error {
		_, err := e.store.UpsertRSVP(ctx, domain.RSVP{
			BlockID: parsed,
			UserID:  e.userID,
			TripID:  &tripID,
			Status:  status,
			Quip:    quipPtr,
		})
		return err
	})
	return nil
}

// SendTripMessage appends to the trip-level chat.
func (e *Engine) SendTripMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: message is empty", domain.ErrValidation)
	}

	msg := domain.ChatMessage{
		ID:        tempID(),
		Username:  e.currentUsername(),
		Message:   text,
		Timestamp: time.Now().UTC(),
	}
	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		msgs := make([]domain.ChatMessage, 0, len(v.ChatMessages)+1)
		msgs = append(msgs, v.ChatMessages...)
		msgs = append(msgs, msg)
		v.ChatMessages = msgs
		return v
	}); err != nil {
		return err
	}

	tripID := e.currentTripID()
	e.mirror("send message", func(ctx context.Context) error {
		_, err := e.store.CreateMessage(ctx, domain.Message{TripID: &tripID, UserID: e.userID, Body: text})
		return err
	})
	return nil
}

// SendBlockMessage appends to one block's event chat.
func (e *Engine) SendBlockMessage(blockID, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: message is empty", domain.ErrValidation)
	}

	msg := domain.ChatMessage{
		ID:        tempID(),
		Username:  e.currentUsername(),
		Message:   text,
		Timestamp: time.Now().UTC(),
	}
	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		return mapBlock(v, blockID, func(b domain.BlockView) domain.BlockView {
			chats := make([]domain.ChatMessage, 0, len(b.Chats)+1)
			chats = append(chats, b.Chats...)
			chats = append(chats, msg)
			b.Chats = chats
			return b
		})
	}); err != nil {
		return err
	}

	parsed, err := uuid.Parse(blockID)
	if err != nil {
		return nil
	}
	e.mirror("send block message", func(ctx context.Context) error {
		_, err := e.store.CreateMessage(ctx, domain.Message{BlockID: &parsed, UserID: e.userID, Body: text})
		return err
	})
	return nil
}

// SetPackingList accepts the next full shared packing list and infers the
// remote calls from the diff against the current one (see diffByID).
// New entries may carry an empty id; they are assigned a temporary one
// until the next hydrate adopts the backend's.
func (e *Engine) SetPackingList(next []domain.PackingItem) error {
	username := e.currentUsername()

	e.mu.Lock()
	if e.view == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: no trip loaded", domain.ErrValidation)
	}
	prev := e.view.PackingList
	e.mu.Unlock()

	normalized := make([]domain.PackingItem, len(next))
	copy(normalized, next)
	for i := range normalized {
		if normalized[i].ID == "" {
			normalized[i].ID = tempID()
		}
		if normalized[i].AddedBy == "" {
			normalized[i].AddedBy = username
		}
	}

	d := diffByID(prev, normalized,
		func(p domain.PackingItem) string { return p.ID },
		func(old, new domain.PackingItem) bool { return old.Packed != new.Packed })

	if d.insert != nil && strings.TrimSpace(d.insert.Item) == "" {
		return fmt.Errorf("%w: packing item is empty", domain.ErrValidation)
	}

	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		v.PackingList = normalized
		return v
	}); err != nil {
		return err
	}

	tripID := e.currentTripID()
	if d.insert != nil {
		item := *d.insert
		e.mirror("add packing item", func(ctx context.Context) error {
			created, err := e.store.CreatePackingBase(ctx, tripID, item.Item, e.userID)
			if err != nil {
				return err
			}
			if item.Packed {
				_, err = e.store.UpsertPackingCheck(ctx, created.ID, e.userID, true)
			}
			return err
		})
	}
	for _, id := range d.deletes {
		if isTempID(id) {
			continue // never reached the backend
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		e.mirror("delete packing item", func(ctx context.Context) error {
			return e.store.DeletePackingBase(ctx, parsed)
		})
	}
	for _, item := range d.updates {
		if isTempID(item.ID) {
			continue
		}
		parsed, err := uuid.Parse(item.ID)
		if err != nil {
			continue
		}
		packed := item.Packed
		e.mirror("toggle packing item", func(ctx context.Context) error {
			_, err := e.store.UpsertPackingCheck(ctx, parsed, e.userID, packed)
			return err
		})
	}
	return nil
}

// SetBudgetItems accepts the next full budget collection and infers the
// remote calls from the diff against the current one. Every entry must
// carry a non-empty split list; an empty one would divide by zero in the
// balance arithmetic and is rejected here, before any remote call.
func (e *Engine) SetBudgetItems(next []domain.BudgetItem) error {
	for _, item := range next {
		if len(item.SplitWith) == 0 {
			return fmt.Errorf("%w: expense %q has an empty split list", domain.ErrValidation, item.Description)
		}
	}

	e.mu.Lock()
	if e.view == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: no trip loaded", domain.ErrValidation)
	}
	prev := e.view.BudgetItems
	e.mu.Unlock()

	normalized := make([]domain.BudgetItem, len(next))
	copy(normalized, next)
	for i := range normalized {
		if normalized[i].ID == "" {
			normalized[i].ID = tempID()
		}
	}

	d := diffByID(prev, normalized,
		func(b domain.BudgetItem) string { return b.ID },
		func(old, new domain.BudgetItem) bool {
			return old.Description != new.Description ||
				old.Amount != new.Amount ||
				old.PaidBy != new.PaidBy ||
				!stringSlicesEqual(old.SplitWith, new.SplitWith)
		})

	// Resolve usernames before publishing so a bad payload rejects cleanly.
	toExpense := func(item domain.BudgetItem) (domain.BudgetExpense, error) {
		expense := domain.BudgetExpense{
			TripID:      e.currentTripID(),
			Description: item.Description,
			Amount:      item.Amount,
			CreatedBy:   e.userID,
		}
		paidBy, ok := e.resolveUsername(item.PaidBy)
		if !ok {
			return domain.BudgetExpense{}, fmt.Errorf("%w: unknown payer %q", domain.ErrValidation, item.PaidBy)
		}
		expense.PaidBy = paidBy
		for _, username := range item.SplitWith {
			id, ok := e.resolveUsername(username)
			if !ok {
				return domain.BudgetExpense{}, fmt.Errorf("%w: unknown member %q in split", domain.ErrValidation, username)
			}
			expense.SplitWith = append(expense.SplitWith, id)
		}
		return expense, nil
	}

	var inserted *domain.BudgetExpense
	if d.insert != nil {
		expense, err := toExpense(*d.insert)
		if err != nil {
			return err
		}
		inserted = &expense
	}
	updated := make([]domain.BudgetExpense, 0, len(d.updates))
	for _, item := range d.updates {
		if isTempID(item.ID) {
			continue
		}
		parsed, err := uuid.Parse(item.ID)
		if err != nil {
			continue
		}
		expense, err := toExpense(item)
		if err != nil {
			return err
		}
		expense.ID = parsed
		updated = append(updated, expense)
	}

	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		v.BudgetItems = normalized
		return v
	}); err != nil {
		return err
	}

	if inserted != nil {
		expense := *inserted
		e.mirror("add expense", func(ctx context.Context) error {
			_, err := e.store.CreateExpense(ctx, expense)
			return err
		})
	}
	for _, id := range d.deletes {
		if isTempID(id) {
			continue
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		e.mirror("delete expense", func(ctx context.Context) error {
			return e.store.DeleteExpense(ctx, parsed)
		})
	}
	for _, expense := range updated {
		expense := expense
		e.mirror("update expense", func(ctx context.Context) error {
			_, err := e.store.UpdateExpense(ctx, expense)
			return err
		})
	}
	return nil
}

// AddPersonalItem adds a private packing item for the caller.
func (e *Engine) AddPersonalItem(item string) error {
	if strings.TrimSpace(item) == "" {
		return fmt.Errorf("%w: item is empty", domain.ErrValidation)
	}

	entry := domain.PersonalItem{ID: tempID(), Item: item}
	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		items := make([]domain.PersonalItem, 0, len(v.PersonalList)+1)
		items = append(items, v.PersonalList...)
		items = append(items, entry)
		v.PersonalList = items
		return v
	}); err != nil {
		return err
	}

	tripID := e.currentTripID()
	e.mirror("add personal item", func(ctx context.Context) error {
		_, err := e.store.CreatePersonalItem(ctx, tripID, e.userID, item)
		return err
	})
	return nil
}

// TogglePersonalItem flips a private item's packed flag.
func (e *Engine) TogglePersonalItem(id string, packed bool) error {
	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		items := make([]domain.PersonalItem, len(v.PersonalList))
		copy(items, v.PersonalList)
		for i := range items {
			if items[i].ID == id {
				items[i].Packed = packed
			}
		}
		v.PersonalList = items
		return v
	}); err != nil {
		return err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	e.mirror("toggle personal item", func(ctx context.Context) error {
		return e.store.SetPersonalItemPacked(ctx, parsed, packed)
	})
	return nil
}

// DeletePersonalItem removes a private item.
func (e *Engine) DeletePersonalItem(id string) error {
	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		items := make([]domain.PersonalItem, 0, len(v.PersonalList))
		for _, item := range v.PersonalList {
			if item.ID != id {
				items = append(items, item)
			}
		}
		v.PersonalList = items
		return v
	}); err != nil {
		return err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	e.mirror("delete personal item", func(ctx context.Context) error {
		return e.store.DeletePersonalItem(ctx, parsed)
	})
	return nil
}

// SaveResponse upserts the caller's questionnaire answers, keyed by
// (questionnaire, user).
func (e *Engine) SaveResponse(questionnaireID string, answers map[string]any, completed bool) error {
	parsed, err := uuid.Parse(questionnaireID)
	if err != nil {
		return fmt.Errorf("%w: bad questionnaire id", domain.ErrValidation)
	}

	response := domain.QuestionnaireResponse{
		QuestionnaireID: parsed,
		UserID:          e.userID,
		Answers:         answers,
		Completed:       completed,
	}
	if completed {
		now := time.Now().UTC()
		response.SubmittedAt = &now
	}

	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		responses := make(map[string]domain.QuestionnaireResponse, len(v.Responses)+1)
		for k, r := range v.Responses {
			responses[k] = r
		}
		responses[questionnaireID] = response
		v.Responses = responses
		return v
	}); err != nil {
		return err
	}

	e.mirror("save response", func(ctx context.Context) error {
		_, err := e.store.UpsertResponse(ctx, response)
		return err
	})
	return nil
}

// UpdateNotes overwrites the trip's free-text notes.
func (e *Engine) UpdateNotes(notes string) error {
	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		v.Trip.Notes = notes
		return v
	}); err != nil {
		return err
	}

	tripID := e.currentTripID()
	e.mirror("update notes", func(ctx context.Context) error {
		return e.store.UpdateTripNotes(ctx, tripID, notes)
	})
	return nil
}

// UpdateProfile edits the caller's display identity.
func (e *Engine) UpdateProfile(in ProfileInput) error {
	if strings.TrimSpace(in.DisplayName) == "" {
		return fmt.Errorf("%w: display name is required", domain.ErrValidation)
	}

	var updated domain.Profile
	if err := e.mutateView(func(v domain.Assembled) domain.Assembled {
		profiles := make(map[uuid.UUID]domain.Profile, len(v.Profiles))
		for id, p := range v.Profiles {
			profiles[id] = p
		}
		p := profiles[e.userID]
		p.ID = e.userID
		p.DisplayName = in.DisplayName
		p.AvatarEmoji = in.AvatarEmoji
		p.Color = in.Color
		p.Theme = in.Theme
		p.CustomAvatarURL = in.CustomAvatarURL
		profiles[e.userID] = p
		updated = p
		v.Profiles = profiles

		members := make([]domain.MemberView, len(v.Trip.Members))
		copy(members, v.Trip.Members)
		for i := range members {
			if members[i].Username == p.Username {
				members[i].DisplayName = p.DisplayName
				members[i].AvatarEmoji = p.AvatarEmoji
				members[i].Color = p.Color
				members[i].Theme = p.Theme
				if p.CustomAvatarURL != nil {
					members[i].CustomAvatarURL = *p.CustomAvatarURL
				} else {
					members[i].CustomAvatarURL = ""
				}
			}
		}
		v.Trip.Members = members
		return v
	}); err != nil {
		return err
	}

	e.mirror("update profile", func(ctx context.Context) error {
		return e.store.UpdateProfile(ctx, updated)
	})
	return nil
}

func (e *Engine) currentTripID() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tripID
}

func (e *Engine) currentUsername() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view != nil {
		if p, ok := e.view.Profiles[e.userID]; ok {
			return p.Username
		}
	}
	return e.userID.String()
}

func (e *Engine) resolveUsername(username string) (uuid.UUID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view == nil {
		return uuid.Nil, false
	}
	return e.view.UserIDByUsername(username)
}
