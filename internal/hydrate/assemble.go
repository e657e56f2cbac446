package hydrate

import (
	"sort"

	"github.com/google/uuid"

	"github.com/wellsfam/tripsync/internal/domain"
)

// Assemble folds a flat snapshot into the nested view for one viewer.
// It is a pure function of its inputs: deterministic, total over partial
// data, and free of side effects. A day with no blocks, a block with no
// RSVPs, or an empty trip all assemble into valid empty structures.
//
// The result is viewer-scoped: the packed flag on each shared packing item
// is viewerID's own check row (absent means unpacked), never a merge of
// other members' states.
func Assemble(snap domain.Snapshot, viewerID uuid.UUID) domain.Assembled {
	profiles := make(map[uuid.UUID]domain.Profile, len(snap.Members))
	members := make([]domain.MemberView, 0, len(snap.Members))
	for _, m := range snap.Members {
		profiles[m.Membership.UserID] = m.Profile
		members = append(members, memberView(m.Profile))
	}

	// Unknown ids resolve to the raw id string: a display-only degradation,
	// never an error.
	username := func(id uuid.UUID) string {
		if p, ok := profiles[id]; ok {
			return p.Username
		}
		return id.String()
	}

	rsvpsByBlock := make(map[uuid.UUID][]domain.RSVPView)
	for _, r := range snap.RSVPs {
		view := domain.RSVPView{Username: username(r.UserID), Status: r.Status}
		if r.Quip != nil {
			view.Quip = *r.Quip
		}
		rsvpsByBlock[r.BlockID] = append(rsvpsByBlock[r.BlockID], view)
	}

	chatsByBlock := make(map[uuid.UUID][]domain.ChatMessage)
	for _, m := range snap.BlockMessages {
		if m.BlockID == nil {
			continue
		}
		chatsByBlock[*m.BlockID] = append(chatsByBlock[*m.BlockID], chatMessage(m, username))
	}

	blocksByDay := make(map[uuid.UUID][]domain.BlockView)
	for _, b := range snap.Blocks {
		blocksByDay[b.DayID] = append(blocksByDay[b.DayID], domain.BlockView{
			ID:        b.ID.String(),
			Type:      b.Type,
			Title:     b.Title,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Location:  b.Location,
			Park:      b.Park,
			Notes:     b.Notes,
			RSVPs:     orEmpty(rsvpsByBlock[b.ID]),
			Chats:     orEmpty(chatsByBlock[b.ID]),
		})
	}

	days := make([]domain.DayView, 0, len(snap.Days))
	for _, d := range snap.Days {
		day := domain.DayView{
			ID:       d.ID.String(),
			Date:     d.Date,
			DayIndex: d.DayIndex,
			Blocks:   orEmpty(blocksByDay[d.ID]),
		}
		if d.Park != nil {
			day.Park = *d.Park
		}
		// Stable sort: blocks sharing a start time keep their input order.
		// "HH:MM" strings compare lexicographically in time order.
		sort.SliceStable(day.Blocks, func(i, j int) bool {
			return day.Blocks[i].StartTime < day.Blocks[j].StartTime
		})
		days = append(days, day)
	}
	// Date ascending; day_index and next-upcoming-event search rely on it.
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	trip := domain.TripView{
		ID:      snap.Trip.ID.String(),
		Name:    snap.Trip.Name,
		Notes:   snap.Trip.Notes,
		Members: members,
		Days:    days,
	}
	if snap.Trip.HotelName != nil {
		hotel := domain.HotelView{Name: *snap.Trip.HotelName}
		if snap.Trip.HotelAddress != nil {
			hotel.Address = *snap.Trip.HotelAddress
		}
		trip.Hotel = &hotel
	}

	chatMessages := make([]domain.ChatMessage, 0, len(snap.TripMessages))
	for _, m := range snap.TripMessages {
		chatMessages = append(chatMessages, chatMessage(m, username))
	}

	// Amounts pass through untouched; per-person rounding belongs to the
	// presentation boundary.
	budgetItems := make([]domain.BudgetItem, 0, len(snap.Expenses))
	for _, e := range snap.Expenses {
		split := make([]string, len(e.SplitWith))
		for i, id := range e.SplitWith {
			split[i] = username(id)
		}
		budgetItems = append(budgetItems, domain.BudgetItem{
			ID:          e.ID.String(),
			Description: e.Description,
			Amount:      e.Amount,
			PaidBy:      username(e.PaidBy),
			SplitWith:   split,
		})
	}

	viewerChecks := make(map[uuid.UUID]bool, len(snap.PackingChecks))
	for _, c := range snap.PackingChecks {
		if c.UserID == viewerID {
			viewerChecks[c.BaseItemID] = c.Packed
		}
	}
	packingList := make([]domain.PackingItem, 0, len(snap.PackingBase))
	for _, p := range snap.PackingBase {
		packingList = append(packingList, domain.PackingItem{
			ID:      p.ID.String(),
			Item:    p.Item,
			Packed:  viewerChecks[p.ID],
			AddedBy: username(p.AddedBy),
		})
	}

	personalList := make([]domain.PersonalItem, 0, len(snap.PersonalItems))
	for _, p := range snap.PersonalItems {
		if p.UserID != viewerID {
			continue
		}
		personalList = append(personalList, domain.PersonalItem{
			ID:     p.ID.String(),
			Item:   p.Item,
			Packed: p.Packed,
		})
	}

	responses := make(map[string]domain.QuestionnaireResponse, len(snap.Responses))
	for _, r := range snap.Responses {
		if r.UserID == viewerID {
			responses[r.QuestionnaireID.String()] = r
		}
	}

	return domain.Assembled{
		Trip:         trip,
		ChatMessages: chatMessages,
		BudgetItems:  budgetItems,
		PackingList:  packingList,
		PersonalList: personalList,
		Responses:    responses,
		Profiles:     profiles,
	}
}

func memberView(p domain.Profile) domain.MemberView {
	v := domain.MemberView{
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Role:        p.Role,
		AvatarEmoji: p.AvatarEmoji,
		Color:       p.Color,
		Theme:       p.Theme,
	}
	if p.CustomAvatarURL != nil {
		v.CustomAvatarURL = *p.CustomAvatarURL
	}
	return v
}

func chatMessage(m domain.Message, username func(uuid.UUID) string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        m.ID.String(),
		Username:  username(m.UserID),
		Message:   m.Body,
		Timestamp: m.CreatedAt,
	}
}

// orEmpty replaces a nil slice with an empty one so assembled structures
// never carry nils into JSON.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
