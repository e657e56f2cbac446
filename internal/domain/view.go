package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot holds every flat row set belonging to one trip, exactly as
// fetched in one hydrate pass. It is the unit of caching and the sole input
// to Assemble. A Snapshot is never patched in place — each hydrate produces
// a fresh one.
type Snapshot struct {
	Trip           Trip                    `json:"trip"`
	Members        []MemberRow             `json:"members"`
	Days           []TripDay               `json:"days"`
	Blocks         []TimeBlock             `json:"blocks"`
	RSVPs          []RSVP                  `json:"rsvps"`
	TripMessages   []Message               `json:"trip_messages"`
	BlockMessages  []Message               `json:"block_messages"`
	Expenses       []BudgetExpense         `json:"budget_expenses"`
	PackingBase    []PackingBaseItem       `json:"packing_base_items"`
	PackingChecks  []PackingCheck          `json:"packing_checks"`
	PersonalItems  []PersonalPackingItem   `json:"personal_packing_items"`
	Questionnaires []Questionnaire         `json:"questionnaires"`
	Responses      []QuestionnaireResponse `json:"questionnaire_responses"`
}

// RSVPView is an RSVP with the user resolved to a username.
type RSVPView struct {
	Username string     `json:"username"`
	Status   RSVPStatus `json:"status"`
	Quip     string     `json:"quip,omitempty"`
}

// ChatMessage is a message with the sender resolved to a username.
type ChatMessage struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// BlockView is a time block with its RSVP and chat lists attached.
type BlockView struct {
	ID        string        `json:"id"`
	Type      BlockType     `json:"type"`
	Title     string        `json:"title"`
	StartTime string        `json:"start_time"`
	EndTime   string        `json:"end_time"`
	Location  string        `json:"location"`
	Park      string        `json:"park"`
	Notes     string        `json:"notes"`
	RSVPs     []RSVPView    `json:"rsvps"`
	Chats     []ChatMessage `json:"chats"`
}

// DayView is one trip day with its blocks sorted by start time.
type DayView struct {
	ID       string      `json:"id"`
	Date     time.Time   `json:"date"`
	Park     string      `json:"park,omitempty"`
	DayIndex int         `json:"day_index"`
	Blocks   []BlockView `json:"blocks"`
}

// MemberView is a trip member's display identity.
type MemberView struct {
	Username        string      `json:"username"`
	DisplayName     string      `json:"display_name"`
	Role            ProfileRole `json:"role"`
	AvatarEmoji     string      `json:"avatar_emoji"`
	Color           string      `json:"color"`
	CustomAvatarURL string      `json:"custom_avatar_url,omitempty"`
	Theme           string      `json:"theme"`
}

// HotelView is the trip's hotel, present only when a hotel name is set.
type HotelView struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// TripView is the nested trip aggregate the UI consumes.
type TripView struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Notes   string       `json:"notes"`
	Hotel   *HotelView   `json:"hotel,omitempty"`
	Members []MemberView `json:"members"`
	Days    []DayView    `json:"days"`
}

// Assembled is the full derived output of one hydrate: the nested trip plus
// the flat collections, and the profile map the mutation coordinator uses to
// translate usernames back to user ids. It is derived state only and is
// replaced wholesale on every hydrate.
type Assembled struct {
	Trip         TripView                         `json:"trip"`
	ChatMessages []ChatMessage                    `json:"chat_messages"`
	BudgetItems  []BudgetItem                     `json:"budget_items"`
	PackingList  []PackingItem                    `json:"packing_list"`
	PersonalList []PersonalItem                   `json:"personal_list"`
	Responses    map[string]QuestionnaireResponse `json:"responses"`
	Profiles     map[uuid.UUID]Profile            `json:"-"`
}

// UserIDByUsername reverses the profile map. Unknown usernames return the
// zero UUID and false.
func (a *Assembled) UserIDByUsername(username string) (uuid.UUID, bool) {
	for id, p := range a.Profiles {
		if p.Username == username {
			return id, true
		}
	}
	return uuid.Nil, false
}
