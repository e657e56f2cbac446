package domain

import (
	"time"

	"github.com/google/uuid"
)

// BudgetExpense is a shared cost row. The payer need not appear in SplitWith;
// the cost is divided equally among the SplitWith users only.
// SplitWith must never be empty — empty splits are rejected at write time,
// never repaired by the assembler.
type BudgetExpense struct {
	ID          uuid.UUID   `json:"id"`
	TripID      uuid.UUID   `json:"trip_id"`
	Description string      `json:"description"`
	Amount      float64     `json:"amount"`
	PaidBy      uuid.UUID   `json:"paid_by"`
	SplitWith   []uuid.UUID `json:"split_with"`
	CreatedBy   uuid.UUID   `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

// BudgetItem is the assembled view of an expense: payer and split
// participants resolved to usernames, amount untouched. Per-person share
// rounding happens at the presentation boundary, never here.
type BudgetItem struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	PaidBy      string   `json:"paid_by"`
	SplitWith   []string `json:"split_with"`
}

// Balances computes each user's net position across all items:
// amount paid summed, minus amount owed (amount / len(SplitWith) per item
// the user appears in). The returned values always sum to zero.
//
// Items with an empty split list are skipped — they cannot exist in valid
// data and dividing by zero here would be a logic bug, not a data state.
func Balances(items []BudgetItem) map[string]float64 {
	balances := make(map[string]float64)
	for _, item := range items {
		if len(item.SplitWith) == 0 {
			continue
		}
		share := item.Amount / float64(len(item.SplitWith))
		balances[item.PaidBy] += item.Amount
		for _, username := range item.SplitWith {
			balances[username] -= share
		}
	}
	return balances
}
