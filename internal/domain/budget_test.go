package domain_test

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellsfam/tripsync/internal/domain"
)

// TestBalances_singleExpense verifies the net position for one expense:
// the payer is credited the full amount and debited their own share.
func TestBalances_singleExpense(t *testing.T) {
	items := []domain.BudgetItem{
		{ID: "e1", Description: "park tickets", Amount: 90, PaidBy: "ben", SplitWith: []string{"ben", "marie", "rachel"}},
	}

	balances := domain.Balances(items)

	require.Len(t, balances, 3)
	assert.InDelta(t, 60, balances["ben"], 1e-9)
	assert.InDelta(t, -30, balances["marie"], 1e-9)
	assert.InDelta(t, -30, balances["rachel"], 1e-9)
}

// TestBalances_multipleExpenses verifies that positions accumulate across
// expenses with different payers and split sets.
func TestBalances_multipleExpenses(t *testing.T) {
	items := []domain.BudgetItem{
		{ID: "e1", Description: "park tickets", Amount: 90, PaidBy: "ben", SplitWith: []string{"ben", "marie", "rachel"}},
		{ID: "e2", Description: "lunch", Amount: 30, PaidBy: "marie", SplitWith: []string{"marie", "rachel"}},
	}

	balances := domain.Balances(items)

	assert.InDelta(t, 60, balances["ben"], 1e-9)
	assert.InDelta(t, -15, balances["marie"], 1e-9)
	assert.InDelta(t, -45, balances["rachel"], 1e-9)
}

// TestBalances_sumToZero verifies the conservation invariant on randomly
// generated expense sets: money paid always equals money owed, so the
// balances sum to zero regardless of payers or split sets.
func TestBalances_sumToZero(t *testing.T) {
	users := []string{"ben", "marie", "rachel", "tom", "june"}
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 100; trial++ {
		n := rng.Intn(10) + 1
		items := make([]domain.BudgetItem, n)
		for i := range items {
			split := make([]string, 0, len(users))
			for _, u := range users {
				if rng.Intn(2) == 0 {
					split = append(split, u)
				}
			}
			if len(split) == 0 {
				split = append(split, users[rng.Intn(len(users))])
			}
			items[i] = domain.BudgetItem{
				ID:        fmt.Sprintf("e%d", i),
				Amount:    float64(rng.Intn(10000)) / 100,
				PaidBy:    users[rng.Intn(len(users))],
				SplitWith: split,
			}
		}

		var sum float64
		for _, v := range domain.Balances(items) {
			sum += v
		}
		require.Less(t, math.Abs(sum), 1e-6, "trial %d: balances must sum to zero", trial)
	}
}

// TestBalances_skipsEmptySplit verifies that an item with no split list
// contributes nothing rather than dividing by zero. Such items are rejected
// upstream; this guards the arithmetic itself.
func TestBalances_skipsEmptySplit(t *testing.T) {
	items := []domain.BudgetItem{
		{ID: "e1", Amount: 50, PaidBy: "ben", SplitWith: nil},
	}

	balances := domain.Balances(items)

	assert.Empty(t, balances)
}

// TestBalances_payerNotInSplit verifies that a payer outside the split set
// is credited the full amount and owes nothing.
func TestBalances_payerNotInSplit(t *testing.T) {
	items := []domain.BudgetItem{
		{ID: "e1", Amount: 40, PaidBy: "ben", SplitWith: []string{"marie", "rachel"}},
	}

	balances := domain.Balances(items)

	assert.InDelta(t, 40, balances["ben"], 1e-9)
	assert.InDelta(t, -20, balances["marie"], 1e-9)
	assert.InDelta(t, -20, balances["rachel"], 1e-9)
}
