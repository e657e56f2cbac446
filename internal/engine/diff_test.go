package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellsfam/tripsync/internal/domain"
)

func packingFixture() []domain.PackingItem {
	return []domain.PackingItem{
		{ID: "p1", Item: "sunscreen", Packed: false, AddedBy: "ben"},
		{ID: "p2", Item: "chargers", Packed: false, AddedBy: "marie"},
		{ID: "p3", Item: "snacks", Packed: true, AddedBy: "ben"},
	}
}

func packingID(p domain.PackingItem) string { return p.ID }
func packingChanged(old, new domain.PackingItem) bool {
	return old.Packed != new.Packed
}

// TestDiffByID_singleFlip verifies that flipping one item's packed flag in
// an equal-length collection yields exactly one update and nothing else.
func TestDiffByID_singleFlip(t *testing.T) {
	prev := packingFixture()
	next := packingFixture()
	next[1].Packed = true

	d := diffByID(prev, next, packingID, packingChanged)

	assert.Nil(t, d.insert)
	assert.Empty(t, d.deletes)
	require.Len(t, d.updates, 1)
	assert.Equal(t, "p2", d.updates[0].ID)
	assert.True(t, d.updates[0].Packed)
}

// TestDiffByID_noChange verifies identical collections produce an empty diff.
func TestDiffByID_noChange(t *testing.T) {
	prev := packingFixture()
	next := packingFixture()

	d := diffByID(prev, next, packingID, packingChanged)

	assert.Nil(t, d.insert)
	assert.Empty(t, d.deletes)
	assert.Empty(t, d.updates)
}

// TestDiffByID_insert verifies a longer next collection yields the one new
// element as an insert.
func TestDiffByID_insert(t *testing.T) {
	prev := packingFixture()
	next := append(packingFixture(), domain.PackingItem{ID: "p4", Item: "hats", AddedBy: "ben"})

	d := diffByID(prev, next, packingID, packingChanged)

	require.NotNil(t, d.insert)
	assert.Equal(t, "p4", d.insert.ID)
	assert.Empty(t, d.deletes)
	assert.Empty(t, d.updates)
}

// TestDiffByID_delete verifies a shorter next collection yields the missing
// identifiers as deletes.
func TestDiffByID_delete(t *testing.T) {
	prev := packingFixture()
	next := prev[:1]

	d := diffByID(prev, next, packingID, packingChanged)

	assert.Nil(t, d.insert)
	assert.Empty(t, d.updates)
	assert.ElementsMatch(t, []string{"p2", "p3"}, d.deletes)
}

// TestDiffByID_emptyToOne verifies the first insert into an empty
// collection is inferred correctly.
func TestDiffByID_emptyToOne(t *testing.T) {
	next := []domain.PackingItem{{ID: "p1", Item: "sunscreen"}}

	d := diffByID(nil, next, packingID, packingChanged)

	require.NotNil(t, d.insert)
	assert.Equal(t, "p1", d.insert.ID)
}

func TestIsTempID(t *testing.T) {
	assert.True(t, isTempID(tempID()))
	assert.False(t, isTempID("p1"))
	assert.False(t, isTempID("3f6e2a90-1c4d-4f7e-9b1a-0d2c5e8f1a2b"))
}
