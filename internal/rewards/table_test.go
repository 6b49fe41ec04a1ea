package rewards

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable[int]()
	assert.Error(t, err)

	_, err = NewTable(Entry[int]{1, 0.5}, Entry[int]{2, 0.4})
	assert.Error(t, err, "weights must sum to 1")

	_, err = NewTable(Entry[int]{1, 1.2}, Entry[int]{2, -0.2})
	assert.Error(t, err, "negative weight")

	tbl, err := NewTable(Entry[int]{1, 0.25}, Entry[int]{2, 0.75})
	require.NoError(t, err)
	assert.Len(t, tbl.Entries(), 2)
}

func TestPick_WalksCumulativeWeights(t *testing.T) {
	tbl := MustTable(Entry[string]{"a", 0.5}, Entry[string]{"b", 0.3}, Entry[string]{"c", 0.2})

	assert.Equal(t, "a", tbl.Pick(0))
	assert.Equal(t, "a", tbl.Pick(0.4999))
	assert.Equal(t, "b", tbl.Pick(0.5))
	assert.Equal(t, "b", tbl.Pick(0.79))
	assert.Equal(t, "c", tbl.Pick(0.8))
	assert.Equal(t, "c", tbl.Pick(0.999999))
	assert.Equal(t, "c", tbl.Pick(1.5))
	assert.Equal(t, "a", tbl.Pick(-1))
}

func TestShippedTablesAreValid(t *testing.T) {
	_, err := NewTable(SpinTable.Entries()...)
	assert.NoError(t, err)
	_, err = NewTable(MysteryBoxTable.Entries()...)
	assert.NoError(t, err)
	_, err = NewTable(RarityTable.Entries()...)
	assert.NoError(t, err)
}

func TestRarityTable_StrictlyDescending(t *testing.T) {
	entries := RarityTable.Entries()
	require.Len(t, entries, 4)
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i-1].Weight, entries[i].Weight)
	}
	assert.Equal(t, RarityLegendary, entries[len(entries)-1].Value)
}

func TestDraw_Frequencies(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	counts := map[Rarity]int{}
	const n = 100000
	for i := 0; i < n; i++ {
		counts[RarityTable.Draw(r)]++
	}
	for _, e := range RarityTable.Entries() {
		assert.InDelta(t, e.Weight, float64(counts[e.Value])/n, 0.01, "rarity %s", e.Value)
	}
}

func TestRarityPoints(t *testing.T) {
	tests := []struct {
		r         Rarity
		first     int
		duplicate int
	}{
		{RarityCommon, 5, 3},
		{RarityRare, 15, 8},
		{RarityEpic, 40, 20},
		{RarityLegendary, 100, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.first, tt.r.Points(), "%s", tt.r)
		assert.Equal(t, tt.duplicate, tt.r.DuplicatePoints(), "%s", tt.r)
	}
	_, err := ParseRarity("mythic")
	assert.Error(t, err)
	assert.Equal(t, "Epic", RarityEpic.DisplayName())
}

func TestBreakdown(t *testing.T) {
	got := Breakdown([]string{"rare", "common", "legendary", "rare", "mythic"})
	assert.Equal(t, []RarityCount{
		{RarityCommon, 2},
		{RarityRare, 2},
		{RarityEpic, 0},
		{RarityLegendary, 1},
	}, got)

	empty := Breakdown(nil)
	require.Len(t, empty, len(AllRarities()))
	for _, c := range empty {
		assert.Zero(t, c.Words, c.Rarity.DisplayName())
	}
}
