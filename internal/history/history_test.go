package history

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type q struct {
	id   int
	diff string
}

func qid(x q) int { return x.id }

func noShuffle(int, func(i, j int)) {}

func seeded(seed uint64) ShuffleFunc {
	r := rand.New(rand.NewPCG(seed, seed))
	return r.Shuffle
}

func TestTiersFor(t *testing.T) {
	assert.Equal(t, []Difficulty{Easy}, TiersFor(1))
	assert.Equal(t, []Difficulty{Easy}, TiersFor(3))
	assert.Equal(t, []Difficulty{Easy, Medium}, TiersFor(4))
	assert.Equal(t, []Difficulty{Easy, Medium}, TiersFor(7))
	assert.Equal(t, []Difficulty{Easy, Medium, Hard}, TiersFor(8))
	assert.Equal(t, []Difficulty{Easy, Medium, Hard}, TiersFor(12))
	assert.Equal(t, []string{"EASY", "MEDIUM"}, TierNames(5))
}

func TestTiersFor_Monotonic(t *testing.T) {
	for level := 1; level < 20; level++ {
		lower := TiersFor(level)
		higher := TiersFor(level + 1)
		assert.Subset(t, higher, lower, "level %d -> %d", level, level+1)
	}
}

// A level-2 user asks for 5 questions from an EASY pool with 3 unseen and
// 10 recently answered questions.
func TestSelectBatch_PadsUnseenWithSeen(t *testing.T) {
	var pool []q
	exclude := map[int]bool{}
	for i := 1; i <= 13; i++ {
		pool = append(pool, q{id: i, diff: "EASY"})
		if i > 3 {
			exclude[i] = true
		}
	}

	filtered, widened := WithinTiers(pool, func(x q) string { return x.diff }, 2)
	require.False(t, widened)

	batch := SelectBatch(filtered, qid, exclude, 5, seeded(7))
	require.Len(t, batch, 5)

	first := []int{batch[0].id, batch[1].id, batch[2].id}
	assert.ElementsMatch(t, []int{1, 2, 3}, first)
	for _, x := range batch[3:] {
		assert.True(t, exclude[x.id], "padding %d should come from the seen set", x.id)
	}
}

func TestSelectBatch_UnseenOnlyWhenEnough(t *testing.T) {
	pool := []q{{id: 1}, {id: 2}, {id: 3}, {id: 4}, {id: 5}}
	exclude := map[int]bool{5: true}

	batch := SelectBatch(pool, qid, exclude, 3, seeded(1))
	require.Len(t, batch, 3)
	for _, x := range batch {
		assert.NotEqual(t, 5, x.id)
	}
}

func TestSelectBatch_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 42))
	for trial := 0; trial < 200; trial++ {
		n := r.IntN(20)
		var pool []q
		inPool := map[int]bool{}
		for i := 0; i < n; i++ {
			id := r.IntN(15) // duplicates on purpose
			pool = append(pool, q{id: id})
			inPool[id] = true
		}
		exclude := map[int]bool{}
		for id := range inPool {
			if r.IntN(2) == 0 {
				exclude[id] = true
			}
		}
		count := r.IntN(12)

		batch := SelectBatch(pool, qid, exclude, count, r.Shuffle)

		assert.Len(t, batch, min(count, len(inPool)))
		got := map[int]bool{}
		for _, x := range batch {
			assert.True(t, inPool[x.id], "id %d outside candidates", x.id)
			assert.False(t, got[x.id], "duplicate id %d", x.id)
			got[x.id] = true
		}
	}
}

func TestSelectBatch_Empty(t *testing.T) {
	assert.Empty(t, SelectBatch([]q{}, qid, nil, 5, noShuffle))
	assert.Empty(t, SelectBatch([]q{{id: 1}}, qid, nil, 0, noShuffle))
}

func TestWithinTiers_WidensWhenEmpty(t *testing.T) {
	pool := []q{{id: 1, diff: "HARD"}, {id: 2, diff: "MEDIUM"}}
	diff := func(x q) string { return x.diff }

	got, widened := WithinTiers(pool, diff, 1)
	assert.True(t, widened)
	assert.Len(t, got, 2)

	got, widened = WithinTiers(pool, diff, 5)
	assert.False(t, widened)
	assert.Equal(t, []q{{id: 2, diff: "MEDIUM"}}, got)

	got, widened = WithinTiers([]q{}, diff, 5)
	assert.False(t, widened)
	assert.Empty(t, got)
}

type fakeSource struct {
	since time.Time
	ids   []int
	err   error
}

func (f *fakeSource) AnsweredSince(_ context.Context, _ int, _ string, since time.Time) ([]int, error) {
	f.since = since
	return f.ids, f.err
}

func TestTracker_RecentlyAnswered(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(0, func() time.Time { return now })
	src := &fakeSource{ids: []int{4, 9}}

	got, err := tr.RecentlyAnswered(context.Background(), src, 1, "multiple_choice")
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{4: true, 9: true}, got)
	assert.Equal(t, now.Add(-24*time.Hour), src.since)

	src.err = errors.New("db down")
	_, err = tr.RecentlyAnswered(context.Background(), src, 1, "multiple_choice")
	assert.Error(t, err)
}
