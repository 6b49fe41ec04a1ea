package rewards

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/progression"
	"github.com/lingoquest/lingoquest/internal/store"
)

// fixedSource always draws the same sample and index.
type fixedSource struct {
	u   float64
	idx int
}

func (f fixedSource) Float64() float64 { return f.u }
func (f fixedSource) IntN(n int) int   { return f.idx % n }

type fixture struct {
	st  *store.Store
	arb *Arbiter
	uid int
	now time.Time
}

func newFixture(t *testing.T, src Source) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "rewards.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	u, _, err := st.Queries().EnsureUser(context.Background(), "U-rewards", "")
	require.NoError(t, err)

	f := &fixture{st: st, uid: u.ID, now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	ledger := progression.NewLedger(st, progression.NewCalendar(time.UTC), nil)
	f.arb = NewArbiter(st, ledger, DefaultConfig(), src, nil)
	f.arb.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) total(t *testing.T) int {
	t.Helper()
	u, err := f.st.Queries().GetUser(context.Background(), f.uid)
	require.NoError(t, err)
	return u.TotalPoints
}

func TestSpin_OncePerWindow(t *testing.T) {
	f := newFixture(t, fixedSource{u: 0.1}) // 10 XP
	ctx := context.Background()

	res, err := f.arb.Spin(ctx, f.uid)
	require.NoError(t, err)
	require.True(t, res.Available)
	assert.Equal(t, Prize{Kind: PrizeXP, XP: 10}, res.Prize)
	require.NotNil(t, res.Change)
	assert.Equal(t, 10, f.total(t))

	f.now = f.now.Add(5 * time.Hour)
	res, err = f.arb.Spin(ctx, f.uid)
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, 19*time.Hour, res.Wait)
	assert.Equal(t, 19, res.RemainingHours)
	assert.Equal(t, 10, f.total(t))

	f.now = f.now.Add(19 * time.Hour)
	res, err = f.arb.Spin(ctx, f.uid)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, 20, f.total(t))
}

func TestSpin_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, fixedSource{u: 0.6}) // 50 XP
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.arb.Spin(ctx, f.uid)
			assert.NoError(t, err)
			if res.Available {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 50, f.total(t))
}

func TestSpin_NonXPPrizeBecomesGrant(t *testing.T) {
	f := newFixture(t, fixedSource{u: 0.82}) // mystery box band [0.80, 0.90)
	ctx := context.Background()

	res, err := f.arb.Spin(ctx, f.uid)
	require.NoError(t, err)
	require.True(t, res.Available)
	assert.Equal(t, PrizeMysteryBox, res.Prize.Kind)
	assert.Nil(t, res.Change)
	assert.NotZero(t, res.GrantID)
	assert.Zero(t, f.total(t))

	pending, err := f.st.Queries().PendingGrants(ctx, f.uid)
	require.NoError(t, err)
	assert.Equal(t, 1, pending[GrantBox])
}

func TestOpenMysteryBox(t *testing.T) {
	f := newFixture(t, fixedSource{u: 0.5}) // 30 XP
	ctx := context.Background()

	res, err := f.arb.OpenMysteryBox(ctx, f.uid)
	require.NoError(t, err)
	assert.False(t, res.Available, "no box held")

	_, err = f.st.Queries().AddGrant(ctx, f.uid, GrantBox, "spin")
	require.NoError(t, err)

	res, err = f.arb.OpenMysteryBox(ctx, f.uid)
	require.NoError(t, err)
	require.True(t, res.Available)
	assert.Equal(t, 30, res.Prize.XP)
	assert.Equal(t, 30, f.total(t))

	res, err = f.arb.OpenMysteryBox(ctx, f.uid)
	require.NoError(t, err)
	assert.False(t, res.Available, "box already opened")
	assert.Equal(t, 30, f.total(t))
}

func seedVocab(t *testing.T, st *store.Store, words ...store.VocabRecord) {
	t.Helper()
	for _, w := range words {
		require.NoError(t, st.Queries().UpsertVocab(context.Background(), w))
	}
}

func TestPullGacha_NewThenDuplicate(t *testing.T) {
	f := newFixture(t, fixedSource{u: 0.7}) // rare band [0.60, 0.88)
	seedVocab(t, f.st, store.VocabRecord{Word: "serendipity", Meaning: "ความบังเอิญ", Rarity: "rare"})
	ctx := context.Background()

	res, err := f.arb.PullGacha(ctx, f.uid)
	require.NoError(t, err)
	require.True(t, res.Available)
	assert.True(t, res.IsNew)
	assert.Equal(t, 15, res.Points)
	assert.Equal(t, 2, res.PullsLeft)

	res, err = f.arb.PullGacha(ctx, f.uid)
	require.NoError(t, err)
	assert.False(t, res.IsNew)
	assert.Equal(t, 8, res.Points)
	assert.Equal(t, 23, f.total(t))

	size, err := f.st.Queries().CollectionSize(ctx, f.uid)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestPullGacha_FallsBackWhenTierEmpty(t *testing.T) {
	f := newFixture(t, fixedSource{u: 0.99}) // legendary
	seedVocab(t, f.st, store.VocabRecord{Word: "cat", Meaning: "แมว", Rarity: "common"})

	res, err := f.arb.PullGacha(context.Background(), f.uid)
	require.NoError(t, err)
	assert.Equal(t, "cat", res.Word)
	assert.Equal(t, RarityCommon, res.Rarity)
	assert.Equal(t, 5, res.Points)
}

func TestPullGacha_EmptyPool(t *testing.T) {
	f := newFixture(t, fixedSource{u: 0.1})
	_, err := f.arb.PullGacha(context.Background(), f.uid)
	assert.ErrorIs(t, err, ErrEmptyPool)

	n, err := f.arb.PullsToday(context.Background(), f.uid)
	require.NoError(t, err)
	assert.Zero(t, n, "failed pull must not consume a slot")
}

func TestPullGacha_DailyLimit(t *testing.T) {
	f := newFixture(t, fixedSource{u: 0.1})
	seedVocab(t, f.st, store.VocabRecord{Word: "cat", Meaning: "แมว", Rarity: "common"})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := f.arb.PullGacha(ctx, f.uid)
		require.NoError(t, err)
		require.True(t, res.Available)
	}
	res, err := f.arb.PullGacha(ctx, f.uid)
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, 15*time.Hour, res.Wait)
	assert.Equal(t, 15, res.RemainingHours)

	// A new calendar day resets the limit.
	f.now = f.now.Add(16 * time.Hour)
	res, err = f.arb.PullGacha(ctx, f.uid)
	require.NoError(t, err)
	assert.True(t, res.Available)
}

func TestPullGacha_ConcurrentNeverExceedsLimit(t *testing.T) {
	f := newFixture(t, fixedSource{u: 0.1})
	seedVocab(t, f.st,
		store.VocabRecord{Word: "cat", Meaning: "แมว", Rarity: "common"},
		store.VocabRecord{Word: "dog", Meaning: "หมา", Rarity: "common"},
	)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.arb.PullGacha(ctx, f.uid)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := f.arb.PullsToday(ctx, f.uid)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	coll, err := f.st.Queries().Collection(ctx, f.uid)
	require.NoError(t, err)
	require.Len(t, coll, 1)
	assert.Equal(t, 3, coll[0].Copies)
	// 5 for the first copy, 3 for each repeat.
	assert.Equal(t, 11, f.total(t))
}

// racingStore lets a concurrent pull commit slot 1 first, so the next
// transaction fails on the unique slot index the way a second delivery of
// the same pull does under Postgres.
type racingStore struct {
	*store.Store
	day   string
	uid   int
	calls int
}

func (r *racingStore) InTx(ctx context.Context, fn func(q *store.Queries) error) error {
	r.calls++
	if r.calls == 1 {
		if _, _, err := r.Store.Queries().ClaimSlot(ctx, r.uid, ClaimGacha, r.day, 3); err != nil {
			return err
		}
		return fmt.Errorf("claim gacha slot 1: %w", apperr.ErrConflict)
	}
	return r.Store.InTx(ctx, fn)
}

func TestPullGacha_LostRaceIsDiscarded(t *testing.T) {
	f := newFixture(t, fixedSource{u: 0.1})
	seedVocab(t, f.st, store.VocabRecord{Word: "cat", Meaning: "แมว", Rarity: "common"})
	ctx := context.Background()

	ledger := progression.NewLedger(f.st, progression.NewCalendar(time.UTC), nil)
	racing := &racingStore{Store: f.st, day: ledger.Calendar().Day(f.now), uid: f.uid}
	arb := NewArbiter(racing, ledger, DefaultConfig(), fixedSource{u: 0.1}, nil)
	arb.SetClock(func() time.Time { return f.now })

	res, err := arb.PullGacha(ctx, f.uid)
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, "pull already in progress", res.Reason)
	assert.Zero(t, res.Points)
	assert.Nil(t, res.Change)
	assert.Equal(t, 1, racing.calls, "a lost pull is not redrawn")

	n, err := arb.PullsToday(ctx, f.uid)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the winner's slot is used")
	assert.Zero(t, f.total(t))

	size, err := f.st.Queries().CollectionSize(ctx, f.uid)
	require.NoError(t, err)
	assert.Zero(t, size)
}
