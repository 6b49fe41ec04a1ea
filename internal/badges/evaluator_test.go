package badges

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest/internal/progression"
	"github.com/lingoquest/lingoquest/internal/store"
)

func setup(t *testing.T, defs ...store.BadgeRecord) (*Evaluator, *store.Store, int) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "badges.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	for _, d := range defs {
		require.NoError(t, st.Queries().UpsertBadge(ctx, d))
	}
	u, _, err := st.Queries().EnsureUser(ctx, "U-badge", "")
	require.NoError(t, err)

	ledger := progression.NewLedger(st, progression.NewCalendar(time.UTC), nil)
	return NewEvaluator(st, ledger, nil), st, u.ID
}

func TestCheckAndGrant_GrantsOnceAndPaysOnce(t *testing.T) {
	ev, st, uid := setup(t, store.BadgeRecord{Code: "talker", Name: "Talker", Criterion: "message_count", Threshold: 3, BonusXP: 25})
	ctx := context.Background()
	q := st.Queries()

	got, err := ev.CheckAndGrant(ctx, uid, "message")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, q.IncrementActivity(ctx, uid, "message_count", 3))
	for i := 0; i < 3; i++ {
		got, err = ev.CheckAndGrant(ctx, uid, "message")
		require.NoError(t, err)
		if i == 0 {
			require.Len(t, got, 1)
			assert.Equal(t, "talker", got[0].Code)
			assert.Equal(t, 25, got[0].NewTotal)
		} else {
			assert.Empty(t, got)
		}
	}

	sum, err := q.PointSum(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 25, sum)
}

func TestCheckAndGrant_ConcurrentDuplicates(t *testing.T) {
	ev, st, uid := setup(t, store.BadgeRecord{Code: "first-game", Criterion: "practice_games", Threshold: 1, BonusXP: 50})
	ctx := context.Background()
	require.NoError(t, st.Queries().IncrementActivity(ctx, uid, ActivityPracticeGames, 1))

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := ev.CheckAndGrant(ctx, uid, "answer")
			assert.NoError(t, err)
			mu.Lock()
			total += len(g)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, total)
	ach, err := st.Queries().Achievements(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, ach, 1)
	u, err := st.Queries().GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 50, u.TotalPoints)
}

func TestCheckAndGrant_BonusUnlocksLevelBadge(t *testing.T) {
	ev, st, uid := setup(t,
		store.BadgeRecord{Code: "level-2", Criterion: "level_reached", Threshold: 2, BonusXP: 10},
		store.BadgeRecord{Code: "collector", Criterion: "vocab_collection", Threshold: 1, BonusXP: 100},
	)
	ctx := context.Background()
	q := st.Queries()

	require.NoError(t, q.UpsertVocab(ctx, store.VocabRecord{Word: "cat", Meaning: "แมว", Rarity: "common"}))
	vocab, err := q.VocabByRarity(ctx, "common")
	require.NoError(t, err)
	_, err = q.AddToCollection(ctx, uid, vocab[0].ID, time.Now())
	require.NoError(t, err)

	got, err := ev.CheckAndGrant(ctx, uid, "gacha")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "collector", got[0].Code)
	assert.True(t, got[0].LeveledUp)
	assert.Equal(t, "level-2", got[1].Code)

	u, err := q.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 110, u.TotalPoints)
}

func TestCheckAndGrant_SkipsUnknownCriterion(t *testing.T) {
	ev, _, uid := setup(t, store.BadgeRecord{Code: "legacy", Criterion: "homeworkCount", Threshold: 1})
	got, err := ev.CheckAndGrant(context.Background(), uid, "sweep")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStats(t *testing.T) {
	ev, st, uid := setup(t)
	ctx := context.Background()
	q := st.Queries()

	require.NoError(t, q.IncrementActivity(ctx, uid, "feedback_count", 2))
	require.NoError(t, q.SetActivity(ctx, uid, "improved_score_streak", 3))
	require.NoError(t, q.IncrementActivity(ctx, uid, ActivityPerfectRounds, 1))

	s, err := ev.Stats(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, s.FeedbackCount)
	assert.Equal(t, 3, s.ImprovedScoreStreak)
	assert.Equal(t, 1, s.PerfectScores)
	assert.Equal(t, 1, s.Level)
}

func TestSweep(t *testing.T) {
	ev, st, uid := setup(t, store.BadgeRecord{Code: "streak-1", Criterion: "streak_days", Threshold: 1, BonusXP: 5})
	ctx := context.Background()
	now := time.Now()
	_, _, err := st.Queries().TouchStreak(ctx, uid, now.UTC().Format("2006-01-02"), now.UTC().AddDate(0, 0, -1).Format("2006-01-02"), now)
	require.NoError(t, err)

	n, err := ev.Sweep(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ev.Sweep(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}
