package progression

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, *store.Store, int) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	u, _, err := st.Queries().EnsureUser(context.Background(), "U-ledger", "Ledger")
	require.NoError(t, err)
	return NewLedger(st, NewCalendar(time.UTC), nil), st, u.ID
}

func TestApply_LevelsUpAndLogs(t *testing.T) {
	l, st, uid := newTestLedger(t)
	ctx := context.Background()

	ch, err := l.Apply(ctx, uid, 80, SourceAnswer, "multiple_choice")
	require.NoError(t, err)
	assert.Equal(t, 80, ch.NewTotal)
	assert.False(t, ch.LeveledUp)

	ch, err = l.Apply(ctx, uid, 30, SourceAnswer, "multiple_choice")
	require.NoError(t, err)
	assert.Equal(t, 110, ch.NewTotal)
	assert.Equal(t, 1, ch.OldLevel)
	assert.Equal(t, 2, ch.NewLevel)
	assert.True(t, ch.LeveledUp)

	u, err := st.Queries().GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Level)
	assert.Equal(t, 10, u.CurrentXP)

	logs, err := l.History(ctx, uid, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 30, logs[0].Points)
}

func TestApply_Validation(t *testing.T) {
	l, st, uid := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Apply(ctx, uid, 0, SourceAnswer, "")
	assert.True(t, apperr.IsValidation(err))

	_, err = l.Apply(ctx, uid, -10, SourceAdjust, "penalty")
	assert.True(t, apperr.IsValidation(err))

	_, err = l.Apply(ctx, 9999, 10, SourceAnswer, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	sum, err := st.Queries().PointSum(ctx, uid)
	require.NoError(t, err)
	assert.Zero(t, sum, "rejected changes must not be logged")
}

func TestApply_SignedDelta(t *testing.T) {
	l, _, uid := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Apply(ctx, uid, 260, SourceAnswer, "")
	require.NoError(t, err)
	ch, err := l.Apply(ctx, uid, -20, SourceAdjust, "correction")
	require.NoError(t, err)
	assert.Equal(t, 240, ch.NewTotal)
	assert.Equal(t, 2, ch.NewLevel)
	assert.False(t, ch.LeveledUp)
}

func TestApply_Concurrent(t *testing.T) {
	l, st, uid := newTestLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Apply(ctx, uid, 10, SourceAnswer, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	u, err := st.Queries().GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 200, u.TotalPoints)
	assert.Equal(t, LevelFor(200), u.Level)

	sum, err := st.Queries().PointSum(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, u.TotalPoints, sum)
}

func TestUpdateStreak(t *testing.T) {
	l, _, uid := newTestLedger(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return now })

	res, err := l.UpdateStreak(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, StreakResult{Streak: 1, Advanced: true}, res)

	for i := 0; i < 3; i++ {
		res, err = l.UpdateStreak(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Streak)
		assert.False(t, res.Advanced)
	}

	now = now.Add(24 * time.Hour)
	res, err = l.UpdateStreak(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Streak)

	now = now.Add(72 * time.Hour)
	res, err = l.UpdateStreak(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
}

func TestProgress(t *testing.T) {
	l, _, uid := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Apply(ctx, uid, 175, SourceAnswer, "")
	require.NoError(t, err)

	p, err := l.Progress(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 75, p.CurrentXP)
	assert.Equal(t, 150, p.XPToNext)
	assert.Equal(t, 175, p.TotalPoints)
}

func TestRebuildLevel(t *testing.T) {
	l, st, uid := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Apply(ctx, uid, 300, SourceAnswer, "")
	require.NoError(t, err)

	rb, err := l.RebuildLevel(ctx, uid)
	require.NoError(t, err)
	assert.False(t, rb.Drift)
	assert.Equal(t, 3, rb.DerivedLevel)

	// Corrupt the stored level; the log still agrees with the total.
	require.NoError(t, st.Queries().SetLevel(ctx, uid, 1, 300))
	rb, err = l.RebuildLevel(ctx, uid)
	require.NoError(t, err)
	assert.True(t, rb.Drift)
	assert.True(t, rb.Repaired)

	u, err := st.Queries().GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 3, u.Level)
	assert.Equal(t, 50, u.CurrentXP)
}
