package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/store"
)

func openStore(t *testing.T) (*store.Store, int) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	u, _, err := st.Queries().EnsureUser(context.Background(), "U-session", "")
	require.NoError(t, err)
	return st, u.ID
}

func TestManager_BeginAbandonsPrevious(t *testing.T) {
	st, uid := openStore(t)
	ctx := context.Background()
	q := st.Queries()
	m := NewManager()

	first, err := m.Begin(ctx, q, uid, "multiple_choice", []int{1, 2})
	require.NoError(t, err)
	second, err := m.Begin(ctx, q, uid, "multiple_choice", []int{3, 4})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	old, err := m.Get(ctx, q, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAbandoned, old.Status)

	active, err := m.Active(ctx, q, uid, "multiple_choice")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, []int{3, 4}, active.QuestionIDs)
}

func TestManager_AdvanceToCompletion(t *testing.T) {
	st, uid := openStore(t)
	ctx := context.Background()
	q := st.Queries()
	m := NewManager()

	_, err := m.Begin(ctx, q, uid, "vocab_match", []int{5, 6})
	require.NoError(t, err)

	s, advanced, err := m.Advance(ctx, q, uid, "vocab_match", 6, true, 10)
	require.NoError(t, err)
	assert.False(t, advanced, "not the current question")

	s, advanced, err = m.Advance(ctx, q, uid, "vocab_match", 5, true, 10)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, 1, s.Index)

	s, advanced, err = m.Advance(ctx, q, uid, "vocab_match", 6, true, 10)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.True(t, s.Perfect())

	_, err = m.Active(ctx, q, uid, "vocab_match")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	n, err := q.CountSessions(ctx, uid, string(StatusCompleted), true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestManager_AdvanceWithoutSession(t *testing.T) {
	st, uid := openStore(t)
	_, advanced, err := NewManager().Advance(context.Background(), st.Queries(), uid, "fill_blank", 1, true, 10)
	require.NoError(t, err)
	assert.False(t, advanced)
}

func TestManager_LatestKeepsStartTime(t *testing.T) {
	st, uid := openStore(t)
	ctx := context.Background()
	q := st.Queries()
	started := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	m := NewManager()
	m.SetClock(func() time.Time { return started })

	_, err := q.LatestSession(ctx, uid, "multiple_choice")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	s, err := m.Begin(ctx, q, uid, "multiple_choice", []int{7})
	require.NoError(t, err)
	_, _, err = m.Advance(ctx, q, uid, "multiple_choice", 7, false, 0)
	require.NoError(t, err)

	latest, err := m.Latest(ctx, q, uid, "multiple_choice")
	require.NoError(t, err)
	assert.Equal(t, s.ID, latest.ID)
	assert.Equal(t, StatusCompleted, latest.Status)
	assert.True(t, started.Equal(latest.StartedAt))
	assert.True(t, latest.Serves(7))
	assert.False(t, latest.Serves(8))
}
