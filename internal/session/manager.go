package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/store"
)

// Manager loads and persists session states. Every method works on the
// Queries it is given so it can join the caller's transaction.
type Manager struct {
	newID func() string
	now   func() time.Time
}

// NewManager creates a Manager issuing random UUIDs.
func NewManager() *Manager {
	return &Manager{newID: func() string { return uuid.NewString() }, now: time.Now}
}

// SetClock replaces the clock stamping session start times.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// Begin starts a session over questionIDs. An InProgress session of the same
// game type is abandoned first.
func (m *Manager) Begin(ctx context.Context, q *store.Queries, userID int, gameType string, questionIDs []int) (State, error) {
	prev, err := m.Active(ctx, q, userID, gameType)
	switch {
	case err == nil:
		abandoned, terr := Abandon(prev)
		if terr != nil {
			return State{}, terr
		}
		if err := save(ctx, q, prev, abandoned); err != nil && !errors.Is(err, apperr.ErrConflict) {
			return State{}, err
		}
	case !errors.Is(err, apperr.ErrNotFound):
		return State{}, err
	}

	s, err := Start(New(m.newID(), userID, gameType), questionIDs)
	if err != nil {
		return State{}, err
	}
	s.StartedAt = m.now().UTC()
	if _, err := q.CreateSession(ctx, toRecord(s)); err != nil {
		return State{}, err
	}
	return s, nil
}

// Active returns the user's InProgress session of gameType, or
// apperr.ErrNotFound.
func (m *Manager) Active(ctx context.Context, q *store.Queries, userID int, gameType string) (State, error) {
	rec, err := q.ActiveSession(ctx, userID, gameType, string(StatusInProgress))
	if err != nil {
		return State{}, err
	}
	return fromRecord(*rec), nil
}

// Advance applies an answer to the active session of gameType. When there is
// no active session, or questionID is not its current question, the result
// has advanced false and nothing is written. A concurrent writer that moved
// the session first makes Advance fail with apperr.ErrConflict.
func (m *Manager) Advance(ctx context.Context, q *store.Queries, userID int, gameType string, questionID int, correct bool, points int) (s State, advanced bool, err error) {
	cur, err := m.Active(ctx, q, userID, gameType)
	if errors.Is(err, apperr.ErrNotFound) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}

	next, advanced, err := Answer(cur, questionID, correct, points)
	if err != nil || !advanced {
		return cur, false, err
	}
	if err := save(ctx, q, cur, next); err != nil {
		return cur, false, err
	}
	return next, true, nil
}

// Latest returns the user's most recently started session of gameType,
// whatever its status, or apperr.ErrNotFound.
func (m *Manager) Latest(ctx context.Context, q *store.Queries, userID int, gameType string) (State, error) {
	rec, err := q.LatestSession(ctx, userID, gameType)
	if err != nil {
		return State{}, err
	}
	return fromRecord(*rec), nil
}

// Get returns a session by id.
func (m *Manager) Get(ctx context.Context, q *store.Queries, id string) (State, error) {
	rec, err := q.SessionByID(ctx, id)
	if err != nil {
		return State{}, err
	}
	return fromRecord(*rec), nil
}

func save(ctx context.Context, q *store.Queries, prev, next State) error {
	rec, err := q.SessionByID(ctx, prev.ID)
	if err != nil {
		return err
	}
	out := toRecord(next)
	out.ID = rec.ID
	if err := q.SaveSession(ctx, string(prev.Status), prev.Index, out); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func toRecord(s State) store.SessionRecord {
	return store.SessionRecord{
		SessionID:    s.ID,
		UserID:       s.UserID,
		GameType:     s.GameType,
		Status:       string(s.Status),
		QuestionIDs:  s.QuestionIDs,
		Index:        s.Index,
		Score:        s.Score,
		CorrectCount: s.CorrectCount,
		CreatedAt:    s.StartedAt,
	}
}

func fromRecord(r store.SessionRecord) State {
	return State{
		ID:           r.SessionID,
		UserID:       r.UserID,
		GameType:     r.GameType,
		Status:       Status(r.Status),
		QuestionIDs:  r.QuestionIDs,
		Index:        r.Index,
		Score:        r.Score,
		CorrectCount: r.CorrectCount,
		StartedAt:    r.CreatedAt,
	}
}
