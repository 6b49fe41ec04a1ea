package store

import (
	"context"
	"fmt"

	"github.com/lingoquest/lingoquest/ent"
	"github.com/lingoquest/lingoquest/ent/gamesession"
	"github.com/lingoquest/lingoquest/internal/apperr"
)

// CreateSession persists a new session row. A zero CreatedAt is stamped with
// the current time.
func (q *Queries) CreateSession(ctx context.Context, rec SessionRecord) (*SessionRecord, error) {
	c := q.client.GameSession.Create()
	if !rec.CreatedAt.IsZero() {
		c.SetCreatedAt(rec.CreatedAt.UTC())
	}
	s, err := c.
		SetSessionID(rec.SessionID).
		SetUserID(rec.UserID).
		SetGameType(rec.GameType).
		SetStatus(rec.Status).
		SetQuestionList(rec.QuestionIDs).
		SetQuestionIndex(rec.Index).
		SetScore(rec.Score).
		SetCorrectCount(rec.CorrectCount).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", mapErr(err))
	}
	out := sessionToRecord(s)
	return &out, nil
}

// SaveSession writes back the mutable state of a session, guarded by the
// status and index it was read with. A concurrent writer that already moved
// the session on makes this fail with apperr.ErrConflict.
func (q *Queries) SaveSession(ctx context.Context, prevStatus string, prevIndex int, rec SessionRecord) error {
	n, err := q.client.GameSession.Update().
		Where(
			gamesession.ID(rec.ID),
			gamesession.Status(prevStatus),
			gamesession.QuestionIndex(prevIndex),
		).
		SetStatus(rec.Status).
		SetQuestionIndex(rec.Index).
		SetScore(rec.Score).
		SetCorrectCount(rec.CorrectCount).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.SessionID, err)
	}
	if n == 0 {
		return fmt.Errorf("save session %s: %w", rec.SessionID, apperr.ErrConflict)
	}
	return nil
}

// ActiveSession returns the user's session of gameType in status, newest
// first, or apperr.ErrNotFound.
func (q *Queries) ActiveSession(ctx context.Context, userID int, gameType, status string) (*SessionRecord, error) {
	s, err := q.client.GameSession.Query().
		Where(
			gamesession.UserID(userID),
			gamesession.GameType(gameType),
			gamesession.Status(status),
		).
		Order(ent.Desc(gamesession.FieldID)).
		First(ctx)
	if err != nil {
		return nil, fmt.Errorf("find %s session: %w", gameType, mapErr(err))
	}
	rec := sessionToRecord(s)
	return &rec, nil
}

// LatestSession returns the user's most recently started session of gameType
// in any status, or apperr.ErrNotFound.
func (q *Queries) LatestSession(ctx context.Context, userID int, gameType string) (*SessionRecord, error) {
	s, err := q.client.GameSession.Query().
		Where(gamesession.UserID(userID), gamesession.GameType(gameType)).
		Order(ent.Desc(gamesession.FieldID)).
		First(ctx)
	if err != nil {
		return nil, fmt.Errorf("find latest %s session: %w", gameType, mapErr(err))
	}
	rec := sessionToRecord(s)
	return &rec, nil
}

// SessionByID returns a session by its public id.
func (q *Queries) SessionByID(ctx context.Context, sessionID string) (*SessionRecord, error) {
	s, err := q.client.GameSession.Query().
		Where(gamesession.SessionID(sessionID)).
		Only(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, mapErr(err))
	}
	rec := sessionToRecord(s)
	return &rec, nil
}

// CountSessions returns how many of the user's sessions are in status. When
// perfectOnly is set only sessions where every question was correct count.
func (q *Queries) CountSessions(ctx context.Context, userID int, status string, perfectOnly bool) (int, error) {
	rows, err := q.client.GameSession.Query().
		Where(gamesession.UserID(userID), gamesession.Status(status)).
		All(ctx)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	if !perfectOnly {
		return len(rows), nil
	}
	n := 0
	for _, r := range rows {
		if len(r.QuestionList) > 0 && r.CorrectCount == len(r.QuestionList) {
			n++
		}
	}
	return n, nil
}

func sessionToRecord(s *ent.GameSession) SessionRecord {
	return SessionRecord{
		ID:           s.ID,
		SessionID:    s.SessionID,
		UserID:       s.UserID,
		GameType:     s.GameType,
		Status:       s.Status,
		QuestionIDs:  s.QuestionList,
		Index:        s.QuestionIndex,
		Score:        s.Score,
		CorrectCount: s.CorrectCount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
