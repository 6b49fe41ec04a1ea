// Package session models a game session as an explicit state machine:
// NotStarted, InProgress (a served batch, the index of the current question
// and the running score), then Completed or Abandoned. States are values;
// transitions return a new state and never mutate their input, so the state
// can be persisted between chat messages and re-read on the next one.
package session

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Status is a session's position in its life cycle.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// ErrTransition is returned for a transition the current status forbids.
var ErrTransition = errors.New("invalid session transition")

// State is the persisted state of one session.
type State struct {
	ID           string `json:"id"`
	UserID       int    `json:"userId"`
	GameType     string `json:"gameType"`
	Status       Status `json:"status"`
	QuestionIDs  []int  `json:"questionIds"`
	Index        int    `json:"index"`
	Score        int    `json:"score"`
	CorrectCount int    `json:"correctCount"`

	// StartedAt is when the batch was served. Zero until persisted.
	StartedAt time.Time `json:"startedAt,omitzero"`
}

// New returns a NotStarted session.
func New(id string, userID int, gameType string) State {
	return State{ID: id, UserID: userID, GameType: gameType, Status: StatusNotStarted}
}

// Start serves questionIDs, moving NotStarted to InProgress.
func Start(s State, questionIDs []int) (State, error) {
	if s.Status != StatusNotStarted {
		return s, fmt.Errorf("start %s session: %w", s.Status, ErrTransition)
	}
	if len(questionIDs) == 0 {
		return s, fmt.Errorf("start session with no questions: %w", ErrTransition)
	}
	next := s
	next.Status = StatusInProgress
	next.QuestionIDs = slices.Clone(questionIDs)
	next.Index, next.Score, next.CorrectCount = 0, 0, 0
	return next, nil
}

// Current returns the id of the question awaiting an answer.
func (s State) Current() (int, bool) {
	if s.Status != StatusInProgress || s.Index >= len(s.QuestionIDs) {
		return 0, false
	}
	return s.QuestionIDs[s.Index], true
}

// Answer records the answer to questionID. Only the current question
// advances the session; any other id leaves it unchanged with advanced
// false. Answering the last question completes the session.
func Answer(s State, questionID int, correct bool, points int) (next State, advanced bool, err error) {
	if s.Status != StatusInProgress {
		return s, false, fmt.Errorf("answer in %s session: %w", s.Status, ErrTransition)
	}
	cur, ok := s.Current()
	if !ok || cur != questionID {
		return s, false, nil
	}
	next = s
	next.QuestionIDs = slices.Clone(s.QuestionIDs)
	next.Index++
	next.Score += points
	if correct {
		next.CorrectCount++
	}
	if next.Index == len(next.QuestionIDs) {
		next.Status = StatusCompleted
	}
	return next, true, nil
}

// Abandon ends an InProgress session early.
func Abandon(s State) (State, error) {
	if s.Status != StatusInProgress {
		return s, fmt.Errorf("abandon %s session: %w", s.Status, ErrTransition)
	}
	next := s
	next.Status = StatusAbandoned
	return next, nil
}

// Perfect reports whether the session completed with every answer correct.
func (s State) Perfect() bool {
	return s.Status == StatusCompleted && len(s.QuestionIDs) > 0 && s.CorrectCount == len(s.QuestionIDs)
}

// Remaining returns how many questions are still unanswered.
func (s State) Remaining() int {
	if s.Status != StatusInProgress {
		return 0
	}
	return len(s.QuestionIDs) - s.Index
}

// Serves reports whether questionID was part of the served batch.
func (s State) Serves(questionID int) bool {
	return slices.Contains(s.QuestionIDs, questionID)
}
