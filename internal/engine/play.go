package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/badges"
	"github.com/lingoquest/lingoquest/internal/games"
	"github.com/lingoquest/lingoquest/internal/progression"
	"github.com/lingoquest/lingoquest/internal/session"
	"github.com/lingoquest/lingoquest/internal/store"
)

// MaxBatch caps the number of questions served at once.
const MaxBatch = 20

// QuestionBatch is a set of questions served to a learner.
type QuestionBatch struct {
	// SessionID is empty for timed rounds, which are submitted whole.
	SessionID string       `json:"sessionId,omitempty"`
	GameType  string       `json:"gameType"`
	Questions []games.View `json:"questions"`
	Widened   bool         `json:"widened,omitempty"`
}

// GetQuestionBatch draws up to count questions of gameType at the user's
// level and starts a session over them, abandoning any unfinished session of
// the same game.
func (e *Engine) GetQuestionBatch(ctx context.Context, userID int, gameType string, count int) (QuestionBatch, error) {
	spec, err := games.Lookup(gameType)
	if err != nil {
		return QuestionBatch{}, err
	}
	if count <= 0 || count > MaxBatch {
		return QuestionBatch{}, apperr.Invalid("count", "must be between 1 and %d, got %d", MaxBatch, count)
	}
	u, err := e.user(ctx, userID)
	if err != nil {
		return QuestionBatch{}, err
	}

	batch, err := e.fetcher.Fetch(ctx, e.st.Queries(), u.ID, u.Level, gameType, count)
	if err != nil {
		return QuestionBatch{}, err
	}
	out := QuestionBatch{
		GameType:  gameType,
		Questions: make([]games.View, len(batch.Questions)),
		Widened:   batch.Widened,
	}
	ids := make([]int, len(batch.Questions))
	for i, q := range batch.Questions {
		out.Questions[i] = q.View()
		ids[i] = q.ID
	}
	if len(ids) == 0 || spec.Kind == games.KindTimedSet {
		return out, nil
	}

	err = e.st.InTx(ctx, func(q *store.Queries) error {
		s, err := e.sessions.Begin(ctx, q, u.ID, gameType, ids)
		if err != nil {
			return err
		}
		out.SessionID = s.ID
		return nil
	})
	if err != nil {
		return QuestionBatch{}, fmt.Errorf("begin %s session: %w", gameType, err)
	}
	return out, nil
}

// AnswerRequest is one submitted answer.
type AnswerRequest struct {
	UserID     int
	GameType   string
	QuestionID int
	Answer     string
	// ElapsedSecs is the time taken, or negative when unknown.
	ElapsedSecs float64
}

// SessionView is the learner-facing state of a session.
type SessionView struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Answered  int    `json:"answered"`
	Total     int    `json:"total"`
	Score     int    `json:"score"`
	Correct   int    `json:"correct"`
	Completed bool   `json:"completed"`
	Perfect   bool   `json:"perfect,omitempty"`
}

func viewOf(s session.State) *SessionView {
	return &SessionView{
		ID:        s.ID,
		Status:    string(s.Status),
		Answered:  s.Index,
		Total:     len(s.QuestionIDs),
		Score:     s.Score,
		Correct:   s.CorrectCount,
		Completed: s.Status == session.StatusCompleted,
		Perfect:   s.Perfect(),
	}
}

// AnswerResult is the outcome of SubmitAnswer.
type AnswerResult struct {
	Correct       bool           `json:"correct"`
	PointsAwarded int            `json:"pointsAwarded"`
	SpeedBonus    int            `json:"speedBonus,omitempty"`
	Feedback      string         `json:"feedback,omitempty"`
	NewTotal      int            `json:"newTotal"`
	Level         int            `json:"level"`
	LeveledUp     bool           `json:"leveledUp"`
	Streak        int            `json:"streak"`
	NewBadges     []badges.Grant `json:"newBadges"`
	Session       *SessionView   `json:"session,omitempty"`
	// Duplicate is set when the same answer was already recorded within the
	// dedup window. Nothing was awarded.
	Duplicate bool `json:"duplicate,omitempty"`
	Judged    bool `json:"judged,omitempty"`
	Fallback  bool `json:"fallback,omitempty"`
}

// loadQuestion fetches a question and checks it belongs to gameType.
func loadQuestion(ctx context.Context, q *store.Queries, id int, gameType string) (games.Question, error) {
	rec, err := q.QuestionByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return games.Question{}, &apperr.ValidationError{Field: "questionId", Reason: fmt.Sprintf("question %d does not exist", id), Err: err}
	}
	if err != nil {
		return games.Question{}, err
	}
	if rec.GameType != gameType {
		return games.Question{}, apperr.Invalid("questionId", "question %d belongs to %s, not %s", id, rec.GameType, gameType)
	}
	return games.FromRecord(*rec), nil
}

// SubmitAnswer scores one answer and applies its effects: answer history,
// points, session progress, streak and badges. Every check runs before the
// first write, so a rejected answer leaves no trace. The history row, points
// and session move commit together.
func (e *Engine) SubmitAnswer(ctx context.Context, req AnswerRequest) (AnswerResult, error) {
	spec, err := games.Lookup(req.GameType)
	if err != nil {
		return AnswerResult{}, err
	}
	if spec.Kind == games.KindTimedSet {
		return AnswerResult{}, apperr.Invalid("gameType", "%s is submitted as a timed round", spec.Type)
	}
	u, err := e.user(ctx, req.UserID)
	if err != nil {
		return AnswerResult{}, err
	}
	question, err := loadQuestion(ctx, e.st.Queries(), req.QuestionID, req.GameType)
	if err != nil {
		return AnswerResult{}, err
	}

	// Scoring may call the coherence judge, so it runs outside the
	// transaction.
	scored, err := e.eval.Score(ctx, question, req.Answer, req.ElapsedSecs)
	if err != nil {
		return AnswerResult{}, err
	}

	out := AnswerResult{
		Correct:       scored.Correct,
		PointsAwarded: scored.Points,
		SpeedBonus:    scored.SpeedBonus,
		Feedback:      scored.Feedback,
		Judged:        scored.Judged,
		Fallback:      scored.Fallback,
	}
	log := e.log.With("user_id", u.ID, "game_type", req.GameType, "question_id", req.QuestionID)

	at := e.now()
	err = e.st.InTx(ctx, func(q *store.Queries) error {
		window, err := e.dedupWindow(ctx, q, u.ID, req.GameType, at)
		if err != nil {
			return err
		}
		err = q.RecordAnswer(ctx, store.HistoryData{
			UserID:     u.ID,
			QuestionID: question.ID,
			GameType:   req.GameType,
			Correct:    scored.Correct,
			AnsweredAt: at,
		}, window(question.ID))
		if err != nil {
			return err
		}
		if err := q.IncrementActivity(ctx, u.ID, badges.ActivityPracticeGames, 1); err != nil {
			return err
		}
		if scored.Points > 0 {
			if _, err := e.ledger.ApplyTx(ctx, q, u.ID, scored.Points, progression.SourceAnswer, req.GameType); err != nil {
				return err
			}
		}

		s, advanced, err := e.sessions.Advance(ctx, q, u.ID, req.GameType, question.ID, scored.Correct, scored.Points)
		switch {
		case errors.Is(err, apperr.ErrConflict):
			log.Warn("session moved concurrently")
		case err != nil:
			return err
		case advanced:
			out.Session = viewOf(s)
		}
		return nil
	})
	if errors.Is(err, apperr.ErrConflict) {
		log.Info("duplicate answer ignored")
		out.PointsAwarded, out.SpeedBonus, out.Duplicate = 0, 0, true
	} else if err != nil {
		return AnswerResult{}, fmt.Errorf("submit answer: %w", err)
	}

	if !out.Duplicate {
		streak, granted := e.afterActivity(ctx, u.ID, "answer")
		out.Streak = streak.Streak
		out.NewBadges = granted
	}
	return e.finish(ctx, u, out)
}

// dedupWindow returns the duplicate window for each question answered at at.
// A question of the latest gameType batch gets a window reaching back to when
// the batch was served, so a late redelivery of its answer is still caught.
func (e *Engine) dedupWindow(ctx context.Context, q *store.Queries, userID int, gameType string, at time.Time) (func(questionID int) time.Duration, error) {
	base := e.cfg.AnswerDedupWindow
	s, err := e.sessions.Latest(ctx, q, userID, gameType)
	if errors.Is(err, apperr.ErrNotFound) {
		return func(int) time.Duration { return base }, nil
	}
	if err != nil {
		return nil, err
	}
	return func(questionID int) time.Duration {
		if !s.Serves(questionID) || s.StartedAt.IsZero() {
			return base
		}
		return max(base, at.Sub(s.StartedAt))
	}, nil
}

// finish fills the user's post-request totals.
func (e *Engine) finish(ctx context.Context, before *store.UserRecord, out AnswerResult) (AnswerResult, error) {
	after, err := e.user(ctx, before.ID)
	if err != nil {
		return AnswerResult{}, err
	}
	out.NewTotal = after.TotalPoints
	out.Level = after.Level
	out.LeveledUp = after.Level > before.Level
	if out.Streak == 0 {
		out.Streak = after.Streak
	}
	if out.NewBadges == nil {
		out.NewBadges = []badges.Grant{}
	}
	return out, nil
}

// RoundRequest is a completed timed round.
type RoundRequest struct {
	UserID      int
	GameType    string
	QuestionIDs []int
	Answers     []string
	UsedSecs    float64
}

// RoundResult is the outcome of SubmitTimedRound.
type RoundResult struct {
	AnswerResult
	Results      []bool `json:"results"`
	CorrectCount int    `json:"correctCount"`
	BasePoints   int    `json:"basePoints"`
	LimitSecs    int    `json:"limitSecs"`
	Perfect      bool   `json:"perfect"`
}

// SubmitTimedRound scores a whole timed round. Each question is recorded in
// answer history and the round pays base points per correct answer plus a
// bonus for finishing early.
func (e *Engine) SubmitTimedRound(ctx context.Context, req RoundRequest) (RoundResult, error) {
	spec, err := games.Lookup(req.GameType)
	if err != nil {
		return RoundResult{}, err
	}
	if spec.Kind != games.KindTimedSet {
		return RoundResult{}, apperr.Invalid("gameType", "%s is not played in timed rounds", spec.Type)
	}
	if len(req.QuestionIDs) == 0 || len(req.QuestionIDs) > MaxBatch {
		return RoundResult{}, apperr.Invalid("questionIds", "a round needs 1 to %d questions", MaxBatch)
	}
	if req.UsedSecs < 0 {
		return RoundResult{}, apperr.Invalid("usedSecs", "must not be negative")
	}
	u, err := e.user(ctx, req.UserID)
	if err != nil {
		return RoundResult{}, err
	}

	seen := make(map[int]bool, len(req.QuestionIDs))
	questions := make([]games.Question, 0, len(req.QuestionIDs))
	for _, id := range req.QuestionIDs {
		if seen[id] {
			return RoundResult{}, apperr.Invalid("questionIds", "question %d appears twice", id)
		}
		seen[id] = true
		q, err := loadQuestion(ctx, e.st.Queries(), id, req.GameType)
		if err != nil {
			return RoundResult{}, err
		}
		questions = append(questions, q)
	}

	set, err := e.eval.ScoreSet(ctx, questions, req.Answers, req.UsedSecs)
	if err != nil {
		return RoundResult{}, err
	}
	out := RoundResult{
		AnswerResult: AnswerResult{
			Correct:       set.CorrectCount == len(questions),
			PointsAwarded: set.Points,
			SpeedBonus:    set.SpeedBonus,
		},
		Results:      make([]bool, len(set.Results)),
		CorrectCount: set.CorrectCount,
		BasePoints:   set.BasePoints,
		LimitSecs:    set.LimitSecs,
		Perfect:      set.CorrectCount == len(questions),
	}
	for i, r := range set.Results {
		out.Results[i] = r.Correct
	}

	at := e.now()
	err = e.st.InTx(ctx, func(q *store.Queries) error {
		window, err := e.dedupWindow(ctx, q, u.ID, req.GameType, at)
		if err != nil {
			return err
		}
		for i, question := range questions {
			err := q.RecordAnswer(ctx, store.HistoryData{
				UserID:     u.ID,
				QuestionID: question.ID,
				GameType:   req.GameType,
				Correct:    set.Results[i].Correct,
				AnsweredAt: at,
			}, window(question.ID))
			if err != nil {
				return err
			}
		}
		if err := q.IncrementActivity(ctx, u.ID, badges.ActivityPracticeGames, 1); err != nil {
			return err
		}
		if out.Perfect {
			if err := q.IncrementActivity(ctx, u.ID, badges.ActivityPerfectRounds, 1); err != nil {
				return err
			}
		}
		if set.Points > 0 {
			if _, err := e.ledger.ApplyTx(ctx, q, u.ID, set.Points, progression.SourceRound, req.GameType); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, apperr.ErrConflict) {
		e.log.Info("duplicate round ignored", "user_id", u.ID, "game_type", req.GameType)
		out.PointsAwarded, out.SpeedBonus, out.Duplicate = 0, 0, true
	} else if err != nil {
		return RoundResult{}, fmt.Errorf("submit round: %w", err)
	}

	if !out.Duplicate {
		streak, granted := e.afterActivity(ctx, u.ID, "round")
		out.Streak = streak.Streak
		out.NewBadges = granted
	}
	out.AnswerResult, err = e.finish(ctx, u, out.AnswerResult)
	if err != nil {
		return RoundResult{}, err
	}
	return out, nil
}

// ActiveSession returns the user's unfinished session of gameType.
func (e *Engine) ActiveSession(ctx context.Context, userID int, gameType string) (*SessionView, error) {
	if _, err := games.Lookup(gameType); err != nil {
		return nil, err
	}
	s, err := e.sessions.Active(ctx, e.st.Queries(), userID, gameType)
	if err != nil {
		return nil, err
	}
	return viewOf(s), nil
}
