package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest/ent"
	"github.com/lingoquest/lingoquest/ent/question"
	"github.com/lingoquest/lingoquest/ent/questionhistory"
)

// UpsertQuestion inserts or replaces the question identified by rec.Code and
// returns its id.
func (q *Queries) UpsertQuestion(ctx context.Context, rec QuestionRecord) (int, error) {
	id, err := q.client.Question.Create().
		SetCode(rec.Code).
		SetGameType(rec.GameType).
		SetDifficulty(rec.Difficulty).
		SetPrompt(rec.Prompt).
		SetChoices(rec.Choices).
		SetAnswer(rec.Answer).
		SetAcceptedAnswers(rec.AcceptedAnswers).
		SetKeywords(rec.Keywords).
		SetContext(rec.Context).
		SetTimeLimitSecs(rec.TimeLimitSecs).
		OnConflictColumns(question.FieldCode).
		UpdateNewValues().
		ID(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsert question %q: %w", rec.Code, err)
	}
	return id, nil
}

// QuestionsByGameType returns the questions of gameType. When difficulties is
// non-empty only those tiers are returned.
func (q *Queries) QuestionsByGameType(ctx context.Context, gameType string, difficulties []string) ([]QuestionRecord, error) {
	query := q.client.Question.Query().
		Where(question.GameType(gameType)).
		Order(ent.Asc(question.FieldID))
	if len(difficulties) > 0 {
		query = query.Where(question.DifficultyIn(difficulties...))
	}

	rows, err := query.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query %s questions: %w", gameType, err)
	}
	records := make([]QuestionRecord, len(rows))
	for i, r := range rows {
		records[i] = questionToRecord(r)
	}
	return records, nil
}

// QuestionByID returns one question or apperr.ErrNotFound.
func (q *Queries) QuestionByID(ctx context.Context, id int) (*QuestionRecord, error) {
	r, err := q.client.Question.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get question %d: %w", id, mapErr(err))
	}
	rec := questionToRecord(r)
	return &rec, nil
}

// CountQuestions returns the number of seeded questions per game type.
func (q *Queries) CountQuestions(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		GameType string `json:"game_type"`
		Count    int    `json:"count"`
	}
	err := q.client.Question.Query().
		GroupBy(question.FieldGameType).
		Aggregate(ent.Count()).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.GameType] = r.Count
	}
	return counts, nil
}

// RecordAnswer upserts the (user, question, game type) history row.
//
// A repeat answer is accepted only when the previous one is older than
// dedupWindow; a second delivery of the same answer inside the window fails
// with apperr.ErrConflict so the caller can abort its transaction and report
// the action as already applied. The first answer inserts a new row, and a
// racing insert surfaces as a unique-constraint conflict.
func (q *Queries) RecordAnswer(ctx context.Context, h HistoryData, dedupWindow time.Duration) error {
	at := h.AnsweredAt.UTC()
	n, err := q.client.QuestionHistory.Update().
		Where(
			questionhistory.UserID(h.UserID),
			questionhistory.QuestionID(h.QuestionID),
			questionhistory.GameType(h.GameType),
			questionhistory.AnsweredAtLT(at.Add(-dedupWindow)),
		).
		SetCorrect(h.Correct).
		SetAnsweredAt(at).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("update history: %w", err)
	}
	if n > 0 {
		return nil
	}

	err = q.client.QuestionHistory.Create().
		SetUserID(h.UserID).
		SetQuestionID(h.QuestionID).
		SetGameType(h.GameType).
		SetCorrect(h.Correct).
		SetAnsweredAt(at).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert history for question %d: %w", h.QuestionID, mapErr(err))
	}
	return nil
}

// AnsweredSince returns the ids of questions of gameType the user answered at
// or after since.
func (q *Queries) AnsweredSince(ctx context.Context, userID int, gameType string, since time.Time) ([]int, error) {
	ids, err := q.client.QuestionHistory.Query().
		Where(
			questionhistory.UserID(userID),
			questionhistory.GameType(gameType),
			questionhistory.AnsweredAtGTE(since.UTC()),
		).
		Select(questionhistory.FieldQuestionID).
		Ints(ctx)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return ids, nil
}

// CountAnswers returns the total number of history rows for a user.
func (q *Queries) CountAnswers(ctx context.Context, userID int) (int, error) {
	n, err := q.client.QuestionHistory.Query().
		Where(questionhistory.UserID(userID)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

func questionToRecord(r *ent.Question) QuestionRecord {
	return QuestionRecord{
		ID:              r.ID,
		Code:            r.Code,
		GameType:        r.GameType,
		Difficulty:      r.Difficulty,
		Prompt:          r.Prompt,
		Choices:         r.Choices,
		Answer:          r.Answer,
		AcceptedAnswers: r.AcceptedAnswers,
		Keywords:        r.Keywords,
		Context:         r.Context,
		TimeLimitSecs:   r.TimeLimitSecs,
	}
}
