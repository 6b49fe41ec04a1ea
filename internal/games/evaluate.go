package games

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/judge"
	"github.com/lingoquest/lingoquest/internal/logger"
	"github.com/lingoquest/lingoquest/internal/textmatch"
)

// Judge decides whether an open-ended answer is coherent.
type Judge interface {
	Evaluate(ctx context.Context, req judge.Request) (judge.Verdict, error)
}

// Result is the outcome of scoring one answer.
type Result struct {
	Correct    bool
	Points     int
	SpeedBonus int
	Feedback   string

	// Coverage is the fraction of keywords found, for open-ended modes.
	Coverage float64
	// Judged is set when the coherence judge returned a verdict.
	Judged bool
	// Fallback is set when the judge was unavailable and the keyword
	// coverage threshold decided instead.
	Fallback bool
}

// Evaluator scores answers for every registered game type.
type Evaluator struct {
	judge Judge
	log   *logger.Logger
}

// NewEvaluator creates an Evaluator. j may be nil, in which case open-ended
// modes always use the deterministic fallback.
func NewEvaluator(j Judge, log *logger.Logger) *Evaluator {
	return &Evaluator{judge: j, log: log}
}

// Score evaluates answer against q. elapsedSecs is the time the learner took,
// or a negative value when unknown. An empty answer is incorrect, never an
// error; only a mismatched game type is rejected.
func (e *Evaluator) Score(ctx context.Context, q Question, answer string, elapsedSecs float64) (Result, error) {
	spec, err := Lookup(string(q.GameType))
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(answer) == "" {
		return Result{Feedback: "No answer received."}, nil
	}

	switch spec.Kind {
	case KindChoice, KindTimedSet:
		return scoreChoice(spec, q, answer, elapsedSecs), nil
	case KindText:
		return scoreText(spec, q, answer), nil
	case KindOpenEnded:
		return e.scoreOpenEnded(ctx, spec, q, answer), nil
	}
	return Result{}, fmt.Errorf("game %s: unhandled kind %d", spec.Type, spec.Kind)
}

func scoreChoice(spec Spec, q Question, answer string, elapsedSecs float64) Result {
	var correct bool
	if len(q.Choices) > 0 {
		want, ok := CanonicalChoice(q.Answer, q.Choices)
		got, gotOK := CanonicalChoice(answer, q.Choices)
		correct = ok && gotOK && got == want
	} else {
		correct = textmatch.MatchAny(answer, q.References(), spec.Match)
	}
	if !correct {
		return Result{Feedback: feedbackWrong(q)}
	}

	res := Result{Correct: true, Points: spec.Points}
	if spec.MaxBonus > 0 && elapsedSecs >= 0 {
		res.SpeedBonus = SpeedBonus(spec.MaxBonus, q.TimeLimit(spec), elapsedSecs)
		res.Points += res.SpeedBonus
	}
	return res
}

func scoreText(spec Spec, q Question, answer string) Result {
	if textmatch.MatchAny(answer, q.References(), spec.Match) {
		return Result{Correct: true, Points: spec.Points}
	}
	return Result{Feedback: feedbackWrong(q)}
}

func (e *Evaluator) scoreOpenEnded(ctx context.Context, spec Spec, q Question, answer string) Result {
	text := strings.TrimSpace(answer)
	coverage := KeywordCoverage(text, q.Keywords)

	if n := utf8.RuneCountInString(text); n < spec.MinChars {
		return Result{
			Coverage: coverage,
			Feedback: fmt.Sprintf("Try writing a little more: at least %d characters.", spec.MinChars),
		}
	}

	res := Result{Coverage: coverage}
	if e.judge != nil {
		v, err := e.judge.Evaluate(ctx, judge.Request{
			GameType:  string(spec.Type),
			Task:      q.Prompt,
			Context:   q.Context,
			Candidate: text,
			Keywords:  q.Keywords,
		})
		if err == nil {
			res.Judged = true
			res.Correct = v.OK
			res.Feedback = v.Feedback
			if res.Correct {
				res.Points = spec.Points
			}
			return res
		}
		e.log.Warn("coherence judge unavailable, using keyword coverage",
			"game_type", spec.Type, "question_id", q.ID, "error", err)
	}

	res.Fallback = true
	res.Correct = coverage >= spec.Coverage
	if res.Correct {
		res.Points = spec.Points
		res.Feedback = "Good job using the key words!"
	} else {
		res.Feedback = fmt.Sprintf("Try to use more of the key words: %s.", strings.Join(q.Keywords, ", "))
	}
	return res
}

// KeywordCoverage returns the fraction of keywords contained in text. With
// no keywords the coverage is 1.
func KeywordCoverage(text string, keywords []string) float64 {
	total, found := 0, 0
	for _, k := range keywords {
		if strings.TrimSpace(k) == "" {
			continue
		}
		total++
		if textmatch.Contains(text, k) {
			found++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(found) / float64(total)
}

// SpeedBonus is the linear time-decay bonus for a correct timed answer:
// round(maxBonus * (limit - elapsed) / limit), never negative.
func SpeedBonus(maxBonus, limitSecs int, elapsedSecs float64) int {
	if limitSecs <= 0 || maxBonus <= 0 || elapsedSecs >= float64(limitSecs) {
		return 0
	}
	if elapsedSecs < 0 {
		elapsedSecs = 0
	}
	return int(math.Round(float64(maxBonus) * (float64(limitSecs) - elapsedSecs) / float64(limitSecs)))
}

// SetResult is the outcome of a timed round.
type SetResult struct {
	Results      []Result
	CorrectCount int
	BasePoints   int
	SpeedBonus   int
	Points       int
	LimitSecs    int
}

// ScoreSet scores a timed round: base*correct plus up to 50% of that for
// finishing under the round's limit, which is the sum of the questions'
// limits. answers[i] answers questions[i]; missing answers are incorrect.
func (e *Evaluator) ScoreSet(ctx context.Context, questions []Question, answers []string, usedSecs float64) (SetResult, error) {
	if len(questions) == 0 {
		return SetResult{}, apperr.Invalid("questions", "a round needs at least one question")
	}
	spec, err := Lookup(string(questions[0].GameType))
	if err != nil {
		return SetResult{}, err
	}
	if spec.Kind != KindTimedSet {
		return SetResult{}, apperr.Invalid("gameType", "%s is not played in timed rounds", spec.Type)
	}

	var out SetResult
	for i, q := range questions {
		if q.GameType != spec.Type {
			return SetResult{}, apperr.Invalid("questions", "question %d is %s, not %s", q.ID, q.GameType, spec.Type)
		}
		answer := ""
		if i < len(answers) {
			answer = answers[i]
		}
		r, err := e.Score(ctx, q, answer, -1)
		if err != nil {
			return SetResult{}, err
		}
		out.Results = append(out.Results, r)
		if r.Correct {
			out.CorrectCount++
		}
		out.LimitSecs += q.TimeLimit(spec)
	}

	out.BasePoints = spec.Points * out.CorrectCount
	out.SpeedBonus = SetSpeedBonus(out.BasePoints, out.LimitSecs, usedSecs)
	out.Points = out.BasePoints + out.SpeedBonus
	return out, nil
}

// SetSpeedBonus returns round(base * max(0, (limit-used)/limit) * 0.5).
func SetSpeedBonus(base, limitSecs int, usedSecs float64) int {
	if base <= 0 || limitSecs <= 0 {
		return 0
	}
	if usedSecs < 0 {
		usedSecs = 0
	}
	frac := math.Max(0, (float64(limitSecs)-usedSecs)/float64(limitSecs))
	return int(math.Round(float64(base) * frac * 0.5))
}

func feedbackWrong(q Question) string {
	if len(q.Choices) > 0 {
		if letter, ok := CanonicalChoice(q.Answer, q.Choices); ok {
			return "The correct answer is " + letter + "."
		}
	}
	if q.Answer != "" {
		return "The correct answer is: " + q.Answer
	}
	return "Not quite."
}
