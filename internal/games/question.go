package games

import (
	"github.com/lingoquest/lingoquest/internal/store"
)

// Question is one practice item of any game type.
type Question struct {
	ID              int
	Code            string
	GameType        GameType
	Difficulty      string
	Prompt          string
	Choices         []string
	Answer          string   // choice letter, choice text, or reference text
	AcceptedAnswers []string // alternative reference texts
	Keywords        []string // expected words for open-ended modes
	Context         string   // reading passage or story so far
	TimeLimitSecs   int
}

// FromRecord converts a stored question.
func FromRecord(r store.QuestionRecord) Question {
	return Question{
		ID:              r.ID,
		Code:            r.Code,
		GameType:        GameType(r.GameType),
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

// References returns the primary answer followed by the accepted
// alternatives, skipping blanks.
func (q Question) References() []string {
	refs := make([]string, 0, 1+len(q.AcceptedAnswers))
	if q.Answer != "" {
		refs = append(refs, q.Answer)
	}
	for _, a := range q.AcceptedAnswers {
		if a != "" {
			refs = append(refs, a)
		}
	}
	return refs
}

// TimeLimit returns the question's limit in seconds, or the game default.
func (q Question) TimeLimit(spec Spec) int {
	if q.TimeLimitSecs > 0 {
		return q.TimeLimitSecs
	}
	return spec.DefaultTimeLimit
}

// View is a question as served to the learner, without answers.
type View struct {
	ID            int      `json:"id"`
	GameType      string   `json:"gameType"`
	Difficulty    string   `json:"difficulty"`
	Prompt        string   `json:"prompt"`
	Choices       []string `json:"choices,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	Context       string   `json:"context,omitempty"`
	TimeLimitSecs int      `json:"timeLimitSecs,omitempty"`
}

// View strips the answer fields. Open-ended modes keep their keywords
// because the learner is asked to use them.
func (q Question) View() View {
	v := View{
		ID:            q.ID,
		GameType:      string(q.GameType),
		Difficulty:    q.Difficulty,
		Prompt:        q.Prompt,
		Choices:       q.Choices,
		Context:       q.Context,
		TimeLimitSecs: q.TimeLimitSecs,
	}
	if spec, ok := registry[q.GameType]; ok && spec.Kind == KindOpenEnded {
		v.Keywords = q.Keywords
	}
	return v
}
