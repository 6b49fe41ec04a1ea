// Package games holds the game-mode registry, the question model and the
// per-mode answer evaluators.
package games

import (
	"fmt"
	"sort"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/textmatch"
)

// GameType identifies a practice game mode.
type GameType string

const (
	MultipleChoice       GameType = "multiple_choice"
	VocabMatch           GameType = "vocab_match"
	VocabMeaning         GameType = "vocab_meaning"
	VocabOpposite        GameType = "vocab_opposite"
	VocabSynonym         GameType = "vocab_synonym"
	FillBlank            GameType = "fill_blank"
	FixSentence          GameType = "fix_sentence"
	ArrangeSentence      GameType = "arrange_sentence"
	SpeedGrammar         GameType = "speed_grammar"
	ReadAnswer           GameType = "read_answer"
	Summarize            GameType = "summarize"
	ContinueStory        GameType = "continue_story"
	SentenceConstruction GameType = "sentence_construction"
	RaceClock            GameType = "race_clock"
)

// Kind groups game types that share an evaluation strategy.
type Kind int

const (
	// KindChoice compares a canonical A-D token, or the typed text of a
	// question without choices.
	KindChoice Kind = iota
	// KindText compares free text with the string matcher.
	KindText
	// KindOpenEnded applies a local structural gate and then a coherence
	// judgment with a deterministic fallback.
	KindOpenEnded
	// KindTimedSet scores a whole round of questions against one time limit.
	KindTimedSet
)

// Spec describes how a game type is scored.
type Spec struct {
	Type   GameType
	Kind   Kind
	Points int // per correct answer, or per correct answer in a timed set

	// Match is the text rule for KindText, and for KindChoice questions
	// that have no choices.
	Match textmatch.Mode

	// MaxBonus is the largest speed bonus for a single timed answer.
	MaxBonus int
	// DefaultTimeLimit applies when a question carries none, in seconds.
	DefaultTimeLimit int

	// MinChars and Coverage gate open-ended answers.
	MinChars int
	Coverage float64
}

var registry = map[GameType]Spec{
	MultipleChoice: {Type: MultipleChoice, Kind: KindChoice, Points: 10, Match: textmatch.Exact},
	VocabMatch:     {Type: VocabMatch, Kind: KindChoice, Points: 10, Match: textmatch.Exact},
	VocabOpposite:  {Type: VocabOpposite, Kind: KindChoice, Points: 10, Match: textmatch.Exact},
	VocabSynonym:   {Type: VocabSynonym, Kind: KindChoice, Points: 10, Match: textmatch.Exact},
	FillBlank:      {Type: FillBlank, Kind: KindChoice, Points: 10, Match: textmatch.Exact},
	ReadAnswer:     {Type: ReadAnswer, Kind: KindChoice, Points: 15, Match: textmatch.Loose},
	RaceClock: {
		Type: RaceClock, Kind: KindChoice, Points: 10, Match: textmatch.Exact,
		MaxBonus: 10, DefaultTimeLimit: 20,
	},

	VocabMeaning:    {Type: VocabMeaning, Kind: KindText, Points: 10, Match: textmatch.Loose},
	FixSentence:     {Type: FixSentence, Kind: KindText, Points: 15, Match: textmatch.High},
	ArrangeSentence: {Type: ArrangeSentence, Kind: KindText, Points: 15, Match: textmatch.Strict},

	SpeedGrammar: {
		Type: SpeedGrammar, Kind: KindTimedSet, Points: 5, Match: textmatch.Exact,
		DefaultTimeLimit: 10,
	},

	Summarize:            {Type: Summarize, Kind: KindOpenEnded, Points: 20, MinChars: 40, Coverage: 0.5},
	ContinueStory:        {Type: ContinueStory, Kind: KindOpenEnded, Points: 20, MinChars: 30, Coverage: 0.5},
	SentenceConstruction: {Type: SentenceConstruction, Kind: KindOpenEnded, Points: 15, MinChars: 8, Coverage: 1.0},
}

// Lookup returns the spec of name, or a ValidationError wrapping
// apperr.ErrUnknownGameType.
func Lookup(name string) (Spec, error) {
	spec, ok := registry[GameType(name)]
	if !ok {
		return Spec{}, &apperr.ValidationError{
			Field:  "gameType",
			Reason: fmt.Sprintf("%q is not a registered game", name),
			Err:    apperr.ErrUnknownGameType,
		}
	}
	return spec, nil
}

// All returns every registered spec ordered by name.
func All() []Spec {
	specs := make([]Spec, 0, len(registry))
	for _, s := range registry {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Type < specs[j].Type })
	return specs
}
